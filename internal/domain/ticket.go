package domain

import "time"

type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "ACTIVE"
	TicketStatusRedeemed  TicketStatus = "REDEEMED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
	TicketStatusExpired   TicketStatus = "EXPIRED"
	TicketStatusRevoked   TicketStatus = "REVOKED"
)

// TicketStatusPriority is the display order of ticket statuses.
var TicketStatusPriority = map[TicketStatus]int{
	TicketStatusActive:    1,
	TicketStatusRedeemed:  2,
	TicketStatusCancelled: 3,
	TicketStatusExpired:   4,
	TicketStatusRevoked:   5,
}

func (s TicketStatus) String() string {
	return string(s)
}

type Ticket struct {
	ID               string       `json:"_id"`
	UserID           string       `json:"userId"`
	TransactionID    string       `json:"transactionId,omitempty"`
	VendorID         string       `json:"vendorId"`
	ProductItemID    string       `json:"productItemId"`
	ProductName      string       `json:"productName"`
	ProductDate      time.Time    `json:"productDate"`
	ProductStartTime string       `json:"productStartTime,omitempty"`
	ProductDuration  int          `json:"productDuration,omitempty"`
	Quantity         int          `json:"quantity"`
	Status           TicketStatus `json:"status"`
	RedeemedAt       *time.Time   `json:"redeemedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
}

// SortDate is the date a ticket is ordered by: the booked day when known,
// otherwise the purchase time.
func (t Ticket) SortDate() time.Time {
	if !t.ProductDate.IsZero() {
		return t.ProductDate
	}
	return t.CreatedAt
}
