package domain

import "time"

type SupportTicketStatus string

const (
	SupportTicketOpened   SupportTicketStatus = "OPENED"
	SupportTicketAssigned SupportTicketStatus = "ASSIGNED"
	SupportTicketHold     SupportTicketStatus = "HOLD"
	SupportTicketResolved SupportTicketStatus = "RESOLVED"
	SupportTicketClosed   SupportTicketStatus = "CLOSED"
)

var SupportTicketStatusPriority = map[SupportTicketStatus]int{
	SupportTicketOpened:   1,
	SupportTicketAssigned: 2,
	SupportTicketHold:     3,
	SupportTicketResolved: 4,
	SupportTicketClosed:   5,
}

func (s SupportTicketStatus) String() string {
	return string(s)
}

// Valid reports whether s is one of the known statuses.
func (s SupportTicketStatus) Valid() bool {
	_, ok := SupportTicketStatusPriority[s]
	return ok
}

type SupportTicketUpdate struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      string    `json:"userId"`
	UpdateText  string    `json:"updateText"`
	Attachments []string  `json:"attachments,omitempty"`
}

type SupportTicket struct {
	ID             string                `json:"_id"`
	TicketID       string                `json:"ticketId"`
	Status         SupportTicketStatus   `json:"status"`
	CreatedBy      string                `json:"createdBy"`
	AssignedTo     string                `json:"assignedTo,omitempty"`
	TicketCategory string                `json:"ticketCategory"`
	Title          string                `json:"ticketTitle"`
	Description    string                `json:"ticketDescription"`
	TransactionID  string                `json:"transactionId,omitempty"`
	CreateDate     time.Time             `json:"createDate"`
	Updates        []SupportTicketUpdate `json:"updates"`
}

// AppendUpdate adds an update to the end of the history. Earlier entries are
// never rewritten.
func (t *SupportTicket) AppendUpdate(u SupportTicketUpdate) {
	t.Updates = append(t.Updates, u)
}

// LastActivity is the time of the latest update, or the creation date.
func (t SupportTicket) LastActivity() time.Time {
	if n := len(t.Updates); n > 0 {
		return t.Updates[n-1].Timestamp
	}
	return t.CreateDate
}
