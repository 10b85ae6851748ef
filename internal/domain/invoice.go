package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type InvoiceItem struct {
	ProductItemID string  `json:"productItemId"`
	ProductName   string  `json:"productName"`
	Price         float64 `json:"price"`
	Quantity      int     `json:"quantity"`
	ProductDate   string  `json:"productDate,omitempty"`
	ProductStart  string  `json:"productStartTime,omitempty"`
}

type VendorGroup struct {
	VendorID   string        `json:"vendorId"`
	VendorName string        `json:"vendorName"`
	Subtotal   float64       `json:"subtotal"`
	Items      []InvoiceItem `json:"items"`
}

// Invoice is a payment record. Amount is in minor currency units.
type Invoice struct {
	ID                string        `json:"_id"`
	StripeCheckoutID  string        `json:"stripeCheckoutSessionId,omitempty"`
	Amount            int64         `json:"amount"`
	Currency          string        `json:"currency"`
	CustomerID        string        `json:"customerId"`
	Status            string        `json:"status"`
	VendorGroups      []VendorGroup `json:"vendorGroups"`
	InvoiceDate       time.Time     `json:"invoiceDate"`
	DescriptionOfItem string        `json:"description,omitempty"`
}

// Total converts Amount from cents to major units.
func (i Invoice) Total() decimal.Decimal {
	return decimal.New(i.Amount, -2)
}
