package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductItemID    string    `json:"productItemId"`
	ProductName      string    `json:"productName,omitempty"`
	ProductDate      time.Time `json:"productDate"`
	ProductStartTime string    `json:"productStartTime"`
	ProductDuration  int       `json:"productDuration"`
	Quantity         int       `json:"quantity"`
	Price            float64   `json:"price"`
	VendorID         string    `json:"vendorId"`
}

func (c CartItem) Slot() Slot {
	return Slot{Date: c.ProductDate, StartTime: c.ProductStartTime, Duration: c.ProductDuration}
}

// LineTotal is price × quantity in major currency units.
func (c CartItem) LineTotal() decimal.Decimal {
	return decimal.NewFromFloat(c.Price).Mul(decimal.NewFromInt(int64(c.Quantity)))
}

// Cart holds at most one entry per product item.
type Cart struct {
	ID        string     `json:"_id,omitempty"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Item looks up the entry for a product item.
func (c *Cart) Item(productItemID string) (CartItem, bool) {
	for _, it := range c.Items {
		if it.ProductItemID == productItemID {
			return it, true
		}
	}
	return CartItem{}, false
}

// Upsert adds the item or, if it is already present, replaces its quantity.
func (c *Cart) Upsert(item CartItem) {
	for i := range c.Items {
		if c.Items[i].ProductItemID == item.ProductItemID {
			c.Items[i].Quantity = item.Quantity
			return
		}
	}
	c.Items = append(c.Items, item)
}

type CartSummary struct {
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"itemCount"`
}

func (c *Cart) Summary() CartSummary {
	s := CartSummary{Total: decimal.Zero}
	for _, it := range c.Items {
		s.Total = s.Total.Add(it.LineTotal())
		s.ItemCount += it.Quantity
	}
	return s
}
