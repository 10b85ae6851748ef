package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartSummary(t *testing.T) {
	cart := &Cart{
		Items: []CartItem{
			{ProductItemID: "a", Price: 10, Quantity: 2},
			{ProductItemID: "b", Price: 25, Quantity: 1},
		},
	}

	s := cart.Summary()
	assert.Equal(t, "45.00", s.Total.StringFixed(2))
	assert.Equal(t, 3, s.ItemCount)
}

func TestCartSummary_Empty(t *testing.T) {
	s := (&Cart{}).Summary()
	assert.True(t, s.Total.IsZero())
	assert.Equal(t, 0, s.ItemCount)
}

func TestCartUpsert_ReplacesQuantity(t *testing.T) {
	cart := &Cart{}
	cart.Upsert(CartItem{ProductItemID: "a", Quantity: 1})
	cart.Upsert(CartItem{ProductItemID: "a", Quantity: 4})
	cart.Upsert(CartItem{ProductItemID: "b", Quantity: 2})

	require.Len(t, cart.Items, 2)
	item, ok := cart.Item("a")
	require.True(t, ok)
	assert.Equal(t, 4, item.Quantity)
}

func TestSlotWindow(t *testing.T) {
	slot := Slot{
		Date:      time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		StartTime: "10:30",
		Duration:  90,
	}

	start, end, err := slot.Window()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC), end)
}

func TestSlotWindow_Incomplete(t *testing.T) {
	_, _, err := Slot{StartTime: "10:00", Duration: 60}.Window()
	assert.Error(t, err)

	_, _, err = Slot{Date: time.Now(), StartTime: "25:00", Duration: 60}.Window()
	assert.Error(t, err)
}

func TestCoordinateValid(t *testing.T) {
	assert.True(t, Coordinate{Latitude: 36.17, Longitude: -115.14}.Valid())
	assert.True(t, Coordinate{Latitude: -90, Longitude: 180}.Valid())
	assert.False(t, Coordinate{Latitude: 91, Longitude: 0}.Valid())
	assert.False(t, Coordinate{Latitude: 0, Longitude: -180.5}.Valid())
	assert.False(t, Coordinate{Latitude: math.NaN(), Longitude: 0}.Valid())
}

func TestVendorFlatten(t *testing.T) {
	v := Vendor{Location: &GeoPoint{Type: "Point", Coordinates: []float64{-115.14, 36.17}}}
	require.True(t, v.Flatten())
	assert.Equal(t, 36.17, v.Latitude)
	assert.Equal(t, -115.14, v.Longitude)

	missing := Vendor{}
	assert.False(t, missing.Flatten())
}

func TestProductItemSellable(t *testing.T) {
	p := ProductItem{ItemStatus: ProductStatusPublished, QuantityAvailable: 5, QuantitySold: 5}
	assert.Equal(t, 0, p.Available())
	assert.False(t, p.Sellable())

	p.QuantitySold = 3
	assert.True(t, p.Sellable())

	p.ItemStatus = ProductStatusDraft
	assert.False(t, p.Sellable())
}

func TestInvoiceTotal(t *testing.T) {
	inv := Invoice{Amount: 4599}
	assert.Equal(t, "45.99", inv.Total().StringFixed(2))
}

func TestSupportTicketAppendUpdate(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	st := SupportTicket{CreateDate: created}
	assert.Equal(t, created, st.LastActivity())

	first := SupportTicketUpdate{Timestamp: created.Add(time.Hour), UpdateText: "first"}
	second := SupportTicketUpdate{Timestamp: created.Add(2 * time.Hour), UpdateText: "second"}
	st.AppendUpdate(first)
	st.AppendUpdate(second)

	require.Len(t, st.Updates, 2)
	assert.Equal(t, "first", st.Updates[0].UpdateText)
	assert.Equal(t, second.Timestamp, st.LastActivity())
}
