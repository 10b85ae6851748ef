package domain

import "time"

type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "DRAFT"
	ProductStatusPublished ProductStatus = "PUBLISHED"
	ProductStatusCancelled ProductStatus = "CANCELLED"
	ProductStatusArchived  ProductStatus = "ARCHIVED"
)

func (s ProductStatus) String() string {
	return string(s)
}

// NearbyQuery selects product items around a point for a date range.
type NearbyQuery struct {
	Center      Coordinate
	RadiusMiles float64
	StartDate   time.Time
	EndDate     time.Time
}

// ProductItem is a bookable inventory slot derived from a product template.
type ProductItem struct {
	ID                string        `json:"_id"`
	TemplateID        string        `json:"templateId"`
	VendorID          string        `json:"vendorId"`
	ProductName       string        `json:"templateName"`
	Description       string        `json:"description,omitempty"`
	ProductDate       time.Time     `json:"productDate"`
	StartTime         string        `json:"startTime"`
	Duration          int           `json:"duration"`
	Price             float64       `json:"price"`
	ItemStatus        ProductStatus `json:"itemStatus"`
	QuantityAvailable int           `json:"quantityAvailable"`
	QuantitySold      int           `json:"quantitySold"`
	Location          *GeoPoint     `json:"location,omitempty"`
	Latitude          float64       `json:"latitude"`
	Longitude         float64       `json:"longitude"`
	ImageURL          string        `json:"imageURL,omitempty"`
}

// Available returns the quantity that can still be sold.
func (p ProductItem) Available() int {
	return p.QuantityAvailable - p.QuantitySold
}

func (p ProductItem) Sellable() bool {
	return p.ItemStatus == ProductStatusPublished && p.Available() > 0
}

func (p ProductItem) Slot() Slot {
	return Slot{Date: p.ProductDate, StartTime: p.StartTime, Duration: p.Duration}
}

// Flatten copies the GeoJSON location into Latitude/Longitude.
func (p *ProductItem) Flatten() bool {
	c, ok := p.Location.Coordinate()
	if !ok {
		return false
	}
	p.Latitude = c.Latitude
	p.Longitude = c.Longitude
	return true
}

func (p ProductItem) Located() bool {
	if p.Location != nil {
		_, ok := p.Location.Coordinate()
		return ok
	}
	return p.Coordinate().Valid() && (p.Latitude != 0 || p.Longitude != 0)
}

func (p ProductItem) Coordinate() Coordinate {
	return Coordinate{Latitude: p.Latitude, Longitude: p.Longitude}
}
