package domain

import "time"

type VendorStatus string

const (
	VendorStatusSubmitted       VendorStatus = "SUBMITTED"
	VendorStatusPendingApproval VendorStatus = "PENDING_APPROVAL"
	VendorStatusActionNeeded    VendorStatus = "ACTION_NEEDED"
	VendorStatusApproved        VendorStatus = "APPROVED"
	VendorStatusRejected        VendorStatus = "REJECTED"
)

func (s VendorStatus) String() string {
	return string(s)
}

type Vendor struct {
	ID                       string       `json:"_id"`
	BusinessName             string       `json:"businessName"`
	Description              string       `json:"description,omitempty"`
	VendorTypes              []string     `json:"vendorTypes,omitempty"`
	Address                  string       `json:"address,omitempty"`
	City                     string       `json:"city,omitempty"`
	State                    string       `json:"state,omitempty"`
	PostalCode               string       `json:"postalCode,omitempty"`
	Email                    string       `json:"email,omitempty"`
	Phone                    string       `json:"phone,omitempty"`
	LogoURL                  string       `json:"logoUrl,omitempty"`
	Location                 *GeoPoint    `json:"location,omitempty"`
	Latitude                 float64      `json:"latitude"`
	Longitude                float64      `json:"longitude"`
	VendorStatus             VendorStatus `json:"vendorStatus"`
	StripeConnectID          string       `json:"stripeConnectId,omitempty"`
	StripeOnboardingComplete bool         `json:"isStripeVerified"`
	ChargesEnabled           bool         `json:"chargesEnabled"`
	PayoutsEnabled           bool         `json:"payoutsEnabled"`
	CreatedAt                time.Time    `json:"createdAt"`
	UpdatedAt                time.Time    `json:"updatedAt"`
}

// Flatten copies the GeoJSON location into Latitude/Longitude.
// It reports false when the vendor has no usable location.
func (v *Vendor) Flatten() bool {
	c, ok := v.Location.Coordinate()
	if !ok {
		return false
	}
	v.Latitude = c.Latitude
	v.Longitude = c.Longitude
	return true
}

func (v Vendor) Coordinate() Coordinate {
	return Coordinate{Latitude: v.Latitude, Longitude: v.Longitude}
}

// Located reports whether the vendor can be placed on a map. Vendors without
// a GeoJSON location only count when the API sent non-zero flat coordinates.
func (v Vendor) Located() bool {
	if v.Location != nil {
		_, ok := v.Location.Coordinate()
		return ok
	}
	return v.Coordinate().Valid() && (v.Latitude != 0 || v.Longitude != 0)
}

func (v Vendor) Approved() bool {
	return v.VendorStatus == VendorStatusApproved
}

// CanAcceptPayments is true once Stripe Connect onboarding has finished.
func (v Vendor) CanAcceptPayments() bool {
	return v.StripeConnectID != "" && v.StripeOnboardingComplete && v.ChargesEnabled
}
