package api

import (
	"context"
	"net/url"

	"github.com/fjod/ixplor/internal/domain"
)

func (c *Client) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	var vendors []domain.Vendor
	if err := c.get(ctx, "/vendors", nil, &vendors); err != nil {
		return nil, err
	}
	return vendors, nil
}

func (c *Client) GetVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	var v domain.Vendor
	if err := c.get(ctx, "/vendors/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	v.Flatten()
	return &v, nil
}

func (c *Client) ListVendorsByType(ctx context.Context, vendorType string) ([]domain.Vendor, error) {
	var vendors []domain.Vendor
	q := url.Values{"type": {vendorType}}
	if err := c.get(ctx, "/vendors/by-type", q, &vendors); err != nil {
		return nil, err
	}
	for i := range vendors {
		vendors[i].Flatten()
	}
	return vendors, nil
}
