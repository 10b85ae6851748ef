package api

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fjod/ixplor/internal/domain"
)

// NearbyToday lists product items around a point. The radius is sent in miles.
func (c *Client) NearbyToday(ctx context.Context, q domain.NearbyQuery) ([]domain.ProductItem, error) {
	query := url.Values{
		"lat":    {strconv.FormatFloat(q.Center.Latitude, 'f', -1, 64)},
		"lng":    {strconv.FormatFloat(q.Center.Longitude, 'f', -1, 64)},
		"radius": {strconv.FormatFloat(q.RadiusMiles, 'f', -1, 64)},
	}
	if !q.StartDate.IsZero() {
		query.Set("startDate", q.StartDate.Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		query.Set("endDate", q.EndDate.Format(time.RFC3339))
	}

	var items []domain.ProductItem
	if err := c.get(ctx, "/product-items/nearby-today", query, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) GetProductItem(ctx context.Context, id string) (*domain.ProductItem, error) {
	var item domain.ProductItem
	if err := c.get(ctx, "/product-items/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	item.Flatten()
	return &item, nil
}

func (c *Client) ListVendorProductItems(ctx context.Context, vendorID string) ([]domain.ProductItem, error) {
	var items []domain.ProductItem
	if err := c.get(ctx, "/product-items/by-vendor/"+url.PathEscape(vendorID)+"/public", nil, &items); err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Flatten()
	}
	return items, nil
}
