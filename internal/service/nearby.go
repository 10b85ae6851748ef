package service

import (
	"context"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/geo"
	"golang.org/x/sync/errgroup"
)

type VendorFinder interface {
	GetNearbyVendors(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.Vendor, error)
}

type ActivityFinder interface {
	GetNearbyActivities(ctx context.Context, q domain.NearbyQuery) ([]domain.ProductItem, error)
}

type NearbyResult struct {
	Vendors    []domain.Vendor      `json:"vendors"`
	Activities []domain.ProductItem `json:"activities"`
}

// NearbyService answers "what is around this point today" for the map.
type NearbyService struct {
	vendors    VendorFinder
	activities ActivityFinder
	now        func() time.Time
}

func NewNearbyService(vendors VendorFinder, activities ActivityFinder) *NearbyService {
	return &NearbyService{vendors: vendors, activities: activities, now: time.Now}
}

// TodayQuery covers the current UTC calendar day around center.
func (s *NearbyService) TodayQuery(center domain.Coordinate, radiusMeters float64) domain.NearbyQuery {
	now := s.now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return domain.NearbyQuery{
		Center:      center,
		RadiusMiles: geo.MetersToMiles(radiusMeters),
		StartDate:   start,
		EndDate:     start.Add(24*time.Hour - time.Millisecond),
	}
}

// Nearby fetches vendors and today's activities concurrently.
func (s *NearbyService) Nearby(ctx context.Context, center domain.Coordinate, radiusMeters float64) (NearbyResult, error) {
	var res NearbyResult
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		vendors, err := s.vendors.GetNearbyVendors(ctx, center.Latitude, center.Longitude, radiusMeters)
		res.Vendors = vendors
		return err
	})
	g.Go(func() error {
		items, err := s.activities.GetNearbyActivities(ctx, s.TodayQuery(center, radiusMeters))
		res.Activities = items
		return err
	})

	if err := g.Wait(); err != nil {
		return NearbyResult{}, err
	}
	return res, nil
}
