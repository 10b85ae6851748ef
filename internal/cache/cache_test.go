package cache

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/sirupsen/logrus"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockVendorSource struct {
	m       sync.RWMutex
	vendors []domain.Vendor
	err     error
	calls   int
	gate    chan struct{}
}

func (m *mockVendorSource) ListVendors(ctx context.Context) ([]domain.Vendor, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([]domain.Vendor, len(m.vendors))
	copy(out, m.vendors)
	return out, nil
}

func (m *mockVendorSource) callCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.calls
}

type mockActivitySource struct {
	m     sync.RWMutex
	items []domain.ProductItem
	err   error
	calls int
	gate  chan struct{}
}

func (m *mockActivitySource) NearbyToday(ctx context.Context, _ domain.NearbyQuery) ([]domain.ProductItem, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.items, nil
}

func (m *mockActivitySource) callCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.calls
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

func point(lat, lng float64) *domain.GeoPoint {
	return &domain.GeoPoint{Type: "Point", Coordinates: []float64{lng, lat}}
}
