package cache

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a fetched vendor or activity list is served.
const DefaultTTL = 5 * time.Minute

// FillTimeout bounds a shared fetch once it no longer follows any caller's
// context.
const FillTimeout = 30 * time.Second

var ErrCacheMiss = errors.New("cache miss")

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// VendorSource fetches the full vendor list from the remote API.
type VendorSource interface {
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
}

// ActivitySource fetches today's product items around a point.
type ActivitySource interface {
	NearbyToday(ctx context.Context, q domain.NearbyQuery) ([]domain.ProductItem, error)
}

// VendorStore is a shared second-level store for the flattened vendor list.
type VendorStore interface {
	Get(ctx context.Context) ([]domain.Vendor, time.Time, error)
	Set(ctx context.Context, vendors []domain.Vendor, fetchedAt time.Time) error
	Delete(ctx context.Context) error
}

type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

// fill runs fn once per key for all concurrent callers. fn gets a context
// detached from the caller that started it, so one caller cancelling does not
// fail the others; each caller still returns as soon as its own ctx ends.
func fill(ctx context.Context, g *singleflight.Group, key string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	ch := g.DoChan(key, func() (interface{}, error) {
		fillCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FillTimeout)
		defer cancel()
		return fn(fillCtx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
