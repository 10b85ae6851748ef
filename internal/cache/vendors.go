package cache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/geo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// VendorCache is a read-through cache of the full vendor list.
//
// Entries older than the TTL are never served. Vendor mutations do not purge
// the cache; callers either Clear it or wait out the TTL.
type VendorCache struct {
	source    VendorSource
	shared    VendorStore
	clock     Clock
	ttl       time.Duration
	distances *geo.DistanceCache
	log       logrus.FieldLogger

	mu        sync.RWMutex
	vendors   []domain.Vendor
	fetchedAt time.Time

	sfg singleflight.Group
}

// NewVendorCache builds the cache. shared may be nil.
func NewVendorCache(source VendorSource, shared VendorStore, clock Clock, ttl time.Duration, log logrus.FieldLogger) *VendorCache {
	if clock == nil {
		clock = RealClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &VendorCache{
		source:    source,
		shared:    shared,
		clock:     clock,
		ttl:       ttl,
		distances: geo.NewDistanceCache(geo.DefaultCacheSize),
		log:       log,
	}
}

// GetVendors returns the cached vendor list, fetching it when missing or stale.
func (c *VendorCache) GetVendors(ctx context.Context) ([]domain.Vendor, error) {
	if v, ok := c.fresh(); ok {
		return v, nil
	}

	v, err := fill(ctx, &c.sfg, "vendors", func(ctx context.Context) (interface{}, error) {
		if v, ok := c.fresh(); ok {
			return v, nil
		}

		if v, ok := c.loadShared(ctx); ok {
			return v, nil
		}

		raw, err := c.source.ListVendors(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch vendors: %w", err)
		}
		vendors := flattenVendors(raw)
		now := c.clock.Now()
		c.store(vendors, now)

		if c.shared != nil {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				if err := c.shared.Set(ctx, vendors, now); err != nil {
					c.log.WithError(err).Warn("vendor cache: shared set failed")
				}
			}()
		}
		return slices.Clone(vendors), nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Vendor), nil
}

// GetNearbyVendors returns approved vendors within radiusMeters of the point,
// closest first.
func (c *VendorCache) GetNearbyVendors(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.Vendor, error) {
	vendors, err := c.GetVendors(ctx)
	if err != nil {
		return nil, err
	}
	radiusMiles := geo.MetersToMiles(radiusMeters)

	type ranked struct {
		vendor   domain.Vendor
		distance float64
	}
	matches := make([]ranked, 0, len(vendors))
	for _, v := range vendors {
		if !v.Approved() || !v.Located() {
			continue
		}
		d := c.distances.Distance(lat, lng, v.Latitude, v.Longitude)
		if d <= radiusMiles {
			matches = append(matches, ranked{vendor: v, distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]domain.Vendor, len(matches))
	for i, m := range matches {
		result[i] = m.vendor
	}
	return result, nil
}

// Clear drops the vendor list and the distance cache.
func (c *VendorCache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.vendors = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
	c.distances.Clear()

	if c.shared != nil {
		if err := c.shared.Delete(ctx); err != nil {
			c.log.WithError(err).Warn("vendor cache: shared delete failed")
		}
	}
}

func (c *VendorCache) fresh() ([]domain.Vendor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vendors == nil || c.clock.Now().Sub(c.fetchedAt) >= c.ttl {
		return nil, false
	}
	return slices.Clone(c.vendors), true
}

func (c *VendorCache) store(vendors []domain.Vendor, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vendors = vendors
	c.fetchedAt = at
}

func (c *VendorCache) loadShared(ctx context.Context) ([]domain.Vendor, bool) {
	if c.shared == nil {
		return nil, false
	}
	vendors, fetchedAt, err := c.shared.Get(ctx)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.log.WithError(err).Warn("vendor cache: shared get failed")
		}
		return nil, false
	}
	if c.clock.Now().Sub(fetchedAt) >= c.ttl {
		return nil, false
	}
	c.store(vendors, fetchedAt)
	return slices.Clone(vendors), true
}

func flattenVendors(raw []domain.Vendor) []domain.Vendor {
	vendors := make([]domain.Vendor, len(raw))
	for i, v := range raw {
		v.Flatten()
		vendors[i] = v
	}
	return vendors
}
