package cache

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/geo"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

type activityEntry struct {
	items     []domain.ProductItem
	fetchedAt time.Time
}

// ActivityCache holds nearby-today product item lists per query with the
// same TTL policy as VendorCache.
type ActivityCache struct {
	source    ActivitySource
	clock     Clock
	ttl       time.Duration
	distances *geo.DistanceCache
	log       logrus.FieldLogger

	mu      sync.Mutex
	entries map[string]activityEntry

	sfg singleflight.Group
}

func NewActivityCache(source ActivitySource, clock Clock, ttl time.Duration, log logrus.FieldLogger) *ActivityCache {
	if clock == nil {
		clock = RealClock{}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ActivityCache{
		source:    source,
		clock:     clock,
		ttl:       ttl,
		distances: geo.NewDistanceCache(geo.ActivityCacheSize),
		log:       log,
		entries:   make(map[string]activityEntry),
	}
}

// GetNearbyActivities returns sellable items inside the query radius,
// closest to the query center first.
func (c *ActivityCache) GetNearbyActivities(ctx context.Context, q domain.NearbyQuery) ([]domain.ProductItem, error) {
	items, err := c.fetch(ctx, q)
	if err != nil {
		return nil, err
	}

	type ranked struct {
		item     domain.ProductItem
		distance float64
	}
	matches := make([]ranked, 0, len(items))
	for _, it := range items {
		if !it.Sellable() || !it.Located() {
			continue
		}
		d := c.distances.Distance(q.Center.Latitude, q.Center.Longitude, it.Latitude, it.Longitude)
		if d <= q.RadiusMiles {
			matches = append(matches, ranked{item: it, distance: d})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].distance < matches[j].distance
	})

	result := make([]domain.ProductItem, len(matches))
	for i, m := range matches {
		result[i] = m.item
	}
	return result, nil
}

func (c *ActivityCache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]activityEntry)
	c.mu.Unlock()
	c.distances.Clear()
}

func (c *ActivityCache) fetch(ctx context.Context, q domain.NearbyQuery) ([]domain.ProductItem, error) {
	key := queryKey(q)
	if items, ok := c.lookup(key); ok {
		return items, nil
	}

	v, err := fill(ctx, &c.sfg, key, func(ctx context.Context) (interface{}, error) {
		if items, ok := c.lookup(key); ok {
			return items, nil
		}
		raw, err := c.source.NearbyToday(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("fetch nearby activities: %w", err)
		}
		items := make([]domain.ProductItem, len(raw))
		for i, it := range raw {
			it.Flatten()
			items[i] = it
		}

		now := c.clock.Now()
		c.mu.Lock()
		c.evictExpired(now)
		c.entries[key] = activityEntry{items: items, fetchedAt: now}
		c.mu.Unlock()
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.ProductItem), nil
}

func (c *ActivityCache) lookup(key string) ([]domain.ProductItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || c.clock.Now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.items, true
}

// evictExpired must be called with mu held.
func (c *ActivityCache) evictExpired(now time.Time) {
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

func queryKey(q domain.NearbyQuery) string {
	return fmt.Sprintf("%.4f,%.4f,%.2f,%s,%s",
		q.Center.Latitude, q.Center.Longitude, math.Round(q.RadiusMiles*100)/100,
		q.StartDate.Format(time.DateOnly), q.EndDate.Format(time.DateOnly))
}
