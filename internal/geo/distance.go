// Package geo computes great-circle distances and memoizes them.
package geo

import (
	"math"
	"strconv"
	"strings"
	"sync"
)

const (
	// EarthRadiusMiles is the sphere radius used by Haversine.
	EarthRadiusMiles = 3963.0

	MetersPerMile = 1609.344

	// DefaultCacheSize bounds the vendor distance cache.
	DefaultCacheSize = 1000
	// ActivityCacheSize bounds the nearby-activity distance cache.
	ActivityCacheSize = 200

	keyPrecision = 4
)

// Haversine returns the great-circle distance in miles between two points.
// Longitude wraparound at the antimeridian is not corrected.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusMiles * c
}

func MetersToMiles(m float64) float64 {
	return m / MetersPerMile
}

func MilesToKilometers(mi float64) float64 {
	return mi * MetersPerMile / 1000
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceCache memoizes Haversine results keyed by the inputs rounded to
// four decimal places. When full, the oldest inserted entry is evicted;
// lookups do not change eviction order.
type DistanceCache struct {
	mu      sync.Mutex
	limit   int
	entries map[string]float64
	order   []string
}

func NewDistanceCache(limit int) *DistanceCache {
	if limit <= 0 {
		limit = DefaultCacheSize
	}
	return &DistanceCache{
		limit:   limit,
		entries: make(map[string]float64, limit),
	}
}

// Distance returns the memoized distance in miles, computing it on a miss.
func (c *DistanceCache) Distance(lat1, lon1, lat2, lon2 float64) float64 {
	key := cacheKey(lat1, lon1, lat2, lon2)

	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.entries[key]; ok {
		return d
	}

	d := Haversine(lat1, lon1, lat2, lon2)
	c.entries[key] = d
	c.order = append(c.order, key)
	for len(c.order) > c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	return d
}

func (c *DistanceCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DistanceCache) Contains(lat1, lon1, lat2, lon2 float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[cacheKey(lat1, lon1, lat2, lon2)]
	return ok
}

func (c *DistanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]float64, c.limit)
	c.order = nil
}

func cacheKey(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', keyPrecision, 64)
	}
	return strings.Join(parts, ",")
}
