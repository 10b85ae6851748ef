package domain

import "math"

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate can be placed on a map.
// NaN and out-of-range values are rejected.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// GeoPoint is the GeoJSON shape the remote API uses for locations.
// Coordinates are ordered [longitude, latitude].
type GeoPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// Coordinate flattens the point. ok is false when the point is malformed.
func (p *GeoPoint) Coordinate() (Coordinate, bool) {
	if p == nil || len(p.Coordinates) < 2 {
		return Coordinate{}, false
	}
	c := Coordinate{Latitude: p.Coordinates[1], Longitude: p.Coordinates[0]}
	return c, c.Valid()
}
