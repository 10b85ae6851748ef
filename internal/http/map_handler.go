package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/service"
)

// DefaultRadiusMeters is used when a nearby query omits radius.
const DefaultRadiusMeters = 5000

type NearbyService interface {
	Nearby(ctx context.Context, center domain.Coordinate, radiusMeters float64) (service.NearbyResult, error)
	TodayQuery(center domain.Coordinate, radiusMeters float64) domain.NearbyQuery
}

type MapHandler struct {
	base
	vendors    service.VendorFinder
	activities service.ActivityFinder
	nearby     NearbyService
	clear      func(ctx context.Context)
}

type nearbyParams struct {
	Lat    float64 `validate:"latitude"`
	Lng    float64 `validate:"longitude"`
	Radius float64 `validate:"gt=0,lte=200000"`
}

func (p nearbyParams) center() domain.Coordinate {
	return domain.Coordinate{Latitude: p.Lat, Longitude: p.Lng}
}

func (h *MapHandler) params(w http.ResponseWriter, r *http.Request) (nearbyParams, bool) {
	q := r.URL.Query()
	p := nearbyParams{Radius: DefaultRadiusMeters}

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "lat is required")
		return p, false
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "lng is required")
		return p, false
	}
	p.Lat, p.Lng = lat, lng

	if raw := q.Get("radius"); raw != "" {
		radius, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "radius must be a number")
			return p, false
		}
		p.Radius = radius
	}
	return p, h.check(w, p)
}

func (h *MapHandler) NearbyVendors(w http.ResponseWriter, r *http.Request) {
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	vendors, err := h.vendors.GetNearbyVendors(ctx, p.Lat, p.Lng, p.Radius)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(vendors))
}

func (h *MapHandler) NearbyActivities(w http.ResponseWriter, r *http.Request) {
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	items, err := h.activities.GetNearbyActivities(ctx, h.nearby.TodayQuery(p.center(), p.Radius))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(items))
}

func (h *MapHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	p, ok := h.params(w, r)
	if !ok {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	res, err := h.nearby.Nearby(ctx, p.center(), p.Radius)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	res.Vendors = nonNil(res.Vendors)
	res.Activities = nonNil(res.Activities)
	respondJSON(w, http.StatusOK, res)
}

// ClearCaches drops cached vendors and activities so the next read refetches.
func (h *MapHandler) ClearCaches(w http.ResponseWriter, r *http.Request) {
	if h.clear != nil {
		h.clear(r.Context())
	}
	w.WriteHeader(http.StatusNoContent)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
