package http

import (
	"net/http"
	"time"

	"github.com/fjod/ixplor/internal/auth"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/service"
	"github.com/fjod/ixplor/internal/viewport"
)

type ViewportHub interface {
	Update(key string, v viewport.Viewport)
	Refresh(key string, v viewport.Viewport)
	Latest(key string) (viewport.Result[service.NearbyResult], bool)
}

type ViewportHandler struct {
	base
	hub ViewportHub
}

type ViewportRequestDTO struct {
	Latitude     float64 `json:"latitude" validate:"latitude"`
	Longitude    float64 `json:"longitude" validate:"longitude"`
	Zoom         float64 `json:"zoom" validate:"gte=0,lte=22"`
	RadiusMeters float64 `json:"radiusMeters" validate:"gt=0,lte=200000"`
}

func (d ViewportRequestDTO) viewport() viewport.Viewport {
	return viewport.Viewport{
		Center:       domain.Coordinate{Latitude: d.Latitude, Longitude: d.Longitude},
		Zoom:         d.Zoom,
		RadiusMeters: d.RadiusMeters,
	}
}

type ViewportResultDTO struct {
	Generation uint64            `json:"generation"`
	FetchedAt  time.Time         `json:"fetchedAt"`
	Viewport   viewport.Viewport `json:"viewport"`
	service.NearbyResult
}

// Update reports a camera move. The fetch runs once the map settles.
func (h *ViewportHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	sid, _ := auth.SessionFrom(r.Context())
	h.hub.Update(sid, req.viewport())
	w.WriteHeader(http.StatusAccepted)
}

// Refresh fetches for the given viewport immediately.
func (h *ViewportHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req ViewportRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	sid, _ := auth.SessionFrom(r.Context())
	h.hub.Refresh(sid, req.viewport())
	w.WriteHeader(http.StatusAccepted)
}

func (h *ViewportHandler) Latest(w http.ResponseWriter, r *http.Request) {
	sid, _ := auth.SessionFrom(r.Context())
	res, ok := h.hub.Latest(sid)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if res.Err != nil {
		h.fail(w, r, res.Err)
		return
	}
	res.Value.Vendors = nonNil(res.Value.Vendors)
	res.Value.Activities = nonNil(res.Value.Activities)
	respondJSON(w, http.StatusOK, ViewportResultDTO{
		Generation:   res.Generation,
		FetchedAt:    res.FetchedAt,
		Viewport:     res.Viewport,
		NearbyResult: res.Value,
	})
}
