package http

import (
	"context"
	"net/http"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/go-chi/chi/v5"
)

type VendorDirectory interface {
	GetVendor(ctx context.Context, id string) (*domain.Vendor, error)
	ListVendorsByType(ctx context.Context, vendorType string) ([]domain.Vendor, error)
	ListVendorProductItems(ctx context.Context, vendorID string) ([]domain.ProductItem, error)
	GetProductItem(ctx context.Context, id string) (*domain.ProductItem, error)
}

// VendorHandler serves vendor details for the map's info sheet.
type VendorHandler struct {
	base
	directory VendorDirectory
}

func (h *VendorHandler) ByType(w http.ResponseWriter, r *http.Request) {
	vendorType := r.URL.Query().Get("type")
	if vendorType == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "type is required")
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	vendors, err := h.directory.ListVendorsByType(ctx, vendorType)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(vendors))
}

func (h *VendorHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	v, err := h.directory.GetVendor(ctx, chi.URLParam(r, "vendorId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, v)
}

func (h *VendorHandler) Items(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	items, err := h.directory.ListVendorProductItems(ctx, chi.URLParam(r, "vendorId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(items))
}

func (h *VendorHandler) ProductItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	item, err := h.directory.GetProductItem(ctx, chi.URLParam(r, "productItemId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}
