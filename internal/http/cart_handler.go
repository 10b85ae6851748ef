package http

import (
	"context"
	"net/http"

	"github.com/fjod/ixplor/internal/auth"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/service"
	"github.com/go-chi/chi/v5"
)

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, sessionID string, req service.AddItemRequest) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, sessionID, productItemID string, qty int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, sessionID, productItemID string) (*domain.Cart, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CartHandler struct {
	base
	carts CartService
}

type AddItemRequestDTO struct {
	ProductItemID string `json:"productItemId" validate:"required"`
	Quantity      int    `json:"quantity" validate:"min=1,max=99"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity" validate:"min=1,max=99"`
}

type CartResponseDTO struct {
	*domain.Cart
	Total     string `json:"total"`
	ItemCount int    `json:"itemCount"`
}

func cartResponse(c *domain.Cart) CartResponseDTO {
	if c == nil {
		c = &domain.Cart{}
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	s := c.Summary()
	return CartResponseDTO{Cart: c, Total: s.Total.StringFixed(2), ItemCount: s.ItemCount}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	cart, err := h.carts.GetCart(ctx, sid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	cart, err := h.carts.AddToCart(ctx, sid, service.AddItemRequest{
		ProductItemID: req.ProductItemID,
		Quantity:      req.Quantity,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, cartResponse(cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req UpdateQuantityRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	cart, err := h.carts.UpdateQuantity(ctx, sid, chi.URLParam(r, "productItemId"), req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	cart, err := h.carts.RemoveItem(ctx, sid, chi.URLParam(r, "productItemId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	if err := h.carts.ClearCart(ctx, sid); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
