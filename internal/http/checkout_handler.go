package http

import (
	"context"
	"net/http"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/auth"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type CheckoutService interface {
	CreatePaymentIntent(ctx context.Context, sessionID, idempotencyKey string) (*api.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string) (*api.PaymentConfirmation, error)
}

type CheckoutHandler struct {
	base
	checkout CheckoutService
}

type ConfirmPaymentRequestDTO struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

// CreatePaymentIntent prices the current cart. Clients retrying the same
// checkout should resend their Idempotency-Key.
func (h *CheckoutHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	pi, err := h.checkout.CreatePaymentIntent(ctx, sid, r.Header.Get(HeaderIdempotencyKey))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, pi)
}

func (h *CheckoutHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req ConfirmPaymentRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()
	sid, _ := auth.SessionFrom(ctx)

	conf, err := h.checkout.ConfirmPayment(ctx, sid, req.PaymentIntentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, conf)
}
