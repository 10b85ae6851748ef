package service

import (
	"context"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/notify"
	"github.com/sirupsen/logrus"
)

type PaymentAPI interface {
	CreatePaymentIntent(ctx context.Context, req api.CreatePaymentIntentRequest, idempotencyKey string) (*api.PaymentIntent, error)
	ConfirmPaymentIntent(ctx context.Context, paymentIntentID string) (*api.PaymentConfirmation, error)
}

// CheckoutService turns the session's cart into a payment intent.
type CheckoutService struct {
	payments PaymentAPI
	carts    *CartService
	log      logrus.FieldLogger
}

func NewCheckoutService(payments PaymentAPI, carts *CartService, log logrus.FieldLogger) *CheckoutService {
	return &CheckoutService{payments: payments, carts: carts, log: log}
}

func (s *CheckoutService) CreatePaymentIntent(ctx context.Context, sessionID, idempotencyKey string) (*api.PaymentIntent, error) {
	cart, err := s.carts.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, invalid("", "cart is empty")
	}

	req := api.CreatePaymentIntentRequest{Items: make([]api.PaymentIntentItem, 0, len(cart.Items))}
	for _, it := range cart.Items {
		req.Items = append(req.Items, api.PaymentIntentItem{
			ProductItemID: it.ProductItemID,
			Quantity:      it.Quantity,
			Price:         it.Price,
		})
	}
	return s.payments.CreatePaymentIntent(ctx, req, idempotencyKey)
}

// ConfirmPayment confirms the intent and drops the cached cart, which the
// backend empties after a successful purchase.
func (s *CheckoutService) ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string) (*api.PaymentConfirmation, error) {
	if paymentIntentID == "" {
		return nil, invalid("", "payment intent id is required")
	}

	conf, err := s.payments.ConfirmPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		s.carts.send(ctx, notify.Failure("Payment failed", err.Error()))
		return nil, err
	}

	s.carts.Invalidate(sessionID)
	s.log.WithFields(logrus.Fields{"payment_intent": paymentIntentID, "status": conf.Status}).Info("payment confirmed")
	s.carts.send(ctx, notify.Success("Payment complete", "Your tickets are ready"))
	return conf, nil
}
