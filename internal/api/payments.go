package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/google/uuid"
)

type PaymentIntentItem struct {
	ProductItemID string  `json:"productItemId"`
	Quantity      int     `json:"quantity"`
	Price         float64 `json:"price"`
}

type CreatePaymentIntentRequest struct {
	Items []PaymentIntentItem `json:"items"`
}

type PaymentIntent struct {
	ClientSecret    string `json:"clientSecret"`
	PaymentIntentID string `json:"paymentIntentId"`
	CustomerID      string `json:"customerId,omitempty"`
	EphemeralKey    string `json:"ephemeralKey,omitempty"`
	Amount          int64  `json:"amount,omitempty"`
}

type PaymentConfirmation struct {
	Status    string `json:"status"`
	InvoiceID string `json:"invoiceId,omitempty"`
}

// CreatePaymentIntent starts a payment. idempotencyKey may be empty, in which
// case a fresh key is generated; retries of the same checkout should reuse it.
func (c *Client) CreatePaymentIntent(ctx context.Context, req CreatePaymentIntentRequest, idempotencyKey string) (*PaymentIntent, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	var pi PaymentIntent
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/stripe/create-payment-intent",
		body:   req,
		header: http.Header{"Idempotency-Key": {idempotencyKey}},
	}, &pi)
	if err != nil {
		return nil, err
	}
	return &pi, nil
}

func (c *Client) ConfirmPaymentIntent(ctx context.Context, paymentIntentID string) (*PaymentConfirmation, error) {
	var conf PaymentConfirmation
	if err := c.send(ctx, http.MethodPost, "/stripe/confirm-payment-intent/"+url.PathEscape(paymentIntentID), nil, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}
