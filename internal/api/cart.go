package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/fjod/ixplor/internal/domain"
)

type AddToCartRequest struct {
	ProductItemID    string    `json:"productItemId"`
	ProductName      string    `json:"productName,omitempty"`
	Price            float64   `json:"price"`
	Quantity         int       `json:"quantity"`
	ProductDate      time.Time `json:"productDate"`
	ProductStartTime string    `json:"productStartTime"`
	ProductDuration  int       `json:"productDuration"`
	VendorID         string    `json:"vendorId"`
}

func (c *Client) GetCart(ctx context.Context) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.get(ctx, "/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddToCart(ctx context.Context, req AddToCartRequest) (*domain.Cart, error) {
	var cart domain.Cart
	if err := c.send(ctx, http.MethodPost, "/cart/add", req, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateCartItem(ctx context.Context, productItemID string, quantity int) (*domain.Cart, error) {
	var cart domain.Cart
	body := map[string]int{"quantity": quantity}
	if err := c.send(ctx, http.MethodPut, "/cart/"+url.PathEscape(productItemID), body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) RemoveCartItem(ctx context.Context, productItemID string) error {
	return c.send(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productItemID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.send(ctx, http.MethodDelete, "/cart", nil, nil)
}
