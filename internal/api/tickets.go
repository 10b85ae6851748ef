package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/ixplor/internal/domain"
)

func (c *Client) ListUserTickets(ctx context.Context, userID string) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	if err := c.get(ctx, "/tickets/user/"+url.PathEscape(userID), nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) RedeemTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	var t domain.Ticket
	if err := c.send(ctx, http.MethodPost, "/tickets/"+url.PathEscape(ticketID)+"/redeem", nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) ListUserInvoices(ctx context.Context, userID string) ([]domain.Invoice, error) {
	var invoices []domain.Invoice
	if err := c.get(ctx, "/invoices/user/"+url.PathEscape(userID), nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}
