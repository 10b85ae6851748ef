package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fjod/ixplor/internal/domain"
)

type CreateSupportTicketRequest struct {
	TicketCategory string `json:"ticketCategory"`
	Title          string `json:"ticketTitle"`
	Description    string `json:"ticketDescription"`
	TransactionID  string `json:"transactionId,omitempty"`
}

type SupportTicketUpdateRequest struct {
	UpdateText  string   `json:"updateText"`
	Attachments []string `json:"attachments,omitempty"`
}

func (c *Client) ListSupportTickets(ctx context.Context) ([]domain.SupportTicket, error) {
	var tickets []domain.SupportTicket
	if err := c.get(ctx, "/support-tickets", nil, &tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (c *Client) CreateSupportTicket(ctx context.Context, req CreateSupportTicketRequest) (*domain.SupportTicket, error) {
	var t domain.SupportTicket
	if err := c.send(ctx, http.MethodPost, "/support-tickets", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) UpdateSupportTicketStatus(ctx context.Context, id string, status domain.SupportTicketStatus) (*domain.SupportTicket, error) {
	var t domain.SupportTicket
	body := map[string]string{"status": status.String()}
	if err := c.send(ctx, http.MethodPut, "/support-tickets/"+url.PathEscape(id)+"/status", body, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) AddSupportTicketUpdate(ctx context.Context, id string, req SupportTicketUpdateRequest) (*domain.SupportTicket, error) {
	var t domain.SupportTicket
	if err := c.send(ctx, http.MethodPost, "/support-tickets/"+url.PathEscape(id)+"/updates", req, &t); err != nil {
		return nil, err
	}
	return &t, nil
}
