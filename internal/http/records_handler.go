package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/service"
	"github.com/go-chi/chi/v5"
)

type RecordsService interface {
	Tickets(ctx context.Context, q service.TicketQuery) ([]domain.Ticket, error)
	RedeemTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	Invoices(ctx context.Context) ([]domain.Invoice, error)
	SupportTickets(ctx context.Context) ([]domain.SupportTicket, error)
	CreateSupportTicket(ctx context.Context, req api.CreateSupportTicketRequest) (*domain.SupportTicket, error)
	UpdateSupportTicketStatus(ctx context.Context, id string, status domain.SupportTicketStatus) (*domain.SupportTicket, error)
	AddSupportTicketUpdate(ctx context.Context, id string, req api.SupportTicketUpdateRequest) (*domain.SupportTicket, error)
}

type RecordsHandler struct {
	base
	records RecordsService
}

type CreateSupportTicketRequestDTO struct {
	TicketCategory string `json:"ticketCategory" validate:"required"`
	Title          string `json:"ticketTitle" validate:"required,max=200"`
	Description    string `json:"ticketDescription" validate:"required"`
	TransactionID  string `json:"transactionId"`
}

type SupportTicketStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=OPENED ASSIGNED HOLD RESOLVED CLOSED"`
}

type SupportTicketUpdateDTO struct {
	UpdateText  string   `json:"updateText" validate:"required"`
	Attachments []string `json:"attachments" validate:"omitempty,dive,url"`
}

// Tickets lists the user's tickets. recent=true narrows the list to active
// tickets; limit caps it.
func (h *RecordsHandler) Tickets(w http.ResponseWriter, r *http.Request) {
	q := service.TicketQuery{RecentActive: r.URL.Query().Get("recent") == "true"}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		q.Limit = limit
	}

	ctx, cancel := h.context(r)
	defer cancel()

	tickets, err := h.records.Tickets(ctx, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(tickets))
}

func (h *RecordsHandler) RedeemTicket(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	ticket, err := h.records.RedeemTicket(ctx, chi.URLParam(r, "ticketId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

func (h *RecordsHandler) Invoices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	invoices, err := h.records.Invoices(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(invoices))
}

func (h *RecordsHandler) SupportTickets(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.context(r)
	defer cancel()

	tickets, err := h.records.SupportTickets(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nonNil(tickets))
}

func (h *RecordsHandler) CreateSupportTicket(w http.ResponseWriter, r *http.Request) {
	var req CreateSupportTicketRequestDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	ticket, err := h.records.CreateSupportTicket(ctx, api.CreateSupportTicketRequest{
		TicketCategory: req.TicketCategory,
		Title:          req.Title,
		Description:    req.Description,
		TransactionID:  req.TransactionID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ticket)
}

func (h *RecordsHandler) UpdateSupportTicketStatus(w http.ResponseWriter, r *http.Request) {
	var req SupportTicketStatusDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	ticket, err := h.records.UpdateSupportTicketStatus(ctx, chi.URLParam(r, "ticketId"), domain.SupportTicketStatus(req.Status))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ticket)
}

func (h *RecordsHandler) AddSupportTicketUpdate(w http.ResponseWriter, r *http.Request) {
	var req SupportTicketUpdateDTO
	if !h.decode(w, r, &req) {
		return
	}
	ctx, cancel := h.context(r)
	defer cancel()

	ticket, err := h.records.AddSupportTicketUpdate(ctx, chi.URLParam(r, "ticketId"), api.SupportTicketUpdateRequest{
		UpdateText:  req.UpdateText,
		Attachments: req.Attachments,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ticket)
}
