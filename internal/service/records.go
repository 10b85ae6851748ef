package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/ranking"
	"github.com/sirupsen/logrus"
)

type RecordsAPI interface {
	ListUserTickets(ctx context.Context, userID string) ([]domain.Ticket, error)
	RedeemTicket(ctx context.Context, ticketID string) (*domain.Ticket, error)
	ListUserInvoices(ctx context.Context, userID string) ([]domain.Invoice, error)
	ListSupportTickets(ctx context.Context) ([]domain.SupportTicket, error)
	CreateSupportTicket(ctx context.Context, req api.CreateSupportTicketRequest) (*domain.SupportTicket, error)
	UpdateSupportTicketStatus(ctx context.Context, id string, status domain.SupportTicketStatus) (*domain.SupportTicket, error)
	AddSupportTicketUpdate(ctx context.Context, id string, req api.SupportTicketUpdateRequest) (*domain.SupportTicket, error)
}

// RecordsService serves tickets, invoices and support tickets. Tickets are a
// primary fetch and surface errors; invoices and support ticket lists are
// secondary and degrade to empty.
type RecordsService struct {
	remote RecordsAPI
	users  UserResolver
	log    logrus.FieldLogger
}

func NewRecordsService(remote RecordsAPI, users UserResolver, log logrus.FieldLogger) *RecordsService {
	return &RecordsService{remote: remote, users: users, log: log}
}

type TicketQuery struct {
	RecentActive bool
	Limit        int
}

func (s *RecordsService) Tickets(ctx context.Context, q TicketQuery) ([]domain.Ticket, error) {
	userID, err := s.users.UserID(ctx)
	if err != nil {
		return nil, err
	}

	tickets, err := s.remote.ListUserTickets(ctx, userID)
	if err != nil {
		return nil, err
	}

	if q.RecentActive {
		return ranking.RecentActiveTickets(tickets, q.Limit), nil
	}
	sorted := ranking.SortTickets(tickets)
	if q.Limit > 0 && len(sorted) > q.Limit {
		sorted = sorted[:q.Limit]
	}
	return sorted, nil
}

func (s *RecordsService) RedeemTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if ticketID == "" {
		return nil, invalid("", "ticket id is required")
	}
	return s.remote.RedeemTicket(ctx, ticketID)
}

// Invoices returns the user's invoices newest first, or an empty list when
// the fetch fails for any reason but an auth failure.
func (s *RecordsService) Invoices(ctx context.Context) ([]domain.Invoice, error) {
	userID, err := s.users.UserID(ctx)
	if err != nil {
		return s.degradeInvoices(err)
	}

	invoices, err := s.remote.ListUserInvoices(ctx, userID)
	if err != nil {
		return s.degradeInvoices(err)
	}
	return ranking.SortInvoices(invoices), nil
}

func (s *RecordsService) degradeInvoices(err error) ([]domain.Invoice, error) {
	if errors.Is(err, api.ErrUnauthorized) {
		return nil, err
	}
	s.log.WithError(err).Warn("invoices unavailable, returning empty list")
	return []domain.Invoice{}, nil
}

// SupportTickets lists support tickets by status priority, degrading to an
// empty list like Invoices.
func (s *RecordsService) SupportTickets(ctx context.Context) ([]domain.SupportTicket, error) {
	tickets, err := s.remote.ListSupportTickets(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			return nil, err
		}
		s.log.WithError(err).Warn("support tickets unavailable, returning empty list")
		return []domain.SupportTicket{}, nil
	}
	return ranking.SortSupportTickets(tickets), nil
}

func (s *RecordsService) CreateSupportTicket(ctx context.Context, req api.CreateSupportTicketRequest) (*domain.SupportTicket, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, invalid("", "ticket title is required")
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, invalid("", "ticket description is required")
	}
	return s.remote.CreateSupportTicket(ctx, req)
}

func (s *RecordsService) UpdateSupportTicketStatus(ctx context.Context, id string, status domain.SupportTicketStatus) (*domain.SupportTicket, error) {
	if !status.Valid() {
		return nil, invalid("", "unknown support ticket status %q", status)
	}
	return s.remote.UpdateSupportTicketStatus(ctx, id, status)
}

// AddSupportTicketUpdate appends to the ticket history; earlier updates are
// never edited.
func (s *RecordsService) AddSupportTicketUpdate(ctx context.Context, id string, req api.SupportTicketUpdateRequest) (*domain.SupportTicket, error) {
	if strings.TrimSpace(req.UpdateText) == "" {
		return nil, invalid("", "update text is required")
	}
	return s.remote.AddSupportTicketUpdate(ctx, id, req)
}
