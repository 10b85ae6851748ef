// Package ranking orders status-bearing records for list views.
package ranking

import (
	"cmp"
	"slices"
	"time"

	"github.com/fjod/ixplor/internal/domain"
)

// UnknownPriority places statuses missing from a priority table last.
const UnknownPriority = 999

// SortByStatusAndDate returns a new slice ordered by status priority
// ascending and, within equal priority, by date descending. The sort is
// stable and the input is left untouched.
func SortByStatusAndDate[T any, S comparable](records []T, priority map[S]int, status func(T) S, date func(T) time.Time) []T {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b T) int {
		if c := cmp.Compare(rank(priority, status(a)), rank(priority, status(b))); c != 0 {
			return c
		}
		return date(b).Compare(date(a))
	})
	return out
}

// RecentActive keeps records in the active status, sorts them and returns
// at most limit of them. A non-positive limit keeps all.
func RecentActive[T any, S comparable](records []T, active S, limit int, priority map[S]int, status func(T) S, date func(T) time.Time) []T {
	filtered := make([]T, 0, len(records))
	for _, r := range records {
		if status(r) == active {
			filtered = append(filtered, r)
		}
	}

	sorted := SortByStatusAndDate(filtered, priority, status, date)
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}

func rank[S comparable](priority map[S]int, s S) int {
	if p, ok := priority[s]; ok {
		return p
	}
	return UnknownPriority
}

func ticketStatus(t domain.Ticket) domain.TicketStatus { return t.Status }
func ticketDate(t domain.Ticket) time.Time             { return t.SortDate() }

func SortTickets(tickets []domain.Ticket) []domain.Ticket {
	return SortByStatusAndDate(tickets, domain.TicketStatusPriority, ticketStatus, ticketDate)
}

// RecentActiveTickets returns the newest ACTIVE tickets, at most limit.
func RecentActiveTickets(tickets []domain.Ticket, limit int) []domain.Ticket {
	return RecentActive(tickets, domain.TicketStatusActive, limit, domain.TicketStatusPriority, ticketStatus, ticketDate)
}

func SortSupportTickets(tickets []domain.SupportTicket) []domain.SupportTicket {
	return SortByStatusAndDate(tickets, domain.SupportTicketStatusPriority,
		func(t domain.SupportTicket) domain.SupportTicketStatus { return t.Status },
		func(t domain.SupportTicket) time.Time { return t.CreateDate },
	)
}

// SortInvoices orders invoices newest first. Invoices carry no status table,
// so every record shares one priority.
func SortInvoices(invoices []domain.Invoice) []domain.Invoice {
	return SortByStatusAndDate(invoices, map[string]int{},
		func(domain.Invoice) string { return "" },
		func(i domain.Invoice) time.Time { return i.InvoiceDate },
	)
}
