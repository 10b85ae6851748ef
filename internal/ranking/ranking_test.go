package ranking

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 10, 0, 0, 0, time.UTC)
}

func ticket(id string, status domain.TicketStatus, d int) domain.Ticket {
	return domain.Ticket{ID: id, Status: status, ProductDate: day(d)}
}

func ids(tickets []domain.Ticket) []string {
	out := make([]string, len(tickets))
	for i, t := range tickets {
		out[i] = t.ID
	}
	return out
}

func TestSortTickets_PriorityThenNewestFirst(t *testing.T) {
	in := []domain.Ticket{
		ticket("redeemed-old", domain.TicketStatusRedeemed, 1),
		ticket("active-old", domain.TicketStatusActive, 2),
		ticket("unknown", domain.TicketStatus("LOST"), 9),
		ticket("revoked", domain.TicketStatusRevoked, 8),
		ticket("active-new", domain.TicketStatusActive, 7),
		ticket("redeemed-new", domain.TicketStatusRedeemed, 5),
	}

	got := SortTickets(in)

	assert.Equal(t, []string{"active-new", "active-old", "redeemed-new", "redeemed-old", "revoked", "unknown"}, ids(got))
	assert.Equal(t, "redeemed-old", in[0].ID, "input must not be reordered")
}

func TestSortTickets_StableForEqualKeys(t *testing.T) {
	in := []domain.Ticket{
		ticket("a", domain.TicketStatusActive, 3),
		ticket("b", domain.TicketStatusActive, 3),
		ticket("c", domain.TicketStatusActive, 3),
	}

	assert.Equal(t, []string{"a", "b", "c"}, ids(SortTickets(in)))
}

func TestSortTickets_FallsBackToCreatedAt(t *testing.T) {
	in := []domain.Ticket{
		{ID: "older", Status: domain.TicketStatusActive, CreatedAt: day(1)},
		{ID: "newer", Status: domain.TicketStatusActive, CreatedAt: day(2)},
	}

	assert.Equal(t, []string{"newer", "older"}, ids(SortTickets(in)))
}

func TestSortTickets_IsPermutation(t *testing.T) {
	statuses := []domain.TicketStatus{
		domain.TicketStatusActive, domain.TicketStatusRedeemed, domain.TicketStatusCancelled,
		domain.TicketStatusExpired, domain.TicketStatusRevoked, "OTHER",
	}
	r := rand.New(rand.NewSource(7))
	in := make([]domain.Ticket, 200)
	for i := range in {
		in[i] = ticket(fmt.Sprintf("t%d", i), statuses[r.Intn(len(statuses))], 1+r.Intn(28))
	}

	got := SortTickets(in)

	require.Len(t, got, len(in))
	assert.ElementsMatch(t, ids(in), ids(got))
	for i := 1; i < len(got); i++ {
		pa, pb := rank(domain.TicketStatusPriority, got[i-1].Status), rank(domain.TicketStatusPriority, got[i].Status)
		require.LessOrEqual(t, pa, pb)
		if pa == pb {
			require.False(t, got[i-1].SortDate().Before(got[i].SortDate()))
		}
	}
}

func TestRecentActiveTickets(t *testing.T) {
	in := []domain.Ticket{
		ticket("jan1", domain.TicketStatusActive, 1),
		ticket("jan2", domain.TicketStatusActive, 2),
		ticket("jan3", domain.TicketStatusActive, 3),
		ticket("jan4", domain.TicketStatusActive, 4),
		ticket("jan5", domain.TicketStatusActive, 5),
		ticket("redeemed", domain.TicketStatusRedeemed, 6),
	}

	assert.Equal(t, []string{"jan5", "jan4", "jan3", "jan2"}, ids(RecentActiveTickets(in, 4)))
	assert.Len(t, RecentActiveTickets(in, 0), 5)
	assert.Empty(t, RecentActiveTickets(nil, 4))
}

func TestSortSupportTickets(t *testing.T) {
	in := []domain.SupportTicket{
		{ID: "closed", Status: domain.SupportTicketClosed, CreateDate: day(9)},
		{ID: "open-old", Status: domain.SupportTicketOpened, CreateDate: day(1)},
		{ID: "hold", Status: domain.SupportTicketHold, CreateDate: day(3)},
		{ID: "open-new", Status: domain.SupportTicketOpened, CreateDate: day(4)},
	}

	got := SortSupportTickets(in)

	var order []string
	for _, st := range got {
		order = append(order, st.ID)
	}
	assert.Equal(t, []string{"open-new", "open-old", "hold", "closed"}, order)
}

func TestSortInvoices_NewestFirst(t *testing.T) {
	in := []domain.Invoice{
		{ID: "i1", InvoiceDate: day(1)},
		{ID: "i3", InvoiceDate: day(3)},
		{ID: "i2", InvoiceDate: day(2)},
	}

	got := SortInvoices(in)

	require.Len(t, got, 3)
	assert.Equal(t, "i3", got[0].ID)
	assert.Equal(t, "i2", got[1].ID)
	assert.Equal(t, "i1", got[2].ID)
}
