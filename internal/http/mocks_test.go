package http

import (
	"context"
	"io"
	"sync"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/auth"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/service"
	"github.com/fjod/ixplor/internal/viewport"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = io.Discard
	return l
}

type mockVendors struct {
	vendors []domain.Vendor
	err     error

	mu   sync.RWMutex
	args []float64
}

func (m *mockVendors) GetNearbyVendors(ctx context.Context, lat, lng, radiusMeters float64) ([]domain.Vendor, error) {
	m.mu.Lock()
	m.args = []float64{lat, lng, radiusMeters}
	m.mu.Unlock()
	return m.vendors, m.err
}

type mockDirectory struct {
	err error
}

func (m *mockDirectory) GetVendor(ctx context.Context, id string) (*domain.Vendor, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Vendor{ID: id}, nil
}

func (m *mockDirectory) ListVendorsByType(ctx context.Context, vendorType string) ([]domain.Vendor, error) {
	return []domain.Vendor{{ID: vendorType + "-1"}}, m.err
}

func (m *mockDirectory) ListVendorProductItems(ctx context.Context, vendorID string) ([]domain.ProductItem, error) {
	return nil, m.err
}

func (m *mockDirectory) GetProductItem(ctx context.Context, id string) (*domain.ProductItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.ProductItem{ID: id}, nil
}

type mockActivities struct {
	items []domain.ProductItem
	err   error

	mu    sync.RWMutex
	query domain.NearbyQuery
}

func (m *mockActivities) GetNearbyActivities(ctx context.Context, q domain.NearbyQuery) ([]domain.ProductItem, error) {
	m.mu.Lock()
	m.query = q
	m.mu.Unlock()
	return m.items, m.err
}

type mockCarts struct {
	cart *domain.Cart
	err  error

	mu      sync.RWMutex
	session string
	added   service.AddItemRequest
	updated []any
	cleared int
}

func (m *mockCarts) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	m.session = sessionID
	m.mu.Unlock()
	return m.cart, m.err
}

func (m *mockCarts) AddToCart(ctx context.Context, sessionID string, req service.AddItemRequest) (*domain.Cart, error) {
	m.mu.Lock()
	m.session, m.added = sessionID, req
	m.mu.Unlock()
	return m.cart, m.err
}

func (m *mockCarts) UpdateQuantity(ctx context.Context, sessionID, productItemID string, qty int) (*domain.Cart, error) {
	m.mu.Lock()
	m.session, m.updated = sessionID, []any{productItemID, qty}
	m.mu.Unlock()
	return m.cart, m.err
}

func (m *mockCarts) RemoveItem(ctx context.Context, sessionID, productItemID string) (*domain.Cart, error) {
	m.mu.Lock()
	m.session, m.updated = sessionID, []any{productItemID}
	m.mu.Unlock()
	return m.cart, m.err
}

func (m *mockCarts) ClearCart(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.session = sessionID
	m.cleared++
	m.mu.Unlock()
	return m.err
}

type mockRecords struct {
	tickets []domain.Ticket
	support *domain.SupportTicket
	err     error

	mu     sync.RWMutex
	query  service.TicketQuery
	status domain.SupportTicketStatus
	create api.CreateSupportTicketRequest
}

func (m *mockRecords) Tickets(ctx context.Context, q service.TicketQuery) ([]domain.Ticket, error) {
	m.mu.Lock()
	m.query = q
	m.mu.Unlock()
	return m.tickets, m.err
}

func (m *mockRecords) RedeemTicket(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Ticket{ID: ticketID, Status: domain.TicketStatusRedeemed}, nil
}

func (m *mockRecords) Invoices(ctx context.Context) ([]domain.Invoice, error) {
	return nil, m.err
}

func (m *mockRecords) SupportTickets(ctx context.Context) ([]domain.SupportTicket, error) {
	return nil, m.err
}

func (m *mockRecords) CreateSupportTicket(ctx context.Context, req api.CreateSupportTicketRequest) (*domain.SupportTicket, error) {
	m.mu.Lock()
	m.create = req
	m.mu.Unlock()
	return m.support, m.err
}

func (m *mockRecords) UpdateSupportTicketStatus(ctx context.Context, id string, status domain.SupportTicketStatus) (*domain.SupportTicket, error) {
	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
	return m.support, m.err
}

func (m *mockRecords) AddSupportTicketUpdate(ctx context.Context, id string, req api.SupportTicketUpdateRequest) (*domain.SupportTicket, error) {
	return m.support, m.err
}

type mockCheckout struct {
	err error

	mu  sync.RWMutex
	key string
}

func (m *mockCheckout) CreatePaymentIntent(ctx context.Context, sessionID, idempotencyKey string) (*api.PaymentIntent, error) {
	m.mu.Lock()
	m.key = idempotencyKey
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &api.PaymentIntent{ClientSecret: "secret", PaymentIntentID: "pi_1"}, nil
}

func (m *mockCheckout) ConfirmPayment(ctx context.Context, sessionID, paymentIntentID string) (*api.PaymentConfirmation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &api.PaymentConfirmation{Status: "succeeded"}, nil
}

type mockSessions struct {
	session *auth.Session
	err     error

	mu          sync.RWMutex
	invalidated []string
	loggedOut   int
}

func (m *mockSessions) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	return m.session, m.err
}

func (m *mockSessions) Register(ctx context.Context, req api.RegisterRequest) (*auth.Session, error) {
	return m.session, m.err
}

func (m *mockSessions) GoogleLogin(ctx context.Context, idToken string) (*auth.Session, error) {
	return m.session, m.err
}

func (m *mockSessions) AppleLogin(ctx context.Context, idToken, firstName, lastName string) (*auth.Session, error) {
	return m.session, m.err
}

func (m *mockSessions) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.loggedOut++
	m.mu.Unlock()
	return nil
}

func (m *mockSessions) Invalidate(ctx context.Context) {
	sid, _ := auth.SessionFrom(ctx)
	m.mu.Lock()
	m.invalidated = append(m.invalidated, sid)
	m.mu.Unlock()
}

func (m *mockSessions) Invalidated() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.invalidated...)
}

type mockProfiles struct {
	user *domain.User
	err  error
}

func (m *mockProfiles) Me(ctx context.Context) (*domain.User, error) {
	return m.user, m.err
}

type mockHub struct {
	mu        sync.RWMutex
	updates   map[string]viewport.Viewport
	refreshes int
	latest    map[string]viewport.Result[service.NearbyResult]
}

func newMockHub() *mockHub {
	return &mockHub{
		updates: make(map[string]viewport.Viewport),
		latest:  make(map[string]viewport.Result[service.NearbyResult]),
	}
}

func (m *mockHub) Update(key string, v viewport.Viewport) {
	m.mu.Lock()
	m.updates[key] = v
	m.mu.Unlock()
}

func (m *mockHub) Refresh(key string, v viewport.Viewport) {
	m.mu.Lock()
	m.updates[key] = v
	m.refreshes++
	m.mu.Unlock()
}

func (m *mockHub) Latest(key string) (viewport.Result[service.NearbyResult], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.latest[key]
	return r, ok
}

type fixture struct {
	vendors    *mockVendors
	activities *mockActivities
	directory  *mockDirectory
	carts      *mockCarts
	records    *mockRecords
	checkout   *mockCheckout
	sessions   *mockSessions
	profiles   *mockProfiles
	hub        *mockHub
	cleared    int
}

func newFixture() *fixture {
	return &fixture{
		vendors:    &mockVendors{},
		activities: &mockActivities{},
		directory:  &mockDirectory{},
		carts:      &mockCarts{},
		records:    &mockRecords{},
		checkout:   &mockCheckout{},
		sessions:   &mockSessions{},
		profiles:   &mockProfiles{},
		hub:        newMockHub(),
	}
}

func (f *fixture) router() chi.Router {
	return NewRouter(Deps{
		Log:         quietLogger(),
		Vendors:     f.vendors,
		Activities:  f.activities,
		Nearby:      service.NewNearbyService(f.vendors, f.activities),
		ClearCaches: func(context.Context) { f.cleared++ },
		Directory:   f.directory,
		Viewports:   f.hub,
		Carts:       f.carts,
		Records:     f.records,
		Checkout:    f.checkout,
		Sessions:    f.sessions,
		Profiles:    f.profiles,
	})
}
