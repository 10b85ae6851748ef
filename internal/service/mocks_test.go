package service

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/cache"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/notify"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

type mockItems struct {
	m     sync.RWMutex
	items map[string]*domain.ProductItem
	err   error
	calls int
}

func (m *mockItems) GetProductItem(_ context.Context, id string) (*domain.ProductItem, error) {
	m.m.Lock()
	defer m.m.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	item, ok := m.items[id]
	if !ok {
		return nil, &api.APIError{StatusCode: 404, Message: "Product item not found"}
	}
	cp := *item
	return &cp, nil
}

type mockCartAPI struct {
	m        sync.RWMutex
	cart     *domain.Cart
	err      error
	getErr   error
	adds     []api.AddToCartRequest
	gets     int
	delay    time.Duration
	inflight int
	peak     int
	hold     chan struct{} // the next GetCart waits on it after reading
}

func (m *mockCartAPI) GetCart(context.Context) (*domain.Cart, error) {
	m.m.Lock()
	m.gets++
	hold := m.hold
	m.hold = nil
	var (
		cart *domain.Cart
		err  error
	)
	switch {
	case m.getErr != nil:
		err = m.getErr
	case m.cart == nil:
		err = &api.APIError{StatusCode: 404, Message: "Cart not found"}
	default:
		cp := *m.cart
		cp.Items = append([]domain.CartItem(nil), m.cart.Items...)
		cart = &cp
	}
	m.m.Unlock()

	if hold != nil {
		<-hold
	}
	return cart, err
}

func (m *mockCartAPI) getCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.gets
}

func (m *mockCartAPI) AddToCart(_ context.Context, req api.AddToCartRequest) (*domain.Cart, error) {
	m.m.Lock()
	m.inflight++
	if m.inflight > m.peak {
		m.peak = m.inflight
	}
	delay := m.delay
	m.m.Unlock()

	time.Sleep(delay)

	m.m.Lock()
	defer m.m.Unlock()
	m.inflight--
	if m.err != nil {
		return nil, m.err
	}
	m.adds = append(m.adds, req)
	if m.cart == nil {
		m.cart = &domain.Cart{}
	}
	m.cart.Upsert(cartItemFrom(req))
	return m.cart, nil
}

func (m *mockCartAPI) UpdateCartItem(_ context.Context, id string, qty int) (*domain.Cart, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.cart.Upsert(domain.CartItem{ProductItemID: id, Quantity: qty})
	return m.cart, nil
}

func (m *mockCartAPI) RemoveCartItem(_ context.Context, id string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for i, it := range m.cart.Items {
		if it.ProductItemID == id {
			m.cart.Items = append(m.cart.Items[:i], m.cart.Items[i+1:]...)
			return nil
		}
	}
	return &api.APIError{StatusCode: 404, Message: "Item not in cart"}
}

func (m *mockCartAPI) ClearCart(context.Context) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.cart = nil
	return nil
}

func (m *mockCartAPI) addCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return len(m.adds)
}

type mockCache struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
}

func newMockCache() *mockCache {
	return &mockCache{carts: make(map[string]*domain.Cart)}
}

func (m *mockCache) Get(_ context.Context, sid string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[sid]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, sid string, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[sid] = c
	return m.err
}

func (m *mockCache) Delete(_ context.Context, sid string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, sid)
	return m.err
}

func (m *mockCache) getCart(sid string) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[sid]
}

type recordingNotifier struct {
	m   sync.Mutex
	got []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.m.Lock()
	defer r.m.Unlock()
	r.got = append(r.got, n)
	return nil
}

func (r *recordingNotifier) last() notify.Notification {
	r.m.Lock()
	defer r.m.Unlock()
	if len(r.got) == 0 {
		return notify.Notification{}
	}
	return r.got[len(r.got)-1]
}

func (r *recordingNotifier) count() int {
	r.m.Lock()
	defer r.m.Unlock()
	return len(r.got)
}

type staticUsers struct {
	id  string
	err error
}

func (s staticUsers) UserID(context.Context) (string, error) {
	return s.id, s.err
}

func nullLogger() (logrus.FieldLogger, *test.Hook) {
	return test.NewNullLogger()
}

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func publishedItem(id, vendor, start string, duration, available int) *domain.ProductItem {
	return &domain.ProductItem{
		ID:                id,
		VendorID:          vendor,
		ProductName:       "Tour " + id,
		ProductDate:       day,
		StartTime:         start,
		Duration:          duration,
		Price:             25,
		ItemStatus:        domain.ProductStatusPublished,
		QuantityAvailable: available,
	}
}
