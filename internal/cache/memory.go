package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/domain"
)

// DefaultCartTTL bounds how long a cart snapshot is served without Redis.
const DefaultCartTTL = 10 * time.Minute

// MemoryCartCache is the single-instance CartCache used when no Redis
// address is configured.
type MemoryCartCache struct {
	clock Clock
	ttl   time.Duration

	mu    sync.Mutex
	carts map[string]memoryCart
}

type memoryCart struct {
	cart    domain.Cart
	expires time.Time
}

func NewMemoryCartCache(clock Clock, ttl time.Duration) *MemoryCartCache {
	if clock == nil {
		clock = RealClock{}
	}
	if ttl <= 0 {
		ttl = DefaultCartTTL
	}
	return &MemoryCartCache{clock: clock, ttl: ttl, carts: make(map[string]memoryCart)}
}

func (m *MemoryCartCache) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCacheMiss
	}
	if !m.clock.Now().Before(e.expires) {
		delete(m.carts, sessionID)
		return nil, ErrCacheMiss
	}
	c := e.cart
	c.Items = append([]domain.CartItem(nil), e.cart.Items...)
	return &c, nil
}

func (m *MemoryCartCache) Set(_ context.Context, sessionID string, cart *domain.Cart) error {
	c := *cart
	c.Items = append([]domain.CartItem(nil), cart.Items...)

	m.mu.Lock()
	m.carts[sessionID] = memoryCart{cart: c, expires: m.clock.Now().Add(m.ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCartCache) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.carts, sessionID)
	m.mu.Unlock()
	return nil
}
