package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/cache"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/notify"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CartAPI is the remote cart of the signed-in user in ctx.
type CartAPI interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddToCart(ctx context.Context, req api.AddToCartRequest) (*domain.Cart, error)
	UpdateCartItem(ctx context.Context, productItemID string, quantity int) (*domain.Cart, error)
	RemoveCartItem(ctx context.Context, productItemID string) error
	ClearCart(ctx context.Context) error
}

// UserResolver maps the session in ctx to a user id.
type UserResolver interface {
	UserID(ctx context.Context) (string, error)
}

type CartService struct {
	remote   CartAPI
	items    ItemSource
	cache    cache.CartCache
	notifier notify.Notifier
	users    UserResolver
	log      logrus.FieldLogger

	sfg   singleflight.Group // collapses concurrent cart reads per session
	locks keyedMutex         // one mutation at a time per session

	genMu sync.Mutex
	gens  map[string]uint64 // bumped on every invalidation
}

func NewCartService(remote CartAPI, items ItemSource, cartCache cache.CartCache, notifier notify.Notifier, users UserResolver, log logrus.FieldLogger) *CartService {
	return &CartService{
		remote:   remote,
		items:    items,
		cache:    cartCache,
		notifier: notifier,
		users:    users,
		log:      log,
		gens:     make(map[string]uint64),
	}
}

// GetCart reads through the cache. A missing remote cart is an empty one.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WithError(err).Warn("cart cache get failed")
		}

		gen := s.generation(sessionID)
		cart, err = s.remote.GetCart(ctx)
		if errors.Is(err, api.ErrNotFound) {
			now := time.Now()
			return &domain.Cart{CreatedAt: now, UpdatedAt: now}, nil
		}
		if err != nil {
			return nil, err
		}

		s.store(ctx, sessionID, gen, cart)
		return cart, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.Cart), nil
}

type AddItemRequest struct {
	ProductItemID string
	Quantity      int
}

// AddToCart validates inventory, checks the slot against the current cart and
// submits the item. Validation failures never reach the remote cart.
func (s *CartService) AddToCart(ctx context.Context, sessionID string, req AddItemRequest) (*domain.Cart, error) {
	if req.ProductItemID == "" {
		return nil, s.fail(ctx, "Add to cart failed", invalid("", "product item id is required"))
	}
	if req.Quantity <= 0 {
		return nil, s.fail(ctx, "Add to cart failed", invalid(req.ProductItemID, "quantity must be positive, got %d", req.Quantity))
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	item, verr := checkInventory(ctx, s.items, s.log, req.ProductItemID, req.Quantity)
	if verr != nil {
		return nil, s.fail(ctx, "Add to cart failed", verr)
	}
	if item == nil {
		item = s.itemDetails(ctx, req.ProductItemID)
	}

	body := api.AddToCartRequest{ProductItemID: req.ProductItemID, Quantity: req.Quantity}
	if item != nil {
		body = api.AddToCartRequest{
			ProductItemID:    item.ID,
			ProductName:      item.ProductName,
			Price:            item.Price,
			Quantity:         req.Quantity,
			ProductDate:      item.ProductDate,
			ProductStartTime: item.StartTime,
			ProductDuration:  item.Duration,
			VendorID:         item.VendorID,
		}
		if body.ProductItemID == "" {
			body.ProductItemID = req.ProductItemID
		}

		current, err := s.GetCart(ctx, sessionID)
		if err != nil {
			s.log.WithError(err).Warn("time conflict check skipped, cart unavailable")
		} else if verr := CheckTimeConflicts(cartItemFrom(body), current.Items); verr != nil {
			return nil, s.fail(ctx, "Add to cart failed", verr)
		}
	}

	added, err := s.remote.AddToCart(ctx, body)
	if err != nil {
		return nil, s.fail(ctx, "Add to cart failed", err)
	}

	cart, err := s.settle(ctx, sessionID, added)
	if err != nil {
		return nil, err
	}
	s.succeed(ctx, "Added to cart", describe(body.ProductName, req.Quantity))
	return cart, nil
}

// UpdateQuantity sets the quantity of an item already in the cart.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productItemID string, qty int) (*domain.Cart, error) {
	if productItemID == "" {
		return nil, s.fail(ctx, "Update failed", invalid("", "product item id is required"))
	}
	if qty <= 0 {
		return nil, s.fail(ctx, "Update failed", invalid(productItemID, "quantity must be positive, got %d", qty))
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if verr := ValidateInventory(ctx, s.items, s.log, productItemID, qty); verr != nil {
		return nil, s.fail(ctx, "Update failed", verr)
	}

	updated, err := s.remote.UpdateCartItem(ctx, productItemID, qty)
	if err != nil {
		return nil, s.fail(ctx, "Update failed", err)
	}

	cart, err := s.settle(ctx, sessionID, updated)
	if err != nil {
		return nil, err
	}
	s.succeed(ctx, "Cart updated", fmt.Sprintf("Quantity set to %d", qty))
	return cart, nil
}

func (s *CartService) RemoveItem(ctx context.Context, sessionID, productItemID string) (*domain.Cart, error) {
	if productItemID == "" {
		return nil, s.fail(ctx, "Remove failed", invalid("", "product item id is required"))
	}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.remote.RemoveCartItem(ctx, productItemID); err != nil {
		return nil, s.fail(ctx, "Remove failed", err)
	}

	cart, err := s.refresh(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	s.succeed(ctx, "Removed from cart", "Item removed")
	return cart, nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	if err := s.remote.ClearCart(ctx); err != nil {
		return s.fail(ctx, "Clear cart failed", err)
	}

	s.Invalidate(sessionID)
	s.succeed(ctx, "Cart cleared", "Your cart is empty")
	return nil
}

// Invalidate drops the cached cart of a session. Reads already in flight
// for the session no longer write their result to the cache.
func (s *CartService) Invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	s.genMu.Lock()
	s.gens[sessionID]++
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.WithError(err).Warn("cart cache invalidate failed")
	}
	s.genMu.Unlock()
	s.sfg.Forget(sessionID)
}

func (s *CartService) generation(sessionID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[sessionID]
}

// store caches cart unless the session was invalidated since gen was read.
func (s *CartService) store(ctx context.Context, sessionID string, gen uint64, cart *domain.Cart) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[sessionID] != gen {
		s.log.WithField("session_id", sessionID).Debug("stale cart read not cached")
		return
	}
	if err := s.cache.Set(ctx, sessionID, cart); err != nil {
		s.log.WithError(err).Warn("cart cache set failed")
	}
}

// refresh invalidates the cached cart and reads it back from the remote.
func (s *CartService) refresh(ctx context.Context, sessionID string) (*domain.Cart, error) {
	s.Invalidate(sessionID)
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("refetch cart: %w", err)
	}
	return cart, nil
}

// settle refreshes the cart after a mutation the remote already accepted.
// When the read back fails the cart returned by the mutation stands in.
func (s *CartService) settle(ctx context.Context, sessionID string, mutated *domain.Cart) (*domain.Cart, error) {
	cart, err := s.refresh(ctx, sessionID)
	if err == nil {
		return cart, nil
	}
	if mutated == nil {
		return nil, err
	}
	s.log.WithError(err).Warn("cart refetch failed, using mutation result")
	return mutated, nil
}

func (s *CartService) itemDetails(ctx context.Context, id string) *domain.ProductItem {
	item, err := s.items.GetProductItem(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("product_item_id", id).Warn("time conflict check skipped, item details unavailable")
		return nil
	}
	return item
}

// fail notifies about err and returns it unchanged.
func (s *CartService) fail(ctx context.Context, title string, err error) error {
	s.send(ctx, notify.Failure(title, err.Error()))
	return err
}

func (s *CartService) succeed(ctx context.Context, title, message string) {
	s.send(ctx, notify.Success(title, message))
}

func (s *CartService) send(ctx context.Context, n notify.Notification) {
	if s.notifier == nil {
		return
	}
	if s.users != nil {
		if uid, err := s.users.UserID(ctx); err == nil {
			n.UserID = uid
		}
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.WithError(err).Warn("notification failed")
	}
}

func cartItemFrom(r api.AddToCartRequest) domain.CartItem {
	return domain.CartItem{
		ProductItemID:    r.ProductItemID,
		ProductName:      r.ProductName,
		ProductDate:      r.ProductDate,
		ProductStartTime: r.ProductStartTime,
		ProductDuration:  r.ProductDuration,
		Quantity:         r.Quantity,
		Price:            r.Price,
		VendorID:         r.VendorID,
	}
}

func describe(name string, qty int) string {
	if name == "" {
		name = "Item"
	}
	return fmt.Sprintf("%s x%d", name, qty)
}
