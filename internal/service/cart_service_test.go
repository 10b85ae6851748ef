package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fjod/ixplor/internal/api"
	"github.com/fjod/ixplor/internal/domain"
	"github.com/fjod/ixplor/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cartFixture struct {
	svc      *CartService
	remote   *mockCartAPI
	items    *mockItems
	cache    *mockCache
	notifier *recordingNotifier
}

func newCartFixture(items ...*domain.ProductItem) *cartFixture {
	f := &cartFixture{
		remote:   &mockCartAPI{},
		items:    &mockItems{items: map[string]*domain.ProductItem{}},
		cache:    newMockCache(),
		notifier: &recordingNotifier{},
	}
	for _, it := range items {
		f.items.items[it.ID] = it
	}
	log, _ := nullLogger()
	f.svc = NewCartService(f.remote, f.items, f.cache, f.notifier, staticUsers{id: "u1"}, log)
	return f
}

func TestAddToCart_Success(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 5))
	ctx := context.Background()

	cart, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "p1", Quantity: 2})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	require.Len(t, f.remote.adds, 1)
	sent := f.remote.adds[0]
	assert.Equal(t, "v1", sent.VendorID)
	assert.Equal(t, "10:00", sent.ProductStartTime)
	assert.Equal(t, 60, sent.ProductDuration)
	assert.Equal(t, 25.0, sent.Price)

	n := f.notifier.last()
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "u1", n.UserID)
	assert.Equal(t, "Tour p1 x2", n.Message)
}

func TestAddToCart_InventoryErrorShortCircuits(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 1))

	_, err := f.svc.AddToCart(context.Background(), "s1", AddItemRequest{ProductItemID: "p1", Quantity: 2})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindInsufficientQuantity, verr.Kind)
	assert.Zero(t, f.remote.addCount(), "remote cart must not be called")
	assert.Equal(t, notify.KindError, f.notifier.last().Kind)
}

func TestAddToCart_UnpublishedItem(t *testing.T) {
	item := publishedItem("p1", "v1", "10:00", 60, 5)
	item.ItemStatus = domain.ProductStatusCancelled
	f := newCartFixture(item)

	_, err := f.svc.AddToCart(context.Background(), "s1", AddItemRequest{ProductItemID: "p1", Quantity: 1})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindItemUnavailable, verr.Kind)
	assert.Zero(t, f.remote.addCount())
}

func TestAddToCart_TimeConflict(t *testing.T) {
	f := newCartFixture(
		publishedItem("morning", "v1", "10:00", 60, 5),
		publishedItem("overlap", "v1", "10:30", 60, 5),
		publishedItem("after", "v1", "11:00", 60, 5),
	)
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "morning", Quantity: 1})
	require.NoError(t, err)

	_, err = f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "overlap", Quantity: 1})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindTimeConflict, verr.Kind)
	assert.Equal(t, 1, f.remote.addCount())

	_, err = f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "after", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, f.remote.addCount())
}

func TestAddToCart_ReAddUpdatesQuantity(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 5))
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "p1", Quantity: 1})
	require.NoError(t, err)
	cart, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "p1", Quantity: 3})
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)
}

func TestAddToCart_FailsOpenWhenLookupFails(t *testing.T) {
	f := newCartFixture()
	f.items.err = api.ErrNetwork

	_, err := f.svc.AddToCart(context.Background(), "s1", AddItemRequest{ProductItemID: "p1", Quantity: 2})

	require.NoError(t, err)
	require.Equal(t, 1, f.remote.addCount())
	assert.Equal(t, "p1", f.remote.adds[0].ProductItemID)
	assert.Equal(t, 2, f.remote.adds[0].Quantity)
	assert.Equal(t, 2, f.items.calls, "details are fetched once more after the failed check")
}

func TestAddToCart_InvalidInput(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "p1", Quantity: 0})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindValidation, verr.Kind)

	_, err = f.svc.AddToCart(ctx, "s1", AddItemRequest{Quantity: 1})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindValidation, verr.Kind)

	assert.Zero(t, f.items.calls)
	assert.Equal(t, 2, f.notifier.count())
}

func TestAddToCart_RemoteErrorNotifies(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 5))
	f.remote.err = &api.APIError{StatusCode: 400, Message: "Cart limit reached"}

	_, err := f.svc.AddToCart(context.Background(), "s1", AddItemRequest{ProductItemID: "p1", Quantity: 1})

	require.Error(t, err)
	n := f.notifier.last()
	assert.Equal(t, notify.KindError, n.Kind)
	assert.Equal(t, "Cart limit reached", n.Message)
}

func TestAddToCart_InvalidatesCache(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 5))
	ctx := context.Background()
	f.cache.carts["s1"] = &domain.Cart{}

	cart, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "p1", Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1, "stale cached cart must not be returned")

	require.Eventually(t, func() bool {
		c := f.cache.getCart("s1")
		return c != nil && len(c.Items) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestAddToCart_SerializedPerSession(t *testing.T) {
	var items []*domain.ProductItem
	for _, id := range []string{"a", "b", "c", "d"} {
		it := publishedItem(id, "v1", "", 0, 5)
		items = append(items, it)
	}
	f := newCartFixture(items...)
	f.remote.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for _, it := range items {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.AddToCart(context.Background(), "s1", AddItemRequest{ProductItemID: id, Quantity: 1})
			assert.NoError(t, err)
		}(it.ID)
	}
	wg.Wait()

	assert.Equal(t, 4, f.remote.addCount())
	assert.Equal(t, 1, f.remote.peak)
}

func TestAddToCart_RefetchFailureKeepsAddedCart(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 5))
	f.remote.getErr = api.ErrNetwork

	cart, err := f.svc.AddToCart(context.Background(), "s1", AddItemRequest{ProductItemID: "p1", Quantity: 1})

	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p1", cart.Items[0].ProductItemID)
	assert.Equal(t, 1, f.remote.addCount())
	assert.Nil(t, f.cache.getCart("s1"))

	n := f.notifier.last()
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "Tour p1 x1", n.Message)
}

func TestGetCart_SlowReadDoesNotOverwriteRefreshedCart(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 5))
	ctx := context.Background()
	f.remote.cart = &domain.Cart{Items: []domain.CartItem{{ProductItemID: "p1", Quantity: 1}}}
	hold := make(chan struct{})
	f.remote.hold = hold

	done := make(chan *domain.Cart, 1)
	go func() {
		cart, err := f.svc.GetCart(ctx, "s1")
		assert.NoError(t, err)
		done <- cart
	}()
	require.Eventually(t, func() bool { return f.remote.getCount() == 1 }, time.Second, 5*time.Millisecond)

	updated, err := f.svc.UpdateQuantity(ctx, "s1", "p1", 3)
	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, 3, updated.Items[0].Quantity)

	close(hold)
	select {
	case slow := <-done:
		require.Len(t, slow.Items, 1)
		assert.Equal(t, 1, slow.Items[0].Quantity)
	case <-time.After(time.Second):
		t.Fatal("slow read did not return")
	}

	cached := f.cache.getCart("s1")
	require.NotNil(t, cached)
	require.Len(t, cached.Items, 1)
	assert.Equal(t, 3, cached.Items[0].Quantity)
}

func TestGetCart_CacheHit(t *testing.T) {
	f := newCartFixture()
	f.cache.carts["s1"] = &domain.Cart{ID: "cached"}

	cart, err := f.svc.GetCart(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "cached", cart.ID)
	assert.Zero(t, f.remote.gets)
}

func TestGetCart_MissLoadsAndCaches(t *testing.T) {
	f := newCartFixture()
	f.remote.cart = &domain.Cart{ID: "remote", Items: []domain.CartItem{{ProductItemID: "p1", Quantity: 1}}}

	cart, err := f.svc.GetCart(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "remote", cart.ID)
	require.Eventually(t, func() bool {
		return f.cache.getCart("s1") != nil
	}, time.Second, 10*time.Millisecond)
}

func TestGetCart_NotFoundIsEmpty(t *testing.T) {
	f := newCartFixture()

	cart, err := f.svc.GetCart(context.Background(), "s1")

	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestGetCart_CacheErrorFallsBackToRemote(t *testing.T) {
	f := newCartFixture()
	f.cache.err = errors.New("redis down")
	f.remote.cart = &domain.Cart{ID: "remote"}

	cart, err := f.svc.GetCart(context.Background(), "s1")

	require.NoError(t, err)
	assert.Equal(t, "remote", cart.ID)
}

func TestGetCart_RemoteError(t *testing.T) {
	f := newCartFixture()
	f.remote.getErr = api.ErrNetwork

	_, err := f.svc.GetCart(context.Background(), "s1")
	assert.True(t, api.IsNetwork(err))
}

func TestUpdateQuantity(t *testing.T) {
	f := newCartFixture(publishedItem("p1", "v1", "10:00", 60, 3))
	ctx := context.Background()
	_, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "p1", Quantity: 1})
	require.NoError(t, err)

	cart, err := f.svc.UpdateQuantity(ctx, "s1", "p1", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	_, err = f.svc.UpdateQuantity(ctx, "s1", "p1", 4)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindInsufficientQuantity, verr.Kind)

	_, err = f.svc.UpdateQuantity(ctx, "s1", "p1", -1)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, KindValidation, verr.Kind)
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newCartFixture(
		publishedItem("p1", "v1", "10:00", 60, 3),
		publishedItem("p2", "v1", "12:00", 60, 3),
	)
	ctx := context.Background()
	for _, id := range []string{"p1", "p2"} {
		_, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: id, Quantity: 1})
		require.NoError(t, err)
	}

	cart, err := f.svc.RemoveItem(ctx, "s1", "p1")
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "p2", cart.Items[0].ProductItemID)

	require.NoError(t, f.svc.ClearCart(ctx, "s1"))
	cart, err = f.svc.GetCart(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Equal(t, "Cart cleared", f.notifier.last().Title)
}

func TestCartSummaryAfterAdds(t *testing.T) {
	cheap := publishedItem("cheap", "v1", "09:00", 30, 5)
	cheap.Price = 10
	f := newCartFixture(cheap, publishedItem("pricey", "v1", "13:00", 30, 5))
	ctx := context.Background()

	_, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "cheap", Quantity: 2})
	require.NoError(t, err)
	cart, err := f.svc.AddToCart(ctx, "s1", AddItemRequest{ProductItemID: "pricey", Quantity: 1})
	require.NoError(t, err)

	s := cart.Summary()
	assert.Equal(t, "45", s.Total.String())
	assert.Equal(t, 3, s.ItemCount)
}
