package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/ixplor/internal/domain"
	"github.com/redis/go-redis/v9"
)

const vendorsKey = "vendors:all"

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCartCache) Get(ctx context.Context, sessionID string) (*domain.Cart, error) {
	data, err := r.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var cart domain.Cart
	if err2 := json.Unmarshal(data, &cart); err2 != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err2)
	}

	return &cart, nil
}

func (r RedisCartCache) Set(ctx context.Context, sessionID string, cart *domain.Cart) error {
	jsonCart, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, cartKey(sessionID), jsonCart, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCartCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// RedisVendorStore shares the flattened vendor list between gateway replicas.
// Entries expire with the same TTL as the in-process cache.
type RedisVendorStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisVendorStore(client *redis.Client, ttl time.Duration) *RedisVendorStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisVendorStore{client: client, ttl: ttl}
}

type vendorSnapshot struct {
	FetchedAt time.Time       `json:"fetched_at"`
	Vendors   []domain.Vendor `json:"vendors"`
}

func (r *RedisVendorStore) Get(ctx context.Context) ([]domain.Vendor, time.Time, error) {
	data, err := r.client.Get(ctx, vendorsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, ErrCacheMiss
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis get failed: %w", err)
	}

	var snap vendorSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, time.Time{}, fmt.Errorf("unmarshal vendors failed: %w", err)
	}
	return snap.Vendors, snap.FetchedAt, nil
}

func (r *RedisVendorStore) Set(ctx context.Context, vendors []domain.Vendor, fetchedAt time.Time) error {
	data, err := json.Marshal(vendorSnapshot{FetchedAt: fetchedAt, Vendors: vendors})
	if err != nil {
		return fmt.Errorf("marshal vendors failed: %w", err)
	}
	if err := r.client.Set(ctx, vendorsKey, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisVendorStore) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, vendorsKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
