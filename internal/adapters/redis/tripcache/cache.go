package tripcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/tourvisto/travel-planner-api/internal/domain"
)

const (
	keyPrefix  = "trip:"
	DefaultTTL = 24 * time.Hour
)

// Cache is a Redis implementation of tripcache.Cache. Entries expire after ttl.
type Cache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCache(client *goredis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

type entry struct {
	ID          domain.TripID     `json:"id"`
	Detail      domain.TripDetail `json:"detail"`
	ImageURLs   []string          `json:"imageUrls"`
	PaymentLink *string           `json:"paymentLink,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
}

func key(id domain.TripID) string { return keyPrefix + string(id) }

func (c *Cache) Get(ctx context.Context, id domain.TripID) (domain.Trip, bool, error) {
	raw, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return domain.Trip{}, false, nil
		}
		return domain.Trip{}, false, err
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		// A corrupt entry is a miss; drop it so the next Set replaces it.
		_ = c.client.Del(ctx, key(id)).Err()
		return domain.Trip{}, false, nil
	}
	return domain.Trip{
		ID:          e.ID,
		TripDetail:  e.Detail,
		ImageURLs:   e.ImageURLs,
		PaymentLink: e.PaymentLink,
		CreatedAt:   e.CreatedAt.UTC(),
	}, true, nil
}

func (c *Cache) Set(ctx context.Context, t domain.Trip) error {
	data, err := json.Marshal(entry{
		ID:          t.ID,
		Detail:      t.TripDetail,
		ImageURLs:   t.ImageURLs,
		PaymentLink: t.PaymentLink,
		CreatedAt:   t.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode trip %s: %w", t.ID, err)
	}
	return c.client.Set(ctx, key(t.ID), data, c.ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context, id domain.TripID) error {
	return c.client.Del(ctx, key(id)).Err()
}
