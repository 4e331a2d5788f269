// README: Redis read-through cache in front of the directions provider.
package maps

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const routeKeyPrefix = "routes:"

// Provider is any directions backend the cache can sit in front of.
type Provider interface {
	GetRoute(ctx context.Context, origin, destination string, waypoints []string) (distanceKm float64, durationMin int, err error)
}

// CachedProvider memoizes directions lookups in Redis. Road networks don't
// change between a quote and the ride creation that follows it, so a short
// TTL saves a paid API call on the common quote-then-create sequence.
type CachedProvider struct {
	next  Provider
	redis *redis.Client
	ttl   time.Duration
}

func NewCachedProvider(next Provider, rdb *redis.Client, ttl time.Duration) *CachedProvider {
	return &CachedProvider{next: next, redis: rdb, ttl: ttl}
}

type cachedRoute struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

func (c *CachedProvider) GetRoute(ctx context.Context, origin, destination string, waypoints []string) (float64, int, error) {
	key := routeKey(origin, destination, waypoints)

	// A miss, a stale value, or cache trouble all mean the same thing:
	// ask the real provider. Only redis.Nil is expected here.
	val, err := c.redis.Get(ctx, key).Result()
	if err == nil {
		var r cachedRoute
		if json.Unmarshal([]byte(val), &r) == nil {
			return r.DistanceKm, r.DurationMinutes, nil
		}
	}

	distanceKm, durationMin, err := c.next.GetRoute(ctx, origin, destination, waypoints)
	if err != nil {
		return 0, 0, err
	}

	if data, err := json.Marshal(cachedRoute{DistanceKm: distanceKm, DurationMinutes: durationMin}); err == nil {
		_ = c.redis.Set(ctx, key, data, c.ttl).Err()
	}
	return distanceKm, durationMin, nil
}

func routeKey(origin, destination string, waypoints []string) string {
	parts := []string{origin, destination}
	parts = append(parts, waypoints...)
	return routeKeyPrefix + strings.Join(parts, "|")
}
