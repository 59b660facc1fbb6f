// Package cache holds the Redis-backed helpers: connection setup and the
// invitation throttle.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const throttlePrefix = "invite:throttle:"

// Open parses a redis:// URL. An empty URL returns a nil client; Redis is optional.
func Open(url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return redis.NewClient(opt), nil
}

// Throttle allows one invitation per (organization, email) per window.
type Throttle struct {
	Rdb    *redis.Client
	Window time.Duration
}

// NewThrottle returns nil when rdb is nil. A nil *Throttle allows everything.
func NewThrottle(rdb *redis.Client, window time.Duration) *Throttle {
	if rdb == nil {
		return nil
	}
	return &Throttle{Rdb: rdb, Window: window}
}

// Allow reserves the (orgID, email) slot. It reports false while a previous
// reservation is still live.
func (t *Throttle) Allow(ctx context.Context, orgID, email string) (bool, error) {
	if t == nil {
		return true, nil
	}
	key := throttlePrefix + orgID + ":" + strings.ToLower(email)
	return t.Rdb.SetNX(ctx, key, time.Now().UTC().Unix(), t.Window).Result()
}

// Release drops the reservation, e.g. after the invitation could not be stored.
func (t *Throttle) Release(ctx context.Context, orgID, email string) error {
	if t == nil {
		return nil
	}
	return t.Rdb.Del(ctx, throttlePrefix+orgID+":"+strings.ToLower(email)).Err()
}
