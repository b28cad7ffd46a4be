package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"taxprotest/internal/comparables"
	"taxprotest/internal/observability"
)

const cacheName = "reports"

// Reports caches built reports in Redis. Keys carry the dataset generation, so
// a reload makes every older entry unreachable and the TTL cleans them up.
type Reports struct {
	c   *redis.Client
	ttl time.Duration
}

func New(addr, pass string, db int, ttl time.Duration) *Reports {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}), ttl)
}

func NewWithClient(c *redis.Client, ttl time.Duration) *Reports {
	return &Reports{c: c, ttl: ttl}
}

func (r *Reports) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }

func (r *Reports) Close() error { return r.c.Close() }

// Key builds the cache key for a report query. kind is "account" or "address".
func Key(generation uint64, kind, query string) string {
	return fmt.Sprintf("taxprotest:report:%d:%s:%s", generation, kind, strings.ToUpper(strings.TrimSpace(query)))
}

func (r *Reports) Get(ctx context.Context, key string) (comparables.Report, bool, error) {
	var rep comparables.Report
	v, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observability.ObserveCache(cacheName, "miss")
		return rep, false, nil
	}
	if err != nil {
		return rep, false, err
	}
	if err := json.Unmarshal(v, &rep); err != nil {
		return rep, false, err
	}
	observability.ObserveCache(cacheName, "hit")
	return rep, true, nil
}

func (r *Reports) Set(ctx context.Context, key string, rep comparables.Report) error {
	b, err := json.Marshal(rep)
	if err != nil {
		return err
	}
	observability.ObserveCache(cacheName, "set")
	return r.c.Set(ctx, key, b, r.ttl).Err()
}

// GetOrBuild returns the cached report for key or builds and stores it. Redis
// failures are logged and never fail the request.
func (r *Reports) GetOrBuild(ctx context.Context, key string, build func() comparables.Report) (comparables.Report, bool) {
	rep, ok, err := r.Get(ctx, key)
	if err != nil {
		observability.ObserveCache(cacheName, "error")
		log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
	}
	if ok {
		return rep, true
	}
	rep = build()
	if err := r.Set(ctx, key, rep); err != nil {
		observability.ObserveCache(cacheName, "error")
		log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
	return rep, false
}
