package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/kierolabs/dealdesk-backend/internal/platform/logger"
)

// GraphCache is a best-effort read-through cache for assembled lineage
// graph payloads. Graphs are deterministic for unchanged data, so a
// cached payload is exactly what a rebuild would produce; the promotion
// job invalidates the deal's keys whenever it changes anything.
type GraphCache interface {
	Get(ctx context.Context, dealID uuid.UUID, variant string) ([]byte, bool)
	Set(ctx context.Context, dealID uuid.UUID, variant string, payload []byte)
	Invalidate(ctx context.Context, dealID uuid.UUID) error
	Close() error
}

type graphCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewGraphCache(log *logger.Logger) (GraphCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttl := 5 * time.Minute
	if raw := strings.TrimSpace(os.Getenv("GRAPH_CACHE_TTL")); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			ttl = parsed
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &graphCache{
		log: log.With("service", "RedisGraphCache"),
		rdb: rdb,
		ttl: ttl,
	}, nil
}

func cacheKey(dealID uuid.UUID, variant string) string {
	return fmt.Sprintf("lineage:graph:%s:%s", dealID, variant)
}

func (c *graphCache) Get(ctx context.Context, dealID uuid.UUID, variant string) ([]byte, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(dealID, variant)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("graph cache read failed", "deal_id", dealID, "error", err)
		}
		return nil, false
	}
	return raw, true
}

func (c *graphCache) Set(ctx context.Context, dealID uuid.UUID, variant string, payload []byte) {
	if c == nil || c.rdb == nil || len(payload) == 0 {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(dealID, variant), payload, c.ttl).Err(); err != nil {
		c.log.Warn("graph cache write failed", "deal_id", dealID, "error", err)
	}
}

// Invalidate drops every cached variant for the deal.
func (c *graphCache) Invalidate(ctx context.Context, dealID uuid.UUID) error {
	if c == nil || c.rdb == nil {
		return nil
	}
	pattern := cacheKey(dealID, "*")
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan graph cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *graphCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

// NopGraphCache satisfies GraphCache when redis is not configured; every
// read misses and writes are dropped.
type NopGraphCache struct{}

func (NopGraphCache) Get(context.Context, uuid.UUID, string) ([]byte, bool) { return nil, false }
func (NopGraphCache) Set(context.Context, uuid.UUID, string, []byte)        {}
func (NopGraphCache) Invalidate(context.Context, uuid.UUID) error           { return nil }
func (NopGraphCache) Close() error                                          { return nil }
