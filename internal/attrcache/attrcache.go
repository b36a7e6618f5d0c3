// Package attrcache keeps domain attribute maps in Redis so repeated fetches of
// the same folder skip the per-domain HSDS round trips.
//
// Catalog decorates any catalog source. Domain listings always go to the source;
// attribute lookups are served from Redis when present and written back after a
// successful source call. Redis failures never fail a lookup, they only cost a miss.
package attrcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"firefly/cli/internal/hsds"
	"firefly/cli/internal/metrics"
)

const keyPrefix = "firefly:attrs:"

// Source is the catalog being cached.
type Source interface {
	ListDomains(ctx context.Context, bucket, folder string, query []hsds.Clause) ([]hsds.Domain, error)
	FetchAttributes(ctx context.Context, bucket, root, domain string) (hsds.Attributes, error)
}

// Catalog is a Source with a Redis read-through cache on FetchAttributes.
type Catalog struct {
	next Source
	rdb  redis.Cmdable
	ttl  time.Duration
	log  *slog.Logger
}

// New wraps next. A non-positive ttl stores entries without expiry.
func New(next Source, rdb redis.Cmdable, ttl time.Duration, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Catalog{next: next, rdb: rdb, ttl: ttl, log: log}
}

// Dial connects to Redis at addr and verifies the connection.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Key returns the cache key of a domain's attributes.
func Key(bucket, root, domain string) string {
	return keyPrefix + bucket + ":" + root + ":" + domain
}

func (c *Catalog) ListDomains(ctx context.Context, bucket, folder string, query []hsds.Clause) ([]hsds.Domain, error) {
	return c.next.ListDomains(ctx, bucket, folder, query)
}

func (c *Catalog) FetchAttributes(ctx context.Context, bucket, root, domain string) (hsds.Attributes, error) {
	key := Key(bucket, root, domain)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var attrs hsds.Attributes
		if uerr := json.Unmarshal(raw, &attrs); uerr == nil {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
			return attrs, nil
		}
		c.log.Warn("discarding unreadable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn("attribute cache read failed", "key", key, "err", err)
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()

	attrs, err := c.next.FetchAttributes(ctx, bucket, root, domain)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(attrs)
	if err != nil {
		c.log.Warn("attribute cache encode failed", "key", key, "err", err)
		return attrs, nil
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.Warn("attribute cache write failed", "key", key, "err", err)
	}
	return attrs, nil
}

// Purge deletes every cached entry of bucket and reports how many were removed.
func (c *Catalog) Purge(ctx context.Context, bucket string) (int, error) {
	return Purge(ctx, c.rdb, bucket)
}

// Purge deletes every cached entry of bucket from rdb.
func Purge(ctx context.Context, rdb redis.Cmdable, bucket string) (int, error) {
	pattern := keyPrefix + bucket + ":*"
	var (
		cursor  uint64
		removed int
	)
	for {
		keys, next, err := rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return removed, fmt.Errorf("scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := rdb.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("delete cached attributes: %w", err)
			}
			removed += int(n)
		}
		cursor = next
		if cursor == 0 {
			return removed, nil
		}
	}
}
