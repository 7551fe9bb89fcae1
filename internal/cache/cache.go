/**
 * @description
 * Read-through response cache over Redis.
 * Concurrent misses on one key collapse into a single loader call
 * (single-flight); every successful load also refreshes a longer-lived stale
 * replica that is served, flagged, when the loader later fails. TTL classes
 * separate volatile live data from listings and from the static catalog.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9
 * - golang.org/x/sync/singleflight
 */

package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/P2PPERU/sportbackend2-sub001/internal/logger"
)

// TTL classes by volatility. TTLCatalog entries live until explicitly
// invalidated.
const (
	TTLLive    = 20 * time.Second
	TTLListing = 5 * time.Minute
	TTLCatalog = 0
)

// staleFor sizes the stale replica's lifetime relative to the fresh TTL.
func staleFor(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	if stale := 10 * ttl; stale > time.Hour {
		return stale
	}
	return time.Hour
}

const generationKey = "cache:generation"

// Cache is the shared read-through cache. Safe for concurrent use.
type Cache struct {
	rdb   *redis.Client
	group singleflight.Group
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

type loadResult struct {
	value []byte
	stale bool
}

// GetOrLoad serves key from cache when a non-expired entry exists; otherwise
// it invokes loader once (across all concurrent callers of the same key),
// stores the result under its TTL class, and returns it. On loader failure an
// expired-but-retained stale replica is returned with stale=true instead of
// the error. Cancelling ctx detaches this caller only; the shared load runs
// under a detached context and completes for the remaining waiters.
func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) ([]byte, error)) (value []byte, stale bool, err error) {
	val, getErr := c.rdb.Get(ctx, key).Bytes()
	if getErr == nil {
		return val, false, nil
	}
	if getErr != redis.Nil {
		logger.Error("cache read failed for %s: %v", key, getErr)
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		loadCtx := context.WithoutCancel(ctx)

		// Another waiter may have populated the key while we queued.
		if val, err := c.rdb.Get(loadCtx, key).Bytes(); err == nil {
			return loadResult{value: val}, nil
		}

		fresh, loadErr := loader(loadCtx)
		if loadErr != nil {
			if staleVal, staleErr := c.rdb.Get(loadCtx, staleKey(key)).Bytes(); staleErr == nil {
				logger.Error("loader failed for %s, serving stale entry: %v", key, loadErr)
				return loadResult{value: staleVal, stale: true}, nil
			}
			return nil, loadErr
		}

		if err := c.rdb.Set(loadCtx, key, fresh, ttl).Err(); err != nil {
			logger.Error("cache write failed for %s: %v", key, err)
		}
		if staleTTL := staleFor(ttl); staleTTL > 0 {
			if err := c.rdb.Set(loadCtx, staleKey(key), fresh, staleTTL).Err(); err != nil {
				logger.Error("stale replica write failed for %s: %v", key, err)
			}
		}
		return loadResult{value: fresh}, nil
	})

	select {
	case <-ctx.Done():
		// Detach: the DoChan closure keeps running for the other waiters.
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		lr := res.Val.(loadResult)
		return lr.value, lr.stale, nil
	}
}

// Invalidate removes entries and their stale replicas.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) error {
	all := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		all = append(all, k, staleKey(k))
	}
	return c.rdb.Del(ctx, all...).Err()
}

// Generation returns the current cache generation. Query signatures embed it,
// so bumping the generation orphans every derived key at once.
func (c *Cache) Generation(ctx context.Context) string {
	val, err := c.rdb.Get(ctx, generationKey).Result()
	if err != nil {
		return "0"
	}
	return val
}

// BumpGeneration invalidates all generation-scoped entries. Called after a
// successful sync pass so reads converge without waiting out their TTL.
func (c *Cache) BumpGeneration(ctx context.Context) (int64, error) {
	return c.rdb.Incr(ctx, generationKey).Result()
}

func staleKey(key string) string {
	return "stale:" + key
}
