package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wms-platform/fulfillment-console/internal/application"
	"github.com/wms-platform/fulfillment-console/pkg/logging"
	"github.com/wms-platform/fulfillment-console/pkg/metrics"
)

// Invalidation sources reported to metrics
const (
	SourceAction = "action"
	SourceEvent  = "event"
)

// Config holds query cache settings
type Config struct {
	TTL time.Duration
}

// DefaultConfig returns the default query cache settings
func DefaultConfig() *Config {
	return &Config{TTL: 30 * time.Second}
}

// QueryCache is the read-through cache behind the query service.
// Concurrent loads of one key share a single fetch. A fetch that started
// before an invalidation is returned to its callers but never stored.
type QueryCache struct {
	store Store
	ttl   time.Duration
	group singleflight.Group
	epoch atomic.Uint64
	// writes holds the epoch check and Set against a concurrent invalidation
	writes  sync.RWMutex
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewQueryCache creates a QueryCache over store. m may be nil.
func NewQueryCache(store Store, config *Config, logger *logging.Logger, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		ttl:     config.TTL,
		logger:  logger.WithComponent("query-cache"),
		metrics: m,
	}
}

// Load returns the stored response for key, fetching it on a miss
func (c *QueryCache) Load(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	resource := application.KeyResource(key)

	value, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).Warn("Cache read failed, fetching upstream", "key", key)
	}
	if ok {
		c.metrics.RecordCacheLookup(resource, true)
		return value, nil
	}
	c.metrics.RecordCacheLookup(resource, false)

	epoch := c.epoch.Load()
	flightKey := fmt.Sprintf("%s#%d", key, epoch)

	// The shared fetch outlives any one caller's cancellation
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		raw, err := fetch(flightCtx)
		if err != nil {
			return nil, err
		}
		c.storeIfCurrent(flightCtx, key, raw, epoch)
		return raw, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *QueryCache) storeIfCurrent(ctx context.Context, key string, raw []byte, epoch uint64) {
	c.writes.RLock()
	defer c.writes.RUnlock()

	if c.epoch.Load() != epoch {
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Cache write failed", "key", key)
	}
}

// Invalidate drops each key and every key it covers after a console action
func (c *QueryCache) Invalidate(ctx context.Context, keys ...string) error {
	return c.InvalidateFrom(ctx, SourceAction, keys...)
}

// InvalidateFrom drops keys and records which source asked for it
func (c *QueryCache) InvalidateFrom(ctx context.Context, source string, keys ...string) error {
	c.writes.Lock()
	defer c.writes.Unlock()

	c.epoch.Add(1)

	var firstErr error
	for _, key := range keys {
		if err := c.store.DeleteCovered(ctx, key); err != nil {
			c.logger.WithError(err).Error("Cache invalidation failed", "key", key, "source", source)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		c.metrics.RecordCacheInvalidation(application.KeyResource(key), source)
		c.logger.Debug("Cache invalidated", "key", key, "source", source)
	}
	return firstErr
}

var _ application.QueryCache = (*QueryCache)(nil)
