package application

import (
	"context"
	"encoding/json"
	"fmt"
)

// QueryCache is a read-through cache of upstream responses keyed by query key
type QueryCache interface {
	// Load returns the cached bytes for key or runs fetch and stores its result
	Load(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error)
	// Invalidate drops each key together with every key it covers
	Invalidate(ctx context.Context, keys ...string) error
}

func cached[T any](ctx context.Context, cache QueryCache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	var out T

	if cache == nil {
		return fetch(ctx)
	}

	raw, err := cache.Load(ctx, key, func(ctx context.Context) ([]byte, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return out, nil
}
