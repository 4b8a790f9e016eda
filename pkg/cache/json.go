package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matzehuels/lineage/pkg/observability"
)

// GetJSON reads a cached JSON value into v. It returns ErrCacheMiss when the
// key is absent or the stored value no longer decodes.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	kind := KindOf(key)
	data, ok, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		observability.Cache().OnCacheMiss(ctx, kind)
		return ErrCacheMiss
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, kind)
		return fmt.Errorf("%w: %v", ErrCacheMiss, err)
	}
	observability.Cache().OnCacheHit(ctx, kind)
	return nil
}

// SetJSON stores v as JSON under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, KindOf(key), len(data))
	return nil
}
