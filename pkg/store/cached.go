package store

import (
	"context"
	"time"

	"github.com/matzehuels/lineage/pkg/cache"
	"github.com/matzehuels/lineage/pkg/family"
)

// cached is a read-through cache in front of a Store. Writes go to the
// store first and then invalidate the cached copy.
type cached struct {
	Store
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// Cached wraps s with a read-through tree cache. A zero ttl uses
// [cache.TTLTree]; a nil keyer uses the default keyer.
func Cached(s Store, c cache.Cache, keyer cache.Keyer, ttl time.Duration) Store {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if ttl == 0 {
		ttl = cache.TTLTree
	}
	return &cached{Store: s, cache: c, keyer: keyer, ttl: ttl}
}

func (c *cached) Get(ctx context.Context, id string) (family.Tree, error) {
	key := c.keyer.TreeKey(id)
	var t family.Tree
	if err := cache.GetJSON(ctx, c.cache, key, &t); err == nil {
		return t, nil
	}
	t, err := c.Store.Get(ctx, id)
	if err != nil {
		return family.Tree{}, err
	}
	_ = cache.SetJSON(ctx, c.cache, key, t, c.ttl)
	return t, nil
}

func (c *cached) Put(ctx context.Context, t *family.Tree) error {
	if err := c.Store.Put(ctx, t); err != nil {
		return err
	}
	return c.cache.Delete(ctx, c.keyer.TreeKey(t.ID))
}

func (c *cached) Delete(ctx context.Context, id string) error {
	if err := c.Store.Delete(ctx, id); err != nil {
		return err
	}
	return c.cache.Delete(ctx, c.keyer.TreeKey(id))
}
