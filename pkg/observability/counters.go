package observability

import (
	"context"
	"sync"
	"time"
)

// Counters is an in-memory implementation of every hook interface.
// It is safe for concurrent use.
type Counters struct {
	mu   sync.Mutex
	data Snapshot
}

// Snapshot is a point-in-time copy of [Counters].
type Snapshot struct {
	Layouts       int64            `json:"layouts"`
	LayoutErrors  int64            `json:"layout_errors"`
	LayoutTime    time.Duration    `json:"layout_time_ns"`
	Renders       int64            `json:"renders"`
	RenderErrors  int64            `json:"render_errors"`
	CacheHits     map[string]int64 `json:"cache_hits"`
	CacheMisses   map[string]int64 `json:"cache_misses"`
	CacheBytes    int64            `json:"cache_bytes_written"`
	StoreOps      map[string]int64 `json:"store_ops"`
	StoreErrors   int64            `json:"store_errors"`
	Requests      int64            `json:"requests"`
	Responses     map[int]int64    `json:"responses"`
	RequestErrors int64            `json:"request_errors"`
}

// NewCounters returns zeroed counters.
func NewCounters() *Counters {
	return &Counters{data: Snapshot{
		CacheHits:   map[string]int64{},
		CacheMisses: map[string]int64{},
		StoreOps:    map[string]int64{},
		Responses:   map[int]int64{},
	}}
}

// Snapshot returns a copy of the current counts.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.data
	s.CacheHits = copyMap(c.data.CacheHits)
	s.CacheMisses = copyMap(c.data.CacheMisses)
	s.StoreOps = copyMap(c.data.StoreOps)
	s.Responses = copyMap(c.data.Responses)
	return s
}

func (c *Counters) update(fn func(*Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.data)
}

func (c *Counters) OnLayoutStart(context.Context, string, int) {}

func (c *Counters) OnLayoutComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	c.update(func(s *Snapshot) {
		s.Layouts++
		s.LayoutTime += d
		if err != nil {
			s.LayoutErrors++
		}
	})
}

func (c *Counters) OnRenderStart(context.Context, string, []string) {}

func (c *Counters) OnRenderComplete(_ context.Context, _ string, _ []string, _ time.Duration, err error) {
	c.update(func(s *Snapshot) {
		s.Renders++
		if err != nil {
			s.RenderErrors++
		}
	})
}

func (c *Counters) OnCacheHit(_ context.Context, keyType string) {
	c.update(func(s *Snapshot) { s.CacheHits[keyType]++ })
}

func (c *Counters) OnCacheMiss(_ context.Context, keyType string) {
	c.update(func(s *Snapshot) { s.CacheMisses[keyType]++ })
}

func (c *Counters) OnCacheSet(_ context.Context, _ string, size int) {
	c.update(func(s *Snapshot) { s.CacheBytes += int64(size) })
}

func (c *Counters) OnStoreOp(_ context.Context, backend, op string, _ time.Duration, err error) {
	c.update(func(s *Snapshot) {
		s.StoreOps[backend+"."+op]++
		if err != nil {
			s.StoreErrors++
		}
	})
}

func (c *Counters) OnRequest(context.Context, string, string) {
	c.update(func(s *Snapshot) { s.Requests++ })
}

func (c *Counters) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	c.update(func(s *Snapshot) { s.Responses[status]++ })
}

func (c *Counters) OnError(context.Context, string, string, error) {
	c.update(func(s *Snapshot) { s.RequestErrors++ })
}

func copyMap[K comparable](m map[K]int64) map[K]int64 {
	out := make(map[K]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var (
	_ PipelineHooks = (*Counters)(nil)
	_ CacheHooks    = (*Counters)(nil)
	_ StoreHooks    = (*Counters)(nil)
	_ HTTPHooks     = (*Counters)(nil)
)
