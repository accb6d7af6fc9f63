// Package cache provides caching for generated datasets and serialized plot
// responses.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/sync/singleflight"

	"github.com/volcano-viz/server/internal/data/synth"
)

// DefaultMaxDatasets bounds the dataset cache when no capacity is configured.
const DefaultMaxDatasets = 20

// DatasetCache holds fully generated datasets keyed by their generation
// parameters, bounded by entry count with least-recently-used eviction.
// Concurrent callers requesting the same missing key coalesce onto a single
// build; evicted datasets stay valid for readers still holding a reference.
type DatasetCache struct {
	entries *lru.Cache[string, *synth.Dataset]
	group   singleflight.Group
}

// NewDatasetCache creates a dataset cache capped at maxEntries.
func NewDatasetCache(maxEntries int) (*DatasetCache, error) {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxDatasets
	}
	entries, err := lru.New[string, *synth.Dataset](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset cache: %w", err)
	}
	return &DatasetCache{entries: entries}, nil
}

// GetOrCreate returns the cached dataset for key, building it with factory
// if absent. The factory runs at most once per key across concurrent
// callers, and all of them receive the same dataset. A failed build inserts
// nothing and releases the in-flight marker, so later calls retry.
func (c *DatasetCache) GetOrCreate(key synth.CacheKey, factory func() (*synth.Dataset, error)) (*synth.Dataset, error) {
	k := key.String()
	if ds, ok := c.entries.Get(k); ok {
		return ds, nil
	}

	v, err, _ := c.group.Do(k, func() (interface{}, error) {
		// A racing caller may have inserted while we queued for the flight.
		if ds, ok := c.entries.Get(k); ok {
			return ds, nil
		}
		ds, err := factory()
		if err != nil {
			return nil, err
		}
		c.entries.Add(k, ds)
		return ds, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*synth.Dataset), nil
}

// Contains reports whether key is cached, without refreshing its recency.
func (c *DatasetCache) Contains(key synth.CacheKey) bool {
	return c.entries.Contains(key.String())
}

// Clear empties the cache and reports how many entries were dropped.
// In-flight builds complete normally and may re-insert afterwards.
func (c *DatasetCache) Clear() int {
	n := c.entries.Len()
	c.entries.Purge()
	return n
}

// Status describes the cache contents.
type Status struct {
	Keys          []string `json:"cached_keys"`
	TotalEntries  int      `json:"total_cached"`
	BytesEstimate int      `json:"bytes_estimate"`
}

// Status returns the cached keys in eviction order (oldest first) and an
// estimate of the total footprint. It does not touch entry recency.
func (c *DatasetCache) Status() Status {
	keys := c.entries.Keys()
	st := Status{Keys: keys, TotalEntries: len(keys)}
	for _, k := range keys {
		if ds, ok := c.entries.Peek(k); ok {
			st.BytesEstimate += ds.BytesEstimate()
		}
	}
	return st
}

// ResponseCacheConfig contains response cache configuration.
type ResponseCacheConfig struct {
	MaxSizeMB int
	TTL       time.Duration
}

// ResponseCache stores serialized plot responses so repeated identical
// requests skip the classify/filter/sample pipeline entirely. Payloads are
// zstd-compressed before entering bigcache.
type ResponseCache struct {
	store *bigcache.BigCache
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewResponseCache creates a TTL-bounded response cache.
func NewResponseCache(cfg ResponseCacheConfig) (*ResponseCache, error) {
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = 64
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}

	store, err := bigcache.New(context.Background(), bigcache.Config{
		Shards:             256,
		LifeWindow:         cfg.TTL,
		CleanWindow:        cfg.TTL / 2,
		MaxEntriesInWindow: 10000,
		MaxEntrySize:       1 << 20, // 1MB per serialized response
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &ResponseCache{store: store, enc: enc, dec: dec}, nil
}

// Get retrieves a serialized response from cache.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	compressed, err := c.store.Get(key)
	if err != nil {
		return nil, false
	}
	data, err := c.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a serialized response. Best effort: a full cache drops writes.
func (c *ResponseCache) Set(key string, data []byte) {
	_ = c.store.Set(key, c.enc.EncodeAll(data, nil))
}

// Len returns the number of cached responses.
func (c *ResponseCache) Len() int {
	return c.store.Len()
}

// Reset drops all cached responses.
func (c *ResponseCache) Reset() {
	_ = c.store.Reset()
}

// Close closes the response cache.
func (c *ResponseCache) Close() error {
	return c.store.Close()
}

// ResponseKey builds a stable cache key from a canonical request string.
func ResponseKey(canonical string) string {
	return fmt.Sprintf("resp:%016x", xxhash.Sum64String(canonical))
}

// RequestSeed derives a request-deterministic sampling seed from the same
// canonical string, so identical requests sample identical rows.
func RequestSeed(canonical string) uint64 {
	return xxhash.Sum64String(canonical)
}
