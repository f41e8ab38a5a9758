package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/everstacklabs/scout/internal/adapter"
)

// DefaultTTL is how long a snapshot is served before the next refetch.
const DefaultTTL = 10 * time.Minute

// Snapshot is one complete upstream catalog fetch. It is never mutated after
// it is published; a refresh publishes a new Snapshot instead.
type Snapshot struct {
	Records   []adapter.RawModel
	FetchedAt time.Time
}

// Observer receives cache and fetch events, typically for metrics.
type Observer interface {
	CacheLookup(hit bool)
	UpstreamFetch(source string, elapsed time.Duration, err error)
}

// Cache holds the current catalog snapshot for a single upstream source.
type Cache struct {
	source     adapter.Source
	credential string
	ttl        time.Duration
	now        func() time.Time
	observer   Observer
	onRefresh  func(prev, next *Snapshot)

	current atomic.Pointer[Snapshot]
}

// Option configures the Cache.
type Option func(*Cache)

// WithTTL sets the snapshot lifetime. A non-positive TTL disables reuse.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithObserver registers an Observer.
func WithObserver(o Observer) Option {
	return func(c *Cache) { c.observer = o }
}

// WithRefreshHook is called after every successful refresh with the replaced
// snapshot (nil on the first fetch) and the new one.
func WithRefreshHook(fn func(prev, next *Snapshot)) Option {
	return func(c *Cache) { c.onRefresh = fn }
}

// New creates a cache that fetches from source using credential.
func New(source adapter.Source, credential string, opts ...Option) *Cache {
	c := &Cache{
		source:     source,
		credential: credential,
		ttl:        DefaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of Obtain.
type Result struct {
	Records    []adapter.RawModel
	AgeSeconds float64
	WasCached  bool
}

// Obtain returns the current snapshot when it is younger than the TTL and
// forceRefresh is false. Otherwise it performs exactly one upstream fetch.
// A failed fetch never falls back to an expired snapshot.
func (c *Cache) Obtain(ctx context.Context, forceRefresh bool) (Result, error) {
	if !forceRefresh {
		if snap := c.current.Load(); snap != nil {
			age := c.now().Sub(snap.FetchedAt)
			if age < c.ttl {
				c.lookup(true)
				return Result{Records: snap.Records, AgeSeconds: age.Seconds(), WasCached: true}, nil
			}
		}
	}
	c.lookup(false)

	start := c.now()
	records, err := c.source.FetchRaw(ctx, c.credential)
	if c.observer != nil {
		c.observer.UpstreamFetch(c.source.Name(), c.now().Sub(start), err)
	}
	if err != nil {
		if !errors.Is(err, adapter.ErrUpstreamUnavailable) {
			err = &adapter.UpstreamError{Source: c.source.Name(), Err: err}
		}
		return Result{}, fmt.Errorf("refreshing catalog: %w", err)
	}

	next := &Snapshot{Records: records, FetchedAt: c.now()}
	prev := c.current.Swap(next)
	slog.Info("catalog refreshed", "source", c.source.Name(), "models", len(records))
	if c.onRefresh != nil {
		c.onRefresh(prev, next)
	}

	return Result{Records: next.Records, AgeSeconds: 0, WasCached: false}, nil
}

// Current returns the published snapshot, or nil before the first fetch.
func (c *Cache) Current() *Snapshot {
	return c.current.Load()
}

func (c *Cache) lookup(hit bool) {
	if c.observer != nil {
		c.observer.CacheLookup(hit)
	}
}
