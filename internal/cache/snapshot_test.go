package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/everstacklabs/scout/internal/adapter"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   int
	creds   []string
	err     error
	batches [][]adapter.RawModel
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchRaw(_ context.Context, credential string) ([]adapter.RawModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.creds = append(f.creds, credential)
	if f.err != nil {
		return nil, f.err
	}
	if len(f.batches) == 0 {
		return []adapter.RawModel{{ID: "a/one"}}, nil
	}
	b := f.batches[0]
	if len(f.batches) > 1 {
		f.batches = f.batches[1:]
	}
	return b, nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type recorder struct {
	hits, misses, fetches int
}

func (r *recorder) CacheLookup(hit bool) {
	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

func (r *recorder) UpstreamFetch(string, time.Duration, error) { r.fetches++ }

func TestObtainReusesFreshSnapshot(t *testing.T) {
	src := &fakeSource{}
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	c := New(src, "sk-secret", WithClock(clk.now), WithObserver(rec))

	res, err := c.Obtain(context.Background(), false)
	require.NoError(t, err)
	require.False(t, res.WasCached)
	require.Zero(t, res.AgeSeconds)
	require.Len(t, res.Records, 1)

	clk.advance(90 * time.Second)
	res, err = c.Obtain(context.Background(), false)
	require.NoError(t, err)
	require.True(t, res.WasCached)
	require.Equal(t, 90.0, res.AgeSeconds)

	require.Equal(t, 1, src.calls)
	require.Equal(t, []string{"sk-secret"}, src.creds)
	require.Equal(t, 1, rec.hits)
	require.Equal(t, 1, rec.misses)
	require.Equal(t, 1, rec.fetches)
}

func TestObtainRefetchesAfterTTL(t *testing.T) {
	src := &fakeSource{}
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := New(src, "", WithClock(clk.now), WithTTL(time.Minute))

	_, err := c.Obtain(context.Background(), false)
	require.NoError(t, err)

	clk.advance(time.Minute)
	res, err := c.Obtain(context.Background(), false)
	require.NoError(t, err)
	require.False(t, res.WasCached)
	require.Equal(t, 2, src.calls)
}

func TestObtainForceRefresh(t *testing.T) {
	src := &fakeSource{}
	c := New(src, "")

	_, err := c.Obtain(context.Background(), false)
	require.NoError(t, err)
	res, err := c.Obtain(context.Background(), true)
	require.NoError(t, err)
	require.False(t, res.WasCached)
	require.Equal(t, 2, src.calls)
}

func TestObtainNoStaleFallback(t *testing.T) {
	src := &fakeSource{}
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	c := New(src, "", WithClock(clk.now))

	_, err := c.Obtain(context.Background(), false)
	require.NoError(t, err)

	src.err = &adapter.UpstreamError{Source: "fake", StatusCode: 503}
	clk.advance(DefaultTTL + time.Second)

	_, err = c.Obtain(context.Background(), false)
	require.ErrorIs(t, err, adapter.ErrUpstreamUnavailable)
	require.NotNil(t, c.Current(), "failed refresh must not clear the published snapshot")
}

func TestObtainWrapsForeignErrors(t *testing.T) {
	src := &fakeSource{err: errors.New("boom")}
	c := New(src, "")

	_, err := c.Obtain(context.Background(), false)
	require.ErrorIs(t, err, adapter.ErrUpstreamUnavailable)

	var ue *adapter.UpstreamError
	require.ErrorAs(t, err, &ue)
	require.Equal(t, "fake", ue.Source)
}

func TestRefreshHookSeesWholeSnapshots(t *testing.T) {
	src := &fakeSource{batches: [][]adapter.RawModel{
		{{ID: "a/one"}},
		{{ID: "a/one"}, {ID: "a/two"}},
	}}
	var seen [][2]*Snapshot
	c := New(src, "", WithRefreshHook(func(prev, next *Snapshot) {
		seen = append(seen, [2]*Snapshot{prev, next})
	}))

	_, err := c.Obtain(context.Background(), true)
	require.NoError(t, err)
	_, err = c.Obtain(context.Background(), true)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	require.Nil(t, seen[0][0])
	require.Len(t, seen[0][1].Records, 1)
	require.Same(t, seen[0][1], seen[1][0])
	require.Len(t, seen[1][1].Records, 2)
	require.Len(t, seen[1][0].Records, 1, "previous snapshot must be left intact")
}

func TestZeroTTLAlwaysFetches(t *testing.T) {
	src := &fakeSource{}
	c := New(src, "", WithTTL(0))
	for i := 0; i < 3; i++ {
		_, err := c.Obtain(context.Background(), false)
		require.NoError(t, err)
	}
	require.Equal(t, 3, src.calls)
}

func TestConcurrentObtain(t *testing.T) {
	src := &fakeSource{}
	c := New(src, "")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := c.Obtain(context.Background(), i%4 == 0)
			if err == nil && len(res.Records) != 1 {
				t.Errorf("torn snapshot: %d records", len(res.Records))
			}
		}()
	}
	wg.Wait()
	require.GreaterOrEqual(t, src.calls, 1)
}
