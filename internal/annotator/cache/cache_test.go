package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annotext/annotation-platform/internal/matcher"
	"github.com/annotext/annotation-platform/pkg/config"
)

// fakeStore is an in-memory Store. A missing key reads back as an empty
// string, which the cache treats as a miss.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key], nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	return nil
}

func (f *fakeStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := int64(len(f.data))
	f.data = make(map[string]string)
	return n, nil
}

func newTestCache() (*AnnotationCache, *fakeStore) {
	store := newFakeStore()
	return New(store, config.RedisConfig{CacheTTL: time.Minute}, nil), store
}

func TestGetOrComputeComputesOnceAndCaches(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	want := []matcher.OffsetPosition{{Start: 10, End: 19}}

	computes := 0
	compute := func() []matcher.OffsetPosition {
		computes++
		return want
	}

	got, hit := c.GetOrCompute(ctx, "places", "I live in the Bronx", compute)
	if hit {
		t.Error("first lookup reported a hit")
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("result = %v, want %v", got, want)
	}

	got, hit = c.GetOrCompute(ctx, "places", "I live in the Bronx", compute)
	if !hit {
		t.Error("second lookup reported a miss")
	}
	if len(got) != 1 || got[0] != want[0] {
		t.Errorf("cached result = %v, want %v", got, want)
	}
	if computes != 1 {
		t.Errorf("compute ran %d times, want 1", computes)
	}
}

func TestGetOrComputeCountsOneMissPerLookup(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()
	compute := func() []matcher.OffsetPosition {
		return []matcher.OffsetPosition{{Start: 0, End: 5}}
	}

	c.GetOrCompute(ctx, "places", "some text", compute)
	if hits, misses := c.Stats(); hits != 0 || misses != 1 {
		t.Errorf("after miss: hits = %d, misses = %d, want 0/1", hits, misses)
	}

	c.GetOrCompute(ctx, "places", "some text", compute)
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("after hit: hits = %d, misses = %d, want 1/1", hits, misses)
	}
}

func TestGetRecordsHitAndMiss(t *testing.T) {
	c, _ := newTestCache()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "places", "unseen"); ok {
		t.Error("Get on empty cache reported a hit")
	}
	c.Set(ctx, "places", "unseen", []matcher.OffsetPosition{{Start: 1, End: 2}})
	if _, ok := c.Get(ctx, "places", "unseen"); !ok {
		t.Error("Get after Set reported a miss")
	}
	if hits, misses := c.Stats(); hits != 1 || misses != 1 {
		t.Errorf("hits = %d, misses = %d, want 1/1", hits, misses)
	}
}

func TestInvalidateClearsEntries(t *testing.T) {
	c, store := newTestCache()
	ctx := context.Background()

	c.Set(ctx, "places", "some text", []matcher.OffsetPosition{{Start: 0, End: 5}})
	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if len(store.data) != 0 {
		t.Errorf("store still holds %d entries", len(store.data))
	}
	if _, ok := c.Get(ctx, "places", "some text"); ok {
		t.Error("Get after Invalidate reported a hit")
	}
}
