package collection

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-ai/briefly-go/internal/briefs"
)

type fakeLister struct {
	listFn func(ctx context.Context) ([]briefs.Summary, error)
}

func (f *fakeLister) List(ctx context.Context) ([]briefs.Summary, error) {
	return f.listFn(ctx)
}

func summary(id string, updated time.Time) briefs.Summary {
	return briefs.Summary{ID: id, Title: "Brief " + id, Status: briefs.StatusDraft, UpdatedAt: updated}
}

func TestReconciler_LoadReplacesAndSorts(t *testing.T) {
	base := time.Now()
	lister := &fakeLister{listFn: func(context.Context) ([]briefs.Summary, error) {
		return []briefs.Summary{
			summary("old", base.Add(-time.Hour)),
			summary("new", base),
			summary("mid", base.Add(-time.Minute)),
		}, nil
	}}
	r := New(lister, zerolog.Nop())
	r.Upsert(summary("stale-local", base.Add(-2*time.Hour)))

	require.NoError(t, r.Load(context.Background()))

	got := r.Snapshot()
	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].ID)
	assert.Equal(t, "mid", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestReconciler_LoadCoalescesConcurrentCalls(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	lister := &fakeLister{listFn: func(context.Context) ([]briefs.Summary, error) {
		calls.Add(1)
		<-release
		return []briefs.Summary{summary("a", time.Now())}, nil
	}}
	r := New(lister, zerolog.Nop())

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Load(context.Background())
		}(i)
	}

	// Let all goroutines reach Load before releasing the single request.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, r.Len())
}

func TestReconciler_UpsertNewInsertsAtFront(t *testing.T) {
	r := New(nil, zerolog.Nop())
	base := time.Now()
	r.Upsert(summary("first", base))
	r.Upsert(summary("second", base.Add(time.Minute)))

	got := r.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].ID)
}

func TestReconciler_UpsertNewerMovesToFront(t *testing.T) {
	r := New(nil, zerolog.Nop())
	base := time.Now()
	r.Upsert(summary("a", base))
	r.Upsert(summary("b", base.Add(time.Minute)))

	updated := summary("a", base.Add(time.Hour))
	updated.Title = "Brief a v2"
	r.Upsert(updated)

	got := r.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "Brief a v2", got[0].Title)
}

func TestReconciler_UpsertOlderKeepsPosition(t *testing.T) {
	r := New(nil, zerolog.Nop())
	base := time.Now()
	r.Upsert(summary("a", base))
	r.Upsert(summary("b", base.Add(time.Minute)))

	stale := summary("a", base.Add(-time.Hour))
	r.Upsert(stale)

	got := r.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, stale.UpdatedAt.Unix(), got[1].UpdatedAt.Unix())
}

func TestReconciler_IDUniqueness(t *testing.T) {
	base := time.Now()
	lister := &fakeLister{listFn: func(context.Context) ([]briefs.Summary, error) {
		return []briefs.Summary{summary("x", base), summary("y", base)}, nil
	}}
	r := New(lister, zerolog.Nop())

	for i := 0; i < 10; i++ {
		r.Upsert(summary("x", base.Add(time.Duration(i)*time.Second)))
	}
	require.NoError(t, r.Load(context.Background()))
	r.Upsert(summary("y", base.Add(time.Hour)))
	r.Upsert(summary("z", base))

	seen := map[string]bool{}
	for _, e := range r.Snapshot() {
		assert.False(t, seen[e.ID], "duplicate id %s", e.ID)
		seen[e.ID] = true
	}
	assert.Equal(t, 3, r.Len())
}

func TestReconciler_RemoveIsIdempotent(t *testing.T) {
	r := New(nil, zerolog.Nop())
	r.Upsert(summary("a", time.Now()))
	r.Upsert(summary("b", time.Now()))

	r.Remove("a")
	after := r.Snapshot()
	r.Remove("a")
	r.Remove("never-existed")

	assert.Equal(t, after, r.Snapshot())
	assert.Equal(t, 1, r.Len())
}
