// Package collection maintains the authoritative in-memory set of brief
// summaries, merging artifacts from the conversation engine with documents
// fetched from or written to the remote store.
package collection

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/briefly-ai/briefly-go/internal/briefs"
	"github.com/briefly-ai/briefly-go/internal/metrics"
)

// Lister fetches the full remote brief set.
type Lister interface {
	List(ctx context.Context) ([]briefs.Summary, error)
}

type pendingLoad struct {
	done chan struct{}
	err  error
}

// Reconciler owns the brief summary collection. It is the only writer of the
// collection; producers reach it through Upsert and Remove exclusively.
type Reconciler struct {
	mu      sync.Mutex
	entries []briefs.Summary
	pending *pendingLoad

	lister  Lister
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// New creates an empty reconciler backed by the given lister.
func New(lister Lister, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		lister: lister,
		logger: logger.With().Str("component", "collection").Logger(),
	}
}

// SetMetrics attaches a metrics collector.
func (r *Reconciler) SetMetrics(m *metrics.Metrics) {
	r.metrics = m
}

// Load fetches the full remote set and replaces the collection wholesale,
// ordered by updated_at descending. Concurrent calls coalesce: a load in
// flight makes later callers await its result instead of issuing a second
// request.
func (r *Reconciler) Load(ctx context.Context) error {
	r.mu.Lock()
	if p := r.pending; p != nil {
		r.mu.Unlock()
		select {
		case <-p.done:
			return p.err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	p := &pendingLoad{done: make(chan struct{})}
	r.pending = p
	r.mu.Unlock()

	entries, err := r.lister.List(ctx)

	r.mu.Lock()
	if err == nil {
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
		})
		r.entries = entries
		r.metrics.SetCollectionSize(len(entries))
		r.logger.Debug().Int("briefs", len(entries)).Msg("collection loaded")
	} else {
		r.logger.Warn().Err(err).Msg("collection load failed")
	}
	r.pending = nil
	r.mu.Unlock()

	p.err = err
	close(p.done)
	return err
}

// Upsert merges one summary into the collection. A new id is inserted at the
// front; an existing id is replaced, moving to the front when the incoming
// version is at least as new. New and freshly edited briefs are the most
// relevant, so they surface first.
func (r *Reconciler) Upsert(summary briefs.Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.entries {
		if r.entries[i].ID == summary.ID {
			idx = i
			break
		}
	}

	switch {
	case idx < 0:
		r.entries = append([]briefs.Summary{summary}, r.entries...)
	case summary.UpdatedAt.Before(r.entries[idx].UpdatedAt):
		// Older version of a known brief: replace in place, keep position.
		r.entries[idx] = summary
	default:
		r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
		r.entries = append([]briefs.Summary{summary}, r.entries...)
	}
	r.metrics.SetCollectionSize(len(r.entries))
}

// Remove deletes the entry with the given id. Removing an unknown id is a
// no-op; only the editing session's delete confirmation calls this.
func (r *Reconciler) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.entries {
		if r.entries[i].ID == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			r.metrics.SetCollectionSize(len(r.entries))
			return
		}
	}
}

// Snapshot returns a copy of the current collection, newest first.
func (r *Reconciler) Snapshot() []briefs.Summary {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]briefs.Summary, len(r.entries))
	copy(out, r.entries)
	return out
}

// Len returns the number of briefs in the collection.
func (r *Reconciler) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
