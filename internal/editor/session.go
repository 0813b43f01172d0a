// Package editor manages a single open brief's edit state and its
// save/delete/export lifecycle against the remote document store.
package editor

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/briefly-ai/briefly-go/internal/briefs"
	"github.com/briefly-ai/briefly-go/internal/briefstore"
	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
)

// State of the editing session.
type State string

const (
	StateUnloaded   State = "unloaded"
	StateLoading    State = "loading"
	StateReady      State = "ready"
	StateLoadFailed State = "load_failed"
	// StateClosed is terminal: the open document was deleted and the caller
	// must navigate away.
	StateClosed State = "closed"
)

// Store is the document store surface the session needs.
type Store interface {
	Get(ctx context.Context, id string) (*briefs.Brief, error)
	Update(ctx context.Context, brief *briefs.Brief) (*briefs.Brief, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, briefID, destination string) (*briefstore.ExportResult, error)
}

// BriefSink receives collection updates so the list view stays consistent
// with the editor without an extra load.
type BriefSink interface {
	Upsert(summary briefs.Summary)
	Remove(id string)
}

// Session edits one brief at a time. Opening another document supersedes the
// previous one; a late response for a superseded document is dropped, never
// applied. Safe for concurrent use.
type Session struct {
	store  Store
	sink   BriefSink
	logger zerolog.Logger

	mu    sync.Mutex
	state State
	draft *briefs.Brief
	// gen identifies the currently open document instance. Captured before
	// every network round trip and compared on completion; a mismatch means
	// the caller moved on and the response is stale.
	gen         uint64
	mutating    bool // save or delete in flight
	exporting   bool
	deleteArmed bool
}

// NewSession creates an unloaded editing session.
func NewSession(store Store, sink BriefSink, logger zerolog.Logger) *Session {
	return &Session{
		store:  store,
		sink:   sink,
		logger: logger.With().Str("component", "editor").Logger(),
		state:  StateUnloaded,
	}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the open document's current draft, or nil when no
// document is loaded.
func (s *Session) Draft() *briefs.Brief {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	return s.draft.Clone()
}

// Open fetches the document and makes it the session's draft. Opening while
// a previous open is still resolving supersedes it; the earlier response is
// discarded when it arrives. A fetch failure for the current document moves
// the session to LoadFailed (not found keeps its NotFoundError class).
func (s *Session) Open(ctx context.Context, id string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = StateLoading
	s.draft = nil
	s.mutating = false
	s.exporting = false
	s.deleteArmed = false
	s.mu.Unlock()

	doc, err := s.store.Get(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug().Str("brief_id", id).Msg("dropping stale load response")
		return nil
	}
	if err != nil {
		s.state = StateLoadFailed
		return err
	}
	s.draft = doc
	s.state = StateReady
	s.logger.Debug().Str("brief_id", doc.ID).Msg("brief opened")
	return nil
}

// editable guards local-only field mutations. Edits are allowed while a
// save or export for this document is still in flight; they apply to the
// live draft, last writer wins.
func (s *Session) editable() error {
	if s.draft == nil || (s.state != StateReady) {
		return fmt.Errorf("no open document: %w", apperrors.ErrState)
	}
	return nil
}

// SetField sets a free-text field on the draft.
func (s *Session) SetField(field briefs.ScalarField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	switch field {
	case briefs.FieldTitle:
		s.draft.Title = value
	case briefs.FieldObjective:
		s.draft.Objective = value
	case briefs.FieldDeadline:
		s.draft.Deadline = value
	default:
		return fmt.Errorf("unknown field %q: %w", field, apperrors.ErrValidation)
	}
	return nil
}

// AppendListItem appends an empty item to the named list field, mirroring
// the editor's "Add" action which inserts a blank row to fill in.
func (s *Session) AppendListItem(field briefs.ListField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if !briefs.KnownListField(field) {
		return fmt.Errorf("unknown list field %q: %w", field, apperrors.ErrValidation)
	}
	s.draft.SetList(field, append(s.draft.List(field), ""))
	return nil
}

// SetListItem replaces the item at index in the named list field.
func (s *Session) SetListItem(field briefs.ListField, index int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	items := s.draft.List(field)
	if !briefs.KnownListField(field) || index < 0 || index >= len(items) {
		return fmt.Errorf("no item %d in %q: %w", index, field, apperrors.ErrValidation)
	}
	items[index] = value
	return nil
}

// RemoveListItem removes the item at index; later indices shift down by one
// within the same field only.
func (s *Session) RemoveListItem(field briefs.ListField, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	items := s.draft.List(field)
	if !briefs.KnownListField(field) || index < 0 || index >= len(items) {
		return fmt.Errorf("no item %d in %q: %w", index, field, apperrors.ErrValidation)
	}
	s.draft.SetList(field, append(items[:index], items[index+1:]...))
	return nil
}

// Save persists the draft. At most one mutating request (save or delete) may
// be outstanding per open document; a concurrent call fails with a
// concurrency error. On success the draft's updated_at and status are
// refreshed from the server response and the collection is upserted. On
// failure the draft is left untouched.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.mutating {
		s.mu.Unlock()
		return fmt.Errorf("save or delete in flight: %w", apperrors.ErrConcurrency)
	}
	s.mutating = true
	gen := s.gen
	payload := s.draft.Clone()
	s.mu.Unlock()

	stored, err := s.store.Update(ctx, payload)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug().Str("brief_id", payload.ID).Msg("dropping stale save response")
		return nil
	}
	s.mutating = false
	if err != nil {
		return err
	}
	// Edits made while the save was in flight stay on the draft; only the
	// server-owned fields are refreshed.
	s.draft.UpdatedAt = stored.UpdatedAt
	s.draft.Status = stored.Status
	s.draft.CreatedAt = stored.CreatedAt
	s.sink.Upsert(s.summaryLocked())
	s.logger.Info().Str("brief_id", s.draft.ID).Msg("brief saved")
	return nil
}

// summaryLocked projects the current draft; callers hold s.mu.
func (s *Session) summaryLocked() briefs.Summary {
	return s.draft.Summary()
}

// RequestDelete arms the delete confirmation. Deleting is a two-step
// operation: request, then confirm.
func (s *Session) RequestDelete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.deleteArmed = true
	return nil
}

// CancelDelete disarms a previously requested delete.
func (s *Session) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteArmed = false
}

// ConfirmDelete deletes the open document. Requires a prior RequestDelete.
// On success the document is removed from the collection and the session
// terminates; the caller must navigate away. On failure the document remains
// open and editable.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !s.deleteArmed {
		s.mu.Unlock()
		return fmt.Errorf("delete not confirmed: %w", apperrors.ErrState)
	}
	if s.mutating {
		s.mu.Unlock()
		return fmt.Errorf("save or delete in flight: %w", apperrors.ErrConcurrency)
	}
	s.mutating = true
	gen := s.gen
	id := s.draft.ID
	s.mu.Unlock()

	err := s.store.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		s.logger.Debug().Str("brief_id", id).Msg("dropping stale delete response")
		return nil
	}
	s.mutating = false
	if err != nil {
		return err
	}
	s.draft = nil
	s.deleteArmed = false
	s.state = StateClosed
	s.sink.Remove(id)
	s.logger.Info().Str("brief_id", id).Msg("brief deleted")
	return nil
}

// Export sends the open document to a known destination. Field edits stay
// allowed during an export, but a second export for the same document fails
// with a concurrency error. On success the document is re-fetched so the
// editor reflects any server-side status change; the local status is never
// assumed.
func (s *Session) Export(ctx context.Context, destination string) (*briefstore.ExportResult, error) {
	if !briefs.KnownDestination(destination) {
		return nil, fmt.Errorf("unknown destination %q: %w", destination, apperrors.ErrValidation)
	}

	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if s.exporting {
		s.mu.Unlock()
		return nil, fmt.Errorf("export in flight: %w", apperrors.ErrConcurrency)
	}
	s.exporting = true
	gen := s.gen
	id := s.draft.ID
	s.mu.Unlock()

	result, err := s.store.Export(ctx, id, destination)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug().Str("brief_id", id).Msg("dropping stale export response")
		return nil, nil
	}
	s.exporting = false
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if refreshErr := s.refresh(ctx, gen, id); refreshErr != nil {
		// The export itself succeeded; a failed refresh only leaves the
		// editor view stale until the next open.
		s.logger.Warn().Err(refreshErr).Str("brief_id", id).Msg("post-export refresh failed")
	}
	s.logger.Info().Str("brief_id", id).Str("destination", destination).Msg("brief exported")
	return result, nil
}

// refresh re-fetches the open document after an export and applies it if the
// session still shows the same document instance.
func (s *Session) refresh(ctx context.Context, gen uint64, id string) error {
	doc, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.draft = doc
	s.state = StateReady
	s.sink.Upsert(s.summaryLocked())
	return nil
}
