// Package conversation owns chat turn state for one assistant session:
// dispatching user messages, recording replies, and forwarding any brief
// artifact to the collection reconciler.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/briefly-ai/briefly-go/internal/assistant"
	"github.com/briefly-ai/briefly-go/internal/briefs"
	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
)

// Role identifies the author of a turn.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// State of the engine's per-turn state machine. One failed turn never breaks
// the session; failure returns the engine to Idle.
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
)

// Turn is one message in the conversation. The sequence is append-only and
// strictly chronological; turns are never reordered or deleted.
type Turn struct {
	Role      string
	Content   string
	Timestamp time.Time
	// BriefRef is set on assistant turns that produced a brief artifact.
	BriefRef *briefs.Summary
}

// EventKind tags engine events emitted for UI consumption.
type EventKind string

const (
	EventTurnAppended EventKind = "turn_appended"
	EventTurnFailed   EventKind = "turn_failed"
	EventBriefCreated EventKind = "brief_created"
)

// Event is one engine notification.
type Event struct {
	Kind  EventKind
	Turn  *Turn
	Brief *briefs.Summary
	Err   error
}

// Chatter performs one assistant round trip.
type Chatter interface {
	Chat(ctx context.Context, message, conversationID string) (*assistant.Reply, error)
}

// BriefSink receives brief artifacts produced by assistant turns. The
// reconciler is the only implementation in production.
type BriefSink interface {
	Upsert(summary briefs.Summary)
}

// Engine drives one conversation session. Safe for concurrent use; at most
// one send is in flight per session.
type Engine struct {
	assistant Chatter
	sink      BriefSink
	listener  func(Event)
	logger    zerolog.Logger
	now       func() time.Time

	mu             sync.Mutex
	state          State
	turns          []Turn
	conversationID string
}

// Option configures the engine.
type Option func(*Engine)

// WithListener registers an event listener for UI fan-out. Listeners are
// invoked outside the engine's lock, on the Submit caller's goroutine.
func WithListener(fn func(Event)) Option {
	return func(e *Engine) { e.listener = fn }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an idle engine with no history.
func NewEngine(chatter Chatter, sink BriefSink, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		assistant: chatter,
		sink:      sink,
		logger:    logger.With().Str("component", "conversation").Logger(),
		now:       time.Now,
		state:     StateIdle,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) emit(ev Event) {
	if e.listener != nil {
		e.listener(ev)
	}
}

// State returns the engine's current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ConversationID returns the session's continuation token, empty before the
// first successful reply.
func (e *Engine) ConversationID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.conversationID
}

// Turns returns a copy of the ordered turn sequence.
func (e *Engine) Turns() []Turn {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Turn, len(e.turns))
	copy(out, e.turns)
	return out
}

// Submit sends one user message to the assistant. The user turn is appended
// optimistically before the network round trip and is retained even when the
// round trip fails; history is never rolled back. Returns the assistant turn
// on success.
//
// Fails with a validation error for empty input and a state error when a
// send is already in flight.
func (e *Engine) Submit(ctx context.Context, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty message: %w", apperrors.ErrValidation)
	}

	e.mu.Lock()
	if e.state == StateSending {
		e.mu.Unlock()
		return nil, fmt.Errorf("send already in flight: %w", apperrors.ErrState)
	}
	userTurn := Turn{Role: RoleUser, Content: text, Timestamp: e.now()}
	e.turns = append(e.turns, userTurn)
	e.state = StateSending
	convID := e.conversationID
	e.mu.Unlock()

	e.emit(Event{Kind: EventTurnAppended, Turn: &userTurn})
	e.logger.Debug().Str("conversation_id", convID).Msg("submitting message")

	reply, err := e.assistant.Chat(ctx, text, convID)

	e.mu.Lock()
	e.state = StateIdle
	if err != nil {
		e.mu.Unlock()
		e.logger.Warn().Err(err).Msg("assistant round trip failed")
		e.emit(Event{Kind: EventTurnFailed, Err: err})
		return nil, err
	}

	if e.conversationID != "" && reply.ConversationID != e.conversationID {
		// The server is authoritative even when it contradicts itself:
		// adopt the new id and keep the turn.
		e.logger.Warn().
			Str("have", e.conversationID).
			Str("got", reply.ConversationID).
			Msg("assistant returned unexpected conversation id")
	}
	e.conversationID = reply.ConversationID

	turn := Turn{Role: RoleAssistant, Content: reply.Response, Timestamp: e.now()}
	var summary *briefs.Summary
	if reply.Brief != nil {
		s := reply.Brief.Summary()
		turn.BriefRef = &s
		summary = &s
	}
	e.turns = append(e.turns, turn)
	e.mu.Unlock()

	e.emit(Event{Kind: EventTurnAppended, Turn: &turn})
	if summary != nil {
		e.sink.Upsert(*summary)
		e.emit(Event{Kind: EventBriefCreated, Brief: summary})
		e.logger.Info().Str("brief_id", summary.ID).Str("title", summary.Title).Msg("assistant produced brief")
	}
	return &turn, nil
}

// Reset starts a new chat: it clears the turn sequence and the conversation
// id. The brief collection is not touched. Fails with a state error while a
// send is in flight.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateSending {
		return fmt.Errorf("cannot reset while sending: %w", apperrors.ErrState)
	}
	e.turns = nil
	e.conversationID = ""
	e.logger.Debug().Msg("conversation reset")
	return nil
}
