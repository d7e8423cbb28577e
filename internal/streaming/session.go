// Package streaming maintains stream sessions over the upstream's SSE
// transport: opening the long-lived request, feeding bytes into the SSE
// parser, and fanning decoded events out to subscribers with lifecycle
// guarantees.
package streaming

import (
	"sync"
	"time"

	"go-genai-core/internal/authstrategy"
)

// State is a session's position in its lifecycle state machine.
type State string

const (
	StateStarting  State = "starting"
	StateActive    State = "active"
	StateCompleted State = "completed"
	StateErrored   State = "errored"
	StateStopped   State = "stopped"
)

func (s State) terminal() bool {
	return s == StateCompleted || s == StateErrored || s == StateStopped
}

// EventKind distinguishes the different messages a subscriber may receive
// beyond plain decoded data.
type EventKind string

const (
	EventData      EventKind = "data"
	EventDone      EventKind = "done"
	EventOverflow  EventKind = "overflow"
	EventStopped   EventKind = "stopped"
	EventErrored   EventKind = "errored"
)

// StreamEvent is what a subscriber receives on its mailbox channel.
type StreamEvent struct {
	Kind EventKind
	Data map[string]any
	Err  error
}

// SessionInfo is a read-only snapshot for introspection.
type SessionInfo struct {
	ID            string
	Model         string
	Strategy      authstrategy.Strategy
	State         State
	EventsCount   int64
	Subscribers   int
	StartedAt     time.Time
	LastEventAt   time.Time
	RetryAttempts int
}

// session is the engine's internal bookkeeping for one active or
// recently-terminal stream.
type session struct {
	mu sync.Mutex

	id       string
	model    string
	strategy authstrategy.Strategy

	state         State
	eventsCount   int64
	startedAt     time.Time
	lastEventAt   time.Time
	retryAttempts int

	subs map[int64]*subscription
	next int64

	cancel func()

	graceTimer *time.Timer
}

func newSession(id, model string, strategy authstrategy.Strategy) *session {
	return &session{
		id:        id,
		model:     model,
		strategy:  strategy,
		state:     StateStarting,
		startedAt: time.Now(),
		subs:      make(map[int64]*subscription),
	}
}

func (s *session) snapshot() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		ID:            s.id,
		Model:         s.model,
		Strategy:      s.strategy,
		State:         s.state,
		EventsCount:   s.eventsCount,
		Subscribers:   len(s.subs),
		StartedAt:     s.startedAt,
		LastEventAt:   s.lastEventAt,
		RetryAttempts: s.retryAttempts,
	}
}
