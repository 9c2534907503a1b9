// Package mcpsession implements the MCP Session Runtime (C8): the session
// table, its lifecycle state machine, and the resumable event store each
// session's SSE stream replays against. Grounded on the teacher's
// cmd/dev-console MCPHandler request-dispatch loop, generalized from a
// single long-lived in-process handler to a table of independently
// lifecycled sessions addressed by Mcp-Session-Id.
package mcpsession

import (
	"context"
	"sync"
	"time"
)

// State is a session's position in the lifecycle state machine (spec §4.8):
//
//	created -> initialized -> serving -> (closed | timed_out)
//	                            ^  |
//	                            +--+ (idle)
type State string

const (
	StateCreated     State = "created"
	StateInitialized State = "initialized"
	StateServing     State = "serving"
	StateIdle        State = "idle"
	StateClosed      State = "closed"
	StateTimedOut    State = "timed_out"
)

// Session is one MCP session: a session id, its lifecycle state, and the
// cancellation tree for its in-flight requests.
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	lastActive time.Time

	ctx    context.Context
	cancel context.CancelFunc

	inFlightMu sync.Mutex
	inFlight   map[int64]context.CancelFunc
	nextReqID  int64
}

func newSession(id string, parent context.Context) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:         id,
		state:      StateCreated,
		lastActive: time.Now(),
		ctx:        ctx,
		cancel:     cancel,
		inFlight:   make(map[int64]context.CancelFunc),
	}
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// touch records activity, promoting an idle session back to serving.
func (s *Session) touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	if s.state == StateIdle {
		s.state = StateServing
	}
}

func (s *Session) idleSince() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastActive)
}

func (s *Session) setState(next State) {
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()
}

// beginRequest derives a cancellable context for one in-flight request and
// registers it in the session's cancellation tree, so closing the session
// (or calling EndAll) cancels every request still running.
func (s *Session) beginRequest(parent context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)

	s.inFlightMu.Lock()
	id := s.nextReqID
	s.nextReqID++
	s.inFlight[id] = cancel
	s.inFlightMu.Unlock()

	done := func() {
		s.inFlightMu.Lock()
		delete(s.inFlight, id)
		s.inFlightMu.Unlock()
		cancel()
	}
	return ctx, done
}

// cancelInFlight cancels every request currently running on this session,
// without closing the session itself.
func (s *Session) cancelInFlight() {
	s.inFlightMu.Lock()
	defer s.inFlightMu.Unlock()
	for id, cancel := range s.inFlight {
		cancel()
		delete(s.inFlight, id)
	}
}

// close cancels the session's root context (and with it every in-flight
// request) and marks it terminal.
func (s *Session) close(final State) {
	s.cancelInFlight()
	s.cancel()
	s.setState(final)
}
