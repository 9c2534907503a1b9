package mcpsession

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmagar/scrapemcp/internal/mcp"
)

// Router dispatches a parsed MCP request to the method-specific handler
// (tool calls, resources/list, etc.) once the Manager has confirmed the
// session is allowed to make the call. internal/server supplies the
// concrete implementation so this package stays agnostic of the tool layer.
type Router interface {
	Route(ctx context.Context, req mcp.Request) mcp.Response
}

// Manager owns the session table: minting, looking up, and expiring
// sessions, and gating every request against the lifecycle state machine
// before handing it to the Router. Grounded on the teacher's single
// MCPHandler, split into one Session per Mcp-Session-Id.
type Manager struct {
	mu       sync.RWMutex // reader-biased: read every request, written on create/close
	sessions map[string]*Session

	events EventStore
	router Router
	idTTL  time.Duration

	newID func() string

	stopSweep chan struct{}
}

// NewManager builds a Manager. idleTTL of 0 disables idle/timeout sweeping.
func NewManager(events EventStore, router Router, idleTTL time.Duration) *Manager {
	m := &Manager{
		sessions:  make(map[string]*Session),
		events:    events,
		router:    router,
		idTTL:     idleTTL,
		newID:     uuid.NewString,
		stopSweep: make(chan struct{}),
	}
	if idleTTL > 0 {
		go m.sweepLoop(idleTTL / 4)
	}
	return m
}

// Close stops the idle sweeper and terminates every open session.
func (m *Manager) Close() {
	select {
	case <-m.stopSweep:
	default:
		close(m.stopSweep)
	}
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.CloseSession(id, StateClosed)
	}
}

// Count returns the number of open sessions, for health/diagnostics.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) lookup(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Dispatch routes one JSON-RPC request against the session named by
// sessionIDHeader (empty for the "initialize" call that mints a session).
// A nil response with a nil error means the call was a notification and
// produces no reply. A non-nil *Error means the request was rejected at the
// session layer, never reaching the Router.
func (m *Manager) Dispatch(ctx context.Context, sessionIDHeader string, req mcp.Request) (resp *mcp.Response, sessionID string, sessErr *Error) {
	switch {
	case req.Method == "initialize":
		return m.handleInitialize(ctx, sessionIDHeader, req)
	case req.Method == "notifications/initialized":
		return m.handleInitialized(sessionIDHeader, req)
	default:
		return m.handleOther(ctx, sessionIDHeader, req)
	}
}

func (m *Manager) handleInitialize(ctx context.Context, sessionIDHeader string, req mcp.Request) (*mcp.Response, string, *Error) {
	if sessionIDHeader != "" {
		// initialize is only valid for a fresh session (spec §4.8).
		return nil, "", errNoValidSession
	}

	id := m.newID()
	sess := newSession(id, context.Background())

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	reqCtx, done := sess.beginRequest(ctx)
	defer done()

	r := m.router.Route(reqCtx, req)
	sess.setState(StateInitialized)
	sess.touch()
	return &r, id, nil
}

func (m *Manager) handleInitialized(sessionIDHeader string, req mcp.Request) (*mcp.Response, string, *Error) {
	sess, ok := m.lookup(sessionIDHeader)
	if !ok || sess.State() != StateInitialized {
		return nil, sessionIDHeader, errNoValidSession
	}
	sess.setState(StateServing)
	sess.touch()
	_ = req // notifications/initialized carries no params worth inspecting
	return nil, sessionIDHeader, nil
}

func (m *Manager) handleOther(ctx context.Context, sessionIDHeader string, req mcp.Request) (*mcp.Response, string, *Error) {
	sess, ok := m.lookup(sessionIDHeader)
	if !ok {
		return nil, sessionIDHeader, errNoValidSession
	}
	switch sess.State() {
	case StateServing, StateIdle:
	default:
		return nil, sessionIDHeader, errNoValidSession
	}

	sess.touch()
	reqCtx, done := sess.beginRequest(ctx)
	defer done()

	r := m.router.Route(reqCtx, req)
	return &r, sessionIDHeader, nil
}

// CloseSession terminates one session: cancels all its in-flight requests,
// removes it from the table, and discards its event stream.
func (m *Manager) CloseSession(sessionID string, final State) {
	m.mu.Lock()
	sess, ok := m.sessions[sessionID]
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	if !ok {
		return
	}
	sess.close(final)
	if m.events != nil {
		_ = m.events.DeleteStream(context.Background(), sessionID)
	}
}

// Record appends message to sessionID's event stream, for the SSE transport
// to call as it emits each frame.
func (m *Manager) Record(ctx context.Context, sessionID string, message []byte) (string, error) {
	if m.events == nil {
		return "", nil
	}
	return m.events.Store(ctx, sessionID, message)
}

// Replay replays sessionID's event stream after lastEventID, for SSE
// reconnects carrying a Last-Event-ID header.
func (m *Manager) Replay(ctx context.Context, sessionID, lastEventID string, send func(eventID string, message []byte) error) error {
	if m.events == nil {
		return nil
	}
	return m.events.ReplayAfter(ctx, sessionID, lastEventID, send)
}

func (m *Manager) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweepIdle()
		case <-m.stopSweep:
			return
		}
	}
}

// sweepIdle demotes long-quiet serving sessions to idle, and terminates
// sessions that have been quiet for a full idle TTL.
func (m *Manager) sweepIdle() {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	for _, sess := range sessions {
		idle := sess.idleSince()
		switch {
		case idle >= m.idTTL:
			m.CloseSession(sess.ID, StateTimedOut)
		case idle >= m.idTTL/2 && sess.State() == StateServing:
			sess.setState(StateIdle)
		}
	}
}
