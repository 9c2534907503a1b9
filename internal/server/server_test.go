package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/scrapemcp/internal/config"
	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/mcpsession"
	"github.com/jmagar/scrapemcp/internal/store"
)

func newTestServer(t *testing.T) (*Server, *mcpsession.Manager) {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), store.Limits{}, 0, nil)
	t.Cleanup(st.Close)

	rt := &Router{Store: st, Name: "scrapemcp", Version: "test"}
	manager := mcpsession.NewManager(mcpsession.NewMemoryEventStore(), rt, 0)
	t.Cleanup(manager.Close)

	cfg := config.HTTPConfig{MaxBodyBytes: 1 << 20}
	srv := New(cfg, config.OAuthConfig{}, manager, nil, false)
	return srv, manager
}

func doJSONRPC(t *testing.T, mux http.Handler, sessionID, method string, id any) *httptest.ResponseRecorder {
	t.Helper()
	req := map[string]any{"jsonrpc": "2.0", "method": method}
	if id != nil {
		req["id"] = id
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)

	httpReq := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader(body))
	if sessionID != "" {
		httpReq.Header.Set(sessionHeader, sessionID)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httpReq)
	return rec
}

// TestMCPLifecycle_FullScenario mirrors the spec's session lifecycle
// scenario end to end over the real HTTP handlers: initialize mints a
// session id header, tools/list without it is a session error, with it
// succeeds, and DELETE closes the session so later calls error again.
func TestMCPLifecycle_FullScenario(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Mux()

	rec := doJSONRPC(t, mux, "", "initialize", "1")
	require.Equal(t, http.StatusOK, rec.Code)
	sid := rec.Header().Get(sessionHeader)
	require.NotEmpty(t, sid)

	rec = doJSONRPC(t, mux, "", "tools/list", "2")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSONRPC(t, mux, sid, "notifications/initialized", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = doJSONRPC(t, mux, sid, "tools/list", "3")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp mcp.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Nil(t, resp.Error)

	delReq := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	delReq.Header.Set(sessionHeader, sid)
	delRec := httptest.NewRecorder()
	mux.ServeHTTP(delRec, delReq)
	assert.Equal(t, http.StatusOK, delRec.Code)

	rec = doJSONRPC(t, mux, sid, "tools/list", "4")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMCPPost_MalformedBodyReturnsParseError(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Mux()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp mcp.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.CodeParseError, resp.Error.Code)
}

func TestMCPPost_MissingMethodReturnsInvalidRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Mux()

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte(`{"jsonrpc":"2.0","id":1}`)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp mcp.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.CodeInvalidRequest, resp.Error.Code)
}

func TestMCPDelete_WithoutSessionHeaderIsBadRequest(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Mux()

	req := httptest.NewRequest(http.MethodDelete, "/mcp", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestMCPStream_ReplaysEventsAfterLastEventID mirrors the spec's event
// replay scenario: emit e1,e2,e3 on a session's stream, reconnect with
// Last-Event-ID set to e1's id, and expect only e2,e3 back in order.
func TestMCPStream_ReplaysEventsAfterLastEventID(t *testing.T) {
	srv, manager := newTestServer(t)
	mux := srv.Mux()

	rec := doJSONRPC(t, mux, "", "initialize", "1")
	sid := rec.Header().Get(sessionHeader)

	bg := context.Background()
	id1, err := manager.Record(bg, sid, []byte("e1"))
	require.NoError(t, err)
	_, err = manager.Record(bg, sid, []byte("e2"))
	require.NoError(t, err)
	_, err = manager.Record(bg, sid, []byte("e3"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(bg, 200*time.Millisecond)
	defer cancel()

	getReq := httptest.NewRequest(http.MethodGet, "/mcp", nil).WithContext(ctx)
	getReq.Header.Set(sessionHeader, sid)
	getReq.Header.Set("Last-Event-ID", id1)
	getRec := httptest.NewRecorder()

	mux.ServeHTTP(getRec, getReq)

	body := getRec.Body.String()
	assert.Contains(t, body, "data: e2")
	assert.Contains(t, body, "data: e3")
	assert.NotContains(t, body, "data: e1")
}

func TestHealth_ReportsOpenSessionCount(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Mux()

	doJSONRPC(t, mux, "", "initialize", "1")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.EqualValues(t, 1, payload["open_sessions"])
}

func TestOAuthRoutes_AbsentWhenDisabled(t *testing.T) {
	srv, _ := newTestServer(t)
	mux := srv.Mux()

	req := httptest.NewRequest(http.MethodGet, "/authorize", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOAuthRoutes_StubbedWhenEnabled(t *testing.T) {
	st := store.New(store.NewMemoryBackend(), store.Limits{}, 0, nil)
	defer st.Close()
	rt := &Router{Store: st, Name: "scrapemcp", Version: "test"}
	manager := mcpsession.NewManager(mcpsession.NewMemoryEventStore(), rt, 0)
	defer manager.Close()

	srv := New(config.HTTPConfig{}, config.OAuthConfig{Enabled: true}, manager, nil, false)
	mux := srv.Mux()

	req := httptest.NewRequest(http.MethodGet, "/authorize", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
