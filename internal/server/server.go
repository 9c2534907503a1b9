package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmagar/scrapemcp/internal/config"
	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/mcpsession"
	"github.com/jmagar/scrapemcp/internal/metrics"
)

const sessionHeader = "Mcp-Session-Id"

// Server owns the HTTP network surface: it wires the session Manager, the
// metrics collector's exposition handlers, and the host/origin guard into a
// single mux. Grounded on the teacher's setupHTTPRoutes/registerCoreRoutes
// split between capture-dependent and always-present routes.
type Server struct {
	cfg     config.HTTPConfig
	oauth   config.OAuthConfig
	manager *mcpsession.Manager
	metrics *metrics.Collector
	guard   *guard
}

// New builds a Server. production gates the host/origin allow-list
// enforcement (spec §4.9: enforced in production, permissive otherwise).
func New(cfg config.HTTPConfig, oauth config.OAuthConfig, manager *mcpsession.Manager, m *metrics.Collector, production bool) *Server {
	return &Server{
		cfg:     cfg,
		oauth:   oauth,
		manager: manager,
		metrics: m,
		guard:   newGuard(cfg.AllowedHosts, cfg.AllowedOrigins, cfg.AllowCredentials, production),
	}
}

// Mux assembles the complete HTTP route table.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/mcp", s.guard.wrap(s.handleMCP))
	mux.HandleFunc("/health", s.guard.wrap(s.handleHealth))

	if s.metrics != nil {
		mux.Handle("/metrics", s.guard.wrap(s.metrics.PrometheusHandler().ServeHTTP))
		mux.HandleFunc("/metrics/json", s.guard.wrap(s.metrics.JSONHandler()))
		mux.HandleFunc("/metrics/reset", s.guard.wrap(s.metrics.ResetHandler(false, "")))
	}

	if s.oauth.Enabled {
		mux.HandleFunc("/register", s.guard.wrap(handleOAuthStub))
		mux.HandleFunc("/authorize", s.guard.wrap(handleOAuthStub))
	}

	return mux
}

func (s *Server) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleMCPPost(w, r)
	case http.MethodGet:
		s.handleMCPStream(w, r)
	case http.MethodDelete:
		s.handleMCPDelete(w, r)
	default:
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleMCPPost(w http.ResponseWriter, r *http.Request) {
	if s.cfg.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, mcp.CodeParseError, "request body too large or unreadable: "+err.Error())
		return
	}

	var req mcp.Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeRPCError(w, http.StatusBadRequest, nil, mcp.CodeParseError, "parse error: "+err.Error())
		return
	}
	if req.Method == "" {
		writeRPCError(w, http.StatusBadRequest, req.ID, mcp.CodeInvalidRequest, "missing method")
		return
	}

	sessionID := r.Header.Get(sessionHeader)
	resp, newSessionID, sessErr := s.manager.Dispatch(r.Context(), sessionID, req)
	if sessErr != nil {
		writeRPCError(w, http.StatusBadRequest, req.ID, mcp.CodeInvalidRequest, sessErr.Error())
		return
	}
	if resp == nil {
		// Notification: no body, no session id change to report.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if newSessionID != "" {
		w.Header().Set(sessionHeader, newSessionID)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// handleMCPStream serves GET /mcp: a resumable SSE stream. A Last-Event-ID
// header replays everything the client missed before the stream holds open
// for further pushes (spec §4.9).
func (s *Server) handleMCPStream(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		http.Error(w, `{"error":"Mcp-Session-Id header required"}`, http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	lastEventID := r.Header.Get("Last-Event-ID")
	_ = s.manager.Replay(r.Context(), sessionID, lastEventID, func(eventID string, message []byte) error {
		fmt.Fprintf(w, "id: %s\ndata: %s\n\n", eventID, message)
		flusher.Flush()
		return nil
	})

	<-r.Context().Done()
}

func (s *Server) handleMCPDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(sessionHeader)
	if sessionID == "" {
		http.Error(w, `{"error":"Mcp-Session-Id header required"}`, http.StatusBadRequest)
		return
	}
	s.manager.CloseSession(sessionID, mcpsession.StateClosed)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, `{"error":"method not allowed"}`, http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":        "ok",
		"open_sessions": s.manager.Count(),
		"time":          time.Now().UTC().Format(time.RFC3339),
	})
}

// handleOAuthStub serves /register and /authorize when ENABLE_OAUTH is set
// but the flow itself is out of this repo's scope: neither spec.md nor its
// expansion specifies OAuth internals, so both endpoints stay minimal stubs
// rather than a half-implemented authorization server.
func handleOAuthStub(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotImplemented)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": "oauth is enabled but not implemented by this server",
	})
}

// writeRPCError writes a JSON-RPC error envelope with the given HTTP status,
// matching spec §4.9's "malformed/oversize request" contract.
func writeRPCError(w http.ResponseWriter, status int, id any, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(mcp.Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &mcp.Error{Code: code, Message: message},
	})
}
