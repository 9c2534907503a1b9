package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuard_PermissiveWhenNotEnforcing(t *testing.T) {
	g := newGuard(nil, nil, false, false)
	assert.True(t, g.hostAllowed("evil.example.com"))
	assert.True(t, g.originAllowed("https://anywhere.example"))
}

func TestGuard_EnforcesAllowListInProduction(t *testing.T) {
	g := newGuard([]string{"api.example.com"}, []string{"https://app.example.com"}, false, true)
	assert.True(t, g.hostAllowed("api.example.com"))
	assert.True(t, g.hostAllowed("api.example.com:8443"))
	assert.False(t, g.hostAllowed("other.example.com"))
	assert.True(t, g.hostAllowed("localhost"))

	assert.True(t, g.originAllowed("https://app.example.com"))
	assert.False(t, g.originAllowed("https://evil.example.com"))
	assert.True(t, g.originAllowed(""))
}

func TestGuard_WildcardSubdomainMatchesButNotApex(t *testing.T) {
	assert.True(t, matchesAllowList("foo.example.com", []string{"*.example.com"}))
	assert.False(t, matchesAllowList("example.com", []string{"*.example.com"}))
}

func TestGuard_WrapRejectsDisallowedHost(t *testing.T) {
	g := newGuard([]string{"api.example.com"}, nil, false, true)
	handler := g.wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Host = "evil.example.com"
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGuard_WrapNeverEchoesWildcardWithCredentials(t *testing.T) {
	g := newGuard(nil, []string{"*"}, true, false)
	handler := g.wrap(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/mcp", nil)
	req.Header.Set("Origin", "https://client.example")
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, "https://client.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestGuard_WrapHandlesPreflight(t *testing.T) {
	g := newGuard(nil, nil, false, false)
	called := false
	handler := g.wrap(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodOptions, "/mcp", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called)
}
