package server

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// guard holds the configured host/origin allow-lists and CORS policy.
// Grounded on the teacher's corsMiddleware/isAllowedHost pair, generalized
// from a hardcoded localhost check to operator-configured allow-lists with
// "*.example.com" wildcard subdomain matching (spec §4.9).
type guard struct {
	allowedHosts     []string
	allowedOrigins   []string
	allowCredentials bool
	enforce          bool // production mode: absent/unlisted Host or Origin is rejected
}

func newGuard(allowedHosts, allowedOrigins []string, allowCredentials, enforce bool) *guard {
	return &guard{
		allowedHosts:     allowedHosts,
		allowedOrigins:   allowedOrigins,
		allowCredentials: allowCredentials,
		enforce:          enforce,
	}
}

// hostAllowed reports whether the request Host header matches the
// configured allow-list. An empty allow-list means "no restriction" outside
// of production mode; in production an empty allow-list rejects everything
// but the loopback addresses.
func (g *guard) hostAllowed(host string) bool {
	hostname := host
	if h, _, err := net.SplitHostPort(host); err == nil {
		hostname = h
	}
	hostname = strings.TrimPrefix(strings.TrimSuffix(hostname, "]"), "[")

	if !g.enforce {
		return true
	}
	if hostname == "" || hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1" {
		return true
	}
	return matchesAllowList(hostname, g.allowedHosts)
}

// originAllowed reports whether the request Origin header is acceptable.
// An empty Origin (non-browser clients) is always allowed.
func (g *guard) originAllowed(origin string) bool {
	if origin == "" {
		return true
	}
	if !g.enforce {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return matchesAllowList(u.Hostname(), g.allowedOrigins)
}

// matchesAllowList checks hostname against entries, supporting a leading
// "*." wildcard that matches any subdomain (but not the bare apex domain).
func matchesAllowList(hostname string, allowList []string) bool {
	for _, entry := range allowList {
		if entry == "*" {
			return true
		}
		if strings.HasPrefix(entry, "*.") {
			suffix := entry[1:] // ".example.com"
			if strings.HasSuffix(hostname, suffix) && hostname != suffix[1:] {
				return true
			}
			continue
		}
		if hostname == entry {
			return true
		}
	}
	return false
}

// wrap applies the host/origin/CORS checks in front of next, mirroring the
// teacher's three-layer corsMiddleware: Host guard, Origin guard, then CORS
// header construction (never echoing "*" when credentials are allowed).
func (g *guard) wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !g.hostAllowed(r.Host) {
			http.Error(w, `{"error":"forbidden: invalid Host header"}`, http.StatusForbidden)
			return
		}

		origin := r.Header.Get("Origin")
		if origin != "" && !g.originAllowed(origin) {
			http.Error(w, `{"error":"forbidden: invalid origin"}`, http.StatusForbidden)
			return
		}

		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if g.allowCredentials {
				w.Header().Set("Access-Control-Allow-Credentials", "true")
			}
		} else if !g.allowCredentials && !g.enforce {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Mcp-Session-Id, Last-Event-ID, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next(w, r)
	}
}
