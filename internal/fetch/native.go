package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// NativeFetcher performs a direct HTTP GET. It succeeds iff the response
// status is in [200,299] and the body is non-empty, and signals an auth
// Error for 401/403 so the cascade can skip the fallback to enhanced
// (spec §4.4).
type NativeFetcher struct {
	client *http.Client

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
	burst    int
}

// NewNativeFetcher constructs a NativeFetcher. perHostRPS bounds the rate of
// native fetches issued to any single host (spec §5 Backpressure); a value
// of 0 disables the limiter.
func NewNativeFetcher(client *http.Client, perHostRPS float64, burst int) *NativeFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &NativeFetcher{
		client:   client,
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(perHostRPS),
		burst:    burst,
	}
}

func (f *NativeFetcher) limiterFor(host string) *rate.Limiter {
	if f.perHost <= 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(f.perHost, f.burst)
		f.limiters[host] = l
	}
	return l
}

func (f *NativeFetcher) Scrape(ctx context.Context, rawURL string, opts Options) (Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return Result{}, &Error{Category: CategoryValidation, Message: err.Error()}
	}

	if l := f.limiterFor(parsed.Host); l != nil {
		if err := l.Wait(ctx); err != nil {
			return Result{}, &Error{Category: CategoryNetwork, Message: "rate limiter wait: " + err.Error()}
		}
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, &Error{Category: CategoryValidation, Message: err.Error()}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return Result{}, &Error{Category: CategoryNetwork, Message: "timeout"}
		}
		return Result{}, &Error{Category: CategoryNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return Result{}, &Error{Category: CategoryAuth, StatusCode: resp.StatusCode, Message: "upstream rejected credentials"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, &Error{Category: categoryForStatus(resp.StatusCode), StatusCode: resp.StatusCode, Message: "non-2xx response"}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &Error{Category: CategoryNetwork, Message: err.Error()}
	}
	if len(body) == 0 {
		return Result{}, &Error{Category: CategoryServer, Message: "empty body"}
	}

	return Result{
		Content:  body,
		MimeType: resp.Header.Get("Content-Type"),
		RawMetadata: map[string]any{
			"status_code": resp.StatusCode,
		},
	}, nil
}
