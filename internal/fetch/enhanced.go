package fetch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CallKind identifies one of the upstream enhanced-fetch API's four verbs.
type CallKind string

const (
	CallScrape CallKind = "scrape"
	CallSearch CallKind = "search"
	CallMap    CallKind = "map"
	CallCrawl  CallKind = "crawl"
)

// EnhancedFetcher is a thin JSON client over the upstream enhanced-fetch
// provider, authenticating with a bearer token. It is the only fetcher kind
// capable of producing screenshots, running browser actions, or driving
// map/search/crawl calls (spec §4.4).
type EnhancedFetcher struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewEnhancedFetcher constructs an EnhancedFetcher pointed at baseURL, using
// apiKey as a bearer token on every request.
func NewEnhancedFetcher(client *http.Client, baseURL, apiKey string) *EnhancedFetcher {
	if client == nil {
		client = &http.Client{}
	}
	return &EnhancedFetcher{client: client, baseURL: baseURL, apiKey: apiKey}
}

// enhancedScrapeResponse is the upstream scrape call's JSON shape, trimmed
// to the fields this fetcher consumes.
type enhancedScrapeResponse struct {
	Markdown   string   `json:"markdown"`
	HTML       string   `json:"html"`
	RawHTML    string   `json:"rawHtml"`
	Links      []string `json:"links"`
	Screenshot string   `json:"screenshot"` // base64
	Metadata   map[string]any `json:"metadata"`
}

func (f *EnhancedFetcher) Scrape(ctx context.Context, url string, opts Options) (Result, error) {
	payload := map[string]any{
		"url":     url,
		"formats": opts.Formats,
	}
	if len(opts.Actions) > 0 {
		payload["actions"] = opts.Actions
	}

	var resp enhancedScrapeResponse
	if err := f.call(ctx, CallScrape, payload, opts.Timeout, &resp); err != nil {
		return Result{}, err
	}

	content := []byte(resp.Markdown)
	mime := "text/markdown"
	if len(resp.Markdown) == 0 {
		content = []byte(resp.HTML)
		mime = "text/html"
	}

	result := Result{
		Content:     content,
		MimeType:    mime,
		RawMetadata: resp.Metadata,
		Links:       resp.Links,
	}

	if hasFormat(opts.Formats, FormatScreenshot) && resp.Screenshot != "" {
		decoded, err := base64.StdEncoding.DecodeString(resp.Screenshot)
		if err != nil {
			return Result{}, &Error{Category: CategoryServer, Message: "invalid screenshot payload: " + err.Error()}
		}
		result.Screenshot = decoded
		result.ScreenshotMime = "image/png"
	}

	return result, nil
}

// Search runs a query against the upstream search verb and returns the raw
// decoded response, one entry per requested source.
func (f *EnhancedFetcher) Search(ctx context.Context, params map[string]any, timeout time.Duration) (map[string]any, error) {
	var resp map[string]any
	if err := f.call(ctx, CallSearch, params, timeout, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Map discovers URLs on a site via the upstream map verb.
func (f *EnhancedFetcher) Map(ctx context.Context, params map[string]any, timeout time.Duration) (map[string]any, error) {
	var resp map[string]any
	if err := f.call(ctx, CallMap, params, timeout, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CrawlStart submits a crawl job and returns its upstream-assigned id.
func (f *EnhancedFetcher) CrawlStart(ctx context.Context, params map[string]any, timeout time.Duration) (string, error) {
	var resp struct {
		JobID string `json:"id"`
	}
	if err := f.call(ctx, CallCrawl, params, timeout, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// CrawlStatus polls a crawl job's current status.
func (f *EnhancedFetcher) CrawlStatus(ctx context.Context, jobID string, timeout time.Duration) (map[string]any, error) {
	var resp map[string]any
	if err := f.call(ctx, CallCrawl, map[string]any{"jobId": jobID, "mode": "status"}, timeout, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CrawlCancel requests cancellation of a crawl job.
func (f *EnhancedFetcher) CrawlCancel(ctx context.Context, jobID string, timeout time.Duration) error {
	var resp map[string]any
	return f.call(ctx, CallCrawl, map[string]any{"jobId": jobID, "mode": "cancel"}, timeout, &resp)
}

func hasFormat(formats []Format, want Format) bool {
	for _, f := range formats {
		if f == want {
			return true
		}
	}
	return false
}

func (f *EnhancedFetcher) call(ctx context.Context, kind CallKind, payload map[string]any, timeout time.Duration, out any) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return &Error{Category: CategoryValidation, Message: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/v1/%s", f.baseURL, kind)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &Error{Category: CategoryValidation, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.apiKey)

	resp, err := f.client.Do(req)
	if err != nil {
		return &Error{Category: CategoryNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Category: CategoryNetwork, Message: err.Error()}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &Error{Category: CategoryAuth, StatusCode: resp.StatusCode, Message: "upstream rejected credentials"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Category: categoryForStatus(resp.StatusCode), StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &Error{Category: CategoryServer, Message: "decode response: " + err.Error()}
	}
	return nil
}
