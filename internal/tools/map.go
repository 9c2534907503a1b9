package tools

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/store"
	"github.com/jmagar/scrapemcp/internal/util"
)

// mapParams mirrors the map tool's argument contract, spec §4.7.
type mapParams struct {
	URL                   string `json:"url"`
	Search                string `json:"search"`
	MaxResults            int    `json:"maxResults"`
	Sitemap               string `json:"sitemap"`
	IncludeSubdomains     *bool  `json:"includeSubdomains"`
	IgnoreQueryParameters *bool  `json:"ignoreQueryParameters"`
	Location              string `json:"location"`
	StartIndex            int    `json:"startIndex"`
	ResultHandling        string `json:"resultHandling"`
}

// Map handles the "map" tool call: discover URLs reachable from a seed URL
// via the enhanced fetcher's map verb, then slice the result page.
func (h *Handlers) Map(ctx context.Context, req mcp.Request) mcp.Response {
	start := time.Now()
	id := req.ID
	var p mapParams
	mcp.LenientUnmarshal(req.Params, &p)

	if p.URL == "" {
		h.recordOutcome(start, true)
		return errResponse(id, "url is required")
	}
	maxResults := intOrDefault(p.MaxResults, 200)
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 5000 {
		maxResults = 5000
	}

	payload := map[string]any{
		"url":                   util.NormalizeURL(p.URL),
		"sitemap":               stringOrDefault(p.Sitemap, "include"),
		"includeSubdomains":     boolDefault(p.IncludeSubdomains, true),
		"ignoreQueryParameters": boolDefault(p.IgnoreQueryParameters, true),
	}
	if p.Search != "" {
		payload["search"] = p.Search
	}
	if p.Location != "" {
		payload["location"] = p.Location
	}

	resp, err := h.Enhanced.Map(ctx, payload, time.Minute)
	if err != nil {
		h.recordOutcome(start, true)
		return errResponse(id, err.Error())
	}
	h.recordOutcome(start, false)

	links := extractLinks(resp)
	total := len(links)
	from, to, nextIndex, truncated := sliceWithPaging(total, p.StartIndex, maxResults)
	page := links[from:to]

	summary := map[string]any{
		"urls":         page,
		"count":        len(page),
		"totalResults": total,
		"hostnames":    uniqueHostnames(page),
	}
	if truncated {
		summary["nextStartIndex"] = nextIndex
	}

	pageNum := 0
	if maxResults > 0 {
		pageNum = p.StartIndex / maxResults
	}
	uri := store.BuildProductURI("map", store.Sanitize(hostOf(p.URL)), strconv.FormatInt(store.NextResourceTimestampNs(), 10), "page-"+strconv.Itoa(pageNum))

	raw, err := jsonMarshal(summary)
	if err != nil {
		return okResponse(id, mcp.JSONResponse("Map results", summary))
	}

	result := mcp.ToolResult{Content: []mcp.ContentBlock{
		{Type: "resource", Resource: &mcp.ResourceInner{URI: uri, MimeType: "application/json", Text: string(raw)}},
	}}
	return okResponse(id, mcp.SafeMarshal(result, `{"content":[{"type":"text","text":"map succeeded but result could not be serialized"}]}`))
}

func extractLinks(resp map[string]any) []string {
	raw, ok := resp["links"].([]any)
	if !ok {
		raw, _ = resp["urls"].([]any)
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func uniqueHostnames(urls []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, u := range urls {
		host := hostOf(u)
		if host == "" || seen[host] {
			continue
		}
		seen[host] = true
		out = append(out, host)
	}
	return out
}

func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
