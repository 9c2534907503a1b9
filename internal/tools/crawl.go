package tools

import (
	"context"
	"strconv"
	"time"

	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/store"
	"github.com/jmagar/scrapemcp/internal/util"
)

// crawlParams mirrors the crawl tool's argument contract, spec §4.7. The
// tool is dual-mode: a jobId switches it from starting a new job to
// polling/cancelling an existing one.
type crawlParams struct {
	URL          string   `json:"url"`
	JobID        string   `json:"jobId"`
	Cancel       bool     `json:"cancel"`
	Limit        int      `json:"limit"`
	MaxDepth     int      `json:"maxDepth"`
	IncludePaths []string `json:"includePaths"`
	ExcludePaths []string `json:"excludePaths"`
	Sitemap      string   `json:"sitemap"`
}

// Crawl handles the "crawl" tool call. With no jobId it starts a new
// asynchronous crawl job; with a jobId it polls status, or cancels when
// cancel=true. Job state itself lives entirely upstream — this handler only
// ever proxies start/status/cancel calls, trusting the upstream-reported
// state rather than tracking its own (spec §8).
func (h *Handlers) Crawl(ctx context.Context, req mcp.Request) mcp.Response {
	start := time.Now()
	id := req.ID
	var p crawlParams
	mcp.LenientUnmarshal(req.Params, &p)

	if p.JobID != "" {
		if p.Cancel {
			if err := h.Enhanced.CrawlCancel(ctx, p.JobID, 30*time.Second); err != nil {
				h.recordOutcome(start, true)
				return errResponse(id, err.Error())
			}
			h.recordOutcome(start, false)
			return okResponse(id, mcp.TextResponse("crawl job "+p.JobID+" cancelled"))
		}

		status, err := h.Enhanced.CrawlStatus(ctx, p.JobID, 30*time.Second)
		if err != nil {
			h.recordOutcome(start, true)
			return errResponse(id, err.Error())
		}
		h.recordOutcome(start, false)

		// Once the upstream job reports completion, its payload becomes a
		// citable resource rather than a transient status line.
		if status["status"] == "completed" {
			raw, err := jsonMarshal(status)
			if err == nil {
				uri := store.BuildProductURI("crawl", "results", strconv.FormatInt(store.NextResourceTimestampNs(), 10))
				result := mcp.ToolResult{Content: []mcp.ContentBlock{
					{Type: "resource", Resource: &mcp.ResourceInner{URI: uri, MimeType: "application/json", Text: string(raw)}},
				}}
				return okResponse(id, mcp.SafeMarshal(result, `{"content":[{"type":"text","text":"crawl completed but result could not be serialized"}]}`))
			}
		}
		return okResponse(id, mcp.JSONResponse("Crawl job "+p.JobID, status))
	}

	if p.URL == "" {
		h.recordOutcome(start, true)
		return errResponse(id, "url is required to start a new crawl job (or supply jobId to poll/cancel one)")
	}

	payload := map[string]any{
		"url":     util.NormalizeURL(p.URL),
		"sitemap": stringOrDefault(p.Sitemap, "include"),
	}
	if p.Limit > 0 {
		payload["limit"] = p.Limit
	}
	if p.MaxDepth > 0 {
		payload["maxDepth"] = p.MaxDepth
	}
	if len(p.IncludePaths) > 0 {
		payload["includePaths"] = p.IncludePaths
	}
	if len(p.ExcludePaths) > 0 {
		payload["excludePaths"] = p.ExcludePaths
	}

	jobID, err := h.Enhanced.CrawlStart(ctx, payload, 30*time.Second)
	if err != nil {
		h.recordOutcome(start, true)
		return errResponse(id, err.Error())
	}
	h.recordOutcome(start, false)
	return okResponse(id, mcp.JSONResponse("Crawl job started", map[string]any{"jobId": jobID}))
}
