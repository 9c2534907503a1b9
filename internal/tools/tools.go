// Package tools implements the MCP tool handlers (C7): scrape, map, search,
// and crawl. Each handler validates and defaults its arguments per spec
// §4.7, then drives the lower layers (Scrape Pipeline, Enhanced Fetcher) and
// assembles an mcp.ToolResult.
package tools

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/jmagar/scrapemcp/internal/fetch"
	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/metrics"
	"github.com/jmagar/scrapemcp/internal/scrape"
)

// Handlers wires the tool layer to the pipeline, enhanced fetcher, and
// metrics collector. One instance is shared across all tool calls.
type Handlers struct {
	Pipeline *scrape.Pipeline
	Enhanced *fetch.EnhancedFetcher
	Metrics  *metrics.Collector
}

// New constructs a Handlers set.
func New(pipeline *scrape.Pipeline, enhanced *fetch.EnhancedFetcher, m *metrics.Collector) *Handlers {
	return &Handlers{Pipeline: pipeline, Enhanced: enhanced, Metrics: m}
}

// recordOutcome observes a tool call's latency/error state on the shared
// metrics collector, if configured.
func (h *Handlers) recordOutcome(start time.Time, isError bool) {
	if h.Metrics == nil {
		return
	}
	h.Metrics.RecordRequest(time.Since(start), isError)
}

// sliceWithPaging returns content[startIndex:startIndex+maxChars] (clamped to
// bounds) plus the startIndex a follow-up call should use to fetch the next
// slice, and whether the slice was truncated. Mirrors the scrape/map tools'
// shared startIndex/maxChars (or maxResults) paging contract (spec §4.7).
func sliceWithPaging(total, startIndex, pageSize int) (from, to, nextIndex int, truncated bool) {
	if startIndex < 0 {
		startIndex = 0
	}
	if startIndex > total {
		startIndex = total
	}
	end := startIndex + pageSize
	if pageSize <= 0 || end > total {
		end = total
	}
	truncated = end < total
	next := end
	if !truncated {
		next = 0
	}
	return startIndex, end, next, truncated
}

// boolDefault resolves a tri-state *bool param (nil meaning "not supplied")
// against a default, for booleans whose spec default is true (cleanScrape,
// includeSubdomains, ignoreQueryParameters) where the zero value would
// otherwise be indistinguishable from an explicit false.
func boolDefault(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func intOrDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func encodeBase64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func jsonMarshal(v any) ([]byte, error) { return json.Marshal(v) }

// okResponse wraps a pre-marshaled ToolResult in a JSON-RPC success envelope.
func okResponse(id any, result json.RawMessage) mcp.Response {
	return mcp.Response{JSONRPC: "2.0", ID: id, Result: result}
}

// errResponse builds a JSON-RPC success envelope carrying an MCP-level tool
// error (isError: true), distinct from a transport-level JSON-RPC error —
// tool failures are reported to the model as content, not RPC faults.
func errResponse(id any, text string) mcp.Response {
	return mcp.Response{JSONRPC: "2.0", ID: id, Result: mcp.ErrorResponse(text)}
}
