package tools

import (
	"context"
	"strconv"
	"time"

	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/store"
)

// searchParams mirrors the search tool's argument contract, spec §4.7.
type searchParams struct {
	Query      string   `json:"query"`
	Limit      int      `json:"limit"`
	Sources    []string `json:"sources"`
	Categories []string `json:"categories"`
	Country    string   `json:"country"`
	Lang       string   `json:"lang"`
	Location   string   `json:"location"`
	TBS        string   `json:"tbs"`
}

// Search handles the "search" tool call, returning one resource per
// requested source (spec §4.7: "emit one resource per requested source").
func (h *Handlers) Search(ctx context.Context, req mcp.Request) mcp.Response {
	start := time.Now()
	id := req.ID
	var p searchParams
	mcp.LenientUnmarshal(req.Params, &p)

	if p.Query == "" {
		h.recordOutcome(start, true)
		return errResponse(id, "query is required")
	}
	limit := intOrDefault(p.Limit, 5)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	sources := p.Sources
	if len(sources) == 0 {
		sources = []string{"web"}
	}

	payload := map[string]any{
		"query":   p.Query,
		"limit":   limit,
		"sources": sources,
		"lang":    stringOrDefault(p.Lang, "en"),
	}
	if len(p.Categories) > 0 {
		payload["categories"] = p.Categories
	}
	if p.Country != "" {
		payload["country"] = p.Country
	}
	if p.Location != "" {
		payload["location"] = p.Location
	}
	if p.TBS != "" {
		payload["tbs"] = p.TBS
	}

	resp, err := h.Enhanced.Search(ctx, payload, 30*time.Second)
	if err != nil {
		h.recordOutcome(start, true)
		return errResponse(id, err.Error())
	}
	h.recordOutcome(start, false)

	ts := store.NextResourceTimestampNs()
	blocks := make([]mcp.ContentBlock, 0, len(sources))
	for _, source := range sources {
		data, ok := resp[source]
		if !ok {
			continue
		}
		raw, err := jsonMarshal(data)
		if err != nil {
			continue
		}
		uri := store.BuildProductURI("search", source, strconv.FormatInt(ts, 10))
		blocks = append(blocks, mcp.ContentBlock{
			Type:     "resource",
			Resource: &mcp.ResourceInner{URI: uri, MimeType: "application/json", Text: string(raw)},
		})
	}
	if len(blocks) == 0 {
		raw, _ := jsonMarshal(resp)
		blocks = append(blocks, mcp.ContentBlock{Type: "text", Text: string(raw)})
	}

	result := mcp.ToolResult{Content: blocks}
	return okResponse(id, mcp.SafeMarshal(result, `{"content":[{"type":"text","text":"search succeeded but result could not be serialized"}]}`))
}
