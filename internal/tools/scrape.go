package tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmagar/scrapemcp/internal/fetch"
	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/scrape"
	"github.com/jmagar/scrapemcp/internal/util"
)

// scrapeParams mirrors the scrape tool's argument contract, spec §4.7.
type scrapeParams struct {
	URL            string   `json:"url"`
	Timeout        int      `json:"timeout"`
	MaxChars       int      `json:"maxChars"`
	StartIndex     int      `json:"startIndex"`
	ResultHandling string   `json:"resultHandling"`
	ForceRescrape  bool     `json:"forceRescrape"`
	CleanScrape    *bool    `json:"cleanScrape"`
	Extract        string   `json:"extract"`
	Formats        []string `json:"formats"`
	Actions        []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"actions"`
}

// Scrape handles the "scrape" tool call: normalize arguments, run the
// pipeline, and return a paginated slice of the resulting content.
func (h *Handlers) Scrape(ctx context.Context, req mcp.Request) mcp.Response {
	start := time.Now()
	id := req.ID
	var p scrapeParams
	mcp.LenientUnmarshal(req.Params, &p)

	if p.URL == "" {
		h.recordOutcome(start, true)
		return errResponse(id, "url is required")
	}

	opts := scrape.Options{
		Timeout:        time.Duration(intOrDefault(p.Timeout, 60000)) * time.Millisecond,
		ResultHandling: scrape.ResultHandling(stringOrDefault(p.ResultHandling, string(scrape.SaveAndReturn))),
		ForceRescrape:  p.ForceRescrape,
		CleanScrape:    boolDefault(p.CleanScrape, true),
		Extract:        p.Extract,
		Formats:        toFetchFormats(p.Formats),
	}
	for _, a := range p.Actions {
		opts.Actions = append(opts.Actions, fetch.Action{Kind: a.Type, Value: a.Value})
	}

	outcome, err := h.Pipeline.Scrape(ctx, util.NormalizeURL(p.URL), opts)
	if err != nil {
		h.recordOutcome(start, true)
		return errResponse(id, scrapeFailureMessage(err))
	}
	h.recordOutcome(start, false)

	if opts.ResultHandling == scrape.SaveOnly {
		return okResponse(id, mcp.JSONResponse("Saved", map[string]any{
			"rawUri":       outcome.RawURI,
			"cleanedUri":   outcome.CleanedURI,
			"extractedUri": outcome.ExtractedURI,
			"source":       outcome.Source,
		}))
	}

	maxChars := intOrDefault(p.MaxChars, 100000)
	from, to, nextIndex, truncated := sliceWithPaging(len(outcome.Content), p.StartIndex, maxChars)
	body := string(outcome.Content[from:to])
	if truncated {
		body += fmt.Sprintf("\n\n[truncated; continue with startIndex=%d]", nextIndex)
	}
	if outcome.ExtractionWarning != "" {
		body += "\n\n_" + outcome.ExtractionWarning + "_"
	}

	blocks := []mcp.ContentBlock{{Type: "text", Text: body, MimeType: outcome.MimeType}}
	if uri := primaryURI(outcome); uri != "" {
		blocks = append(blocks, mcp.ContentBlock{Type: "resource_link", URI: uri, MimeType: outcome.MimeType})
	}
	if outcome.Screenshot != nil {
		blocks = append(blocks, mcp.ContentBlock{Type: "image", Data: encodeBase64(outcome.Screenshot), MimeType: outcome.ScreenshotMime})
	}

	result := mcp.ToolResult{Content: blocks}
	return okResponse(id, mcp.SafeMarshal(result, `{"content":[{"type":"text","text":"scrape succeeded but result could not be serialized"}]}`))
}

func primaryURI(o scrape.Outcome) string {
	switch o.Tier {
	case "extracted":
		return o.ExtractedURI
	case "cleaned":
		return o.CleanedURI
	default:
		return o.RawURI
	}
}

func scrapeFailureMessage(err error) string {
	var scrapeErr *scrape.Error
	if errors.As(err, &scrapeErr) {
		return fmt.Sprintf("scrape failed after trying %v: %v", scrapeErr.Diagnostics.StrategiesAttempted, scrapeErr.Diagnostics.StrategyErrors)
	}
	return err.Error()
}

func toFetchFormats(formats []string) []fetch.Format {
	out := make([]fetch.Format, 0, len(formats))
	for _, f := range formats {
		out = append(out, fetch.Format(f))
	}
	return out
}

func stringOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
