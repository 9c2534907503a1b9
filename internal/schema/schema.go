// schema.go — MCP tool schema assembler.
// Pure data — returns mcp.Tool structs with zero runtime dependencies.
// Schemas are built once from github.com/google/jsonschema-go/jsonschema.Schema
// values and converted to the map[string]any shape the MCP wire format expects,
// rather than hand-typing nested maps per tool.
package schema

import (
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/jmagar/scrapemcp/internal/mcp"
)

// AllTools returns all MCP tool definitions.
func AllTools() []mcp.Tool {
	return []mcp.Tool{
		ScrapeToolSchema(),
		MapToolSchema(),
		SearchToolSchema(),
		CrawlToolSchema(),
	}
}

// toMap converts a *jsonschema.Schema into the map[string]any representation
// mcp.Tool.InputSchema carries over the wire. Marshal-then-unmarshal cannot
// fail for a static, hand-built schema literal.
func toMap(s *jsonschema.Schema) map[string]any {
	raw, err := json.Marshal(s)
	if err != nil {
		panic("schema: static schema failed to marshal: " + err.Error())
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		panic("schema: static schema failed to round-trip: " + err.Error())
	}
	return m
}

func strSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: desc}
}

func boolSchema(desc string, def bool) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "boolean", Description: desc, Default: json.RawMessage(boolLiteral(def))}
}

func boolLiteral(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func intSchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: desc}
}

func intSchemaDefault(desc string, def int) *jsonschema.Schema {
	raw, _ := json.Marshal(def)
	return &jsonschema.Schema{Type: "integer", Description: desc, Default: json.RawMessage(raw)}
}

func enumSchema(desc string, values []string, def string) *jsonschema.Schema {
	s := &jsonschema.Schema{Type: "string", Description: desc}
	if len(values) > 0 {
		s.Enum = toAnySlice(values)
	}
	if def != "" {
		raw, _ := json.Marshal(def)
		s.Default = json.RawMessage(raw)
	}
	return s
}

func stringArraySchema(desc string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "array", Description: desc, Items: strSchema("")}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// actionSchema describes one entry of the scrape tool's "actions" list: a
// browser action kind plus an optional opaque value (spec §4.7).
func actionSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"type":  enumSchema("Action kind.", []string{"wait", "click", "write", "press", "scroll", "screenshot", "scrape", "executeJavascript"}, ""),
			"value": strSchema("Action-specific payload (selector, text, key name, script, etc.)."),
		},
		Required: []string{"type"},
	}
}

// ScrapeToolSchema describes the "scrape" tool's argument contract, per
// spec §4.7.
func ScrapeToolSchema() mcp.Tool {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url":            strSchema("URL to fetch. https:// is prepended if no scheme is present."),
			"timeout":        intSchemaDefault("Fetch timeout in milliseconds.", 60000),
			"maxChars":       intSchemaDefault("Maximum characters of content to return per call.", 100000),
			"startIndex":     intSchemaDefault("Character offset to begin the returned slice at (for paging long content).", 0),
			"resultHandling": enumSchema("Whether to cache, return, or both.", []string{"saveOnly", "saveAndReturn", "returnOnly"}, "saveAndReturn"),
			"forceRescrape":  boolSchema("Bypass the cache and fetch fresh content.", false),
			"cleanScrape":    boolSchema("Convert HTML to cleaned Markdown before returning.", true),
			"extract":        strSchema("Natural-language instruction for LLM-driven extraction. Requires an LLM provider to be configured."),
			"formats":        stringArraySchema("Additional enhanced-fetcher output formats: markdown, html, rawHtml, links, images, screenshot, summary, branding."),
			"actions":        {Type: "array", Description: "Browser actions to run before capturing content.", Items: actionSchema()},
		},
		Required: []string{"url"},
	}
	return mcp.Tool{
		Name:        "scrape",
		Description: "Fetch a single URL and return cleaned/extracted content, using the cache and learned fetch strategy when available.",
		InputSchema: toMap(s),
	}
}

// MapToolSchema describes the "map" tool's argument contract, per spec §4.7.
func MapToolSchema() mcp.Tool {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url":                   strSchema("Seed URL to discover URLs from."),
			"search":                strSchema("Optional keyword filter applied to discovered URLs."),
			"maxResults":            intSchemaDefault("Maximum URLs to return (1..5000).", 200),
			"sitemap":               enumSchema("Whether to use the site's sitemap.", []string{"skip", "include", "only"}, "include"),
			"includeSubdomains":     boolSchema("Whether sibling subdomains count as in-scope.", true),
			"ignoreQueryParameters": boolSchema("Treat URLs differing only by query string as duplicates.", true),
			"location":              strSchema("Optional geographic locale hint passed to the upstream provider."),
			"startIndex":            intSchemaDefault("Offset into the result list (page index * maxResults).", 0),
			"resultHandling":        enumSchema("Whether to cache, return, or both.", []string{"saveOnly", "saveAndReturn", "returnOnly"}, "saveAndReturn"),
		},
		Required: []string{"url"},
	}
	return mcp.Tool{
		Name:        "map",
		Description: "Discover URLs reachable from a seed URL via the enhanced fetcher's site map.",
		InputSchema: toMap(s),
	}
}

// SearchToolSchema describes the "search" tool's argument contract, per
// spec §4.7.
func SearchToolSchema() mcp.Tool {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query":      strSchema("Search query text."),
			"limit":      intSchemaDefault("Maximum results to return (1..100).", 5),
			"sources":    stringArraySchema("Subset of: web, images, news."),
			"categories": stringArraySchema("Subset of: github, research, pdf."),
			"country":    strSchema("Optional two-letter country code."),
			"lang":       enumSchema("Result language.", nil, "en"),
			"location":   strSchema("Optional geographic locale hint passed to the upstream provider."),
			"tbs":        strSchema("Optional upstream time-based-search qualifier (e.g. qdr:d)."),
		},
		Required: []string{"query"},
	}
	return mcp.Tool{
		Name:        "search",
		Description: "Run a query against the enhanced fetcher's search backends and return one resource per requested source.",
		InputSchema: toMap(s),
	}
}

// CrawlToolSchema describes the "crawl" tool's argument contract (start,
// status, and cancel modes), per spec §4.7.
func CrawlToolSchema() mcp.Tool {
	s := &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"url":          strSchema("Seed URL to crawl from. Required when starting a new job (jobId omitted)."),
			"jobId":        strSchema("Existing crawl job id. Supplying this polls status, or cancels if cancel=true."),
			"cancel":       boolSchema("When jobId is supplied, cancel the job instead of polling its status.", false),
			"limit":        intSchema("Maximum number of pages the job may visit."),
			"maxDepth":     intSchema("Maximum link-following depth from the seed."),
			"includePaths": stringArraySchema("Path prefixes to restrict the crawl to."),
			"excludePaths": stringArraySchema("Path prefixes to exclude from the crawl."),
			"sitemap":      enumSchema("Whether to seed the crawl from the site's sitemap.", []string{"skip", "include", "only"}, "include"),
		},
	}
	return mcp.Tool{
		Name:        "crawl",
		Description: "Start an asynchronous multi-page crawl from a seed URL, or poll/cancel an existing crawl job by jobId.",
		InputSchema: toMap(s),
	}
}
