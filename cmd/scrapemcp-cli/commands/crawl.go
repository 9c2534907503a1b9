// crawl.go — CLI argument parser for the crawl tool. Dual-mode like the
// underlying tool: a --job-id switches from starting a crawl to polling or
// cancelling one.
package commands

// CrawlArgs parses CLI args for the crawl tool and returns MCP arguments.
// url may be empty when jobID is set (poll/cancel mode).
func CrawlArgs(url string, args []string) (map[string]any, error) {
	mcpArgs := map[string]any{}
	if url != "" {
		mcpArgs["url"] = url
	}
	remaining := args

	var jobID string
	jobID, remaining = parseFlag(remaining, "--job-id")
	if jobID != "" {
		mcpArgs["jobId"] = jobID
	}

	var cancel bool
	cancel, remaining = parseFlagBool(remaining, "--cancel")
	if cancel {
		mcpArgs["cancel"] = true
	}

	var limit int
	var hasLimit bool
	limit, hasLimit, remaining = parseFlagInt(remaining, "--limit")
	if hasLimit {
		mcpArgs["limit"] = limit
	}

	var maxDepth int
	var hasMaxDepth bool
	maxDepth, hasMaxDepth, remaining = parseFlagInt(remaining, "--max-depth")
	if hasMaxDepth {
		mcpArgs["maxDepth"] = maxDepth
	}

	var includePaths []string
	includePaths, remaining = parseFlagList(remaining, "--include-paths")
	if includePaths != nil {
		mcpArgs["includePaths"] = includePaths
	}

	var excludePaths []string
	excludePaths, remaining = parseFlagList(remaining, "--exclude-paths")
	if excludePaths != nil {
		mcpArgs["excludePaths"] = excludePaths
	}

	var sitemap string
	sitemap, remaining = parseFlag(remaining, "--sitemap")
	if sitemap != "" {
		mcpArgs["sitemap"] = sitemap
	}

	_ = remaining
	return mcpArgs, nil
}
