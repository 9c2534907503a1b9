// map.go — CLI argument parser for the map tool.
package commands

// MapArgs parses CLI args for the map tool and returns MCP arguments.
func MapArgs(url string, args []string) (map[string]any, error) {
	mcpArgs := map[string]any{"url": url}
	remaining := args

	var search string
	search, remaining = parseFlag(remaining, "--search")
	if search != "" {
		mcpArgs["search"] = search
	}

	var maxResults int
	var hasMaxResults bool
	maxResults, hasMaxResults, remaining = parseFlagInt(remaining, "--max-results")
	if hasMaxResults {
		mcpArgs["maxResults"] = maxResults
	}

	var sitemap string
	sitemap, remaining = parseFlag(remaining, "--sitemap")
	if sitemap != "" {
		mcpArgs["sitemap"] = sitemap
	}

	var includeSubdomains bool
	includeSubdomains, remaining = parseFlagBool(remaining, "--include-subdomains")
	if includeSubdomains {
		mcpArgs["includeSubdomains"] = true
	}

	var ignoreQuery bool
	ignoreQuery, remaining = parseFlagBool(remaining, "--ignore-query-parameters")
	if ignoreQuery {
		mcpArgs["ignoreQueryParameters"] = true
	}

	var location string
	location, remaining = parseFlag(remaining, "--location")
	if location != "" {
		mcpArgs["location"] = location
	}

	_ = remaining
	return mcpArgs, nil
}
