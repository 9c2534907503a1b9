// common.go — Shared utilities for command argument parsing.
package commands

import (
	"encoding/json"
	"strings"

	"github.com/jmagar/scrapemcp/cmd/scrapemcp-cli/output"
)

// BuildResult constructs an output.Result from MCP response content.
func BuildResult(tool, action, textContent string, isError bool) *output.Result {
	result := &output.Result{
		Success:     !isError,
		Tool:        tool,
		Action:      action,
		TextContent: textContent,
	}
	if isError {
		result.Error = textContent
		return result
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(textContent), &data); err == nil {
		result.Data = data
	}
	return result
}

// parseFlag extracts a flag value from an args slice, returning the value
// and remaining args with the flag pair removed.
func parseFlag(args []string, flag string) (string, []string) {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			val := args[i+1]
			remaining := make([]string, 0, len(args)-2)
			remaining = append(remaining, args[:i]...)
			remaining = append(remaining, args[i+2:]...)
			return val, remaining
		}
	}
	return "", args
}

// parseFlagInt extracts an integer flag value from an args slice.
func parseFlagInt(args []string, flag string) (int, bool, []string) {
	val, remaining := parseFlag(args, flag)
	if val == "" {
		return 0, false, args
	}
	var n int
	for _, c := range val {
		if c < '0' || c > '9' {
			return 0, false, args
		}
		n = n*10 + int(c-'0')
	}
	return n, true, remaining
}

// parseFlagBool checks if a boolean flag is present in args.
func parseFlagBool(args []string, flag string) (bool, []string) {
	for i, a := range args {
		if a == flag {
			remaining := make([]string, 0, len(args)-1)
			remaining = append(remaining, args[:i]...)
			remaining = append(remaining, args[i+1:]...)
			return true, remaining
		}
	}
	return false, args
}

// parseFlagList extracts a comma-separated list flag value from an args
// slice, e.g. "--formats markdown,html" -> []string{"markdown", "html"}.
func parseFlagList(args []string, flag string) ([]string, []string) {
	val, remaining := parseFlag(args, flag)
	if val == "" {
		return nil, remaining
	}
	return strings.Split(val, ","), remaining
}
