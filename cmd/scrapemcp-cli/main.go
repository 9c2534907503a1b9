// main.go — Entry point for scrapemcp-cli, a CLI wrapper around scrapemcp's
// MCP tools. Translates CLI commands to MCP JSON-RPC calls against a
// running (or auto-started) scrapemcp server.
//
// Usage: scrapemcp-cli <tool> <arg> [options] [--flags]
//
// Tools: scrape, map, search, crawl
// Formats: --format human (default), --format json, --format csv
//
// Exit codes:
//
//	0 = success
//	1 = error (tool call failed)
//	2 = usage error (missing args, invalid flags)
package main

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/jmagar/scrapemcp/cmd/scrapemcp-cli/commands"
	"github.com/jmagar/scrapemcp/cmd/scrapemcp-cli/config"
	"github.com/jmagar/scrapemcp/cmd/scrapemcp-cli/output"
	"github.com/jmagar/scrapemcp/cmd/scrapemcp-cli/server"
)

var version = "0.1.0"

const usageText = `scrapemcp-cli — CLI interface for scrapemcp's MCP tools

Usage:
  scrapemcp-cli <tool> <arg> [options] [--flags]

Tools:
  scrape   Fetch and extract a single URL
  map      Discover URLs reachable from a seed URL
  search   Run a web search and return one resource per source
  crawl    Start, poll, or cancel a multi-page crawl job

Global Flags:
  --format <human|json|csv>   Output format (default: human)
  --server-port <port>        scrapemcp HTTP port (default: 8081)
  --timeout <ms>              Request timeout in ms (default: 5000)
  --no-auto-start             Don't auto-start the server if not running
  --csv-file <path>           CSV input file for bulk operations
  --version                   Show version
  --help                      Show this help

Examples:
  scrapemcp-cli scrape https://example.com --extract "pricing"
  scrapemcp-cli map https://example.com --max-results 50
  scrapemcp-cli search "golang concurrency patterns" --limit 10
  scrapemcp-cli crawl https://example.com --max-depth 2
  scrapemcp-cli crawl --job-id abc123
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}

	for _, a := range args {
		if a == "--version" || a == "-v" {
			fmt.Printf("scrapemcp-cli %s\n", version)
			return 0
		}
		if a == "--help" || a == "-h" {
			fmt.Print(usageText)
			return 0
		}
	}

	tool := args[0]
	if tool == "help" {
		fmt.Print(usageText)
		return 0
	}

	primary := ""
	remaining := args[1:]
	if len(remaining) > 0 && remaining[0][0] != '-' {
		primary = remaining[0]
		remaining = remaining[1:]
	}
	if primary == "" && tool != "crawl" {
		fmt.Fprintf(os.Stderr, "Error: missing argument for tool %q\n\n", tool)
		fmt.Fprint(os.Stderr, usageText)
		return 2
	}

	flags, remaining := extractGlobalFlags(remaining)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot determine working directory: %v\n", err)
		return 1
	}
	cfg, err := config.Load(cwd, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration: %v\n", err)
		return 2
	}

	csvFile, remaining := extractFlag(remaining, "--csv-file")
	formatter := output.GetFormatter(cfg.Format)

	action := "run"
	var mcpArgs map[string]any
	switch tool {
	case "scrape":
		mcpArgs, err = commands.ScrapeArgs(primary, remaining)
	case "map":
		mcpArgs, err = commands.MapArgs(primary, remaining)
	case "search":
		mcpArgs, err = commands.SearchArgs(primary, remaining)
	case "crawl":
		mcpArgs, err = commands.CrawlArgs(primary, remaining)
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown tool %q. Valid tools: scrape, map, search, crawl\n", tool)
		return 2
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if csvFile != "" {
		return runBulk(cfg, tool, action, mcpArgs, csvFile, formatter)
	}

	client, err := server.EnsureRunning(cfg.ServerPort, cfg.AutoStartServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := client.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: MCP initialize: %v\n", err)
		return 1
	}

	toolResult, err := client.CallTool(tool, mcpArgs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	textContent := ""
	for i, c := range toolResult.Content {
		if i > 0 {
			textContent += "\n"
		}
		textContent += c.Text
	}

	result := commands.BuildResult(tool, action, textContent, toolResult.IsError)
	if err := formatter.Format(os.Stdout, result); err != nil {
		fmt.Fprintf(os.Stderr, "Error: format output: %v\n", err)
		return 1
	}
	if !result.Success {
		return 1
	}
	return 0
}

// runBulk processes a CSV file for bulk operations: each row's columns are
// merged on top of mcpArgs and the tool is called once per row.
func runBulk(cfg config.Config, tool, action string, baseArgs map[string]any, csvPath string, formatter output.Formatter) int {
	f, err := os.Open(csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: open CSV: %v\n", err)
		return 1
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: read CSV: %v\n", err)
		return 1
	}
	if len(records) < 2 {
		fmt.Fprintf(os.Stderr, "Error: CSV file must have header + at least 1 data row\n")
		return 2
	}
	headers, rows := records[0], records[1:]

	client, err := server.EnsureRunning(cfg.ServerPort, cfg.AutoStartServer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if err := client.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: MCP initialize: %v\n", err)
		return 1
	}

	var results []*output.Result
	hasFailure := false

	for _, row := range rows {
		rowArgs := make(map[string]any, len(baseArgs))
		for k, v := range baseArgs {
			rowArgs[k] = v
		}
		for i, header := range headers {
			if i < len(row) && row[i] != "" {
				rowArgs[header] = row[i]
			}
		}

		toolResult, err := client.CallTool(tool, rowArgs)
		if err != nil {
			results = append(results, &output.Result{Success: false, Tool: tool, Action: action, Error: err.Error()})
			hasFailure = true
			continue
		}

		textContent := ""
		if len(toolResult.Content) > 0 {
			textContent = toolResult.Content[0].Text
		}
		result := commands.BuildResult(tool, action, textContent, toolResult.IsError)
		results = append(results, result)
		if !result.Success {
			hasFailure = true
		}
	}

	if csvFormatter, ok := formatter.(*output.CSVFormatter); ok {
		if err := csvFormatter.FormatMultiple(os.Stdout, results); err != nil {
			fmt.Fprintf(os.Stderr, "Error: format output: %v\n", err)
			return 1
		}
	} else {
		for _, r := range results {
			if err := formatter.Format(os.Stdout, r); err != nil {
				fmt.Fprintf(os.Stderr, "Error: format output: %v\n", err)
				return 1
			}
		}
	}

	if hasFailure {
		return 1
	}
	return 0
}

func extractGlobalFlags(args []string) (*config.FlagOverrides, []string) {
	flags := &config.FlagOverrides{}
	remaining := args

	var format string
	format, remaining = extractFlag(remaining, "--format")
	if format != "" {
		flags.Format = &format
	}

	var portStr string
	portStr, remaining = extractFlag(remaining, "--server-port")
	if portStr != "" {
		if port := parseInt(portStr); port > 0 {
			flags.ServerPort = &port
		}
	}

	var timeoutStr string
	timeoutStr, remaining = extractFlag(remaining, "--timeout")
	if timeoutStr != "" {
		if timeout := parseInt(timeoutStr); timeout > 0 {
			flags.Timeout = &timeout
		}
	}

	for i, a := range remaining {
		if a == "--no-auto-start" {
			autoStart := false
			flags.AutoStartServer = &autoStart
			remaining = append(remaining[:i], remaining[i+1:]...)
			break
		}
	}

	return flags, remaining
}

func extractFlag(args []string, flag string) (string, []string) {
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

func parseInt(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}
