// main.go — Entry point for the scrapemcp server binary.
//
// Usage: scrapemcp [--server] [--port N]
//
// Like the teacher it's adapted from, this binary runs in one of three
// modes depending on how it was launched:
//  1. --server: foreground HTTP server with a startup banner
//  2. stdin is a terminal: daemonize as a background HTTP server
//  3. stdin is a pipe (an MCP host launched us): stdio cooperative mode,
//     with the HTTP network surface running alongside in a goroutine
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"

	"github.com/redis/go-redis/v9"

	"github.com/jmagar/scrapemcp/internal/config"
	"github.com/jmagar/scrapemcp/internal/content"
	"github.com/jmagar/scrapemcp/internal/fetch"
	"github.com/jmagar/scrapemcp/internal/mcp"
	"github.com/jmagar/scrapemcp/internal/mcpsession"
	"github.com/jmagar/scrapemcp/internal/metrics"
	"github.com/jmagar/scrapemcp/internal/scrape"
	"github.com/jmagar/scrapemcp/internal/server"
	"github.com/jmagar/scrapemcp/internal/store"
	"github.com/jmagar/scrapemcp/internal/strategy"
	"github.com/jmagar/scrapemcp/internal/tools"
)

var version = "0.1.0"

func main() {
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	showVersion := flag.Bool("version", false, "Show version")
	showHelp := flag.Bool("help", false, "Show help")
	serverOnly := flag.Bool("server", false, "Run in HTTP-only mode (no stdio MCP loop)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("scrapemcp v%s\n", version)
		os.Exit(0)
	}
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg := config.MustLoad()
	if *port > 0 {
		cfg.HTTP.Port = *port
	}
	setupLogging(cfg.Log)

	if !*serverOnly {
		stat, _ := os.Stdin.Stat()
		isTTY := (stat.Mode() & os.ModeCharDevice) != 0

		if isTTY {
			exe, _ := os.Executable()
			cmd := exec.Command(exe, "--server", "--port", fmt.Sprintf("%d", cfg.HTTP.Port))
			cmd.Stdout, cmd.Stderr, cmd.Stdin = nil, nil, nil
			setDetachedProcess(cmd)
			if err := cmd.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting background server: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("[scrapemcp] Server started (pid %d), HTTP on port %d\n", cmd.Process.Pid, cfg.HTTP.Port)
			fmt.Println("[scrapemcp] Stop with: kill", cmd.Process.Pid)
			os.Exit(0)
		}

		runStdioMode(cfg)
		return
	}

	runServerMode(cfg)
}

// buildApp wires every C1-C9 singleton from the resolved configuration.
type app struct {
	manager *mcpsession.Manager
	srv     *server.Server
}

func buildApp(cfg *config.Config) *app {
	coll := metrics.New(cfg.Metrics.RingSize)

	var backend store.Backend
	if cfg.Store.Backend == "filesystem" {
		fb, err := store.NewFilesystemBackend(cfg.Store.FilesystemDir)
		if err != nil {
			slog.Error("filesystem store init failed, falling back to memory", "error", err)
			backend = store.NewMemoryBackend()
		} else {
			backend = fb
		}
	} else {
		backend = store.NewMemoryBackend()
	}
	st := store.New(backend, store.Limits{
		TTL:      cfg.Store.TTL,
		MaxItems: cfg.Store.MaxItems,
		MaxBytes: cfg.Store.MaxBytes,
	}, cfg.Store.SweepInterval, coll)

	persister := strategy.NewFilePersister(cfg.Strategy.PersistPath)
	registry := strategy.New(persister)

	httpClient := &http.Client{Timeout: cfg.Upstream.Timeout}
	native := fetch.NewNativeFetcher(httpClient, cfg.Upstream.RatePerSec, cfg.Upstream.RateBurst)
	enhanced := fetch.NewEnhancedFetcher(httpClient, cfg.Upstream.BaseURL, cfg.Upstream.APIKey)
	mode := fetch.OptimizeCost
	if cfg.App.OptimizeFor == "speed" {
		mode = fetch.OptimizeSpeed
	}
	cascade := fetch.NewCascade(native, enhanced, registry, mode)

	var extractor content.Extractor
	if cfg.LLM.Provider == "anthropic" && cfg.LLM.APIKey != "" {
		extractor = content.NewAnthropicExtractor(cfg.LLM.APIKey, cfg.LLM.Model, 4096)
	} else {
		extractor = content.NoopExtractor{}
	}

	pipeline := scrape.New(st, cascade, extractor)
	handlers := tools.New(pipeline, enhanced, coll)

	var events mcpsession.EventStore
	if cfg.EventStore.Backend == "redis" {
		opts, err := redis.ParseURL(cfg.EventStore.RedisURL)
		if err != nil {
			slog.Error("invalid event_store.redis_url, falling back to memory store", "error", err)
			events = mcpsession.NewMemoryEventStore()
		} else {
			events = mcpsession.NewRedisEventStore(redis.NewClient(opts), "")
		}
	} else {
		events = mcpsession.NewMemoryEventStore()
	}

	rt := &server.Router{
		Tools:        handlers,
		Store:        st,
		Name:         cfg.App.Name,
		Version:      cfg.App.Version,
		Instructions: "Web content ingestion over MCP: scrape, map, search, and crawl tools backed by a resource store.",
	}
	manager := mcpsession.NewManager(events, rt, cfg.HTTP.IdleSessionTTL)
	srv := server.New(cfg.HTTP, cfg.OAuth, manager, coll, cfg.IsProduction())

	return &app{manager: manager, srv: srv}
}

func runServerMode(cfg *config.Config) {
	a := buildApp(cfg)
	defer a.manager.Close()

	fmt.Println()
	fmt.Println("scrapemcp")
	fmt.Printf("listening on http://127.0.0.1:%d\n", cfg.HTTP.Port)
	fmt.Println("Ctrl+C to stop.")
	fmt.Println()

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.HTTP.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      a.srv.Mux(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	if err := httpSrv.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}
}

// runStdioMode runs a single cooperative MCP session over stdin/stdout while
// the HTTP network surface serves any additional clients in the background.
func runStdioMode(cfg *config.Config) {
	a := buildApp(cfg)
	defer a.manager.Close()

	fmt.Fprintf(os.Stderr, "[scrapemcp] stdio mode, HTTP also listening on port %d\n", cfg.HTTP.Port)

	go func() {
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.HTTP.Port)
		if err := http.ListenAndServe(addr, a.srv.Mux()); err != nil {
			slog.Error("background HTTP listener stopped", "error", err)
		}
	}()

	var sessionID string
	scanner := bufio.NewScanner(os.Stdin)
	const maxScanTokenSize = 10 * 1024 * 1024
	scanner.Buffer(make([]byte, maxScanTokenSize), maxScanTokenSize)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var req mcp.Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			resp := mcp.Response{JSONRPC: "2.0", Error: &mcp.Error{Code: mcp.CodeParseError, Message: "parse error: " + err.Error()}}
			out, _ := json.Marshal(resp)
			fmt.Println(string(out))
			continue
		}

		resp, newSessionID, sessErr := a.manager.Dispatch(context.Background(), sessionID, req)
		if newSessionID != "" {
			sessionID = newSessionID
		}
		if sessErr != nil {
			out, _ := json.Marshal(mcp.Response{JSONRPC: "2.0", ID: req.ID, Error: &mcp.Error{Code: mcp.CodeInvalidRequest, Message: sessErr.Error()}})
			fmt.Println(string(out))
			continue
		}
		if resp == nil {
			continue // notification: no reply
		}
		out, _ := json.Marshal(resp)
		fmt.Println(string(out))
	}
}

func setupLogging(cfg config.LogConfig) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(handler))
}

func printHelp() {
	fmt.Print(`scrapemcp — a web content ingestion MCP server

Usage:
  scrapemcp              Run as an MCP server (stdio, with HTTP alongside)
  scrapemcp --server      Run the HTTP network surface only
  scrapemcp --port 9000   Override the configured HTTP port

Flags:
  --version   Show version
  --help      Show this help
`)
}
