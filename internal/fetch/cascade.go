package fetch

import (
	"context"
	"time"

	"github.com/jmagar/scrapemcp/internal/strategy"
)

// OptimizeMode selects the cascade's default ordering when the Strategy
// Registry has no opinion for a URL's pattern.
type OptimizeMode string

const (
	OptimizeCost  OptimizeMode = "cost"
	OptimizeSpeed OptimizeMode = "speed"
)

// Attempt records one fetcher's outcome during a cascade run.
type Attempt struct {
	Strategy strategy.Name
	Elapsed  time.Duration
	Err      error
}

// Diagnostics is returned alongside a Result (success) or instead of one
// (full failure), carrying everything the tool handler needs to build the
// failure envelope's diagnostics payload (spec §4.4, §7).
type Diagnostics struct {
	Attempts  []Attempt
	AuthError bool
}

// Cascade picks between native and enhanced fetchers per request, consulting
// the Strategy Registry and updating it on success.
type Cascade struct {
	native   Fetcher
	enhanced Fetcher
	registry *strategy.Registry
	mode     OptimizeMode
}

// NewCascade builds a Cascade. mode governs the default ordering when the
// registry has no pattern entry for a URL.
func NewCascade(native, enhanced Fetcher, registry *strategy.Registry, mode OptimizeMode) *Cascade {
	return &Cascade{native: native, enhanced: enhanced, registry: registry, mode: mode}
}

// Run executes the cascade for url. requestsScreenshot bypasses the cascade
// entirely and calls enhanced directly, since native cannot produce
// screenshots (spec §4.4).
func (c *Cascade) Run(ctx context.Context, url string, opts Options, requestsScreenshot bool) (Result, strategy.Name, Diagnostics, error) {
	var diag Diagnostics

	if requestsScreenshot {
		result, attempt := c.try(ctx, strategy.Enhanced, url, opts)
		diag.Attempts = append(diag.Attempts, attempt)
		if attempt.Err != nil {
			return Result{}, "", diag, attempt.Err
		}
		c.registry.Upsert(strategy.Pattern(url), strategy.Enhanced)
		return result, strategy.Enhanced, diag, nil
	}

	order := c.order(url)

	for _, strat := range order {
		result, attempt := c.try(ctx, strat, url, opts)
		diag.Attempts = append(diag.Attempts, attempt)
		if attempt.Err == nil {
			c.registry.Upsert(strategy.Pattern(url), strat)
			return result, strat, diag, nil
		}
		if IsAuth(attempt.Err) {
			diag.AuthError = true
			break // auth failure suppresses the fallback cascade (spec §4.4, §7)
		}
	}

	return Result{}, "", diag, &Error{Category: CategoryNetwork, Message: "all fetch strategies failed"}
}

// order returns the strategies to try, in priority order, for url.
func (c *Cascade) order(url string) []strategy.Name {
	if strat, ok := c.registry.GetStrategy(url); ok && strat == strategy.Enhanced {
		return []strategy.Name{strategy.Enhanced}
	}
	if c.mode == OptimizeSpeed {
		return []strategy.Name{strategy.Enhanced}
	}
	return []strategy.Name{strategy.Native, strategy.Enhanced}
}

func (c *Cascade) try(ctx context.Context, strat strategy.Name, url string, opts Options) (Result, Attempt) {
	start := time.Now()
	fetcher := c.native
	if strat == strategy.Enhanced {
		fetcher = c.enhanced
	}
	result, err := fetcher.Scrape(ctx, url, opts)
	return result, Attempt{Strategy: strat, Elapsed: time.Since(start), Err: err}
}
