// Package scrape implements the Scrape Pipeline (C6): the orchestration of
// cache lookup, fetch cascade, content processing, and multi-tier
// persistence behind a single scrape call (spec §4.6).
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmagar/scrapemcp/internal/content"
	"github.com/jmagar/scrapemcp/internal/fetch"
	"github.com/jmagar/scrapemcp/internal/store"
)

// ResultHandling controls whether a scrape call touches the cache, returns
// content inline, or both (spec §4.7).
type ResultHandling string

const (
	SaveOnly      ResultHandling = "saveOnly"
	SaveAndReturn ResultHandling = "saveAndReturn"
	ReturnOnly    ResultHandling = "returnOnly"
)

// Options carries one scrape call's tunables, a subset of the scrape tool's
// full argument contract (spec §4.7) relevant to the pipeline itself.
type Options struct {
	Timeout        time.Duration
	ResultHandling ResultHandling
	ForceRescrape  bool
	CleanScrape    bool
	Extract        string
	Formats        []fetch.Format
	Actions        []fetch.Action
}

// Source describes where the returned content came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceNative   Source = "native"
	SourceEnhanced Source = "enhanced"
)

// Outcome is what the pipeline returns to a tool handler on success.
type Outcome struct {
	Content       []byte
	MimeType      string
	Tier          store.Tier
	Source        Source
	TimestampNs   int64
	RawURI        string
	CleanedURI    string
	ExtractedURI  string
	Screenshot    []byte
	ScreenshotMime string
	ExtractionWarning string // set when extraction was requested but failed
}

// FailureDiagnostics is carried by Error when every fetch strategy failed.
type FailureDiagnostics struct {
	StrategiesAttempted []string
	StrategyErrors      map[string]string
	TimingMs            map[string]int64
	AuthError           bool
}

// Error wraps a fully-failed scrape with its diagnostics payload (spec §7).
type Error struct {
	Diagnostics FailureDiagnostics
	Underlying  error
}

func (e *Error) Error() string { return fmt.Sprintf("scrape failed: %v", e.Underlying) }
func (e *Error) Unwrap() error { return e.Underlying }

// Pipeline wires the Resource Store, Strategy Cascade, and Content
// Processors together to serve one scrape call.
type Pipeline struct {
	store     *store.Store
	cascade   *fetch.Cascade
	extractor content.Extractor

	group singleflight.Group
}

// New constructs a Pipeline. extractor may be content.NoopExtractor{} when
// no LLM provider is configured.
func New(st *store.Store, cascade *fetch.Cascade, extractor content.Extractor) *Pipeline {
	return &Pipeline{store: st, cascade: cascade, extractor: extractor}
}

// Scrape runs the five-step pipeline for url, coalescing concurrent calls
// sharing the same (url, extract) fingerprint (spec §4.6's "concurrency per
// fingerprint").
func (p *Pipeline) Scrape(ctx context.Context, url string, opts Options) (Outcome, error) {
	key := url + "\x00" + opts.Extract

	v, err, _ := p.group.Do(key, func() (any, error) {
		return p.scrapeOnce(ctx, url, opts)
	})
	if err != nil {
		return Outcome{}, err
	}
	return v.(Outcome), nil
}

func (p *Pipeline) scrapeOnce(ctx context.Context, url string, opts Options) (Outcome, error) {
	requestsScreenshot := hasScreenshot(opts.Formats)

	skipCache := opts.ForceRescrape || opts.ResultHandling == SaveOnly || requestsScreenshot
	if !skipCache {
		if r, ok := p.store.BestCached(url, opts.Extract); ok {
			return Outcome{
				Content:     r.Content,
				MimeType:    r.MimeType,
				Tier:        r.Tier,
				Source:      SourceCache,
				TimestampNs: r.TimestampNs,
			}, nil
		}
	}

	fetchOpts := fetch.Options{Timeout: opts.Timeout, Formats: opts.Formats, Actions: opts.Actions}
	result, strat, diag, err := p.cascade.Run(ctx, url, fetchOpts, requestsScreenshot)
	if err != nil {
		return Outcome{}, &Error{Diagnostics: buildDiagnostics(diag), Underlying: err}
	}

	source := SourceNative
	if strat == "enhanced" {
		source = SourceEnhanced
	}

	outcome := Outcome{
		MimeType:       result.MimeType,
		Source:         source,
		Screenshot:     result.Screenshot,
		ScreenshotMime: result.ScreenshotMime,
	}

	raw := result.Content
	var cleaned []byte
	if opts.CleanScrape && result.MimeType == "text/html" {
		cleaned = content.Clean(raw)
	}

	var extracted []byte
	var extractedMime string
	if opts.Extract != "" {
		base := raw
		if cleaned != nil {
			base = cleaned
		}
		text, extractErr := p.extractor.Extract(ctx, base, opts.Extract)
		if extractErr != nil {
			slog.Warn("scrape: extraction failed, returning pre-extraction content", slog.String("url", url), slog.String("error", extractErr.Error()))
			outcome.ExtractionWarning = "extraction failed: " + extractErr.Error()
		} else {
			extracted = []byte(text)
			extractedMime = "text/plain"
		}
	}

	if opts.ResultHandling != ReturnOnly {
		cleanedMime := ""
		if cleaned != nil {
			cleanedMime = "text/markdown"
		}
		wm, werr := p.store.WriteMulti(url, raw, result.MimeType, string(strat), cleaned, cleanedMime, extracted, extractedMime, opts.Extract)
		if werr != nil {
			slog.Warn("scrape: persistence failed, returning uncached content", slog.String("url", url), slog.String("error", werr.Error()))
		} else {
			outcome.RawURI, outcome.CleanedURI, outcome.ExtractedURI = wm.RawURI, wm.CleanedURI, wm.ExtractedURI
		}
	}

	switch {
	case extracted != nil:
		outcome.Content, outcome.MimeType, outcome.Tier = extracted, extractedMime, store.TierExtracted
	case cleaned != nil:
		outcome.Content, outcome.MimeType, outcome.Tier = cleaned, "text/markdown", store.TierCleaned
	default:
		outcome.Content, outcome.Tier = raw, store.TierRaw
	}

	return outcome, nil
}

func hasScreenshot(formats []fetch.Format) bool {
	for _, f := range formats {
		if f == fetch.FormatScreenshot {
			return true
		}
	}
	return false
}

func buildDiagnostics(d fetch.Diagnostics) FailureDiagnostics {
	fd := FailureDiagnostics{
		StrategyErrors: make(map[string]string),
		TimingMs:       make(map[string]int64),
		AuthError:      d.AuthError,
	}
	for _, a := range d.Attempts {
		fd.StrategiesAttempted = append(fd.StrategiesAttempted, string(a.Strategy))
		if a.Err != nil {
			fd.StrategyErrors[string(a.Strategy)] = a.Err.Error()
		}
		fd.TimingMs[string(a.Strategy)] = a.Elapsed.Milliseconds()
	}
	return fd
}
