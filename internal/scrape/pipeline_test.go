package scrape

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/scrapemcp/internal/content"
	"github.com/jmagar/scrapemcp/internal/fetch"
	"github.com/jmagar/scrapemcp/internal/store"
	"github.com/jmagar/scrapemcp/internal/strategy"
)

type stubFetcher struct {
	result fetch.Result
	err    error
}

func (s *stubFetcher) Scrape(ctx context.Context, url string, opts fetch.Options) (fetch.Result, error) {
	return s.result, s.err
}

func newTestPipeline(t *testing.T, native, enhanced *stubFetcher, extractor content.Extractor) (*Pipeline, *store.Store) {
	t.Helper()
	st := store.New(store.NewMemoryBackend(), store.Limits{}, 0, nil)
	t.Cleanup(st.Close)
	reg := strategy.New(nil)
	cascade := fetch.NewCascade(native, enhanced, reg, fetch.OptimizeCost)
	if extractor == nil {
		extractor = content.NoopExtractor{}
	}
	return New(st, cascade, extractor), st
}

func TestPipeline_CacheHit_SkipsFetch(t *testing.T) {
	native := &stubFetcher{result: fetch.Result{Content: []byte("should not be used"), MimeType: "text/html"}}
	enhanced := &stubFetcher{}
	p, st := newTestPipeline(t, native, enhanced, nil)

	_, err := st.Write("https://example.com/a", store.TierCleaned, []byte("cached body"), "text/markdown", "native", "")
	require.NoError(t, err)

	outcome, err := p.Scrape(context.Background(), "https://example.com/a", Options{ResultHandling: SaveAndReturn, CleanScrape: true})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, outcome.Source)
	assert.Equal(t, "cached body", string(outcome.Content))
}

func TestPipeline_FallbackOnNativeFailure(t *testing.T) {
	native := &stubFetcher{err: &fetch.Error{Category: fetch.CategoryServer, Message: "500"}}
	enhanced := &stubFetcher{result: fetch.Result{Content: []byte("# Title"), MimeType: "text/markdown"}}
	p, st := newTestPipeline(t, native, enhanced, nil)

	outcome, err := p.Scrape(context.Background(), "https://example.com/a", Options{ResultHandling: SaveAndReturn, CleanScrape: true})
	require.NoError(t, err)
	assert.Equal(t, SourceEnhanced, outcome.Source)
	assert.Equal(t, "# Title", string(outcome.Content))

	headers, _ := st.FindByURL("https://example.com/a")
	assert.NotEmpty(t, headers)
}

func TestPipeline_AllStrategiesFail_ReturnsDiagnostics(t *testing.T) {
	native := &stubFetcher{err: &fetch.Error{Category: fetch.CategoryNetwork, Message: "dns fail"}}
	enhanced := &stubFetcher{err: &fetch.Error{Category: fetch.CategoryServer, Message: "5xx"}}
	p, _ := newTestPipeline(t, native, enhanced, nil)

	_, err := p.Scrape(context.Background(), "https://example.com/a", Options{ResultHandling: SaveAndReturn, Timeout: time.Second})
	require.Error(t, err)

	var scrapeErr *Error
	require.True(t, errors.As(err, &scrapeErr))
	assert.Len(t, scrapeErr.Diagnostics.StrategiesAttempted, 2)
	assert.False(t, scrapeErr.Diagnostics.AuthError)
}

func TestPipeline_CleanScrapeProducesMarkdownTier(t *testing.T) {
	native := &stubFetcher{result: fetch.Result{Content: []byte("<h1>Hi</h1>"), MimeType: "text/html"}}
	enhanced := &stubFetcher{}
	p, st := newTestPipeline(t, native, enhanced, nil)

	outcome, err := p.Scrape(context.Background(), "https://example.com/b", Options{ResultHandling: SaveAndReturn, CleanScrape: true})
	require.NoError(t, err)
	assert.Equal(t, store.TierCleaned, outcome.Tier)
	assert.Contains(t, string(outcome.Content), "# Hi")

	headers, _ := st.FindByURL("https://example.com/b")
	var tiers []store.Tier
	for _, h := range headers {
		tiers = append(tiers, h.Tier)
	}
	assert.Contains(t, tiers, store.TierRaw)
	assert.Contains(t, tiers, store.TierCleaned)
}

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(ctx context.Context, body []byte, prompt string) (string, error) {
	return s.text, s.err
}

func TestPipeline_ExtractionSuccess_ProducesExtractedTier(t *testing.T) {
	native := &stubFetcher{result: fetch.Result{Content: []byte("<p>body</p>"), MimeType: "text/html"}}
	enhanced := &stubFetcher{}
	p, _ := newTestPipeline(t, native, enhanced, stubExtractor{text: "summary text"})

	outcome, err := p.Scrape(context.Background(), "https://example.com/c", Options{ResultHandling: SaveAndReturn, CleanScrape: true, Extract: "summarize"})
	require.NoError(t, err)
	assert.Equal(t, store.TierExtracted, outcome.Tier)
	assert.Equal(t, "summary text", string(outcome.Content))
	assert.Empty(t, outcome.ExtractionWarning)
}

func TestPipeline_ExtractionFailure_ReturnsPreExtractionContentWithWarning(t *testing.T) {
	native := &stubFetcher{result: fetch.Result{Content: []byte("<p>body</p>"), MimeType: "text/html"}}
	enhanced := &stubFetcher{}
	p, _ := newTestPipeline(t, native, enhanced, stubExtractor{err: errors.New("provider down")})

	outcome, err := p.Scrape(context.Background(), "https://example.com/d", Options{ResultHandling: SaveAndReturn, CleanScrape: true, Extract: "summarize"})
	require.NoError(t, err)
	assert.Equal(t, store.TierCleaned, outcome.Tier)
	assert.NotEmpty(t, outcome.ExtractionWarning)
}

func TestPipeline_SaveOnly_SkipsCacheLookup(t *testing.T) {
	native := &stubFetcher{result: fetch.Result{Content: []byte("fresh"), MimeType: "text/plain"}}
	enhanced := &stubFetcher{}
	p, st := newTestPipeline(t, native, enhanced, nil)

	_, err := st.Write("https://example.com/e", store.TierRaw, []byte("stale"), "text/plain", "native", "")
	require.NoError(t, err)

	outcome, err := p.Scrape(context.Background(), "https://example.com/e", Options{ResultHandling: SaveOnly})
	require.NoError(t, err)
	assert.NotEqual(t, SourceCache, outcome.Source)
}
