package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmagar/scrapemcp/internal/metrics"
)

func newTestStore(t *testing.T, limits Limits) *Store {
	t.Helper()
	s := New(NewMemoryBackend(), limits, 0, metrics.New(64))
	t.Cleanup(s.Close)
	return s
}

func TestStore_WriteThenBestCached_Hit(t *testing.T) {
	s := newTestStore(t, Limits{})

	_, err := s.Write("https://example.com/a", TierCleaned, []byte("hello"), "text/markdown", "native", "")
	require.NoError(t, err)

	r, ok := s.BestCached("https://example.com/a", "")
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), r.Content)
	assert.Equal(t, TierCleaned, r.Tier)
}

func TestStore_BestCached_PreferenceOrder(t *testing.T) {
	s := newTestStore(t, Limits{})

	_, err := s.Write("https://example.com/a", TierRaw, []byte("raw"), "text/html", "native", "")
	require.NoError(t, err)
	_, err = s.Write("https://example.com/a", TierExtracted, []byte("extracted"), "application/json", "native", "summarize")
	require.NoError(t, err)

	// No extract prompt requested: extracted must not be preferred over raw.
	r, ok := s.BestCached("https://example.com/a", "")
	require.True(t, ok)
	assert.Equal(t, TierRaw, r.Tier)

	// Matching extract prompt: extracted now qualifies and outranks raw.
	r, ok = s.BestCached("https://example.com/a", "summarize")
	require.True(t, ok)
	assert.Equal(t, TierExtracted, r.Tier)

	// Cleaned, once present, outranks both.
	_, err = s.Write("https://example.com/a", TierCleaned, []byte("cleaned"), "text/markdown", "native", "")
	require.NoError(t, err)
	r, ok = s.BestCached("https://example.com/a", "summarize")
	require.True(t, ok)
	assert.Equal(t, TierCleaned, r.Tier)
}

func TestStore_BestCached_Miss(t *testing.T) {
	s := newTestStore(t, Limits{})
	_, ok := s.BestCached("https://example.com/missing", "")
	assert.False(t, ok)
}

func TestStore_TTLEviction(t *testing.T) {
	s := newTestStore(t, Limits{TTL: 50 * time.Millisecond})

	_, err := s.Write("https://example.com/a", TierRaw, []byte("raw"), "text/html", "native", "")
	require.NoError(t, err)

	count, _ := s.Stats()
	assert.Equal(t, 1, count)

	time.Sleep(100 * time.Millisecond)

	// A second write triggers enforceLimits, which runs the TTL pass.
	_, err = s.Write("https://example.com/b", TierRaw, []byte("raw2"), "text/html", "native", "")
	require.NoError(t, err)

	count, _ = s.Stats()
	assert.Equal(t, 1, count, "expired resource should have been evicted")

	_, ok := s.BestCached("https://example.com/a", "")
	assert.False(t, ok)
}

func TestStore_LRUEvictionByCount(t *testing.T) {
	s := newTestStore(t, Limits{MaxItems: 3})

	for _, url := range []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"} {
		_, err := s.Write(url, TierRaw, []byte(url), "text/html", "native", "")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}

	// Touch A so it is the most recently accessed.
	_, ok := s.BestCached("https://example.com/a", "")
	require.True(t, ok)
	time.Sleep(time.Millisecond)

	_, err := s.Write("https://example.com/d", TierRaw, []byte("d"), "text/html", "native", "")
	require.NoError(t, err)

	count, _ := s.Stats()
	assert.Equal(t, 3, count)

	_, ok = s.BestCached("https://example.com/a", "")
	assert.True(t, ok, "recently touched A should survive")

	_, ok = s.BestCached("https://example.com/b", "")
	assert.False(t, ok, "least recently used B should have been evicted")
}

func TestStore_ByteSizeEviction(t *testing.T) {
	s := newTestStore(t, Limits{MaxBytes: 15})

	_, err := s.Write("https://example.com/a", TierRaw, []byte("0123456789"), "text/html", "native", "")
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	_, err = s.Write("https://example.com/b", TierRaw, []byte("0123456789"), "text/html", "native", "")
	require.NoError(t, err)

	_, total := s.Stats()
	assert.LessOrEqual(t, total, int64(15))

	_, ok := s.BestCached("https://example.com/a", "")
	assert.False(t, ok, "oldest resource should be evicted to stay under the byte limit")
}

func TestStore_WriteMulti(t *testing.T) {
	s := newTestStore(t, Limits{})

	result, err := s.WriteMulti(
		"https://example.com/a",
		[]byte("<html>raw</html>"), "text/html", "native",
		[]byte("# cleaned"), "text/markdown",
		[]byte(`{"summary":"x"}`), "application/json", "summarize",
	)
	require.NoError(t, err)
	assert.NotEmpty(t, result.RawURI)
	assert.NotEmpty(t, result.CleanedURI)
	assert.NotEmpty(t, result.ExtractedURI)

	headers, err := s.FindByURL("https://example.com/a")
	require.NoError(t, err)
	assert.Len(t, headers, 3)
}
