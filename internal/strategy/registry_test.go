package strategy

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPattern_ExtractsHostAndPathPrefix(t *testing.T) {
	assert.Equal(t, "host/a/b/", Pattern("https://host/a/b/c"))
	assert.Equal(t, "host/", Pattern("https://host/a"))
	assert.Equal(t, "host/", Pattern("https://host"))
}

func TestRegistry_GetStrategy_LongestPrefixMatch(t *testing.T) {
	r := New(nil)
	r.Upsert("host/", Enhanced)
	r.Upsert("host/a/b/", Native)

	strat, ok := r.GetStrategy("https://host/a/b/c")
	require.True(t, ok)
	assert.Equal(t, Native, strat)

	strat, ok = r.GetStrategy("https://host/x/y/z")
	require.True(t, ok)
	assert.Equal(t, Enhanced, strat)
}

func TestRegistry_GetStrategy_NoMatch(t *testing.T) {
	r := New(nil)
	_, ok := r.GetStrategy("https://unknown.example/a")
	assert.False(t, ok)
}

func TestRegistry_Upsert_BumpsSampleCount(t *testing.T) {
	r := New(nil)
	r.Upsert("host/", Native)
	r.Upsert("host/", Native)
	r.Upsert("host/", Enhanced)

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, 3, snap[0].SampleCount)
	assert.Equal(t, Enhanced, snap[0].Strategy)
}

func TestFilePersister_SaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	p := NewFilePersister(path)

	entries := []Entry{
		{Pattern: "host/a/", Strategy: Native, LearnedAt: time.Now(), SampleCount: 2},
	}
	require.NoError(t, p.Save(entries))

	loaded, err := p.Load()
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "host/a/", loaded[0].Pattern)
	assert.Equal(t, Native, loaded[0].Strategy)
}

func TestFilePersister_Load_MissingFileReturnsEmpty(t *testing.T) {
	p := NewFilePersister(filepath.Join(t.TempDir(), "missing.yaml"))
	entries, err := p.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistry_LoadSeedFile_SkipsInvalidEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	seedPersister := NewFilePersister(path)
	require.NoError(t, seedPersister.Save([]Entry{
		{Pattern: "host/good/", Strategy: Native, Notes: "manually pinned"},
		{Pattern: "", Strategy: Native},
		{Pattern: "host/bad/", Strategy: "bogus"},
	}))

	r := New(nil)
	require.NoError(t, r.LoadSeedFile(seedPersister))

	strat, ok := r.GetStrategy("https://host/good/page")
	require.True(t, ok)
	assert.Equal(t, Native, strat)

	_, ok = r.GetStrategy("https://host/bad/page")
	assert.False(t, ok)
}

func TestRegistry_Restore_UsesOwnPersister(t *testing.T) {
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	persister := NewFilePersister(path)
	require.NoError(t, persister.Save([]Entry{
		{Pattern: "host/restored/", Strategy: Enhanced, LearnedAt: time.Now(), SampleCount: 1},
	}))

	r := New(persister)
	require.NoError(t, r.Restore())

	strat, ok := r.GetStrategy("https://host/restored/page")
	require.True(t, ok)
	assert.Equal(t, Enhanced, strat)
}
