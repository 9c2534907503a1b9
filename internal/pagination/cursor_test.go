package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCursor_Empty(t *testing.T) {
	c, err := ParseCursor("")
	require.NoError(t, err)
	assert.Equal(t, Cursor{}, c)
}

func TestParseCursor_SequenceOnly(t *testing.T) {
	c, err := ParseCursor(":42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.Sequence)
	assert.Equal(t, "", c.Timestamp)
}

func TestBuildAndParseCursor_RoundTrip(t *testing.T) {
	s := BuildCursor("2026-07-30T00:00:00Z", 7)
	c, err := ParseCursor(s)
	require.NoError(t, err)
	assert.Equal(t, "2026-07-30T00:00:00Z", c.Timestamp)
	assert.Equal(t, int64(7), c.Sequence)
}

func TestParseCursor_InvalidFormat(t *testing.T) {
	_, err := ParseCursor("nocolon")
	assert.Error(t, err)
}

func TestCursor_IsOlderIsNewer(t *testing.T) {
	c := Cursor{Timestamp: "2026-07-30T00:00:10Z", Sequence: 5}
	assert.True(t, c.IsOlder("2026-07-30T00:00:05Z", 1))
	assert.True(t, c.IsNewer("2026-07-30T00:00:15Z", 1))
	assert.False(t, c.IsOlder("2026-07-30T00:00:15Z", 1))
}
