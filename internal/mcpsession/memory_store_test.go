package mcpsession

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventStore_ReplayAfterReturnsOnlyNewerEvents(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()

	id1, err := s.Store(ctx, "stream-a", []byte("e1"))
	require.NoError(t, err)
	_, err = s.Store(ctx, "stream-a", []byte("e2"))
	require.NoError(t, err)
	_, err = s.Store(ctx, "stream-a", []byte("e3"))
	require.NoError(t, err)

	var replayed []string
	err = s.ReplayAfter(ctx, "stream-a", id1, func(eventID string, message []byte) error {
		replayed = append(replayed, string(message))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"e2", "e3"}, replayed)
}

func TestMemoryEventStore_ReplayFromEmptyLastIDReturnsEverything(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	s.Store(ctx, "stream-b", []byte("a"))
	s.Store(ctx, "stream-b", []byte("b"))

	var replayed []string
	err := s.ReplayAfter(ctx, "stream-b", "", func(_ string, message []byte) error {
		replayed = append(replayed, string(message))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, replayed)
}

func TestMemoryEventStore_EventIDsAreStrictlyMonotonic(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	id1, _ := s.Store(ctx, "stream-c", []byte("a"))
	id2, _ := s.Store(ctx, "stream-c", []byte("b"))
	assert.Less(t, id1, id2)
}

func TestMemoryEventStore_DeleteStreamClearsEvents(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	s.Store(ctx, "stream-d", []byte("a"))
	require.NoError(t, s.DeleteStream(ctx, "stream-d"))

	var replayed []string
	s.ReplayAfter(ctx, "stream-d", "", func(_ string, message []byte) error {
		replayed = append(replayed, string(message))
		return nil
	})
	assert.Empty(t, replayed)
}

func TestMemoryEventStore_StreamsAreIndependent(t *testing.T) {
	s := NewMemoryEventStore()
	ctx := context.Background()
	s.Store(ctx, "stream-e", []byte("e-only"))
	s.Store(ctx, "stream-f", []byte("f-only"))

	var replayed []string
	s.ReplayAfter(ctx, "stream-e", "", func(_ string, message []byte) error {
		replayed = append(replayed, string(message))
		return nil
	})
	assert.Equal(t, []string{"e-only"}, replayed)
}
