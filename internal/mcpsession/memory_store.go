package mcpsession

import (
	"context"
	"fmt"
	"sync"
)

// memoryEvent is one stored message plus its lexically-ordered id.
type memoryEvent struct {
	id      string
	message []byte
}

// MemoryEventStore is the default EventStore: an in-process map of
// per-stream event slices plus a monotonic counter. Zero-padded decimal ids
// keep lexical order equal to insertion order without needing a separate
// sequence comparison on replay.
type MemoryEventStore struct {
	mu      sync.Mutex
	streams map[string][]memoryEvent
	counter int64
}

// NewMemoryEventStore builds an empty in-process EventStore.
func NewMemoryEventStore() *MemoryEventStore {
	return &MemoryEventStore{streams: make(map[string][]memoryEvent)}
}

func (s *MemoryEventStore) Store(_ context.Context, streamID string, message []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	id := fmt.Sprintf("%020d", s.counter)
	cp := make([]byte, len(message))
	copy(cp, message)
	s.streams[streamID] = append(s.streams[streamID], memoryEvent{id: id, message: cp})
	return id, nil
}

func (s *MemoryEventStore) ReplayAfter(_ context.Context, streamID, lastEventID string, send func(eventID string, message []byte) error) error {
	s.mu.Lock()
	events := make([]memoryEvent, len(s.streams[streamID]))
	copy(events, s.streams[streamID])
	s.mu.Unlock()

	for _, evt := range events {
		if lastEventID != "" && evt.id <= lastEventID {
			continue
		}
		if err := send(evt.id, evt.message); err != nil {
			return err
		}
	}
	return nil
}

func (s *MemoryEventStore) DeleteStream(_ context.Context, streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.streams, streamID)
	return nil
}
