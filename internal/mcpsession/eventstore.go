package mcpsession

import "context"

// EventStore is the resumable event store contract (spec §4.8): every
// message sent down a session's SSE stream is recorded under that session's
// stream id so a client reconnecting with Last-Event-ID can replay exactly
// what it missed, in order, with no duplicates or gaps.
type EventStore interface {
	// Store appends message to streamID and returns a fresh event id. Event
	// ids are strictly increasing within a stream and sort lexically in
	// insertion order.
	Store(ctx context.Context, streamID string, message []byte) (eventID string, err error)

	// ReplayAfter calls send once per event recorded for streamID with an id
	// strictly greater than lastEventID, in append order. Passing an empty
	// lastEventID replays the entire stream.
	ReplayAfter(ctx context.Context, streamID, lastEventID string, send func(eventID string, message []byte) error) error

	// DeleteStream discards every event recorded for streamID. Called when a
	// session closes.
	DeleteStream(ctx context.Context, streamID string) error
}
