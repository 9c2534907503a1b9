package mcpsession

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// messageField is the single field name used to store the opaque message
// payload inside each Redis Stream entry.
const messageField = "msg"

// RedisEventStore is the optional durable EventStore backend (spec §4.8,
// "durability" is explicitly optional), built directly on Redis Streams
// rather than a hand-rolled list: XADD already mints strictly-increasing,
// lexically-ordered entry ids, and XRANGE's exclusive "(" start token gives
// replay_after's "strictly greater than" semantics for free.
type RedisEventStore struct {
	client *redis.Client
	prefix string
}

// NewRedisEventStore builds a RedisEventStore over an existing client.
// Stream keys are prefixed to keep the session event namespace separate
// from any other use of the same Redis instance.
func NewRedisEventStore(client *redis.Client, keyPrefix string) *RedisEventStore {
	if keyPrefix == "" {
		keyPrefix = "mcpsession:stream:"
	}
	return &RedisEventStore{client: client, prefix: keyPrefix}
}

func (s *RedisEventStore) key(streamID string) string {
	return s.prefix + streamID
}

func (s *RedisEventStore) Store(ctx context.Context, streamID string, message []byte) (string, error) {
	id, err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.key(streamID),
		Values: map[string]any{messageField: message},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("mcpsession: redis XADD: %w", err)
	}
	return id, nil
}

func (s *RedisEventStore) ReplayAfter(ctx context.Context, streamID, lastEventID string, send func(eventID string, message []byte) error) error {
	start := "-"
	if lastEventID != "" {
		start = "(" + lastEventID
	}
	entries, err := s.client.XRange(ctx, s.key(streamID), start, "+").Result()
	if err != nil {
		return fmt.Errorf("mcpsession: redis XRANGE: %w", err)
	}
	for _, entry := range entries {
		raw, ok := entry.Values[messageField]
		if !ok {
			continue
		}
		var payload []byte
		switch v := raw.(type) {
		case string:
			payload = []byte(v)
		case []byte:
			payload = v
		default:
			continue
		}
		if err := send(entry.ID, payload); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisEventStore) DeleteStream(ctx context.Context, streamID string) error {
	if err := s.client.Del(ctx, s.key(streamID)).Err(); err != nil {
		return fmt.Errorf("mcpsession: redis DEL: %w", err)
	}
	return nil
}
