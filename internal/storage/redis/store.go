// Package redis persists match journals in Redis. Each journal is a
// list of JSON records; a Lua script makes the append-and-check-seq
// step atomic so concurrent writers cannot interleave.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
)

// Scripter abstracts the minimal surface we need from a Redis client.
// Implementations may wrap github.com/redis/go-redis/v9 or any equivalent.
type Scripter interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	LLen(ctx context.Context, key string) (int64, error)
	SMembers(ctx context.Context, key string) ([]string, error)
}

// GoRedisScripter wraps a go-redis client as a Scripter.
type GoRedisScripter struct{ c *redis.Client }

// NewGoRedisScripter connects to the Redis server at addr.
func NewGoRedisScripter(addr string) *GoRedisScripter {
	return &GoRedisScripter{c: redis.NewClient(&redis.Options{Addr: addr})}
}

func (g *GoRedisScripter) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	return g.c.Eval(ctx, script, keys, args...).Result()
}

func (g *GoRedisScripter) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	return g.c.LRange(ctx, key, start, stop).Result()
}

func (g *GoRedisScripter) LLen(ctx context.Context, key string) (int64, error) {
	return g.c.LLen(ctx, key).Result()
}

func (g *GoRedisScripter) SMembers(ctx context.Context, key string) ([]string, error) {
	return g.c.SMembers(ctx, key).Result()
}

// Close releases the underlying client connection.
func (g *GoRedisScripter) Close() error { return g.c.Close() }

// appendScript appends a record when its seq is exactly one past the
// current journal length. Returns 1 when applied, 0 on a seq conflict.
const appendScript = `
local eventsKey = KEYS[1]
local matchesKey = KEYS[2]
local seq = tonumber(ARGV[1])
local record = ARGV[2]
local matchID = ARGV[3]
if redis.call('LLEN', eventsKey) + 1 ~= seq then
  return 0
end
redis.call('RPUSH', eventsKey, record)
redis.call('SADD', matchesKey, matchID)
return 1
`

const matchesKey = "scorekeeper:matches"

func eventsKey(matchID string) string {
	return fmt.Sprintf("scorekeeper:events:%s", matchID)
}

// eventRecord is the JSON wire format for one journal entry.
type eventRecord struct {
	ID        string          `json:"id"`
	MatchID   string          `json:"match_id"`
	Seq       uint64          `json:"seq"`
	CreatedAt int64           `json:"created_at"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
}

// Store implements storage.EventStore backed by Redis.
type Store struct {
	client Scripter
}

// New returns a Store using the given client.
func New(client Scripter) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Store{client: client}, nil
}

// AppendEvent validates and atomically appends one event. The seq must
// be exactly one past the current journal length for the match.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	evt, err := event.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}

	record, err := json.Marshal(eventRecord{
		ID:        evt.ID,
		MatchID:   evt.MatchID,
		Seq:       evt.Seq,
		CreatedAt: evt.CreatedAt.UTC().UnixMilli(),
		Type:      string(evt.Type),
		Payload:   json.RawMessage(evt.PayloadJSON),
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("marshal event record: %w", err)
	}

	keys := []string{eventsKey(evt.MatchID), matchesKey}
	applied, err := s.client.Eval(ctx, appendScript, keys, evt.Seq, string(record), evt.MatchID)
	if err != nil {
		return event.Event{}, fmt.Errorf("redis append match=%s seq=%d: %w", evt.MatchID, evt.Seq, err)
	}
	if n, ok := applied.(int64); !ok || n != 1 {
		return event.Event{}, fmt.Errorf("%w: seq %d is not next for match %s", storage.ErrSeqConflict, evt.Seq, evt.MatchID)
	}
	return evt, nil
}

// ListEvents returns up to limit events with seq greater than afterSeq,
// ordered by seq ascending. Seq n lives at list index n-1.
func (s *Store) ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if limit <= 0 {
		return nil, nil
	}

	start := int64(afterSeq)
	stop := start + int64(limit) - 1
	records, err := s.client.LRange(ctx, eventsKey(matchID), start, stop)
	if err != nil {
		return nil, fmt.Errorf("redis lrange match=%s: %w", matchID, err)
	}

	events := make([]event.Event, 0, len(records))
	for _, raw := range records {
		var record eventRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("unmarshal event record match=%s: %w", matchID, err)
		}
		events = append(events, event.Event{
			ID:          record.ID,
			MatchID:     record.MatchID,
			Seq:         record.Seq,
			CreatedAt:   time.UnixMilli(record.CreatedAt).UTC(),
			Type:        event.Type(record.Type),
			PayloadJSON: []byte(record.Payload),
		})
	}
	return events, nil
}

// GetLatestEventSeq returns the latest seq for a match, zero when the
// match has no events.
func (s *Store) GetLatestEventSeq(ctx context.Context, matchID string) (uint64, error) {
	length, err := s.client.LLen(ctx, eventsKey(matchID))
	if err != nil {
		return 0, fmt.Errorf("redis llen match=%s: %w", matchID, err)
	}
	return uint64(length), nil
}

// ListMatchIDs returns the ids of every match with at least one event.
func (s *Store) ListMatchIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, matchesKey)
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}
