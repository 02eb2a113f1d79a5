// Package memory provides an in-process EventStore used by tests and the
// default development configuration.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
)

// Store keeps match journals in memory, guarded by a mutex.
type Store struct {
	mu     sync.RWMutex
	events map[string][]event.Event
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{events: make(map[string][]event.Event)}
}

// AppendEvent appends one validated event to the match journal.
func (s *Store) AppendEvent(ctx context.Context, evt event.Event) (event.Event, error) {
	if err := ctx.Err(); err != nil {
		return event.Event{}, err
	}
	validated, err := event.ValidateForAppend(evt)
	if err != nil {
		return event.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	journal := s.events[validated.MatchID]
	expected := uint64(len(journal)) + 1
	if validated.Seq != expected {
		return event.Event{}, fmt.Errorf("%w: expected seq %d, got %d", storage.ErrSeqConflict, expected, validated.Seq)
	}
	s.events[validated.MatchID] = append(journal, validated)
	return validated, nil
}

// ListEvents returns events ordered by seq ascending.
func (s *Store) ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	journal := s.events[matchID]
	if afterSeq >= uint64(len(journal)) {
		return nil, nil
	}
	page := journal[afterSeq:]
	if len(page) > limit {
		page = page[:limit]
	}
	out := make([]event.Event, len(page))
	copy(out, page)
	return out, nil
}

// GetLatestEventSeq returns the latest seq for a match, zero when empty.
func (s *Store) GetLatestEventSeq(ctx context.Context, matchID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.events[matchID])), nil
}

// ListMatchIDs returns the ids of every match with at least one event.
func (s *Store) ListMatchIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.events))
	for id, journal := range s.events {
		if len(journal) == 0 {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
