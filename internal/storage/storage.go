// Package storage defines the persistence contract for match journals.
// Implementations must keep the journal append-only and return events in
// strictly increasing seq order per match.
package storage

import (
	"context"
	"errors"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrSeqConflict indicates an append whose seq is not exactly one past
	// the latest stored seq for the match.
	ErrSeqConflict = errors.New("event sequence conflict")
)

// EventStore persists per-match event journals.
type EventStore interface {
	// AppendEvent appends one event. The caller assigns seq; the store
	// rejects anything but last+1 with ErrSeqConflict.
	AppendEvent(ctx context.Context, evt event.Event) (event.Event, error)
	// ListEvents returns up to limit events with seq greater than afterSeq,
	// ordered by seq ascending.
	ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error)
	// GetLatestEventSeq returns the latest seq for a match, zero when the
	// match has no events.
	GetLatestEventSeq(ctx context.Context, matchID string) (uint64, error)
	// ListMatchIDs returns the ids of every match with at least one event.
	ListMatchIDs(ctx context.Context) ([]string, error)
}
