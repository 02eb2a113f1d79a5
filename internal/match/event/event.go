// Package event defines the immutable records of the per-match journal.
// The journal is strictly append-only: records are never mutated or
// deleted, which is what makes undo-by-marker and replay deterministic.
package event

import (
	"strings"
	"time"
)

// Type identifies the kind of a match event.
type Type string

const (
	// TypeMatchCreated seeds a match for replay with its ruleset, teams,
	// and initial server.
	TypeMatchCreated Type = "match.created"
	// TypePointWon records one point won by a side.
	TypePointWon Type = "point.won"
	// TypePointUndone voids a prior event by id.
	TypePointUndone Type = "point.undone"
	// TypePointRedone revives a previously undone event by id.
	TypePointRedone Type = "point.redone"
	// TypeMatchEnded records match completion. Informational only; it has
	// no effect on replayed state.
	TypeMatchEnded Type = "match.ended"
	// TypePointAnnotated attaches a loss reason to a prior point.won.
	// Annotations never influence scoring state, only statistics.
	TypePointAnnotated Type = "point.annotated"
)

// IsValid reports whether the event type is one of the defined kinds.
func (t Type) IsValid() bool {
	switch t {
	case TypeMatchCreated, TypePointWon, TypePointUndone, TypePointRedone, TypeMatchEnded, TypePointAnnotated:
		return true
	}
	return false
}

// Event is one immutable record in a match journal.
type Event struct {
	// ID is the globally unique event identifier.
	ID string
	// MatchID is the match this event belongs to.
	MatchID string
	// Seq is the event sequence number within the match (starts at 1).
	// Assigned by the caller before persistence; strictly increasing.
	Seq uint64
	// CreatedAt is when the event was recorded.
	CreatedAt time.Time
	// Type identifies the kind of event.
	Type Type
	// PayloadJSON holds the type-specific payload as JSON.
	PayloadJSON []byte
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
