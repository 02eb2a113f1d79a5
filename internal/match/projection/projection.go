// Package projection derives match state from a journal: it reduces the
// raw event sequence to its effective subset and folds that subset through
// the scoring engine.
package projection

import (
	"errors"
	"fmt"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
)

// ErrNoSeedEvent indicates a replay with neither a match.created event nor
// a caller-supplied starting state. This is a configuration error, not a
// recoverable condition.
var ErrNoSeedEvent = errors.New("replay requires a match.created event or a starting state")

// Effective returns the subset of events that still contribute to state,
// in seq order. Undo markers void their target, redo markers revive it;
// the markers themselves and annotation events are stripped, as is any
// event whose id remains voided. This is set-membership filtering, not a
// stack: undoing a non-latest event is well-defined.
func Effective(events []event.Event) []event.Event {
	voided := make(map[string]struct{})
	for _, evt := range events {
		switch evt.Type {
		case event.TypePointUndone:
			payload, err := event.DecodePointUndone(evt)
			if err != nil {
				continue
			}
			voided[payload.TargetEventID] = struct{}{}
		case event.TypePointRedone:
			payload, err := event.DecodePointRedone(evt)
			if err != nil {
				continue
			}
			delete(voided, payload.TargetEventID)
		}
	}

	effective := make([]event.Event, 0, len(events))
	for _, evt := range events {
		switch evt.Type {
		case event.TypePointUndone, event.TypePointRedone, event.TypePointAnnotated:
			continue
		}
		if _, ok := voided[evt.ID]; ok {
			continue
		}
		effective = append(effective, evt)
	}
	return effective
}

// Replay reduces the raw journal to its effective subset and folds it into
// the current match state. The first match.created event seeds the state;
// point.won events advance it; every other type is a no-op.
func Replay(events []event.Event) (domain.Match, error) {
	state, seeded, err := fold(domain.Match{}, false, Effective(events))
	if err != nil {
		return domain.Match{}, err
	}
	if !seeded {
		return domain.Match{}, ErrNoSeedEvent
	}
	return state, nil
}

// ReplayFrom folds events over a caller-supplied starting state. The
// caller asserts the given events are already the exact sequence to fold;
// no reduction is applied. This is the seam for a future snapshot
// optimization.
func ReplayFrom(start domain.Match, events []event.Event) (domain.Match, error) {
	state, _, err := fold(start, true, events)
	return state, err
}

func fold(state domain.Match, seeded bool, events []event.Event) (domain.Match, bool, error) {
	for _, evt := range events {
		switch evt.Type {
		case event.TypeMatchCreated:
			payload, err := event.DecodeMatchCreated(evt)
			if err != nil {
				return state, seeded, err
			}
			ruleset, teamA, teamB, server := payload.Domain()
			next, err := domain.CreateMatch(evt.MatchID, ruleset, teamA, teamB, server)
			if err != nil {
				return state, seeded, fmt.Errorf("seed match %s: %w", evt.MatchID, err)
			}
			state = next
			seeded = true
		case event.TypePointWon:
			if !seeded {
				return state, seeded, ErrNoSeedEvent
			}
			payload, err := event.DecodePointWon(evt)
			if err != nil {
				return state, seeded, err
			}
			state = domain.ApplyPointWon(state, domain.Side(payload.Side))
		}
	}
	return state, seeded, nil
}

// LatestPointWon returns the most recent effective point.won event, the
// target a new undo marker should reference.
func LatestPointWon(events []event.Event) (event.Event, bool) {
	effective := Effective(events)
	for i := len(effective) - 1; i >= 0; i-- {
		if effective[i].Type == event.TypePointWon {
			return effective[i], true
		}
	}
	return event.Event{}, false
}

// CanUndo reports whether any effective point.won remains to undo.
func CanUndo(events []event.Event) bool {
	_, ok := LatestPointWon(events)
	return ok
}

// LatestUnannotatedPoint returns the most recent effective point.won that
// has no annotation attached, if any.
func LatestUnannotatedPoint(events []event.Event) (event.Event, bool) {
	annotated := make(map[string]struct{})
	for _, evt := range events {
		if evt.Type != event.TypePointAnnotated {
			continue
		}
		payload, err := event.DecodePointAnnotated(evt)
		if err != nil {
			continue
		}
		annotated[payload.TargetEventID] = struct{}{}
	}

	effective := Effective(events)
	for i := len(effective) - 1; i >= 0; i-- {
		evt := effective[i]
		if evt.Type != event.TypePointWon {
			continue
		}
		if _, ok := annotated[evt.ID]; ok {
			continue
		}
		return evt, true
	}
	return event.Event{}, false
}
