// Package stats aggregates per-team counters from effective point events
// and their annotations. It is read-only over the journal and never feeds
// back into scoring state.
package stats

import (
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/projection"
)

// Reason tags why the opposing side lost a point.
type Reason string

const (
	// ReasonOut marks a ball hit out by the opponent.
	ReasonOut Reason = "out"
	// ReasonNet marks a ball the opponent put into the net.
	ReasonNet Reason = "net"
	// ReasonDoubleFault marks a double fault by the opponent.
	ReasonDoubleFault Reason = "double_fault"
	// ReasonWinner marks a clean winner by the scoring side.
	ReasonWinner Reason = "winner"
	// ReasonOther marks any loss reason outside the defined tags.
	ReasonOther Reason = "other"
)

// Reasons returns the defined loss reasons in stable order.
func Reasons() []Reason {
	return []Reason{ReasonOut, ReasonNet, ReasonDoubleFault, ReasonWinner, ReasonOther}
}

// IsValid reports whether the reason is a defined tag.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonOut, ReasonNet, ReasonDoubleFault, ReasonWinner, ReasonOther:
		return true
	}
	return false
}

// TeamStats carries one side's aggregate counters.
type TeamStats struct {
	TotalPointsWon int
	Unannotated    int
	ByReason       map[Reason]int
}

// Stats carries both sides' counters.
type Stats struct {
	A TeamStats
	B TeamStats
}

func newTeamStats() TeamStats {
	byReason := make(map[Reason]int, len(Reasons()))
	for _, reason := range Reasons() {
		byReason[reason] = 0
	}
	return TeamStats{ByReason: byReason}
}

// Compute folds the effective point.won events into per-side counters.
// Annotations are correlated by target event id; an annotation whose
// target was undone is silently dropped. Unknown reason tags count under
// ReasonOther. An empty or point-free journal yields all zeros.
func Compute(events []event.Event) Stats {
	effective := projection.Effective(events)

	effectivePoints := make(map[string]struct{}, len(effective))
	for _, evt := range effective {
		if evt.Type == event.TypePointWon {
			effectivePoints[evt.ID] = struct{}{}
		}
	}

	// First annotation per point wins; later duplicates are ignored.
	reasons := make(map[string]Reason)
	for _, evt := range events {
		if evt.Type != event.TypePointAnnotated {
			continue
		}
		payload, err := event.DecodePointAnnotated(evt)
		if err != nil {
			continue
		}
		if _, ok := effectivePoints[payload.TargetEventID]; !ok {
			continue
		}
		if _, ok := reasons[payload.TargetEventID]; ok {
			continue
		}
		reasons[payload.TargetEventID] = Reason(payload.Reason)
	}

	result := Stats{A: newTeamStats(), B: newTeamStats()}
	for _, evt := range effective {
		if evt.Type != event.TypePointWon {
			continue
		}
		payload, err := event.DecodePointWon(evt)
		if err != nil {
			continue
		}

		team := &result.A
		if domain.Side(payload.Side) == domain.SideB {
			team = &result.B
		}
		team.TotalPointsWon++

		reason, ok := reasons[evt.ID]
		if !ok {
			team.Unannotated++
			continue
		}
		if !reason.IsValid() {
			reason = ReasonOther
		}
		team.ByReason[reason]++
	}
	return result
}
