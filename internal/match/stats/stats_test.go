package stats

import (
	"testing"
	"time"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
)

type journal struct {
	t      *testing.T
	events []event.Event
	seq    uint64
}

func newJournal(t *testing.T) *journal {
	t.Helper()
	j := &journal{t: t}
	ruleset := domain.Ruleset{BestOf: domain.BestOf3, TiebreakPolicy: domain.TiebreakSevenPoint, MatchType: domain.MatchTypeSingles}
	j.append(event.TypeMatchCreated, event.NewMatchCreatedPayload(
		ruleset,
		domain.Team{Players: []string{"Ana"}},
		domain.Team{Players: []string{"Billie"}},
		domain.SideA,
	))
	return j
}

func (j *journal) append(eventType event.Type, payload any) event.Event {
	j.t.Helper()
	data, err := event.MarshalPayload(payload)
	if err != nil {
		j.t.Fatalf("marshal payload: %v", err)
	}
	j.seq++
	evt := event.Event{
		ID:          "evt-" + string(rune('0'+j.seq)),
		MatchID:     "match-1",
		Seq:         j.seq,
		CreatedAt:   time.Date(2026, time.March, 14, 15, 0, int(j.seq), 0, time.UTC),
		Type:        eventType,
		PayloadJSON: data,
	}
	j.events = append(j.events, evt)
	return evt
}

func TestComputeEmptyJournal(t *testing.T) {
	result := Compute(nil)
	if result.A.TotalPointsWon != 0 || result.B.TotalPointsWon != 0 {
		t.Fatalf("expected zero totals, got %+v", result)
	}
	for _, reason := range Reasons() {
		if result.A.ByReason[reason] != 0 || result.B.ByReason[reason] != 0 {
			t.Fatalf("expected zero counter for %s, got %+v", reason, result)
		}
	}
}

func TestComputeCountsPointsAndReasons(t *testing.T) {
	j := newJournal(t)
	first := j.append(event.TypePointWon, event.PointWonPayload{Side: "A"})
	j.append(event.TypePointWon, event.PointWonPayload{Side: "B"})
	j.append(event.TypePointWon, event.PointWonPayload{Side: "A"})
	j.append(event.TypePointAnnotated, event.PointAnnotatedPayload{TargetEventID: first.ID, Reason: "net"})

	result := Compute(j.events)
	if result.A.TotalPointsWon != 2 || result.B.TotalPointsWon != 1 {
		t.Fatalf("expected totals 2-1, got %d-%d", result.A.TotalPointsWon, result.B.TotalPointsWon)
	}
	if result.A.ByReason[ReasonNet] != 1 {
		t.Fatalf("expected one net point for A, got %d", result.A.ByReason[ReasonNet])
	}
	if result.A.Unannotated != 1 || result.B.Unannotated != 1 {
		t.Fatalf("expected one unannotated point per side, got %d and %d", result.A.Unannotated, result.B.Unannotated)
	}
}

func TestComputeDropsOrphanedAnnotations(t *testing.T) {
	j := newJournal(t)
	point := j.append(event.TypePointWon, event.PointWonPayload{Side: "A"})
	j.append(event.TypePointAnnotated, event.PointAnnotatedPayload{TargetEventID: point.ID, Reason: "winner"})
	j.append(event.TypePointUndone, event.PointUndonePayload{TargetEventID: point.ID})

	result := Compute(j.events)
	if result.A.TotalPointsWon != 0 {
		t.Fatalf("expected undone point excluded from totals, got %d", result.A.TotalPointsWon)
	}
	if result.A.ByReason[ReasonWinner] != 0 {
		t.Fatalf("expected orphaned annotation dropped, got %d", result.A.ByReason[ReasonWinner])
	}
}

func TestComputeUnknownReasonCountsAsOther(t *testing.T) {
	j := newJournal(t)
	point := j.append(event.TypePointWon, event.PointWonPayload{Side: "B"})
	j.append(event.TypePointAnnotated, event.PointAnnotatedPayload{TargetEventID: point.ID, Reason: "moonball"})

	result := Compute(j.events)
	if result.B.ByReason[ReasonOther] != 1 {
		t.Fatalf("expected unknown reason under other, got %+v", result.B.ByReason)
	}
}

func TestComputeFirstAnnotationWins(t *testing.T) {
	j := newJournal(t)
	point := j.append(event.TypePointWon, event.PointWonPayload{Side: "A"})
	j.append(event.TypePointAnnotated, event.PointAnnotatedPayload{TargetEventID: point.ID, Reason: "out"})
	j.append(event.TypePointAnnotated, event.PointAnnotatedPayload{TargetEventID: point.ID, Reason: "net"})

	result := Compute(j.events)
	if result.A.ByReason[ReasonOut] != 1 || result.A.ByReason[ReasonNet] != 0 {
		t.Fatalf("expected first annotation to win, got %+v", result.A.ByReason)
	}
}
