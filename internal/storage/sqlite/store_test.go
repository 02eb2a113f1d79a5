package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func pointWonEvent(t *testing.T, matchID string, seq uint64) event.Event {
	t.Helper()
	payload, err := event.MarshalPayload(event.PointWonPayload{Side: "A"})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return event.Event{
		ID:          matchID + "-evt-" + string(rune('0'+seq)),
		MatchID:     matchID,
		Seq:         seq,
		CreatedAt:   time.Date(2026, time.March, 14, 15, 0, int(seq), 0, time.UTC),
		Type:        event.TypePointWon,
		PayloadJSON: payload,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestAppendAndListRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for seq := uint64(1); seq <= 3; seq++ {
		stored, err := store.AppendEvent(ctx, pointWonEvent(t, "match-1", seq))
		if err != nil {
			t.Fatalf("append seq %d: %v", seq, err)
		}
		if stored.Seq != seq {
			t.Fatalf("expected stored seq %d, got %d", seq, stored.Seq)
		}
	}

	events, err := store.ListEvents(ctx, "match-1", 0, 10)
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for i, evt := range events {
		if evt.Seq != uint64(i)+1 {
			t.Fatalf("expected seq %d at index %d, got %d", i+1, i, evt.Seq)
		}
		if evt.Type != event.TypePointWon {
			t.Fatalf("expected point.won type, got %q", evt.Type)
		}
	}
	if !events[0].CreatedAt.Equal(time.Date(2026, time.March, 14, 15, 0, 1, 0, time.UTC)) {
		t.Fatalf("expected created_at round trip, got %v", events[0].CreatedAt)
	}

	page, err := store.ListEvents(ctx, "match-1", 1, 1)
	if err != nil {
		t.Fatalf("list page: %v", err)
	}
	if len(page) != 1 || page[0].Seq != 2 {
		t.Fatalf("expected single event with seq 2, got %+v", page)
	}
}

func TestAppendRejectsSeqConflicts(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-1", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-1", 1)); !errors.Is(err, storage.ErrSeqConflict) {
		t.Fatalf("expected seq conflict for duplicate, got %v", err)
	}
	if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-1", 3)); !errors.Is(err, storage.ErrSeqConflict) {
		t.Fatalf("expected seq conflict for gap, got %v", err)
	}
}

func TestAppendValidates(t *testing.T) {
	store := openTestStore(t)
	evt := pointWonEvent(t, "match-1", 1)
	evt.Type = "point.scored"
	if _, err := store.AppendEvent(context.Background(), evt); !errors.Is(err, event.ErrUnknownType) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestLatestSeqAndMatchIDs(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	seq, err := store.GetLatestEventSeq(ctx, "match-1")
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 0 {
		t.Fatalf("expected zero seq for empty match, got %d", seq)
	}

	if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-b", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-a", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-a", 2)); err != nil {
		t.Fatalf("append: %v", err)
	}

	seq, err = store.GetLatestEventSeq(ctx, "match-a")
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 2 {
		t.Fatalf("expected seq 2, got %d", seq)
	}

	ids, err := store.ListMatchIDs(ctx)
	if err != nil {
		t.Fatalf("list match ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != "match-a" || ids[1] != "match-b" {
		t.Fatalf("expected sorted match ids, got %v", ids)
	}
}

func TestIsConstraintErrorFalseForNonSqlite(t *testing.T) {
	if isConstraintError(errors.New("random error")) {
		t.Fatal("expected false for non-sqlite error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := first.AppendEvent(context.Background(), pointWonEvent(t, "match-1", 1)); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer second.Close()

	seq, err := second.GetLatestEventSeq(context.Background(), "match-1")
	if err != nil {
		t.Fatalf("latest seq: %v", err)
	}
	if seq != 1 {
		t.Fatalf("expected seq 1 after reopen, got %d", seq)
	}
}
