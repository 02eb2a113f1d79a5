package redis

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
)

// fakeScripter mimics the append script semantics in memory so the store
// can be exercised without a Redis server.
type fakeScripter struct {
	lists map[string][]string
	sets  map[string]map[string]struct{}
	fail  error
}

func newFakeScripter() *fakeScripter {
	return &fakeScripter{
		lists: make(map[string][]string),
		sets:  make(map[string]map[string]struct{}),
	}
}

func (f *fakeScripter) Eval(_ context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if !strings.Contains(script, "RPUSH") {
		return nil, errors.New("unexpected script")
	}
	eventsKey, matchesKey := keys[0], keys[1]
	seq := args[0].(uint64)
	record := args[1].(string)
	matchID := args[2].(string)

	if uint64(len(f.lists[eventsKey]))+1 != seq {
		return int64(0), nil
	}
	f.lists[eventsKey] = append(f.lists[eventsKey], record)
	if f.sets[matchesKey] == nil {
		f.sets[matchesKey] = make(map[string]struct{})
	}
	f.sets[matchesKey][matchID] = struct{}{}
	return int64(1), nil
}

func (f *fakeScripter) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	list := f.lists[key]
	if start >= int64(len(list)) {
		return nil, nil
	}
	if stop >= int64(len(list)) {
		stop = int64(len(list)) - 1
	}
	out := make([]string, 0, stop-start+1)
	out = append(out, list[start:stop+1]...)
	return out, nil
}

func (f *fakeScripter) LLen(_ context.Context, key string) (int64, error) {
	if f.fail != nil {
		return 0, f.fail
	}
	return int64(len(f.lists[key])), nil
}

func (f *fakeScripter) SMembers(_ context.Context, key string) ([]string, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	members := make([]string, 0, len(f.sets[key]))
	for member := range f.sets[key] {
		members = append(members, member)
	}
	return members, nil
}

func newTestStore(t *testing.T) (*Store, *fakeScripter) {
	t.Helper()
	client := newFakeScripter()
	store, err := New(client)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store, client
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

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestAppendAndListRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	for seq := uint64(1); seq <= 3; seq++ {
		if _, err := store.AppendEvent(ctx, pointWonEvent(t, "match-1", seq)); err != nil {
			t.Fatalf("append seq %d: %v", seq, err)
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
	store, _ := newTestStore(t)
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
	store, _ := newTestStore(t)
	evt := pointWonEvent(t, "match-1", 1)
	evt.Type = "point.scored"
	if _, err := store.AppendEvent(context.Background(), evt); !errors.Is(err, event.ErrUnknownType) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestAppendWrapsClientError(t *testing.T) {
	store, client := newTestStore(t)
	client.fail = errors.New("connection refused")
	if _, err := store.AppendEvent(context.Background(), pointWonEvent(t, "match-1", 1)); !errors.Is(err, client.fail) {
		t.Fatalf("expected wrapped client error, got %v", err)
	}
}

func TestLatestSeqAndMatchIDs(t *testing.T) {
	store, _ := newTestStore(t)
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
