// Package app orchestrates match commands and queries over an event
// store. Every command appends to the journal and derives the new state
// by replay; nothing outside the journal is authoritative.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/projection"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/stats"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/platform/id"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/storage"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/telemetry"
)

// listPageSize bounds each storage read while loading a journal.
const listPageSize = 200

var (
	// ErrInvalidReason indicates an annotation reason outside the defined tags.
	ErrInvalidReason = errors.New("invalid annotation reason")
	// ErrJournalGap indicates a journal whose seqs are not contiguous from 1.
	ErrJournalGap = errors.New("journal has a sequence gap")
)

// Notifier receives match updates for fan-out to subscribers.
type Notifier interface {
	Broadcast(matchID string, payload []byte)
}

// Service exposes the match commands and queries.
type Service struct {
	store    storage.EventStore
	notifier Notifier
	tracer   trace.Tracer
	now      func() time.Time
	newID    func() (string, error)
	// locks serializes commands per match so concurrent in-process
	// callers cannot race each other to the same seq.
	locks sync.Map
}

func (s *Service) lock(matchID string) func() {
	v, _ := s.locks.LoadOrStore(matchID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the event id source, mainly for tests.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) { s.newID = newID }
}

// WithNotifier sets the subscriber fan-out target.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

// NewService creates a Service over the given event store.
func NewService(store storage.EventStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("event store is required")
	}
	s := &Service{
		store:  store,
		tracer: otel.Tracer("tennis-scorekeeper/app"),
		now:    time.Now,
		newID:  id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateMatchInput carries the parameters for a new match.
type CreateMatchInput struct {
	BestOf         string
	TiebreakPolicy string
	MatchType      string
	PlayersA       []string
	PlayersB       []string
	Server         string
}

// MatchDetail is the state of a match as derived from its journal.
type MatchDetail struct {
	State     domain.Match
	LatestSeq uint64
	CanUndo   bool
}

// CreateMatch validates the input, seeds a new journal with a
// match.created event, and returns the initial state.
func (s *Service) CreateMatch(ctx context.Context, input CreateMatchInput) (MatchDetail, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateMatch")
	defer span.End()

	ruleset := domain.Ruleset{
		BestOf:         domain.BestOf(input.BestOf),
		TiebreakPolicy: domain.TiebreakPolicy(input.TiebreakPolicy),
		MatchType:      domain.MatchType(input.MatchType),
	}
	teamA := domain.Team{Side: domain.SideA, Players: input.PlayersA}
	teamB := domain.Team{Side: domain.SideB, Players: input.PlayersB}
	server := domain.Side(strings.TrimSpace(input.Server))

	matchID, err := s.newID()
	if err != nil {
		return MatchDetail{}, fmt.Errorf("generate match id: %w", err)
	}

	// Validate before touching storage; CreateMatch re-runs during replay.
	state, err := domain.CreateMatch(matchID, ruleset, teamA, teamB, server)
	if err != nil {
		return MatchDetail{}, err
	}

	payload, err := event.MarshalPayload(event.NewMatchCreatedPayload(ruleset, state.TeamA, state.TeamB, server))
	if err != nil {
		return MatchDetail{}, err
	}
	if _, err := s.append(ctx, matchID, 1, event.TypeMatchCreated, payload); err != nil {
		return MatchDetail{}, err
	}

	span.SetAttributes(attribute.String("match.id", matchID))
	telemetry.RecordMatchCreated()
	return MatchDetail{State: state, LatestSeq: 1}, nil
}

// RecordPoint appends a point.won event and returns the new state. When
// the point decides the match a match.ended event is appended as well.
// Pointing at a finished match is a defined no-op that returns the
// current state unchanged.
func (s *Service) RecordPoint(ctx context.Context, matchID, side string) (MatchDetail, error) {
	ctx, span := s.tracer.Start(ctx, "app.RecordPoint",
		trace.WithAttributes(attribute.String("match.id", matchID), attribute.String("side", side)))
	defer span.End()
	defer s.lock(matchID)()

	winner := domain.Side(strings.TrimSpace(side))
	if !winner.IsValid() {
		return MatchDetail{}, fmt.Errorf("%w: %q", domain.ErrInvalidServer, side)
	}

	events, err := s.loadJournal(ctx, matchID)
	if err != nil {
		return MatchDetail{}, err
	}
	if len(events) == 0 {
		return MatchDetail{}, storage.ErrNotFound
	}
	before, err := projection.Replay(events)
	if err != nil {
		return MatchDetail{}, err
	}
	if before.Status == domain.StatusFinished {
		return s.detail(events, before), nil
	}

	payload, err := event.MarshalPayload(event.PointWonPayload{Side: string(winner)})
	if err != nil {
		return MatchDetail{}, err
	}
	seq := uint64(len(events)) + 1
	pointEvt, err := s.append(ctx, matchID, seq, event.TypePointWon, payload)
	if err != nil {
		return MatchDetail{}, err
	}
	events = append(events, pointEvt)

	after := domain.ApplyPointWon(before, winner)
	if after.Status == domain.StatusFinished {
		endedPayload, err := event.MarshalPayload(event.MatchEndedPayload{Winner: string(after.Winner)})
		if err != nil {
			return MatchDetail{}, err
		}
		endedEvt, err := s.append(ctx, matchID, seq+1, event.TypeMatchEnded, endedPayload)
		if err != nil {
			return MatchDetail{}, err
		}
		events = append(events, endedEvt)
	}

	telemetry.RecordPointWon(string(winner))
	return s.publish(matchID, events, after)
}

// UndoLastPoint appends an undo marker targeting the latest effective
// point and returns the state replayed without it. With no point left to
// undo it is a defined no-op returning the current state.
func (s *Service) UndoLastPoint(ctx context.Context, matchID string) (MatchDetail, error) {
	ctx, span := s.tracer.Start(ctx, "app.UndoLastPoint",
		trace.WithAttributes(attribute.String("match.id", matchID)))
	defer span.End()
	defer s.lock(matchID)()

	events, err := s.loadJournal(ctx, matchID)
	if err != nil {
		return MatchDetail{}, err
	}
	if len(events) == 0 {
		return MatchDetail{}, storage.ErrNotFound
	}
	target, ok := projection.LatestPointWon(events)
	if !ok {
		state, err := s.replay(events)
		if err != nil {
			return MatchDetail{}, err
		}
		return s.detail(events, state), nil
	}

	payload, err := event.MarshalPayload(event.PointUndonePayload{TargetEventID: target.ID})
	if err != nil {
		return MatchDetail{}, err
	}
	undoEvt, err := s.append(ctx, matchID, uint64(len(events))+1, event.TypePointUndone, payload)
	if err != nil {
		return MatchDetail{}, err
	}
	events = append(events, undoEvt)

	state, err := s.replay(events)
	if err != nil {
		return MatchDetail{}, err
	}

	telemetry.RecordUndo()
	return s.publish(matchID, events, state)
}

// AnnotateLastPoint attaches a loss reason to the latest effective point
// that has none. Annotations never change scoring state.
func (s *Service) AnnotateLastPoint(ctx context.Context, matchID, reason string) (MatchDetail, error) {
	ctx, span := s.tracer.Start(ctx, "app.AnnotateLastPoint",
		trace.WithAttributes(attribute.String("match.id", matchID)))
	defer span.End()

	tag := stats.Reason(strings.TrimSpace(reason))
	if !tag.IsValid() {
		return MatchDetail{}, fmt.Errorf("%w: %q", ErrInvalidReason, reason)
	}
	defer s.lock(matchID)()

	events, err := s.loadJournal(ctx, matchID)
	if err != nil {
		return MatchDetail{}, err
	}
	if len(events) == 0 {
		return MatchDetail{}, storage.ErrNotFound
	}
	target, ok := projection.LatestUnannotatedPoint(events)
	if !ok {
		state, err := s.replay(events)
		if err != nil {
			return MatchDetail{}, err
		}
		return s.detail(events, state), nil
	}

	payload, err := event.MarshalPayload(event.PointAnnotatedPayload{
		TargetEventID: target.ID,
		Reason:        string(tag),
	})
	if err != nil {
		return MatchDetail{}, err
	}
	annEvt, err := s.append(ctx, matchID, uint64(len(events))+1, event.TypePointAnnotated, payload)
	if err != nil {
		return MatchDetail{}, err
	}
	events = append(events, annEvt)

	state, err := s.replay(events)
	if err != nil {
		return MatchDetail{}, err
	}

	telemetry.RecordAnnotation()
	return s.detail(events, state), nil
}

// GetMatch replays a journal and returns the current state.
func (s *Service) GetMatch(ctx context.Context, matchID string) (MatchDetail, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetMatch",
		trace.WithAttributes(attribute.String("match.id", matchID)))
	defer span.End()

	events, err := s.loadJournal(ctx, matchID)
	if err != nil {
		return MatchDetail{}, err
	}
	if len(events) == 0 {
		return MatchDetail{}, storage.ErrNotFound
	}
	state, err := s.replay(events)
	if err != nil {
		return MatchDetail{}, err
	}
	return MatchDetail{
		State:     state,
		LatestSeq: events[len(events)-1].Seq,
		CanUndo:   projection.CanUndo(events),
	}, nil
}

// GetStats aggregates per-team point statistics from a journal.
func (s *Service) GetStats(ctx context.Context, matchID string) (stats.Stats, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetStats",
		trace.WithAttributes(attribute.String("match.id", matchID)))
	defer span.End()

	events, err := s.loadJournal(ctx, matchID)
	if err != nil {
		return stats.Stats{}, err
	}
	if len(events) == 0 {
		return stats.Stats{}, storage.ErrNotFound
	}
	return stats.Compute(events), nil
}

// ListEvents returns one page of a match journal.
func (s *Service) ListEvents(ctx context.Context, matchID string, afterSeq uint64, limit int) ([]event.Event, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListEvents",
		trace.WithAttributes(attribute.String("match.id", matchID)))
	defer span.End()

	if limit <= 0 || limit > listPageSize {
		limit = listPageSize
	}
	return s.store.ListEvents(ctx, matchID, afterSeq, limit)
}

// MatchSummary is one row of the match listing.
type MatchSummary struct {
	ID     string
	Status domain.Status
	Winner domain.Side
}

// ListMatches returns a summary for every match in the store.
func (s *Service) ListMatches(ctx context.Context) ([]MatchSummary, error) {
	ctx, span := s.tracer.Start(ctx, "app.ListMatches")
	defer span.End()

	ids, err := s.store.ListMatchIDs(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]MatchSummary, 0, len(ids))
	for _, matchID := range ids {
		events, err := s.loadJournal(ctx, matchID)
		if err != nil {
			return nil, err
		}
		state, err := s.replay(events)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, MatchSummary{ID: matchID, Status: state.Status, Winner: state.Winner})
	}
	return summaries, nil
}

func (s *Service) append(ctx context.Context, matchID string, seq uint64, typ event.Type, payload []byte) (event.Event, error) {
	eventID, err := s.newID()
	if err != nil {
		return event.Event{}, fmt.Errorf("generate event id: %w", err)
	}
	return s.store.AppendEvent(ctx, event.Event{
		ID:          eventID,
		MatchID:     matchID,
		Seq:         seq,
		CreatedAt:   s.now().UTC(),
		Type:        typ,
		PayloadJSON: payload,
	})
}

// loadJournal reads a full journal in pages and verifies seqs are
// contiguous from 1.
func (s *Service) loadJournal(ctx context.Context, matchID string) ([]event.Event, error) {
	var events []event.Event
	var afterSeq uint64
	for {
		page, err := s.store.ListEvents(ctx, matchID, afterSeq, listPageSize)
		if err != nil {
			return nil, err
		}
		for _, evt := range page {
			if evt.Seq != afterSeq+1 {
				return nil, fmt.Errorf("%w: match %s jumps from %d to %d", ErrJournalGap, matchID, afterSeq, evt.Seq)
			}
			afterSeq = evt.Seq
			events = append(events, evt)
		}
		if len(page) < listPageSize {
			return events, nil
		}
	}
}

func (s *Service) replay(events []event.Event) (domain.Match, error) {
	telemetry.RecordReplay(len(events))
	return projection.Replay(events)
}

func (s *Service) detail(events []event.Event, state domain.Match) MatchDetail {
	return MatchDetail{
		State:     state,
		LatestSeq: events[len(events)-1].Seq,
		CanUndo:   projection.CanUndo(events),
	}
}

// publish derives the detail for the new journal tail and notifies
// subscribers with the latest state.
func (s *Service) publish(matchID string, events []event.Event, state domain.Match) (MatchDetail, error) {
	detail := s.detail(events, state)
	if s.notifier != nil {
		if payload, err := event.MarshalPayload(NewUpdate(detail)); err == nil {
			s.notifier.Broadcast(matchID, payload)
		}
	}
	return detail, nil
}
