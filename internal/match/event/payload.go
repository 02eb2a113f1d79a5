package event

import (
	"encoding/json"
	"fmt"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
)

// RulesetPayload mirrors domain.Ruleset on the wire.
type RulesetPayload struct {
	BestOf         string `json:"best_of"`
	TiebreakPolicy string `json:"tiebreak_policy"`
	MatchType      string `json:"match_type"`
}

// MatchCreatedPayload captures the payload for match.created events.
type MatchCreatedPayload struct {
	Ruleset  RulesetPayload `json:"ruleset"`
	PlayersA []string       `json:"players_a"`
	PlayersB []string       `json:"players_b"`
	Server   string         `json:"server"`
}

// Domain converts the payload into domain values.
func (p MatchCreatedPayload) Domain() (domain.Ruleset, domain.Team, domain.Team, domain.Side) {
	ruleset := domain.Ruleset{
		BestOf:         domain.BestOf(p.Ruleset.BestOf),
		TiebreakPolicy: domain.TiebreakPolicy(p.Ruleset.TiebreakPolicy),
		MatchType:      domain.MatchType(p.Ruleset.MatchType),
	}
	teamA := domain.Team{Side: domain.SideA, Players: p.PlayersA}
	teamB := domain.Team{Side: domain.SideB, Players: p.PlayersB}
	return ruleset, teamA, teamB, domain.Side(p.Server)
}

// NewMatchCreatedPayload builds the seed payload from domain values.
func NewMatchCreatedPayload(ruleset domain.Ruleset, teamA, teamB domain.Team, server domain.Side) MatchCreatedPayload {
	return MatchCreatedPayload{
		Ruleset: RulesetPayload{
			BestOf:         string(ruleset.BestOf),
			TiebreakPolicy: string(ruleset.TiebreakPolicy),
			MatchType:      string(ruleset.MatchType),
		},
		PlayersA: teamA.Players,
		PlayersB: teamB.Players,
		Server:   string(server),
	}
}

// PointWonPayload captures the payload for point.won events.
type PointWonPayload struct {
	Side string `json:"side"`
}

// PointUndonePayload captures the payload for point.undone events.
type PointUndonePayload struct {
	TargetEventID string `json:"target_event_id"`
}

// PointRedonePayload captures the payload for point.redone events.
type PointRedonePayload struct {
	TargetEventID string `json:"target_event_id"`
}

// MatchEndedPayload captures the payload for match.ended events.
type MatchEndedPayload struct {
	Winner string `json:"winner"`
}

// PointAnnotatedPayload captures the payload for point.annotated events.
type PointAnnotatedPayload struct {
	TargetEventID string `json:"target_event_id"`
	Reason        string `json:"reason"`
}

// MarshalPayload encodes a payload struct for storage in PayloadJSON.
func MarshalPayload(payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return data, nil
}

func decodePayload(evt Event, want Type, target any) error {
	if evt.Type != want {
		return fmt.Errorf("event %s: expected type %s, got %s", evt.ID, want, evt.Type)
	}
	if err := json.Unmarshal(evt.PayloadJSON, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", want, err)
	}
	return nil
}

// DecodeMatchCreated decodes a match.created payload.
func DecodeMatchCreated(evt Event) (MatchCreatedPayload, error) {
	var payload MatchCreatedPayload
	err := decodePayload(evt, TypeMatchCreated, &payload)
	return payload, err
}

// DecodePointWon decodes a point.won payload.
func DecodePointWon(evt Event) (PointWonPayload, error) {
	var payload PointWonPayload
	err := decodePayload(evt, TypePointWon, &payload)
	return payload, err
}

// DecodePointUndone decodes a point.undone payload.
func DecodePointUndone(evt Event) (PointUndonePayload, error) {
	var payload PointUndonePayload
	err := decodePayload(evt, TypePointUndone, &payload)
	return payload, err
}

// DecodePointRedone decodes a point.redone payload.
func DecodePointRedone(evt Event) (PointRedonePayload, error) {
	var payload PointRedonePayload
	err := decodePayload(evt, TypePointRedone, &payload)
	return payload, err
}

// DecodeMatchEnded decodes a match.ended payload.
func DecodeMatchEnded(evt Event) (MatchEndedPayload, error) {
	var payload MatchEndedPayload
	err := decodePayload(evt, TypeMatchEnded, &payload)
	return payload, err
}

// DecodePointAnnotated decodes a point.annotated payload.
func DecodePointAnnotated(evt Event) (PointAnnotatedPayload, error) {
	var payload PointAnnotatedPayload
	err := decodePayload(evt, TypePointAnnotated, &payload)
	return payload, err
}
