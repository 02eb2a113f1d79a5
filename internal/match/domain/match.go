package domain

import (
	"errors"
	"strings"
)

// Status is the lifecycle state of a match.
type Status string

const (
	// StatusInProgress indicates the match is still being scored.
	StatusInProgress Status = "in_progress"
	// StatusFinished indicates the match is decided; further points are ignored.
	StatusFinished Status = "finished"
)

var (
	// ErrMatchIDRequired indicates a missing match id.
	ErrMatchIDRequired = errors.New("match id is required")
	// ErrInvalidServer indicates an initial server outside the two sides.
	ErrInvalidServer = errors.New("initial server must be side A or B")
)

// Set tracks games won by each side and the currently active game. Once a
// set is won its Game field freezes at its terminal value.
type Set struct {
	GamesA int
	GamesB int
	Game   Game
}

// Match is the root aggregate for a match at a point in time. Engine
// functions treat it as an immutable value and return updated copies.
type Match struct {
	ID      string
	Ruleset Ruleset
	TeamA   Team
	TeamB   Team
	// Sets is append-only: one entry per set ever started.
	Sets       []Set
	CurrentSet int
	SetsWonA   int
	SetsWonB   int
	Server     Side
	Status     Status
	// Winner is set only once Status is StatusFinished.
	Winner Side
}

// CreateMatch produces the initial state for a new match: one set with zero
// games and a fresh game. Practice matches start directly in a tiebreak.
func CreateMatch(id string, ruleset Ruleset, teamA, teamB Team, server Side) (Match, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Match{}, ErrMatchIDRequired
	}
	if err := ruleset.Validate(); err != nil {
		return Match{}, err
	}
	normalizedA, err := normalizeTeam(teamA, SideA, ruleset.MatchType)
	if err != nil {
		return Match{}, err
	}
	normalizedB, err := normalizeTeam(teamB, SideB, ruleset.MatchType)
	if err != nil {
		return Match{}, err
	}
	if !server.IsValid() {
		return Match{}, ErrInvalidServer
	}

	game := Game(NormalGame{})
	if ruleset.BestOf == BestOfPractice {
		game = newTiebreak()
	}

	return Match{
		ID:         id,
		Ruleset:    ruleset,
		TeamA:      normalizedA,
		TeamB:      normalizedB,
		Sets:       []Set{{Game: game}},
		CurrentSet: 0,
		Server:     server,
		Status:     StatusInProgress,
	}, nil
}

// clone returns a copy whose set list is independent of the receiver's.
// Game variants are plain values, so a shallow set copy is sufficient.
func (m Match) clone() Match {
	sets := make([]Set, len(m.Sets))
	copy(sets, m.Sets)
	m.Sets = sets
	return m
}
