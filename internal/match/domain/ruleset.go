package domain

import "errors"

// BestOf selects the set format of a match.
type BestOf string

const (
	// BestOf1 plays a single set.
	BestOf1 BestOf = "1"
	// BestOf3 plays first to two sets.
	BestOf3 BestOf = "3"
	// BestOf5 plays first to three sets.
	BestOf5 BestOf = "5"
	// BestOfPractice plays one standalone tiebreak with no margin rule.
	BestOfPractice BestOf = "practice"
)

// IsValid reports whether the best-of value is a known format.
func (b BestOf) IsValid() bool {
	switch b {
	case BestOf1, BestOf3, BestOf5, BestOfPractice:
		return true
	}
	return false
}

// SetsNeeded returns the number of set wins that decide the match.
func (b BestOf) SetsNeeded() int {
	switch b {
	case BestOf1, BestOfPractice:
		return 1
	case BestOf3:
		return 2
	case BestOf5:
		return 3
	}
	panic("domain: sets needed for invalid best-of " + string(b))
}

// TiebreakPolicy selects how sets tied at 6-6 games are decided.
type TiebreakPolicy string

const (
	// TiebreakNone plays advantage sets with no tiebreak game.
	TiebreakNone TiebreakPolicy = "none"
	// TiebreakSevenPoint plays a seven-point tiebreak at 6-6 games.
	TiebreakSevenPoint TiebreakPolicy = "7pt"
)

// IsValid reports whether the tiebreak policy is known.
func (p TiebreakPolicy) IsValid() bool {
	return p == TiebreakNone || p == TiebreakSevenPoint
}

// MatchType selects the team size.
type MatchType string

const (
	// MatchTypeSingles fields one player per side.
	MatchTypeSingles MatchType = "singles"
	// MatchTypeDoubles fields two players per side.
	MatchTypeDoubles MatchType = "doubles"
)

// IsValid reports whether the match type is known.
func (t MatchType) IsValid() bool {
	return t == MatchTypeSingles || t == MatchTypeDoubles
}

// PlayersPerTeam returns the required team size for the match type.
func (t MatchType) PlayersPerTeam() int {
	if t == MatchTypeDoubles {
		return 2
	}
	return 1
}

var (
	// ErrInvalidBestOf indicates an unknown best-of value.
	ErrInvalidBestOf = errors.New("best-of value is invalid")
	// ErrInvalidTiebreakPolicy indicates an unknown tiebreak policy.
	ErrInvalidTiebreakPolicy = errors.New("tiebreak policy is invalid")
	// ErrInvalidMatchType indicates an unknown match type.
	ErrInvalidMatchType = errors.New("match type is invalid")
)

// Ruleset is the immutable match configuration chosen at creation time.
type Ruleset struct {
	BestOf         BestOf
	TiebreakPolicy TiebreakPolicy
	MatchType      MatchType
}

// Validate checks that every ruleset field carries a known value.
func (r Ruleset) Validate() error {
	if !r.BestOf.IsValid() {
		return ErrInvalidBestOf
	}
	if !r.TiebreakPolicy.IsValid() {
		return ErrInvalidTiebreakPolicy
	}
	if !r.MatchType.IsValid() {
		return ErrInvalidMatchType
	}
	return nil
}
