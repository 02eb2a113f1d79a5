package domain

import "fmt"

// PointScore is one side's point value within a normal game.
type PointScore int

const (
	// PointLove is zero points.
	PointLove PointScore = iota
	// Point15 is the first point.
	Point15
	// Point30 is the second point.
	Point30
	// Point40 is the third point.
	Point40
	// PointAdvantage is the point after deuce.
	PointAdvantage
)

// String renders the conventional tennis point value.
func (p PointScore) String() string {
	switch p {
	case PointLove:
		return "0"
	case Point15:
		return "15"
	case Point30:
		return "30"
	case Point40:
		return "40"
	case PointAdvantage:
		return "AD"
	}
	panic(fmt.Sprintf("domain: point score %d is outside the progression", int(p)))
}

// next advances one step along the 0-15-30-40 progression. Calling next on
// 40 or AD is an internal-consistency violation; game wins are decided
// before the progression is consulted.
func (p PointScore) next() PointScore {
	switch p {
	case PointLove:
		return Point15
	case Point15:
		return Point30
	case Point30:
		return Point40
	}
	panic(fmt.Sprintf("domain: point score %d has no successor", int(p)))
}

// tiebreakTarget is the point target of a standard tiebreak game.
const tiebreakTarget = 7

// Game is the active game within a set. It is a closed sum over
// NormalGame and Tiebreak; consumers must handle both variants.
type Game interface {
	isGame()
}

// NormalGame scores a conventional game with the 0-15-30-40-AD progression.
type NormalGame struct {
	PointsA PointScore
	PointsB PointScore
	// Deuce is set once both sides have reached 40 in this game.
	Deuce bool
}

func (NormalGame) isGame() {}

// Tiebreak scores a tiebreak game by integer point counts.
type Tiebreak struct {
	PointsA int
	PointsB int
	Target  int
}

func (Tiebreak) isGame() {}

func newTiebreak() Tiebreak {
	return Tiebreak{Target: tiebreakTarget}
}
