package domain

import "fmt"

// ApplyPointWon advances the match by one point won by side. The input is
// never mutated; a new state value is returned. Points applied to a
// finished match are absorbed unchanged.
func ApplyPointWon(m Match, side Side) Match {
	if !side.IsValid() {
		panic(fmt.Sprintf("domain: %q is not a match side", string(side)))
	}
	if m.Status == StatusFinished {
		return m
	}

	next := m.clone()
	switch game := next.Sets[next.CurrentSet].Game.(type) {
	case NormalGame:
		applyNormalPoint(&next, game, side)
	case Tiebreak:
		applyTiebreakPoint(&next, game, side)
	default:
		panic(fmt.Sprintf("domain: unhandled game variant %T", game))
	}
	return next
}

func applyNormalPoint(m *Match, game NormalGame, side Side) {
	scorer, opponent := game.PointsA, game.PointsB
	if side == SideB {
		scorer, opponent = opponent, scorer
	}

	switch {
	case scorer == PointAdvantage:
		winGame(m, side)
		return
	case opponent == PointAdvantage:
		// Advantage lost: both sides return to deuce.
		scorer, opponent = Point40, Point40
	case scorer == Point40 && opponent == Point40:
		scorer = PointAdvantage
	case scorer == Point40:
		winGame(m, side)
		return
	default:
		scorer = scorer.next()
		if scorer == Point40 && opponent == Point40 {
			game.Deuce = true
		}
	}

	if side == SideA {
		game.PointsA, game.PointsB = scorer, opponent
	} else {
		game.PointsA, game.PointsB = opponent, scorer
	}
	m.Sets[m.CurrentSet].Game = game
}

func applyTiebreakPoint(m *Match, game Tiebreak, side Side) {
	if side == SideA {
		game.PointsA++
	} else {
		game.PointsB++
	}

	scorer, opponent := game.PointsA, game.PointsB
	if side == SideB {
		scorer, opponent = opponent, scorer
	}

	won := scorer >= game.Target && scorer-opponent >= 2
	if m.Ruleset.BestOf == BestOfPractice {
		// Practice tiebreaks have no margin rule: reaching the target wins.
		won = scorer >= game.Target
	}

	set := &m.Sets[m.CurrentSet]
	set.Game = game
	if won {
		if side == SideA {
			set.GamesA++
		} else {
			set.GamesB++
		}
		winSet(m, side)
		return
	}

	// Serve changes after the first point, then after every second point.
	if (game.PointsA+game.PointsB)%2 == 1 {
		m.Server = m.Server.Other()
	}
}

func winGame(m *Match, side Side) {
	set := &m.Sets[m.CurrentSet]
	if side == SideA {
		set.GamesA++
	} else {
		set.GamesB++
	}

	winnerGames, loserGames := set.GamesA, set.GamesB
	if side == SideB {
		winnerGames, loserGames = loserGames, winnerGames
	}

	switch {
	case set.GamesA == 6 && set.GamesB == 6 && m.Ruleset.TiebreakPolicy == TiebreakSevenPoint:
		set.Game = newTiebreak()
		m.Server = m.Server.Other()
	case winnerGames >= 6 && winnerGames-loserGames >= 2:
		winSet(m, side)
	default:
		set.Game = NormalGame{}
		m.Server = m.Server.Other()
	}
}

func winSet(m *Match, side Side) {
	if side == SideA {
		m.SetsWonA++
	} else {
		m.SetsWonB++
	}

	setsWon := m.SetsWonA
	if side == SideB {
		setsWon = m.SetsWonB
	}
	if setsWon >= m.Ruleset.BestOf.SetsNeeded() {
		m.Status = StatusFinished
		m.Winner = side
		return
	}

	m.Sets = append(m.Sets, Set{Game: NormalGame{}})
	m.CurrentSet++
	m.Server = m.Server.Other()
}
