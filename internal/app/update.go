package app

import (
	"strconv"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/domain"
)

// Update is the JSON payload broadcast to match subscribers after every
// state-changing command.
type Update struct {
	MatchID   string      `json:"match_id"`
	Status    string      `json:"status"`
	Winner    string      `json:"winner,omitempty"`
	Server    string      `json:"server"`
	SetsWonA  int         `json:"sets_won_a"`
	SetsWonB  int         `json:"sets_won_b"`
	Sets      []UpdateSet `json:"sets"`
	Game      UpdateGame  `json:"game"`
	LatestSeq uint64      `json:"latest_seq"`
	CanUndo   bool        `json:"can_undo"`
}

// UpdateSet is one set's game tally.
type UpdateSet struct {
	GamesA int `json:"games_a"`
	GamesB int `json:"games_b"`
}

// UpdateGame renders the active game score. Normal games use the
// conventional 0/15/30/40/AD values; tiebreaks use raw point counts.
type UpdateGame struct {
	Kind    string `json:"kind"`
	ScoreA  string `json:"score_a"`
	ScoreB  string `json:"score_b"`
	PointsA int    `json:"points_a,omitempty"`
	PointsB int    `json:"points_b,omitempty"`
}

// NewUpdate flattens a match detail into the broadcast shape.
func NewUpdate(detail MatchDetail) Update {
	state := detail.State
	update := Update{
		MatchID:   state.ID,
		Status:    string(state.Status),
		Winner:    string(state.Winner),
		Server:    string(state.Server),
		SetsWonA:  state.SetsWonA,
		SetsWonB:  state.SetsWonB,
		Sets:      make([]UpdateSet, 0, len(state.Sets)),
		LatestSeq: detail.LatestSeq,
		CanUndo:   detail.CanUndo,
	}
	for _, set := range state.Sets {
		update.Sets = append(update.Sets, UpdateSet{GamesA: set.GamesA, GamesB: set.GamesB})
	}
	if len(state.Sets) > state.CurrentSet {
		update.Game = renderGame(state.Sets[state.CurrentSet].Game)
	}
	return update
}

func renderGame(game domain.Game) UpdateGame {
	switch g := game.(type) {
	case domain.NormalGame:
		return UpdateGame{
			Kind:   "normal",
			ScoreA: g.PointsA.String(),
			ScoreB: g.PointsB.String(),
		}
	case domain.Tiebreak:
		return UpdateGame{
			Kind:    "tiebreak",
			ScoreA:  strconv.Itoa(g.PointsA),
			ScoreB:  strconv.Itoa(g.PointsB),
			PointsA: g.PointsA,
			PointsB: g.PointsB,
		}
	}
	return UpdateGame{}
}
