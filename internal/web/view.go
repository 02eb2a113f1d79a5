package web

import (
	"time"

	"github.com/keepgoing-228/tennis-scorekeeper/internal/app"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/event"
	"github.com/keepgoing-228/tennis-scorekeeper/internal/match/stats"
)

// MatchView is the JSON rendering of a match state.
type MatchView struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Winner    string          `json:"winner,omitempty"`
	Server    string          `json:"server"`
	BestOf    string          `json:"best_of"`
	MatchType string          `json:"match_type"`
	PlayersA  []string        `json:"players_a"`
	PlayersB  []string        `json:"players_b"`
	SetsWonA  int             `json:"sets_won_a"`
	SetsWonB  int             `json:"sets_won_b"`
	Sets      []app.UpdateSet `json:"sets"`
	Game      app.UpdateGame  `json:"game"`
	LatestSeq uint64          `json:"latest_seq"`
	CanUndo   bool            `json:"can_undo"`
}

func newMatchView(detail app.MatchDetail) MatchView {
	update := app.NewUpdate(detail)
	return MatchView{
		ID:        detail.State.ID,
		Status:    update.Status,
		Winner:    update.Winner,
		Server:    update.Server,
		BestOf:    string(detail.State.Ruleset.BestOf),
		MatchType: string(detail.State.Ruleset.MatchType),
		PlayersA:  detail.State.TeamA.Players,
		PlayersB:  detail.State.TeamB.Players,
		SetsWonA:  update.SetsWonA,
		SetsWonB:  update.SetsWonB,
		Sets:      update.Sets,
		Game:      update.Game,
		LatestSeq: detail.LatestSeq,
		CanUndo:   detail.CanUndo,
	}
}

// MatchSummaryView is one row of the match listing.
type MatchSummaryView struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Winner string `json:"winner,omitempty"`
}

// EventView is the JSON rendering of one journal record.
type EventView struct {
	ID        string        `json:"id"`
	MatchID   string        `json:"match_id"`
	Seq       uint64        `json:"seq"`
	CreatedAt time.Time     `json:"created_at"`
	Type      string        `json:"type"`
	Payload   jsonRawOrNull `json:"payload"`
}

type jsonRawOrNull []byte

func (j jsonRawOrNull) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *jsonRawOrNull) UnmarshalJSON(data []byte) error {
	*j = append((*j)[:0], data...)
	return nil
}

func newEventView(evt event.Event) EventView {
	return EventView{
		ID:        evt.ID,
		MatchID:   evt.MatchID,
		Seq:       evt.Seq,
		CreatedAt: evt.CreatedAt,
		Type:      string(evt.Type),
		Payload:   jsonRawOrNull(evt.PayloadJSON),
	}
}

// TeamStatsView is one side's aggregate counters.
type TeamStatsView struct {
	TotalPointsWon int            `json:"total_points_won"`
	Unannotated    int            `json:"unannotated"`
	ByReason       map[string]int `json:"by_reason"`
}

// StatsView is the JSON rendering of match statistics.
type StatsView struct {
	A TeamStatsView `json:"a"`
	B TeamStatsView `json:"b"`
}

func newStatsView(s stats.Stats) StatsView {
	return StatsView{A: newTeamStatsView(s.A), B: newTeamStatsView(s.B)}
}

func newTeamStatsView(team stats.TeamStats) TeamStatsView {
	byReason := make(map[string]int, len(team.ByReason))
	for reason, count := range team.ByReason {
		byReason[string(reason)] = count
	}
	return TeamStatsView{
		TotalPointsWon: team.TotalPointsWon,
		Unannotated:    team.Unannotated,
		ByReason:       byReason,
	}
}
