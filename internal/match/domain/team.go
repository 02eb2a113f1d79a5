package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyPlayerName indicates a blank player name.
	ErrEmptyPlayerName = errors.New("player name is required")
	// ErrTeamSize indicates a player count that does not fit the match type.
	ErrTeamSize = errors.New("team size does not match the match type")
)

// Team is one side of a match with its named players.
// Teams are fixed once the match starts.
type Team struct {
	Side    Side
	Players []string
}

// normalizeTeam trims player names and checks the team size against the
// match type. The returned team owns its own players slice.
func normalizeTeam(team Team, side Side, matchType MatchType) (Team, error) {
	want := matchType.PlayersPerTeam()
	if len(team.Players) != want {
		return Team{}, fmt.Errorf("%w: team %s needs %d player(s) for %s, got %d", ErrTeamSize, side, want, matchType, len(team.Players))
	}
	players := make([]string, 0, len(team.Players))
	for _, name := range team.Players {
		name = strings.TrimSpace(name)
		if name == "" {
			return Team{}, ErrEmptyPlayerName
		}
		players = append(players, name)
	}
	return Team{Side: side, Players: players}, nil
}
