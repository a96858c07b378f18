package scoring

import "strings"

// NewMatchState returns the opening state for a match.
//
// ModeShort requires exactly three non-empty server ids. ModeStandard
// accepts an optional server list, which is carried but never rotated.
func NewMatchState(mode Mode, servers []string) (MatchState, error) {
	if !mode.Valid() {
		return MatchState{}, newInvalidInput("unknown match mode %q", mode)
	}

	if mode == ModeShort {
		if len(servers) != ShortFormatServers {
			return MatchState{}, newInvalidInput("short format requires exactly %d servers, got %d",
				ShortFormatServers, len(servers))
		}
		for i, s := range servers {
			if strings.TrimSpace(s) == "" {
				return MatchState{}, newInvalidInput("server %d is empty", i)
			}
		}
	}

	state := MatchState{
		Mode:        mode,
		CurrentGame: CurrentGame{GameNumber: 1},
	}
	if len(servers) > 0 {
		state.Servers = append([]string(nil), servers...)
	}
	if mode == ModeStandard {
		state.CurrentSet = 1
	}
	return state, nil
}

// ScorePoint awards one point to team and returns the resulting state.
//
// A completed state, or an unknown team, yields the input unchanged.
func ScorePoint(state MatchState, team Team) MatchState {
	if state.Completed || !team.Valid() {
		return state
	}

	next := state.clone()
	if team == TeamA {
		next.CurrentGame.PointsA++
	} else {
		next.CurrentGame.PointsB++
	}

	switch DeriveGameState(next.CurrentGame.PointsA, next.CurrentGame.PointsB) {
	case GameWonA:
		return gameWon(next, TeamA)
	case GameWonB:
		return gameWon(next, TeamB)
	}
	return next
}

func gameWon(state MatchState, winner Team) MatchState {
	if state.Mode == ModeShort {
		return shortFormatGameWon(state, winner)
	}
	return standardGameWon(state, winner)
}

// CurrentServer returns the id of the player serving the current game, or
// "" when the format does not rotate servers.
func CurrentServer(state MatchState) string {
	if state.Mode != ModeShort || len(state.Servers) == 0 {
		return ""
	}
	return state.Servers[state.CurrentGame.ServerIndex%len(state.Servers)]
}
