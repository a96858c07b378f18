package scoring

import (
	"fmt"
	"slices"
)

// Replay rebuilds a match by folding point winners through ScorePoint from
// the opening state.
//
// If a point follows the one that completed the match, Replay returns the
// completed state together with an error wrapping ErrPointAfterCompletion
// that names the offending index.
func Replay(mode Mode, servers []string, winners []Team) (MatchState, error) {
	state, err := NewMatchState(mode, servers)
	if err != nil {
		return MatchState{}, err
	}

	for i, team := range winners {
		if !team.Valid() {
			return state, newInvalidInput("point %d: unknown team %q", i, team)
		}
		if state.Completed {
			return state, fmt.Errorf("point %d of %d: %w", i, len(winners), ErrPointAfterCompletion)
		}
		state = ScorePoint(state, team)
	}
	return state, nil
}

// Equal reports whether two states describe the same score.
func Equal(a, b MatchState) bool {
	if a.Mode != b.Mode ||
		a.CurrentGame != b.CurrentGame ||
		a.GamesA != b.GamesA || a.GamesB != b.GamesB ||
		a.SetsA != b.SetsA || a.SetsB != b.SetsB ||
		a.CurrentSet != b.CurrentSet ||
		a.Winner != b.Winner || a.Completed != b.Completed {
		return false
	}
	return slices.Equal(a.Servers, b.Servers)
}
