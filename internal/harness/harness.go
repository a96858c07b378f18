package harness

import (
	"fmt"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// Run plays a scenario through the scoring engine and returns the result.
//
// Each point goes through scoring.ScorePoint, so points after completion are
// recorded as ignored rather than rejected. After the last point the
// counted points are replayed with scoring.Replay and the two final states
// must agree. A scenario whose opening state is invalid returns an error.
func Run(scenario *Scenario) (*Result, error) {
	state, err := scoring.NewMatchState(scenario.Mode, scenario.Servers)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	counted := make([]scoring.Team, 0, len(scenario.Points))
	for _, team := range scenario.Points {
		ignored := state.Completed
		state = scoring.ScorePoint(state, team)
		if !ignored {
			counted = append(counted, team)
		}
		result.AddPoint(team, ignored, state)
	}
	result.Final = state

	replayed, err := scoring.Replay(scenario.Mode, scenario.Servers, counted)
	switch {
	case err != nil:
		result.AddError(fmt.Sprintf("replay: %v", err))
	case !scoring.Equal(replayed, state):
		result.AddError(fmt.Sprintf("replay: got %s, live scoring got %s", replayed, state))
	}

	for _, msg := range CheckExpect(scenario.Expect, result) {
		result.AddError(msg)
	}
	return result, nil
}

// RunAll runs scenarios in order. The first scenario that cannot start
// aborts the run.
func RunAll(scenarios []*Scenario) ([]*Result, error) {
	results := make([]*Result, 0, len(scenarios))
	for _, s := range scenarios {
		r, err := Run(s)
		if err != nil {
			return results, err
		}
		results = append(results, r)
	}
	return results, nil
}
