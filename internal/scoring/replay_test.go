package scoring

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func teams(s string) []Team {
	out := make([]Team, 0, len(s))
	for _, r := range s {
		out = append(out, Team(string(r)))
	}
	return out
}

func TestReplay_MatchesIncrementalScoring(t *testing.T) {
	points := teams("AABABBBAAAABBBBA")

	state := newState(t, ModeStandard)
	for _, p := range points {
		state = ScorePoint(state, p)
	}

	replayed, err := Replay(ModeStandard, nil, points)
	require.NoError(t, err)
	assert.True(t, Equal(state, replayed))
}

func TestReplay_PointAfterCompletion(t *testing.T) {
	points := teams(strings.Repeat("A", 8) + "B")

	state, err := Replay(ModeShort, testServers, points)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPointAfterCompletion))
	assert.Contains(t, err.Error(), "point 8")
	assert.True(t, state.Completed)
	assert.Equal(t, TeamA, state.Winner)
}

func TestReplay_InvalidTeam(t *testing.T) {
	_, err := Replay(ModeStandard, nil, []Team{TeamA, "X"})
	assert.True(t, IsInvalidInput(err))
}

func TestEqual(t *testing.T) {
	a := newState(t, ModeShort)
	b := newState(t, ModeShort)
	assert.True(t, Equal(a, b))

	b.Servers[2] = "p9"
	assert.False(t, Equal(a, b))

	c := ScorePoint(a, TeamA)
	assert.False(t, Equal(a, c))
}
