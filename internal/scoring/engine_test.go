package scoring

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testServers = []string{"p1", "p2", "p3"}

// winGame scores four straight points for team from a fresh game.
func winGame(t *testing.T, state MatchState, team Team) MatchState {
	t.Helper()
	for i := 0; i < 4; i++ {
		state = ScorePoint(state, team)
	}
	return state
}

func newState(t *testing.T, mode Mode) MatchState {
	t.Helper()
	var servers []string
	if mode == ModeShort {
		servers = testServers
	}
	state, err := NewMatchState(mode, servers)
	require.NoError(t, err)
	return state
}

func TestNewMatchState(t *testing.T) {
	t.Run("standard", func(t *testing.T) {
		state, err := NewMatchState(ModeStandard, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, state.CurrentSet)
		assert.Equal(t, 1, state.CurrentGame.GameNumber)
		assert.False(t, state.Completed)
		assert.Empty(t, state.Winner)
	})

	t.Run("short", func(t *testing.T) {
		state, err := NewMatchState(ModeShort, testServers)
		require.NoError(t, err)
		assert.Equal(t, 0, state.CurrentSet)
		assert.Equal(t, testServers, state.Servers)
	})

	t.Run("short requires three servers", func(t *testing.T) {
		_, err := NewMatchState(ModeShort, []string{"p1", "p2"})
		require.Error(t, err)
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("short rejects blank server", func(t *testing.T) {
		_, err := NewMatchState(ModeShort, []string{"p1", " ", "p3"})
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := NewMatchState(Mode("doubles-royale"), nil)
		assert.True(t, IsInvalidInput(err))
	})
}

func TestScorePoint_DoesNotMutateInput(t *testing.T) {
	state := newState(t, ModeShort)
	next := ScorePoint(state, TeamA)

	assert.Equal(t, 0, state.CurrentGame.PointsA)
	assert.Equal(t, 1, next.CurrentGame.PointsA)

	next.Servers[0] = "changed"
	assert.Equal(t, "p1", state.Servers[0])
}

func TestScorePoint_DeuceAndAdvantage(t *testing.T) {
	state := newState(t, ModeStandard)
	for i := 0; i < 3; i++ {
		state = ScorePoint(state, TeamA)
		state = ScorePoint(state, TeamB)
	}
	assert.Equal(t, GameDeuce, DeriveGameState(state.CurrentGame.PointsA, state.CurrentGame.PointsB))

	state = ScorePoint(state, TeamA)
	assert.Equal(t, GameAdvantageA, DeriveGameState(state.CurrentGame.PointsA, state.CurrentGame.PointsB))
	assert.Equal(t, 0, state.GamesA, "advantage must not end the game")

	state = ScorePoint(state, TeamB)
	assert.Equal(t, GameDeuce, DeriveGameState(state.CurrentGame.PointsA, state.CurrentGame.PointsB))

	state = ScorePoint(state, TeamB)
	state = ScorePoint(state, TeamB)
	assert.Equal(t, 1, state.GamesB)
	assert.Equal(t, CurrentGame{GameNumber: 2}, state.CurrentGame)
}

func TestScorePoint_UnknownTeamIsNoop(t *testing.T) {
	state := newState(t, ModeStandard)
	assert.True(t, Equal(state, ScorePoint(state, Team("C"))))
}

func TestStandard_SixStraightGamesWinsSet(t *testing.T) {
	state := newState(t, ModeStandard)
	for i := 0; i < 6; i++ {
		state = winGame(t, state, TeamA)
	}

	assert.Equal(t, 1, state.SetsA)
	assert.Equal(t, 0, state.SetsB)
	assert.Equal(t, 0, state.GamesA)
	assert.Equal(t, 0, state.GamesB)
	assert.Equal(t, 2, state.CurrentSet)
	assert.Equal(t, CurrentGame{GameNumber: 1}, state.CurrentGame)
	assert.False(t, state.Completed)
}

func TestStandard_TieBreakShortcut(t *testing.T) {
	state := newState(t, ModeStandard)
	for i := 0; i < 5; i++ {
		state = winGame(t, state, TeamA)
		state = winGame(t, state, TeamB)
	}
	state = winGame(t, state, TeamA)
	assert.Equal(t, 0, state.SetsA, "6-5 is not a set")
	state = winGame(t, state, TeamB)

	assert.True(t, IsTieBreak(state.GamesA, state.GamesB))
	assert.Equal(t, 13, state.CurrentGame.GameNumber)

	state = winGame(t, state, TeamA)
	assert.Equal(t, 1, state.SetsA)
	assert.Equal(t, 2, state.CurrentSet)
	assert.Equal(t, 0, state.GamesA)
}

func TestStandard_GameNumberAndServerReset(t *testing.T) {
	state := newState(t, ModeStandard)
	state = winGame(t, state, TeamB)
	state = winGame(t, state, TeamA)
	assert.Equal(t, CurrentGame{GameNumber: 3, ServerIndex: 0}, state.CurrentGame)
}

func TestStandard_TwoSetsWinsMatch(t *testing.T) {
	state := newState(t, ModeStandard)
	for i := 0; i < 12; i++ {
		state = winGame(t, state, TeamB)
	}

	assert.True(t, state.Completed)
	assert.Equal(t, TeamB, state.Winner)
	assert.Equal(t, 2, state.SetsB)
	assert.Equal(t, 6, state.GamesB, "final set games are kept on completion")
	assert.Equal(t, 2, state.CurrentSet)
}

func TestIsSetWon(t *testing.T) {
	tests := []struct {
		a, b   int
		winner Team
		won    bool
	}{
		{6, 4, TeamA, true},
		{4, 6, TeamB, true},
		{6, 5, "", false},
		{5, 5, "", false},
		{7, 5, TeamA, true},
		{7, 6, TeamA, true},
		{6, 7, TeamB, true},
		{6, 6, "", false},
	}
	for _, tt := range tests {
		winner, won := IsSetWon(tt.a, tt.b)
		assert.Equal(t, tt.won, won, "%d-%d", tt.a, tt.b)
		assert.Equal(t, tt.winner, winner, "%d-%d", tt.a, tt.b)
	}
}

func TestShort_FirstToTwoGames(t *testing.T) {
	state := newState(t, ModeShort)
	state = winGame(t, state, TeamA)

	assert.Equal(t, 1, state.GamesA)
	assert.Equal(t, 2, state.CurrentGame.GameNumber)
	assert.Equal(t, 1, state.CurrentGame.ServerIndex)
	assert.Equal(t, "p2", CurrentServer(state))

	state = winGame(t, state, TeamA)
	assert.Equal(t, TeamA, state.Winner)
	assert.True(t, state.Completed)
}

func TestShort_DeciderAfterOneAll(t *testing.T) {
	state := newState(t, ModeShort)
	state = winGame(t, state, TeamA)
	state = winGame(t, state, TeamB)
	assert.Equal(t, "p3", CurrentServer(state))
	assert.Equal(t, 3, state.CurrentGame.GameNumber)

	state = winGame(t, state, TeamB)
	assert.Equal(t, TeamB, state.Winner)
	assert.Equal(t, 1, state.GamesA)
	assert.Equal(t, 2, state.GamesB)
}

func TestShort_ServerIndexWrapsModulo(t *testing.T) {
	state := newState(t, ModeShort)
	state.CurrentGame.ServerIndex = 2

	state = winGame(t, state, TeamA)
	assert.Equal(t, 0, state.CurrentGame.ServerIndex)
	assert.Equal(t, "p1", CurrentServer(state))
}

func TestScorePoint_CompletedIsNoop(t *testing.T) {
	state := newState(t, ModeShort)
	state = winGame(t, state, TeamA)
	state = winGame(t, state, TeamA)
	require.True(t, state.Completed)

	after := ScorePoint(state, TeamB)
	assert.True(t, Equal(state, after))
	assert.Equal(t, TeamA, after.Winner)
}

func TestScorePoint_WinnerNeverChanges(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 200; round++ {
		mode := ModeStandard
		if round%2 == 1 {
			mode = ModeShort
		}
		state := newState(t, mode)

		var winner Team
		for i := 0; i < 2000; i++ {
			team := TeamA
			if rng.IntN(2) == 1 {
				team = TeamB
			}
			state = ScorePoint(state, team)

			require.Equal(t, state.Completed, state.Winner != "", "completed iff winner set")
			if winner == "" {
				winner = state.Winner
			} else {
				require.Equal(t, winner, state.Winner, "round %d point %d changed winner", round, i)
			}
		}
		assert.True(t, state.Completed, "round %d never finished", round)
	}
}

func TestScoreboard(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		state := newState(t, ModeShort)
		state = winGame(t, state, TeamB)
		state = ScorePoint(state, TeamA)

		board := Scoreboard(state)
		assert.Equal(t, Side[string]{A: "15", B: "0"}, board.Points)
		assert.Equal(t, Side[int]{A: 0, B: 1}, board.Games)
		assert.Equal(t, 3, board.TotalGames)
		assert.Equal(t, "p2", board.Server)
		assert.Nil(t, board.Sets)
	})

	t.Run("standard tie-break", func(t *testing.T) {
		state := newState(t, ModeStandard)
		for i := 0; i < 6; i++ {
			state = winGame(t, state, TeamA)
			state = winGame(t, state, TeamB)
		}
		board := Scoreboard(state)
		assert.True(t, board.TieBreak)
		require.NotNil(t, board.Sets)
		assert.Equal(t, 1, board.CurrentSet)
		assert.Empty(t, board.Server)
	})
}
