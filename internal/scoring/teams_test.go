package scoring

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomizeTeams_SplitsEvenly(t *testing.T) {
	ids := []int{1, 2, 3, 4, 5, 6}
	rng := rand.New(rand.NewPCG(1, 2))

	a, b, err := RandomizeTeams(ids, rng)
	require.NoError(t, err)
	assert.Len(t, a, 3)
	assert.Len(t, b, 3)

	seen := map[int]bool{}
	for _, id := range append(append([]int{}, a...), b...) {
		assert.False(t, seen[id], "id %d appears twice", id)
		seen[id] = true
	}
	union := make([]int, 0, len(seen))
	for id := range seen {
		union = append(union, id)
	}
	sort.Ints(union)
	assert.Equal(t, ids, union)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, ids, "input must not be reordered")
}

func TestRandomizeTeams_OddLength(t *testing.T) {
	_, _, err := RandomizeTeams([]string{"a", "b", "c"}, nil)
	require.Error(t, err)
	assert.True(t, IsInvalidInput(err))
}

func TestRandomizeTeams_Empty(t *testing.T) {
	a, b, err := RandomizeTeams([]string{}, nil)
	require.NoError(t, err)
	assert.Empty(t, a)
	assert.Empty(t, b)
}

func TestRandomizeTeams_AppendToFirstHalfDoesNotClobberSecond(t *testing.T) {
	a, b, err := RandomizeTeams([]string{"w", "x", "y", "z"}, rand.New(rand.NewPCG(3, 4)))
	require.NoError(t, err)
	before := append([]string(nil), b...)
	_ = append(a, "extra")
	assert.Equal(t, before, b)
}

func TestRandomizeTeams_Unbiased(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 42))
	ids := []int{1, 2, 3, 4}
	firstTeam := map[int]int{}

	const rounds = 20000
	for i := 0; i < rounds; i++ {
		a, _, err := RandomizeTeams(ids, rng)
		require.NoError(t, err)
		for _, id := range a {
			firstTeam[id]++
		}
	}

	for _, id := range ids {
		share := float64(firstTeam[id]) / rounds
		assert.InDelta(t, 0.5, share, 0.03, "player %d landed on team A %.3f of the time", id, share)
	}
}
