package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

func TestStateDigest_Deterministic(t *testing.T) {
	state, err := scoring.NewMatchState(scoring.ModeShort, []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	d1, err := StateDigest(state)
	require.NoError(t, err)
	d2, err := StateDigest(state)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
	assert.Len(t, d1, 64)

	d3, err := StateDigest(scoring.ScorePoint(state, scoring.TeamA))
	require.NoError(t, err)
	assert.NotEqual(t, d1, d3)
}

func TestBatchDigest_OrderIndependent(t *testing.T) {
	a := BatchDigest("m1", []string{"e2", "e1", "e3"})
	b := BatchDigest("m1", []string{"e1", "e3", "e2"})
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, BatchDigest("m2", []string{"e1", "e2", "e3"}))
}

func TestDomainSeparation(t *testing.T) {
	data := []byte(`{"a":1}`)
	assert.NotEqual(t, hashWithDomain(DomainState, data), hashWithDomain(DomainBatch, data))
}
