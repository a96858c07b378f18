package testutil

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/store"
)

// OpenStore opens a fresh SQLite store in a per-test temp dir and closes it
// when the test ends.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "ots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}
