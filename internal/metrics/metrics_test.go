package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchSubmitted(t *testing.T) {
	m := New()

	m.BatchSubmitted(true, 40)
	m.BatchSubmitted(true, 2)
	m.BatchSubmitted(false, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SyncBatches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SyncBatches.WithLabelValues("error")))
	assert.Equal(t, 42.0, testutil.ToFloat64(m.EventsSynced))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BatchSubmitted(true, 1)
		m.SyncFailed()
		m.PointRecorded()
		m.Expired(1, 1)
	})
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.PointRecorded()
	a.Expired(3, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.PointsRecorded))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.PointsRecorded))
	assert.Equal(t, 3.0, testutil.ToFloat64(a.MatchesExpired))
	assert.Equal(t, 1.0, testutil.ToFloat64(a.TempPlayersExpired))
}

func TestHandler(t *testing.T) {
	m := New()
	m.SyncFailed()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ots_sync_failures_total 1")
}
