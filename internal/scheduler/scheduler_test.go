package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/metrics"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/syncer"
)

type recorder struct {
	mu    sync.Mutex
	order []string
	syncs atomic.Int32

	syncErr    error
	matchCount int
	tempCount  int
	sweepErr   error
}

func (r *recorder) note(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, s)
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

func (r *recorder) SyncAll(context.Context) (syncer.Summary, error) {
	r.syncs.Add(1)
	r.note("sync")
	return syncer.Summary{}, r.syncErr
}

func (r *recorder) CleanupExpired(context.Context) (int, error) {
	r.note("matches")
	return r.matchCount, r.sweepErr
}

func (r *recorder) CleanupExpiredTempPlayers(context.Context) (int, error) {
	r.note("temps")
	return r.tempCount, nil
}

func newScheduler(t *testing.T, r *recorder, withSync bool, opts ...Option) *Scheduler {
	t.Helper()
	jobs := Jobs{
		Matches:       r,
		TempPlayers:   r,
		SyncInterval:  time.Hour,
		SweepInterval: time.Hour,
	}
	if withSync {
		jobs.Sync = r
	}
	s, err := New(jobs, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Shutdown() })
	return s
}

func TestSweepPass_SyncsBeforeExpiring(t *testing.T) {
	r := &recorder{matchCount: 2, tempCount: 3}
	m := metrics.New()
	s := newScheduler(t, r, true, WithMetrics(m))

	s.SweepPass(context.Background())

	assert.Equal(t, []string{"sync", "matches", "temps"}, r.calls())
	assert.Equal(t, 2.0, promtest.ToFloat64(m.MatchesExpired))
	assert.Equal(t, 3.0, promtest.ToFloat64(m.TempPlayersExpired))
}

func TestSweepPass_ContinuesAfterFailures(t *testing.T) {
	r := &recorder{syncErr: errors.New("offline"), sweepErr: errors.New("disk")}
	s := newScheduler(t, r, true)

	s.SweepPass(context.Background())
	assert.Equal(t, []string{"sync", "matches", "temps"}, r.calls())
}

func TestOfflineHasNoSyncJob(t *testing.T) {
	r := &recorder{}
	s := newScheduler(t, r, false)

	assert.Equal(t, []string{JobSweep}, s.JobNames())
	s.SweepPass(context.Background())
	assert.Equal(t, []string{"matches", "temps"}, r.calls())
}

func TestNew_RequiresSweepers(t *testing.T) {
	_, err := New(Jobs{})
	assert.Error(t, err)
}

func TestStart_RunsSyncImmediately(t *testing.T) {
	r := &recorder{}
	s := newScheduler(t, r, true)
	assert.ElementsMatch(t, []string{JobSync, JobSweep}, s.JobNames())

	s.Start()
	require.Eventually(t, func() bool { return r.syncs.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, s.Shutdown())
}
