// Package scheduler runs the daemon's periodic work on gocron duration
// jobs: draining unsynced events, and sweeping expired matches and
// temporary players. Each job runs in singleton mode, so a slow pass delays
// the next one instead of overlapping it.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/metrics"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/syncer"
)

// Job names.
const (
	JobSync  = "sync-all"
	JobSweep = "expiry-sweep"
)

type Syncer interface {
	SyncAll(ctx context.Context) (syncer.Summary, error)
}

type MatchSweeper interface {
	CleanupExpired(ctx context.Context) (int, error)
}

type TempPlayerSweeper interface {
	CleanupExpiredTempPlayers(ctx context.Context) (int, error)
}

// Jobs wires the scheduled work. A nil Syncer leaves the sync job out,
// which is how an offline device runs.
type Jobs struct {
	Sync          Syncer
	Matches       MatchSweeper
	TempPlayers   TempPlayerSweeper
	SyncInterval  time.Duration
	SweepInterval time.Duration
}

type Scheduler struct {
	sched   gocron.Scheduler
	jobs    Jobs
	logger  *zap.Logger
	metrics *metrics.Metrics
	ctx     context.Context
	cancel  context.CancelFunc

	stopOnce sync.Once
	stopErr  error
}

type Option func(*Scheduler)

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = obslog.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scheduler) { s.metrics = m }
}

func New(jobs Jobs, opts ...Option) (*Scheduler, error) {
	if jobs.Matches == nil || jobs.TempPlayers == nil {
		return nil, errors.New("scheduler: match and temp player sweepers are required")
	}
	if jobs.SyncInterval <= 0 {
		jobs.SyncInterval = time.Minute
	}
	if jobs.SweepInterval <= 0 {
		jobs.SweepInterval = 15 * time.Minute
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:  sched,
		jobs:   jobs,
		logger: zap.NewNop(),
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(s)
	}

	if jobs.Sync != nil {
		if _, err := sched.NewJob(
			gocron.DurationJob(jobs.SyncInterval),
			gocron.NewTask(func() { s.SyncPass(s.ctx) }),
			gocron.WithName(JobSync),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
		); err != nil {
			cancel()
			return nil, fmt.Errorf("scheduler: add %s: %w", JobSync, err)
		}
	}

	if _, err := sched.NewJob(
		gocron.DurationJob(jobs.SweepInterval),
		gocron.NewTask(func() { s.SweepPass(s.ctx) }),
		gocron.WithName(JobSweep),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler: add %s: %w", JobSweep, err)
	}
	return s, nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info("scheduler started",
		zap.Duration("sync_interval", s.jobs.SyncInterval),
		zap.Duration("sweep_interval", s.jobs.SweepInterval),
		zap.Bool("sync_enabled", s.jobs.Sync != nil))
}

// Shutdown cancels in-flight passes and waits for jobs to stop. Later
// calls return the first result.
func (s *Scheduler) Shutdown() error {
	s.stopOnce.Do(func() {
		s.cancel()
		s.stopErr = s.sched.Shutdown()
	})
	return s.stopErr
}

// JobNames lists the registered jobs.
func (s *Scheduler) JobNames() []string {
	var names []string
	for _, j := range s.sched.Jobs() {
		names = append(names, j.Name())
	}
	return names
}

// SyncPass drains every match with unsynced events once.
func (s *Scheduler) SyncPass(ctx context.Context) {
	if s.jobs.Sync == nil {
		return
	}
	summary, err := s.jobs.Sync.SyncAll(ctx)
	if err != nil {
		s.logger.Warn("sync pass incomplete",
			zap.Int("matches", len(summary.Results)),
			zap.Int("failed", len(summary.Failures)),
			zap.Error(err))
	}
}

// SweepPass removes expired matches and temporary players. It syncs first
// so that nothing still deliverable is expired with its match.
func (s *Scheduler) SweepPass(ctx context.Context) {
	s.SyncPass(ctx)

	matches, err := s.jobs.Matches.CleanupExpired(ctx)
	if err != nil {
		s.logger.Error("match expiry sweep failed", zap.Error(err))
	}
	temps, err := s.jobs.TempPlayers.CleanupExpiredTempPlayers(ctx)
	if err != nil {
		s.logger.Error("temp player sweep failed", zap.Error(err))
	}

	s.metrics.Expired(matches, temps)
	if matches > 0 || temps > 0 {
		s.logger.Info("expiry sweep",
			zap.Int("matches", matches),
			zap.Int("temp_players", temps))
	}
}
