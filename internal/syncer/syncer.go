// Package syncer moves unsynced point events to the remote authority.
//
// An event is marked synced only after the remote confirms the batch that
// carried it. A failed submission marks nothing, so the same events are
// offered again on the next attempt; the remote deduplicates by event id.
// At most one sync per match runs at a time.
package syncer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/canon"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/eventlog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/metrics"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/remote"
)

// Submitter delivers a batch to the remote and returns how many events it
// newly inserted.
type Submitter interface {
	SubmitEvents(ctx context.Context, matchID string, events []eventlog.PointEvent) (int, error)
}

// Result is the progress of one match sync.
type Result struct {
	MatchID string `json:"match_id"`

	// Total is the number of unsynced events found when the sync began.
	Total int `json:"total"`

	// Submitted counts events in batches the remote confirmed.
	Submitted int `json:"submitted"`

	// Inserted is the remote's count of events it had not seen before.
	Inserted int `json:"inserted"`

	// Confirmed counts events marked synced locally.
	Confirmed int `json:"confirmed"`

	Batches int `json:"batches"`
}

// Summary is the outcome of SyncAll.
type Summary struct {
	Results  []Result         `json:"results"`
	Failures map[string]error `json:"-"`
}

type Coordinator struct {
	log       *eventlog.Log
	remote    Submitter
	logger    *zap.Logger
	metrics   *metrics.Metrics
	limiter   *rate.Limiter
	batchSize int
	group     singleflight.Group
}

type Option func(*Coordinator)

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = obslog.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithRateLimit throttles batch submissions. A non-positive perSecond
// leaves submissions unthrottled.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Coordinator) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithBatchSize caps events per request. Values outside
// 1..remote.MaxEventsPerRequest are ignored.
func WithBatchSize(n int) Option {
	return func(c *Coordinator) {
		if n >= 1 && n <= remote.MaxEventsPerRequest {
			c.batchSize = n
		}
	}
}

func New(log *eventlog.Log, submitter Submitter, opts ...Option) *Coordinator {
	c := &Coordinator{
		log:       log,
		remote:    submitter,
		logger:    zap.NewNop(),
		batchSize: remote.MaxEventsPerRequest,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sync submits every unsynced event of matchID. With nothing pending it
// returns a zero Result without contacting the remote. Concurrent calls for
// the same match share one run.
func (c *Coordinator) Sync(ctx context.Context, matchID string) (Result, error) {
	v, err, shared := c.group.Do(matchID, func() (any, error) {
		return c.drain(ctx, matchID)
	})
	if shared {
		c.logger.Debug("joined in-flight sync", zap.String("match_id", matchID))
	}
	res, _ := v.(Result)
	return res, err
}

func (c *Coordinator) drain(ctx context.Context, matchID string) (Result, error) {
	res := Result{MatchID: matchID}

	pending, err := c.log.UnsyncedFor(ctx, matchID)
	if err != nil {
		return res, c.fail(res, ErrCodeRead, err)
	}
	res.Total = len(pending)
	if len(pending) == 0 {
		return res, nil
	}

	for start := 0; start < len(pending); start += c.batchSize {
		end := min(start+c.batchSize, len(pending))
		batch := pending[start:end]
		ids := eventlog.IDs(batch)

		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return res, c.fail(res, ErrCodeSubmit, err)
			}
		}

		digest := canon.BatchDigest(matchID, ids)
		inserted, err := c.remote.SubmitEvents(ctx, matchID, batch)
		if err != nil {
			c.metrics.BatchSubmitted(false, 0)
			c.logger.Warn("batch submission failed",
				zap.String("match_id", matchID),
				zap.String("batch", digest),
				zap.Int("events", len(batch)),
				zap.Error(err))
			return res, c.fail(res, ErrCodeSubmit, err)
		}

		marked, err := c.log.MarkSynced(ctx, ids)
		if err != nil {
			c.metrics.BatchSubmitted(false, 0)
			return res, c.fail(res, ErrCodeMark, err)
		}

		res.Batches++
		res.Submitted += len(batch)
		res.Inserted += inserted
		res.Confirmed += marked
		c.metrics.BatchSubmitted(true, marked)
		c.logger.Info("batch synced",
			zap.String("match_id", matchID),
			zap.String("batch", digest),
			zap.Int("events", len(batch)),
			zap.Int("inserted", inserted),
			zap.Int("marked", marked))
	}
	return res, nil
}

func (c *Coordinator) fail(res Result, code SyncErrorCode, err error) error {
	c.metrics.SyncFailed()
	return &SyncError{Code: code, MatchID: res.MatchID, Confirmed: res.Confirmed, Err: err}
}

// SyncAll drains every match with unsynced events. A failing match does not
// stop the others; the returned error joins every per-match failure.
func (c *Coordinator) SyncAll(ctx context.Context) (Summary, error) {
	summary := Summary{Results: []Result{}, Failures: map[string]error{}}

	matches, err := c.log.PendingMatches(ctx)
	if err != nil {
		return summary, fmt.Errorf("sync all: %w", err)
	}

	var errs []error
	for _, matchID := range matches {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := c.Sync(ctx, matchID)
		summary.Results = append(summary.Results, res)
		if err != nil {
			summary.Failures[matchID] = err
			errs = append(errs, err)
		}
	}

	if len(matches) > 0 {
		c.logger.Info("sync pass finished",
			zap.Int("matches", len(matches)),
			zap.Int("failed", len(summary.Failures)))
	}
	return summary, errors.Join(errs...)
}
