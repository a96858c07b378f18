package scorekeeper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/canon"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/eventlog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/matchstore"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/metrics"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/syncer"
)

// Syncer drains a match's unsynced events.
type Syncer interface {
	Sync(ctx context.Context, matchID string) (syncer.Result, error)
}

// Completer tells the remote authority a match has finished.
type Completer interface {
	CompleteMatch(ctx context.Context, matchID string) error
}

type Keeper struct {
	matches *matchstore.Store
	events  *eventlog.Log
	syncer  Syncer
	remote  Completer
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

type Option func(*Keeper)

func WithSyncer(s Syncer) Option {
	return func(k *Keeper) { k.syncer = s }
}

func WithCompleter(c Completer) Option {
	return func(k *Keeper) { k.remote = c }
}

// WithClock sets the clock used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(k *Keeper) { k.now = now }
}

// WithIDs sets the generator for match and event ids.
func WithIDs(next func() string) Option {
	return func(k *Keeper) { k.newID = next }
}

func WithLogger(l *zap.Logger) Option {
	return func(k *Keeper) { k.logger = obslog.OrNop(l) }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(k *Keeper) { k.metrics = m }
}

func New(matches *matchstore.Store, events *eventlog.Log, opts ...Option) *Keeper {
	k := &Keeper{
		matches: matches,
		events:  events,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// StartMatch validates the roster, builds the opening state and stores the
// new record.
func (k *Keeper) StartMatch(ctx context.Context, n NewMatch) (*matchstore.Record, error) {
	if err := n.validate(); err != nil {
		return nil, err
	}

	state, err := scoring.NewMatchState(n.Mode, n.servers())
	if err != nil {
		return nil, fmt.Errorf("start match: %w", err)
	}

	server := scoring.CurrentServer(state)
	if server == "" {
		server = n.TeamA[0]
	}
	serverTeam := scoring.TeamA
	matchType := string(n.MatchType)
	mode := n.Mode

	matchID := strings.TrimSpace(n.ID)
	if matchID == "" {
		matchID = k.newID()
	}
	rec, err := k.matches.Save(ctx, matchID, matchstore.Patch{
		Venue:         n.Venue,
		MatchType:     &matchType,
		Mode:          &mode,
		TeamA:         n.TeamA,
		TeamB:         n.TeamB,
		Score:         &state,
		Events:        &[]matchstore.EventRef{},
		CurrentServer: &server,
		ServerTeam:    &serverTeam,
	})
	if err != nil {
		return nil, fmt.Errorf("start match: %w", err)
	}

	k.logger.Info("match started",
		zap.String("match_id", matchID),
		zap.String("mode", string(n.Mode)),
		zap.String("match_type", matchType))
	return rec, nil
}

// RecordPoint scores p against the replayed event log and persists both the
// event and the new snapshot. A snapshot that lags the log is caught up by
// the same write. A completed match returns ErrMatchCompleted and nothing is
// written.
func (k *Keeper) RecordPoint(ctx context.Context, matchID string, p Point) (*matchstore.Record, eventlog.PointEvent, error) {
	rec, err := k.load(ctx, matchID)
	if err != nil {
		return nil, eventlog.PointEvent{}, err
	}
	state, logged, err := k.replay(ctx, rec)
	switch {
	case errors.Is(err, scoring.ErrPointAfterCompletion):
		return nil, eventlog.PointEvent{}, fmt.Errorf("record point on %s: %w", matchID, ErrMatchCompleted)
	case err != nil:
		return nil, eventlog.PointEvent{}, fmt.Errorf("record point on %s: %w", matchID, err)
	case state.Completed:
		return nil, eventlog.PointEvent{}, fmt.Errorf("record point on %s: %w", matchID, ErrMatchCompleted)
	}
	if !scoring.Equal(state, rec.Score) {
		k.logger.Warn("snapshot behind event log; scoring from log",
			zap.String("match_id", matchID),
			zap.Int("events", len(logged)))
	}
	if !p.Team.Valid() {
		return nil, eventlog.PointEvent{}, fmt.Errorf("%w: unknown team %q", ErrInvalidPoint, p.Team)
	}
	serveType, err := eventlog.ParseServeType(p.ServeType)
	if err != nil {
		return nil, eventlog.PointEvent{}, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}

	server := p.ServerPlayerID
	if server == "" {
		server = scoring.CurrentServer(state)
	}
	if server == "" {
		server = rec.CurrentServer
	}
	if server == "" {
		return nil, eventlog.PointEvent{}, fmt.Errorf("%w: no server given and none recorded", ErrInvalidPoint)
	}

	ev := eventlog.PointEvent{
		ID:              k.newID(),
		MatchID:         matchID,
		Timestamp:       k.now().UTC().Truncate(time.Millisecond),
		ServerPlayerID:  server,
		ServeType:       serveType,
		PointWinnerTeam: p.Team,
	}
	next := scoring.ScorePoint(state, p.Team)

	if err := k.events.Append(ctx, ev); err != nil {
		return nil, eventlog.PointEvent{}, fmt.Errorf("record point on %s: %w", matchID, err)
	}

	refs := eventRefs(append(logged, ev))
	patch := matchstore.Patch{Score: &next, Events: &refs}
	if s := scoring.CurrentServer(next); s != "" {
		patch.CurrentServer = &s
	}

	saved, err := k.matches.Save(ctx, matchID, patch)
	if err != nil {
		return nil, ev, fmt.Errorf("record point on %s: snapshot: %w", matchID, err)
	}
	k.metrics.PointRecorded()

	if next.Completed {
		k.logger.Info("match completed",
			zap.String("match_id", matchID),
			zap.String("winner", string(next.Winner)))
	}
	return saved, ev, nil
}

// UndoLast removes the chronologically last event and rebuilds the snapshot
// from what remains in the log. The remaining events are replayed before
// anything is deleted, so a log that cannot be rebuilt is left untouched.
func (k *Keeper) UndoLast(ctx context.Context, matchID string) (*matchstore.Record, eventlog.PointEvent, error) {
	rec, err := k.load(ctx, matchID)
	if err != nil {
		return nil, eventlog.PointEvent{}, err
	}

	events, err := k.events.AllFor(ctx, matchID)
	if err != nil {
		return nil, eventlog.PointEvent{}, fmt.Errorf("undo on %s: %w", matchID, err)
	}
	var remaining []eventlog.PointEvent
	state := rec.Score
	if n := len(events); n > 0 {
		remaining = events[:n-1]
		if state, err = scoring.Replay(rec.Mode, rec.Score.Servers, eventlog.Winners(remaining)); err != nil {
			return nil, eventlog.PointEvent{}, fmt.Errorf("undo on %s: %w", matchID, err)
		}
	}

	removed, err := k.events.UndoLast(ctx, matchID)
	if err != nil {
		return nil, eventlog.PointEvent{}, err
	}
	if removed.ID != events[len(events)-1].ID {
		// The log changed between the read and the delete.
		if state, remaining, err = k.replay(ctx, rec); err != nil {
			return nil, removed, fmt.Errorf("undo on %s: %w", matchID, err)
		}
	}

	refs := eventRefs(remaining)
	patch := matchstore.Patch{Score: &state, Events: &refs}
	if s := scoring.CurrentServer(state); s != "" {
		patch.CurrentServer = &s
	}

	saved, err := k.matches.Save(ctx, matchID, patch)
	if err != nil {
		return nil, removed, fmt.Errorf("undo on %s: snapshot: %w", matchID, err)
	}
	if removed.Synced {
		k.logger.Warn("undid an event the remote already holds",
			zap.String("match_id", matchID), zap.String("event_id", removed.ID))
	}
	return saved, removed, nil
}

func eventRefs(events []eventlog.PointEvent) []matchstore.EventRef {
	refs := make([]matchstore.EventRef, 0, len(events))
	for _, e := range events {
		refs = append(refs, matchstore.EventRef{
			ID:        e.ID,
			Team:      e.PointWinnerTeam,
			ServeType: string(e.ServeType),
			Timestamp: e.Timestamp,
		})
	}
	return refs
}

// Rebuild replays the match's event log through the engine.
func (k *Keeper) Rebuild(ctx context.Context, matchID string) (scoring.MatchState, error) {
	rec, err := k.load(ctx, matchID)
	if err != nil {
		return scoring.MatchState{}, err
	}
	state, _, err := k.replay(ctx, rec)
	return state, err
}

func (k *Keeper) replay(ctx context.Context, rec *matchstore.Record) (scoring.MatchState, []eventlog.PointEvent, error) {
	events, err := k.events.AllFor(ctx, rec.MatchID)
	if err != nil {
		return scoring.MatchState{}, nil, err
	}
	state, err := scoring.Replay(rec.Mode, rec.Score.Servers, eventlog.Winners(events))
	return state, events, err
}

// Verify compares the stored snapshot with the replayed log.
func (k *Keeper) Verify(ctx context.Context, matchID string) (Verification, error) {
	rec, err := k.load(ctx, matchID)
	if err != nil {
		return Verification{}, err
	}

	v := Verification{MatchID: matchID, Snapshot: rec.Score}
	replayed, events, err := k.replay(ctx, rec)
	switch {
	case errors.Is(err, scoring.ErrPointAfterCompletion), scoring.IsInvalidInput(err):
		v.Problem = err.Error()
	case err != nil:
		return Verification{}, fmt.Errorf("verify %s: %w", matchID, err)
	}
	v.Replayed = replayed
	v.Events = len(events)

	if v.SnapshotDigest, err = canon.StateDigest(v.Snapshot); err != nil {
		return Verification{}, fmt.Errorf("verify %s: %w", matchID, err)
	}
	if v.ReplayedDigest, err = canon.StateDigest(v.Replayed); err != nil {
		return Verification{}, fmt.Errorf("verify %s: %w", matchID, err)
	}
	v.Consistent = v.Problem == "" && scoring.Equal(v.Snapshot, v.Replayed)
	return v, nil
}

// Reconcile overwrites a diverged snapshot with the replayed state.
func (k *Keeper) Reconcile(ctx context.Context, matchID string) (Verification, error) {
	v, err := k.Verify(ctx, matchID)
	if err != nil || v.Consistent {
		return v, err
	}

	patch := matchstore.Patch{Score: &v.Replayed}
	if s := scoring.CurrentServer(v.Replayed); s != "" {
		patch.CurrentServer = &s
	}
	if _, err := k.matches.Save(ctx, matchID, patch); err != nil {
		return v, fmt.Errorf("reconcile %s: %w", matchID, err)
	}
	v.Reconciled = true

	k.logger.Warn("snapshot diverged from event log; replaced",
		zap.String("match_id", matchID),
		zap.String("snapshot", v.SnapshotDigest),
		zap.String("replayed", v.ReplayedDigest),
		zap.String("problem", v.Problem))
	return v, nil
}

// Complete finishes a match the engine has declared won: outstanding events
// are synced, the remote is told, and the local record is removed.
func (k *Keeper) Complete(ctx context.Context, matchID string) (syncer.Result, error) {
	rec, err := k.load(ctx, matchID)
	if err != nil {
		return syncer.Result{}, err
	}
	if !rec.Score.Completed {
		return syncer.Result{}, fmt.Errorf("complete %s: %w", matchID, ErrMatchNotComplete)
	}

	var res syncer.Result
	if k.syncer != nil {
		if res, err = k.syncer.Sync(ctx, matchID); err != nil {
			return res, fmt.Errorf("complete %s: %w", matchID, err)
		}
	}

	_, unsynced, err := k.events.Counts(ctx, matchID)
	if err != nil {
		return res, fmt.Errorf("complete %s: %w", matchID, err)
	}
	if unsynced > 0 {
		return res, fmt.Errorf("complete %s: %d events: %w", matchID, unsynced, ErrUnsyncedEvents)
	}

	if k.remote != nil {
		if err := k.remote.CompleteMatch(ctx, matchID); err != nil {
			return res, fmt.Errorf("complete %s: %w", matchID, err)
		}
	}

	if err := k.matches.Delete(ctx, matchID); err != nil {
		return res, fmt.Errorf("complete %s: %w", matchID, err)
	}
	k.logger.Info("match closed", zap.String("match_id", matchID), zap.Int("synced", res.Confirmed))
	return res, nil
}

// Abandon deletes a match and its events locally without contacting the
// remote.
func (k *Keeper) Abandon(ctx context.Context, matchID string) error {
	if _, err := k.load(ctx, matchID); err != nil {
		return err
	}
	if _, unsynced, err := k.events.Counts(ctx, matchID); err == nil && unsynced > 0 {
		k.logger.Warn("abandoning match with unsynced events",
			zap.String("match_id", matchID), zap.Int("unsynced", unsynced))
	}
	return k.matches.Delete(ctx, matchID)
}

func (k *Keeper) load(ctx context.Context, matchID string) (*matchstore.Record, error) {
	rec, err := k.matches.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%s: %w", matchID, ErrMatchNotFound)
	}
	return rec, nil
}
