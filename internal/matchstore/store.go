package matchstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/eventlog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/store"
)

const legacySlot = "current"

// Store persists match records.
type Store struct {
	st        *store.Store
	retention time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithRetention overrides DefaultRetention.
func WithRetention(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithClock sets the wall clock used for timestamps and expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger that records degraded reads.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = obslog.OrNop(l) }
}

// New returns a Store backed by st.
func New(st *store.Store, opts ...Option) *Store {
	s := &Store{
		st:        st,
		retention: DefaultRetention,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retention returns the configured expiry window.
func (s *Store) Retention() time.Duration {
	return s.retention
}

// Save upserts the record for matchID, applying patch over any existing
// record. CreatedAt is set on first write and never changed; UpdatedAt is
// refreshed on every write. The legacy current_match slot is rewritten in
// the same transaction.
func (s *Store) Save(ctx context.Context, matchID string, patch Patch) (*Record, error) {
	if matchID == "" {
		return nil, errors.New("save match: match id is required")
	}

	venue, err := NormalizeVenue(patch.Venue)
	if err != nil {
		return nil, fmt.Errorf("save match %s: %w", matchID, err)
	}

	var saved Record
	err = s.st.WithTx(ctx, func(tx *sql.Tx) error {
		now := s.now().UTC().Truncate(time.Millisecond)

		existing, err := getRecord(ctx, tx, matchID)
		if err != nil {
			return err
		}

		rec := Record{MatchID: matchID, CreatedAt: now, TeamA: []string{}, TeamB: []string{}, Events: []EventRef{}}
		if existing != nil {
			rec = *existing
		}
		if patch.Venue != nil {
			rec.Venue = venue
		}
		applyPatch(&rec, patch)
		rec.UpdatedAt = now

		if !rec.Mode.Valid() {
			return fmt.Errorf("mode %q is not valid", rec.Mode)
		}

		if err := putRecord(ctx, tx, rec); err != nil {
			return err
		}
		if err := putLegacy(ctx, tx, rec); err != nil {
			return err
		}
		saved = rec
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save match %s: %w", matchID, err)
	}
	return &saved, nil
}

func applyPatch(rec *Record, p Patch) {
	if p.MatchType != nil {
		rec.MatchType = *p.MatchType
	}
	if p.Mode != nil {
		rec.Mode = *p.Mode
	}
	if p.TeamA != nil {
		rec.TeamA = append([]string(nil), p.TeamA...)
	}
	if p.TeamB != nil {
		rec.TeamB = append([]string(nil), p.TeamB...)
	}
	if p.Score != nil {
		rec.Score = *p.Score
		rec.Completed = p.Score.Completed
		if rec.Mode == "" {
			rec.Mode = p.Score.Mode
		}
	}
	if p.Events != nil {
		rec.Events = append([]EventRef{}, (*p.Events)...)
	}
	if p.CurrentServer != nil {
		rec.CurrentServer = *p.CurrentServer
	}
	if p.ServerTeam != nil {
		rec.ServerTeam = *p.ServerTeam
	}
	if p.Completed != nil {
		rec.Completed = *p.Completed
	}
}

// Get returns the record for matchID, or nil if there is none. Expired
// records are still returned until the next cleanup pass removes them.
func (s *Store) Get(ctx context.Context, matchID string) (*Record, error) {
	rec, err := getRecord(ctx, s.st.DB(), matchID)
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", matchID, err)
	}
	return rec, nil
}

// GetAll returns every incomplete, unexpired record, most recently touched
// first. Expired records are swept before reading.
func (s *Store) GetAll(ctx context.Context) Listing {
	if _, err := s.CleanupExpired(ctx); err != nil {
		s.logger.Warn("expiry sweep before listing failed", zap.Error(err))
	}

	cutoff := s.now().Add(-s.retention)
	rows, err := s.st.DB().QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM matches
		WHERE completed = 0 AND created_at >= ?
		ORDER BY COALESCE(NULLIF(updated_at, 0), created_at) DESC, match_id COLLATE BINARY ASC
	`, store.Millis(cutoff))
	if err != nil {
		return s.degraded(fmt.Errorf("query matches: %w", err))
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return s.degraded(err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return s.degraded(fmt.Errorf("iterate matches: %w", err))
	}
	return Listing{Records: records}
}

func (s *Store) degraded(err error) Listing {
	s.logger.Warn("match listing degraded to empty result", zap.Error(err))
	return Listing{Records: []Record{}, Err: err}
}

// Delete removes the record and all of its events. The legacy slot is
// cleared if it refers to this match.
func (s *Store) Delete(ctx context.Context, matchID string) error {
	err := s.st.WithTx(ctx, func(tx *sql.Tx) error {
		return deleteMatch(ctx, tx, matchID)
	})
	if err != nil {
		return fmt.Errorf("delete match %s: %w", matchID, err)
	}
	return nil
}

// CleanupExpired removes records created more than the retention window ago,
// together with their events. Returns the number of records removed.
func (s *Store) CleanupExpired(ctx context.Context) (int, error) {
	cutoff := store.Millis(s.now().Add(-s.retention))

	var expired []string
	err := s.st.WithTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT match_id FROM matches WHERE created_at < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("query expired matches: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan expired match: %w", err)
			}
			expired = append(expired, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return fmt.Errorf("iterate expired matches: %w", err)
		}
		rows.Close()

		for _, id := range expired {
			var unsynced int
			if err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM events WHERE match_id = ? AND synced = 0`, id,
			).Scan(&unsynced); err != nil {
				return fmt.Errorf("count unsynced for %s: %w", id, err)
			}
			if unsynced > 0 {
				s.logger.Warn("expiring match with unsynced events",
					zap.String("match_id", id), zap.Int("unsynced", unsynced))
			}
			if err := deleteMatch(ctx, tx, id); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("cleanup expired matches: %w", err)
	}

	if len(expired) > 0 {
		s.logger.Info("expired matches removed", zap.Int("count", len(expired)))
	}
	return len(expired), nil
}

// Current returns the record in the legacy single slot, or nil.
func (s *Store) Current(ctx context.Context) (*Record, error) {
	var raw string
	err := s.st.DB().QueryRowContext(ctx,
		`SELECT record FROM current_match WHERE slot = ?`, legacySlot,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get current match: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode current match: %w", err)
	}
	return &rec, nil
}

// ClearCurrent empties the legacy slot.
func (s *Store) ClearCurrent(ctx context.Context) error {
	if _, err := s.st.DB().ExecContext(ctx, `DELETE FROM current_match WHERE slot = ?`, legacySlot); err != nil {
		return fmt.Errorf("clear current match: %w", err)
	}
	return nil
}

func deleteMatch(ctx context.Context, tx *sql.Tx, matchID string) error {
	if _, err := eventlog.ClearForTx(ctx, tx, matchID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM matches WHERE match_id = ?`, matchID); err != nil {
		return fmt.Errorf("delete match row: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM current_match WHERE slot = ? AND match_id = ?`, legacySlot, matchID,
	); err != nil {
		return fmt.Errorf("clear legacy slot: %w", err)
	}
	return nil
}

const recordColumns = `match_id, venue_id, venue_name, match_type, mode, team_a, team_b, score, events,
		current_server, server_team, completed, created_at, updated_at`

func getRecord(ctx context.Context, q store.Querier, matchID string) (*Record, error) {
	row := q.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM matches WHERE match_id = ?`, matchID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func putRecord(ctx context.Context, q store.Querier, rec Record) error {
	teamA, err := json.Marshal(rec.TeamA)
	if err != nil {
		return fmt.Errorf("marshal team a: %w", err)
	}
	teamB, err := json.Marshal(rec.TeamB)
	if err != nil {
		return fmt.Errorf("marshal team b: %w", err)
	}
	score, err := json.Marshal(rec.Score)
	if err != nil {
		return fmt.Errorf("marshal score: %w", err)
	}
	events, err := json.Marshal(rec.Events)
	if err != nil {
		return fmt.Errorf("marshal events: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO matches (`+recordColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(match_id) DO UPDATE SET
			venue_id = excluded.venue_id,
			venue_name = excluded.venue_name,
			match_type = excluded.match_type,
			mode = excluded.mode,
			team_a = excluded.team_a,
			team_b = excluded.team_b,
			score = excluded.score,
			events = excluded.events,
			current_server = excluded.current_server,
			server_team = excluded.server_team,
			completed = excluded.completed,
			updated_at = excluded.updated_at
	`,
		rec.MatchID,
		rec.Venue.ID,
		rec.Venue.Name,
		rec.MatchType,
		string(rec.Mode),
		string(teamA),
		string(teamB),
		string(score),
		string(events),
		rec.CurrentServer,
		string(rec.ServerTeam),
		store.Flag(rec.Completed),
		store.Millis(rec.CreatedAt),
		store.Millis(rec.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert match: %w", err)
	}
	return nil
}

func putLegacy(ctx context.Context, q store.Querier, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal legacy record: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO current_match (slot, match_id, record, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			match_id = excluded.match_id,
			record = excluded.record,
			updated_at = excluded.updated_at
	`, legacySlot, rec.MatchID, string(raw), store.Millis(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("write legacy slot: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (Record, error) {
	var (
		rec                               Record
		mode, teamA, teamB, score, events string
		serverTeam                        string
		completed, createdAt, updatedAt   int64
	)
	err := s.Scan(
		&rec.MatchID, &rec.Venue.ID, &rec.Venue.Name, &rec.MatchType, &mode,
		&teamA, &teamB, &score, &events,
		&rec.CurrentServer, &serverTeam, &completed, &createdAt, &updatedAt,
	)
	if err != nil {
		return Record{}, fmt.Errorf("scan match: %w", err)
	}

	rec.Mode = scoring.Mode(mode)
	rec.ServerTeam = scoring.Team(serverTeam)
	rec.Completed = store.Bool(completed)
	rec.CreatedAt = store.FromMillis(createdAt)
	rec.UpdatedAt = store.FromMillis(updatedAt)

	if err := json.Unmarshal([]byte(teamA), &rec.TeamA); err != nil {
		return Record{}, fmt.Errorf("decode team a for %s: %w", rec.MatchID, err)
	}
	if err := json.Unmarshal([]byte(teamB), &rec.TeamB); err != nil {
		return Record{}, fmt.Errorf("decode team b for %s: %w", rec.MatchID, err)
	}
	if err := json.Unmarshal([]byte(score), &rec.Score); err != nil {
		return Record{}, fmt.Errorf("decode score for %s: %w", rec.MatchID, err)
	}
	if err := json.Unmarshal([]byte(events), &rec.Events); err != nil {
		return Record{}, fmt.Errorf("decode events for %s: %w", rec.MatchID, err)
	}
	return rec, nil
}
