package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/store"
)

// Log reads and writes the events table.
type Log struct {
	st *store.Store
}

// New returns a Log backed by st.
func New(st *store.Store) *Log {
	return &Log{st: st}
}

// Append stores e with synced=false.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - a second append with the
// same id leaves the first row untouched.
func (l *Log) Append(ctx context.Context, e PointEvent) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	_, err := l.st.DB().ExecContext(ctx, `
		INSERT INTO events
		(id, match_id, timestamp, server_player_id, serve_type, point_winner_team, synced)
		VALUES (?, ?, ?, ?, ?, ?, 0)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.MatchID,
		store.Millis(e.Timestamp),
		e.ServerPlayerID,
		string(e.ServeType),
		string(e.PointWinnerTeam),
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// UnsyncedFor returns the match's events that have not been confirmed by
// the remote authority.
//
// On failure the returned slice is empty (never nil) alongside the error.
func (l *Log) UnsyncedFor(ctx context.Context, matchID string) ([]PointEvent, error) {
	return l.query(ctx, "unsynced events", `
		SELECT id, match_id, timestamp, server_player_id, serve_type, point_winner_team, synced
		FROM events
		WHERE match_id = ? AND synced = 0
		ORDER BY timestamp ASC, rowid ASC
	`, matchID)
}

// AllFor returns the match's full history in chronological order.
//
// On failure the returned slice is empty (never nil) alongside the error.
func (l *Log) AllFor(ctx context.Context, matchID string) ([]PointEvent, error) {
	return l.query(ctx, "events", `
		SELECT id, match_id, timestamp, server_player_id, serve_type, point_winner_team, synced
		FROM events
		WHERE match_id = ?
		ORDER BY timestamp ASC, rowid ASC
	`, matchID)
}

// UndoLast removes and returns the match's chronologically last event.
// Returns ErrNotFound if the match has no events.
func (l *Log) UndoLast(ctx context.Context, matchID string) (PointEvent, error) {
	var last PointEvent
	err := l.st.WithTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT id, match_id, timestamp, server_player_id, serve_type, point_winner_team, synced
			FROM events
			WHERE match_id = ?
			ORDER BY timestamp DESC, rowid DESC
			LIMIT 1
		`, matchID)

		e, err := scanEventRow(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, e.ID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		last = e
		return nil
	})
	if err != nil {
		return PointEvent{}, fmt.Errorf("undo last event for %s: %w", matchID, err)
	}
	return last, nil
}

// MarkSynced flags the given events as confirmed. Ids that no longer exist,
// or are already synced, are ignored. Returns the number of rows flipped.
func (l *Log) MarkSynced(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	flipped := 0
	err := l.st.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `UPDATE events SET synced = 1 WHERE id = ? AND synced = 0`)
		if err != nil {
			return fmt.Errorf("prepare mark synced: %w", err)
		}
		defer stmt.Close()

		for _, id := range ids {
			res, err := stmt.ExecContext(ctx, id)
			if err != nil {
				return fmt.Errorf("mark %s synced: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("rows affected: %w", err)
			}
			flipped += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flipped, nil
}

// ClearFor deletes every event of the match and returns how many were removed.
func (l *Log) ClearFor(ctx context.Context, matchID string) (int, error) {
	return ClearForTx(ctx, l.st.DB(), matchID)
}

// ClearForTx is ClearFor against an arbitrary querier, so the match store can
// cascade inside its own transaction.
func ClearForTx(ctx context.Context, q store.Querier, matchID string) (int, error) {
	res, err := q.ExecContext(ctx, `DELETE FROM events WHERE match_id = ?`, matchID)
	if err != nil {
		return 0, fmt.Errorf("clear events for %s: %w", matchID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

// PendingMatches lists match ids that still have unsynced events.
func (l *Log) PendingMatches(ctx context.Context) ([]string, error) {
	rows, err := l.st.DB().QueryContext(ctx, `
		SELECT DISTINCT match_id FROM events
		WHERE synced = 0
		ORDER BY match_id COLLATE BINARY ASC
	`)
	if err != nil {
		return []string{}, fmt.Errorf("query pending matches: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return []string{}, fmt.Errorf("scan pending match: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return []string{}, fmt.Errorf("iterate pending matches: %w", err)
	}
	return ids, nil
}

// Counts returns the total and unsynced event counts for a match.
func (l *Log) Counts(ctx context.Context, matchID string) (total, unsynced int, err error) {
	err = l.st.DB().QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN synced = 0 THEN 1 ELSE 0 END), 0)
		FROM events WHERE match_id = ?
	`, matchID).Scan(&total, &unsynced)
	if err != nil {
		return 0, 0, fmt.Errorf("count events for %s: %w", matchID, err)
	}
	return total, unsynced, nil
}

func (l *Log) query(ctx context.Context, what, query string, args ...any) ([]PointEvent, error) {
	rows, err := l.st.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return []PointEvent{}, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	events := []PointEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return []PointEvent{}, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return []PointEvent{}, fmt.Errorf("iterate %s: %w", what, err)
	}
	return events, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(rows *sql.Rows) (PointEvent, error) {
	e, err := scanInto(rows)
	if err != nil {
		return PointEvent{}, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}

// scanEventRow wraps with %w, so callers can still match sql.ErrNoRows.
func scanEventRow(row *sql.Row) (PointEvent, error) {
	e, err := scanInto(row)
	if err != nil {
		return PointEvent{}, fmt.Errorf("scan event: %w", err)
	}
	return e, nil
}

func scanInto(s scanner) (PointEvent, error) {
	var (
		e         PointEvent
		ts        int64
		serveType string
		team      string
		synced    int64
	)
	if err := s.Scan(&e.ID, &e.MatchID, &ts, &e.ServerPlayerID, &serveType, &team, &synced); err != nil {
		return PointEvent{}, err
	}
	e.Timestamp = store.FromMillis(ts)
	e.ServeType = ServeType(serveType)
	e.PointWinnerTeam = scoring.Team(team)
	e.Synced = store.Bool(synced)
	return e, nil
}
