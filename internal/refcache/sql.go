package refcache

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/store"
)

// SQLCache keeps reference data in the local SQLite store.
type SQLCache struct {
	st *store.Store
	settings
}

var _ Cache = (*SQLCache)(nil)

func NewSQLCache(st *store.Store, opts ...Option) *SQLCache {
	return &SQLCache{st: st, settings: defaultSettings(opts)}
}

func (c *SQLCache) ReplacePlayers(ctx context.Context, players []Player) error {
	if err := validatePlayers(players); err != nil {
		return fmt.Errorf("replace players: %w", err)
	}
	err := c.st.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM players`); err != nil {
			return fmt.Errorf("clear players: %w", err)
		}
		for _, p := range players {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO players (id, name, active) VALUES (?, ?, ?)`,
				p.ID, cleanName(p.Name), store.Flag(p.Active),
			); err != nil {
				return fmt.Errorf("insert player %s: %w", p.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace players: %w", err)
	}
	return nil
}

func (c *SQLCache) Players(ctx context.Context) ([]Player, error) {
	rows, err := c.st.DB().QueryContext(ctx, `SELECT id, name, active FROM players ORDER BY name, id`)
	if err != nil {
		return degraded[Player](c.logger, "players", fmt.Errorf("query players: %w", err))
	}
	defer rows.Close()

	players := []Player{}
	for rows.Next() {
		var (
			p      Player
			active int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &active); err != nil {
			return degraded[Player](c.logger, "players", fmt.Errorf("scan player: %w", err))
		}
		p.Active = store.Bool(active)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return degraded[Player](c.logger, "players", fmt.Errorf("iterate players: %w", err))
	}
	return players, nil
}

func (c *SQLCache) ReplaceVenues(ctx context.Context, venues []Venue) error {
	if err := validateVenues(venues); err != nil {
		return fmt.Errorf("replace venues: %w", err)
	}
	err := c.st.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM venues`); err != nil {
			return fmt.Errorf("clear venues: %w", err)
		}
		for _, v := range venues {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO venues (id, name, surface, active) VALUES (?, ?, ?, ?)`,
				v.ID, cleanName(v.Name), v.Surface, store.Flag(v.Active),
			); err != nil {
				return fmt.Errorf("insert venue %s: %w", v.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace venues: %w", err)
	}
	return nil
}

func (c *SQLCache) Venues(ctx context.Context) ([]Venue, error) {
	rows, err := c.st.DB().QueryContext(ctx, `SELECT id, name, surface, active FROM venues ORDER BY name, id`)
	if err != nil {
		return degraded[Venue](c.logger, "venues", fmt.Errorf("query venues: %w", err))
	}
	defer rows.Close()

	venues := []Venue{}
	for rows.Next() {
		var (
			v      Venue
			active int64
		)
		if err := rows.Scan(&v.ID, &v.Name, &v.Surface, &active); err != nil {
			return degraded[Venue](c.logger, "venues", fmt.Errorf("scan venue: %w", err))
		}
		v.Active = store.Bool(active)
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return degraded[Venue](c.logger, "venues", fmt.Errorf("iterate venues: %w", err))
	}
	return venues, nil
}

func (c *SQLCache) AddTempPlayer(ctx context.Context, venueID, name string) (TempPlayer, error) {
	p, err := newTempPlayer(c.settings, uuid.NewString(), venueID, name)
	if err != nil {
		return TempPlayer{}, err
	}
	_, err = c.st.DB().ExecContext(ctx, `
		INSERT INTO temp_players (id, name, venue_id, created_at, expires_at, active)
		VALUES (?, ?, ?, ?, ?, 1)
	`, p.ID, p.Name, p.VenueID, store.Millis(p.CreatedAt), store.Millis(p.ExpiresAt))
	if err != nil {
		return TempPlayer{}, fmt.Errorf("add temp player: %w", err)
	}
	return p, nil
}

// TempPlayers returns the active, unexpired temporary players for venueID
// in creation order.
func (c *SQLCache) TempPlayers(ctx context.Context, venueID string) ([]TempPlayer, error) {
	rows, err := c.st.DB().QueryContext(ctx, `
		SELECT id, name, venue_id, created_at, expires_at, active
		FROM temp_players
		WHERE venue_id = ? AND active = 1 AND expires_at > ?
		ORDER BY created_at ASC, id ASC
	`, venueID, store.Millis(c.clock()))
	if err != nil {
		return degraded[TempPlayer](c.logger, "temp_players", fmt.Errorf("query temp players: %w", err))
	}
	defer rows.Close()

	players := []TempPlayer{}
	for rows.Next() {
		var (
			p                        TempPlayer
			created, expires, active int64
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.VenueID, &created, &expires, &active); err != nil {
			return degraded[TempPlayer](c.logger, "temp_players", fmt.Errorf("scan temp player: %w", err))
		}
		p.CreatedAt = store.FromMillis(created)
		p.ExpiresAt = store.FromMillis(expires)
		p.Active = store.Bool(active)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return degraded[TempPlayer](c.logger, "temp_players", fmt.Errorf("iterate temp players: %w", err))
	}
	return players, nil
}

func (c *SQLCache) DeactivateTempPlayer(ctx context.Context, id string) error {
	res, err := c.st.DB().ExecContext(ctx, `UPDATE temp_players SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate temp player %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate temp player %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("deactivate temp player %s: %w", id, ErrNotFound)
	}
	return nil
}

// CleanupExpiredTempPlayers deletes temporary players past their expiry.
func (c *SQLCache) CleanupExpiredTempPlayers(ctx context.Context) (int, error) {
	res, err := c.st.DB().ExecContext(ctx,
		`DELETE FROM temp_players WHERE expires_at <= ?`, store.Millis(c.clock()))
	if err != nil {
		return 0, fmt.Errorf("cleanup temp players: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup temp players: %w", err)
	}
	return int(n), nil
}
