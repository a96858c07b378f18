// Package refcache holds the device-local copies of reference data: the
// player and venue lists fetched from the remote authority, and temporary
// players that exist only on this device.
//
// Player and venue lists are replaced wholesale on refresh. Temporary
// players are scoped to a venue and expire a fixed window after creation;
// they are never promoted to permanent players.
package refcache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
)

// TempPlayerTTL is how long a temporary player stays usable.
const TempPlayerTTL = 24 * time.Hour

// ErrNotFound is returned when a temporary player does not exist.
var ErrNotFound = errors.New("temp player not found")

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type Venue struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surface string `json:"surface,omitempty"`
	Active  bool   `json:"active"`
}

type TempPlayer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	VenueID   string    `json:"venue_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

// Usable reports whether p is active and not yet expired at now.
func (p TempPlayer) Usable(now time.Time) bool {
	return p.Active && now.Before(p.ExpiresAt)
}

// Cache is implemented by every backend.
//
// Read methods never return a nil slice. When storage cannot be read they
// return an empty slice together with the error, and the failure is logged.
type Cache interface {
	ReplacePlayers(ctx context.Context, players []Player) error
	Players(ctx context.Context) ([]Player, error)
	ReplaceVenues(ctx context.Context, venues []Venue) error
	Venues(ctx context.Context) ([]Venue, error)

	AddTempPlayer(ctx context.Context, venueID, name string) (TempPlayer, error)
	TempPlayers(ctx context.Context, venueID string) ([]TempPlayer, error)
	DeactivateTempPlayer(ctx context.Context, id string) error
	CleanupExpiredTempPlayers(ctx context.Context) (int, error)
}

// Option configures a backend.
type Option func(*settings)

type settings struct {
	now    func() time.Time
	ttl    time.Duration
	logger *zap.Logger
}

func defaultSettings(opts []Option) settings {
	s := settings{now: time.Now, ttl: TempPlayerTTL, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s settings) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// WithClock sets the clock used for creation and expiry times.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// WithTempPlayerTTL overrides TempPlayerTTL.
func WithTempPlayerTTL(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.ttl = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = obslog.OrNop(l) }
}

func cleanName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func newTempPlayer(s settings, id, venueID, name string) (TempPlayer, error) {
	venueID = strings.TrimSpace(venueID)
	name = cleanName(name)
	if venueID == "" {
		return TempPlayer{}, errors.New("add temp player: venue id is required")
	}
	if name == "" {
		return TempPlayer{}, errors.New("add temp player: name is required")
	}
	created := s.clock()
	return TempPlayer{
		ID:        id,
		Name:      name,
		VenueID:   venueID,
		CreatedAt: created,
		ExpiresAt: created.Add(s.ttl),
		Active:    true,
	}, nil
}

func validatePlayers(players []Player) error {
	for i, p := range players {
		if strings.TrimSpace(p.ID) == "" {
			return fmt.Errorf("player %d: id is required", i)
		}
	}
	return nil
}

func validateVenues(venues []Venue) error {
	for i, v := range venues {
		if strings.TrimSpace(v.ID) == "" {
			return fmt.Errorf("venue %d: id is required", i)
		}
	}
	return nil
}

func sortPlayers(ps []Player) {
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].Name != ps[j].Name {
			return ps[i].Name < ps[j].Name
		}
		return ps[i].ID < ps[j].ID
	})
}

func sortVenues(vs []Venue) {
	sort.Slice(vs, func(i, j int) bool {
		if vs[i].Name != vs[j].Name {
			return vs[i].Name < vs[j].Name
		}
		return vs[i].ID < vs[j].ID
	})
}

func sortTempPlayers(ps []TempPlayer) {
	sort.Slice(ps, func(i, j int) bool {
		if !ps[i].CreatedAt.Equal(ps[j].CreatedAt) {
			return ps[i].CreatedAt.Before(ps[j].CreatedAt)
		}
		return ps[i].ID < ps[j].ID
	})
}

func degraded[T any](logger *zap.Logger, what string, err error) ([]T, error) {
	logger.Warn("reference cache read degraded to empty result",
		zap.String("list", what), zap.Error(err))
	return []T{}, err
}
