package refcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisCache keeps reference data in Redis. Temporary players are stored
// one key each with a native TTL and indexed by venue.
type RedisCache struct {
	rdb *redis.Client
	settings
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(rdb *redis.Client, opts ...Option) *RedisCache {
	return &RedisCache{rdb: rdb, settings: defaultSettings(opts)}
}

// NewRedisCacheFromURL connects to a redis:// URL.
func NewRedisCacheFromURL(url string, opts ...Option) (*RedisCache, error) {
	ropts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewRedisCache(redis.NewClient(ropts), opts...), nil
}

func (c *RedisCache) Close() error { return c.rdb.Close() }

func (c *RedisCache) keyPlayers() string           { return "ots:players" }
func (c *RedisCache) keyVenues() string            { return "ots:venues" }
func (c *RedisCache) keyTemp(id string) string     { return "ots:temp:" + strings.TrimSpace(id) }
func (c *RedisCache) keyTempVenue(v string) string { return "ots:temp:venue:" + strings.TrimSpace(v) }
func (c *RedisCache) keyTempVenues() string        { return "ots:temp:venues" }

func (c *RedisCache) ReplacePlayers(ctx context.Context, players []Player) error {
	if err := validatePlayers(players); err != nil {
		return fmt.Errorf("replace players: %w", err)
	}
	fields := make([]any, 0, 2*len(players))
	for _, p := range players {
		p.Name = cleanName(p.Name)
		raw, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("replace players: %w", err)
		}
		fields = append(fields, p.ID, raw)
	}
	if err := c.replaceHash(ctx, c.keyPlayers(), fields); err != nil {
		return fmt.Errorf("replace players: %w", err)
	}
	return nil
}

func (c *RedisCache) Players(ctx context.Context) ([]Player, error) {
	entries, err := c.rdb.HGetAll(ctx, c.keyPlayers()).Result()
	if err != nil {
		return degraded[Player](c.logger, "players", fmt.Errorf("read players: %w", err))
	}
	players := make([]Player, 0, len(entries))
	for id, raw := range entries {
		var p Player
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return degraded[Player](c.logger, "players", fmt.Errorf("decode player %s: %w", id, err))
		}
		players = append(players, p)
	}
	sortPlayers(players)
	return players, nil
}

func (c *RedisCache) ReplaceVenues(ctx context.Context, venues []Venue) error {
	if err := validateVenues(venues); err != nil {
		return fmt.Errorf("replace venues: %w", err)
	}
	fields := make([]any, 0, 2*len(venues))
	for _, v := range venues {
		v.Name = cleanName(v.Name)
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("replace venues: %w", err)
		}
		fields = append(fields, v.ID, raw)
	}
	if err := c.replaceHash(ctx, c.keyVenues(), fields); err != nil {
		return fmt.Errorf("replace venues: %w", err)
	}
	return nil
}

func (c *RedisCache) Venues(ctx context.Context) ([]Venue, error) {
	entries, err := c.rdb.HGetAll(ctx, c.keyVenues()).Result()
	if err != nil {
		return degraded[Venue](c.logger, "venues", fmt.Errorf("read venues: %w", err))
	}
	venues := make([]Venue, 0, len(entries))
	for id, raw := range entries {
		var v Venue
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return degraded[Venue](c.logger, "venues", fmt.Errorf("decode venue %s: %w", id, err))
		}
		venues = append(venues, v)
	}
	sortVenues(venues)
	return venues, nil
}

// replaceHash clears key and writes fields in one MULTI/EXEC.
func (c *RedisCache) replaceHash(ctx context.Context, key string, fields []any) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, fields...)
		}
		return nil
	})
	return err
}

func (c *RedisCache) AddTempPlayer(ctx context.Context, venueID, name string) (TempPlayer, error) {
	p, err := newTempPlayer(c.settings, uuid.NewString(), venueID, name)
	if err != nil {
		return TempPlayer{}, err
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return TempPlayer{}, fmt.Errorf("add temp player: %w", err)
	}
	_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.keyTemp(p.ID), raw, c.ttl)
		pipe.SAdd(ctx, c.keyTempVenue(p.VenueID), p.ID)
		pipe.SAdd(ctx, c.keyTempVenues(), p.VenueID)
		return nil
	})
	if err != nil {
		return TempPlayer{}, fmt.Errorf("add temp player: %w", err)
	}
	return p, nil
}

// TempPlayers returns the active, unexpired temporary players for venueID
// in creation order. Index entries whose key has already expired are
// pruned on the way.
func (c *RedisCache) TempPlayers(ctx context.Context, venueID string) ([]TempPlayer, error) {
	all, stale, err := c.loadVenue(ctx, venueID)
	if err != nil {
		return degraded[TempPlayer](c.logger, "temp_players", err)
	}
	if len(stale) > 0 {
		c.prune(ctx, venueID, stale)
	}

	now := c.clock()
	players := []TempPlayer{}
	for _, p := range all {
		if p.Usable(now) {
			players = append(players, p)
		}
	}
	sortTempPlayers(players)
	return players, nil
}

// loadVenue returns the stored players indexed under venueID and the ids
// whose key no longer exists.
func (c *RedisCache) loadVenue(ctx context.Context, venueID string) ([]TempPlayer, []string, error) {
	ids, err := c.rdb.SMembers(ctx, c.keyTempVenue(venueID)).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("read temp player index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.keyTemp(id)
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("read temp players: %w", err)
	}

	var (
		players []TempPlayer
		stale   []string
	)
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var p TempPlayer
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, nil, fmt.Errorf("decode temp player %s: %w", ids[i], err)
		}
		players = append(players, p)
	}
	return players, stale, nil
}

func (c *RedisCache) prune(ctx context.Context, venueID string, ids []string) {
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	if err := c.rdb.SRem(ctx, c.keyTempVenue(venueID), members...).Err(); err != nil {
		c.logger.Warn("prune temp player index failed", zap.String("venue_id", venueID), zap.Error(err))
	}
}

func (c *RedisCache) DeactivateTempPlayer(ctx context.Context, id string) error {
	raw, err := c.rdb.Get(ctx, c.keyTemp(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("deactivate temp player %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("deactivate temp player %s: %w", id, err)
	}

	var p TempPlayer
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("deactivate temp player %s: %w", id, err)
	}
	p.Active = false

	ttl := p.ExpiresAt.Sub(c.clock())
	if ttl <= 0 {
		if err := c.rdb.Del(ctx, c.keyTemp(id)).Err(); err != nil {
			return fmt.Errorf("deactivate temp player %s: %w", id, err)
		}
		return nil
	}
	updated, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("deactivate temp player %s: %w", id, err)
	}
	if err := c.rdb.Set(ctx, c.keyTemp(id), updated, ttl).Err(); err != nil {
		return fmt.Errorf("deactivate temp player %s: %w", id, err)
	}
	return nil
}

// CleanupExpiredTempPlayers removes expired players and index entries left
// behind by keys Redis has already expired. Returns the number of player
// keys deleted; pruned index entries are not counted.
func (c *RedisCache) CleanupExpiredTempPlayers(ctx context.Context) (int, error) {
	venues, err := c.rdb.SMembers(ctx, c.keyTempVenues()).Result()
	if err != nil {
		return 0, fmt.Errorf("cleanup temp players: %w", err)
	}

	now := c.clock()
	removed := 0
	for _, venueID := range venues {
		all, stale, err := c.loadVenue(ctx, venueID)
		if err != nil {
			return removed, fmt.Errorf("cleanup temp players for %s: %w", venueID, err)
		}

		expired := append([]string(nil), stale...)
		live := 0
		for _, p := range all {
			if now.Before(p.ExpiresAt) {
				live++
				continue
			}
			expired = append(expired, p.ID)
		}
		if len(expired) == 0 {
			continue
		}

		dels := make([]*redis.IntCmd, 0, len(expired))
		_, err = c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, id := range expired {
				dels = append(dels, pipe.Del(ctx, c.keyTemp(id)))
				pipe.SRem(ctx, c.keyTempVenue(venueID), id)
			}
			if live == 0 {
				pipe.SRem(ctx, c.keyTempVenues(), venueID)
			}
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("cleanup temp players for %s: %w", venueID, err)
		}
		for _, d := range dels {
			removed += int(d.Val())
		}
	}
	return removed, nil
}
