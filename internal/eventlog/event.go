// Package eventlog is the append-only, per-match log of point events.
//
// Every event is stored unsynced. The only mutations are flipping the synced
// flag, removing the chronologically last event of a match (undo), and
// deleting a match's events wholesale. Chronology is the event timestamp;
// events sharing a timestamp fall back to insertion order.
package eventlog

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// ServeType records how the point's serve went in.
type ServeType string

const (
	ServeFirst       ServeType = "first"
	ServeSecond      ServeType = "second"
	ServeDoubleFault ServeType = "double_fault"
)

// Valid reports whether s is a known serve type.
func (s ServeType) Valid() bool {
	switch s {
	case ServeFirst, ServeSecond, ServeDoubleFault:
		return true
	}
	return false
}

// ParseServeType converts a serve type string.
func ParseServeType(s string) (ServeType, error) {
	st := ServeType(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown serve type %q: must be first, second or double_fault", s)
	}
	return st, nil
}

// PointEvent is one point won, as recorded on the device.
type PointEvent struct {
	ID              string       `json:"id"`
	MatchID         string       `json:"match_id"`
	Timestamp       time.Time    `json:"timestamp"`
	ServerPlayerID  string       `json:"server_player_id"`
	ServeType       ServeType    `json:"serve_type"`
	PointWinnerTeam scoring.Team `json:"point_winner_team"`
	Synced          bool         `json:"synced"`
}

// Validate checks the fields required to store an event.
func (e PointEvent) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return errors.New("event id is required")
	case strings.TrimSpace(e.MatchID) == "":
		return errors.New("match id is required")
	case e.Timestamp.IsZero():
		return errors.New("timestamp is required")
	case !e.PointWinnerTeam.Valid():
		return fmt.Errorf("unknown point winner team %q", e.PointWinnerTeam)
	case !e.ServeType.Valid():
		return fmt.Errorf("unknown serve type %q", e.ServeType)
	}
	return nil
}

// Winners extracts the point winners in the order given.
func Winners(events []PointEvent) []scoring.Team {
	out := make([]scoring.Team, len(events))
	for i, e := range events {
		out[i] = e.PointWinnerTeam
	}
	return out
}

// IDs extracts the event ids in the order given.
func IDs(events []PointEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.ID
	}
	return out
}

// ErrNotFound is returned by UndoLast when the match has no events.
var ErrNotFound = errors.New("no events recorded for match")
