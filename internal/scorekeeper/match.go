// Package scorekeeper runs a match: each point is scored through the engine,
// appended to the event log, and written back as the match snapshot.
//
// The event log is the source of truth. The snapshot is derived state kept
// for fast resume, and can always be rebuilt by replaying the log.
package scorekeeper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

var (
	ErrMatchNotFound = errors.New("match not found")

	// ErrMatchCompleted is returned when a point is recorded against a
	// match that already has a winner.
	ErrMatchCompleted = errors.New("match already completed")

	// ErrMatchNotComplete is returned by Complete before the engine has
	// declared a winner.
	ErrMatchNotComplete = errors.New("match is not complete")

	// ErrUnsyncedEvents is returned by Complete when events could not all be
	// delivered, so the local record must be kept.
	ErrUnsyncedEvents = errors.New("match has unsynced events")

	ErrInvalidMatch = errors.New("invalid match")
	ErrInvalidPoint = errors.New("invalid point")
)

// MatchType is the roster shape.
type MatchType string

const (
	MatchTypeSingles MatchType = "singles"
	MatchTypeDoubles MatchType = "doubles"
	// MatchTypeOneVsTwo is one player against a pair.
	MatchTypeOneVsTwo MatchType = "1v2"
)

// NewMatch describes a match to start.
type NewMatch struct {
	// ID is the remote-assigned match id. Empty generates a local one.
	ID string

	// Venue is anything matchstore.NormalizeVenue accepts.
	Venue     any
	MatchType MatchType
	Mode      scoring.Mode
	TeamA     []string
	TeamB     []string

	// Servers overrides the short-format rotation. Ignored in standard mode.
	Servers []string
}

func (n NewMatch) validate() error {
	if !n.Mode.Valid() {
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidMatch, n.Mode)
	}

	a, b := len(n.TeamA), len(n.TeamB)
	switch n.MatchType {
	case MatchTypeSingles:
		if a != 1 || b != 1 {
			return fmt.Errorf("%w: singles needs one player per team, got %d and %d", ErrInvalidMatch, a, b)
		}
	case MatchTypeDoubles:
		if a != 2 || b != 2 {
			return fmt.Errorf("%w: doubles needs two players per team, got %d and %d", ErrInvalidMatch, a, b)
		}
	case MatchTypeOneVsTwo:
		if !(a == 1 && b == 2) && !(a == 2 && b == 1) {
			return fmt.Errorf("%w: 1v2 needs one player against two, got %d and %d", ErrInvalidMatch, a, b)
		}
	default:
		return fmt.Errorf("%w: match type must be singles, doubles, or 1v2", ErrInvalidMatch)
	}

	seen := make(map[string]bool, a+b)
	for _, id := range append(append([]string(nil), n.TeamA...), n.TeamB...) {
		id = strings.TrimSpace(id)
		if id == "" {
			return fmt.Errorf("%w: empty player id", ErrInvalidMatch)
		}
		if seen[id] {
			return fmt.Errorf("%w: player %s is listed twice", ErrInvalidMatch, id)
		}
		seen[id] = true
	}
	return nil
}

// servers returns the rotation for a short-format match: the sides
// alternate, starting with team A, cycling through each side's players.
func (n NewMatch) servers() []string {
	if n.Mode != scoring.ModeShort {
		return nil
	}
	if len(n.Servers) > 0 {
		return n.Servers
	}
	rotation := make([]string, 0, scoring.ShortFormatServers)
	var ai, bi int
	for len(rotation) < scoring.ShortFormatServers {
		if len(rotation)%2 == 0 {
			rotation = append(rotation, n.TeamA[ai%len(n.TeamA)])
			ai++
		} else {
			rotation = append(rotation, n.TeamB[bi%len(n.TeamB)])
			bi++
		}
	}
	return rotation
}

// Point is one rally outcome as entered by the scorer.
type Point struct {
	Team scoring.Team
	// ServerPlayerID defaults to the record's current server.
	ServerPlayerID string
	ServeType      string
}

// Verification compares a stored snapshot with the state replayed from the
// event log.
type Verification struct {
	MatchID        string             `json:"match_id"`
	Events         int                `json:"events"`
	Snapshot       scoring.MatchState `json:"snapshot"`
	Replayed       scoring.MatchState `json:"replayed"`
	SnapshotDigest string             `json:"snapshot_digest"`
	ReplayedDigest string             `json:"replayed_digest"`
	Consistent     bool               `json:"consistent"`

	// Problem describes a log that cannot be replayed cleanly, such as a
	// point after completion.
	Problem string `json:"problem,omitempty"`

	Reconciled bool `json:"reconciled,omitempty"`
}
