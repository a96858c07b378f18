// Package matchstore persists per-match snapshots of scoring state together
// with the match metadata needed to resume an interrupted match.
//
// Any number of incomplete matches may be stored at once. Records expire a
// fixed retention window after they were created, regardless of later
// updates; expiry removes the match's events too. Every save of an
// identifiable match is mirrored into the legacy single-slot current_match
// table for readers that only know about one match at a time.
//
// List reads never fail outright. GetAll returns a Listing whose Err field
// is set, and logged, when storage could not be read.
package matchstore

import (
	"time"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// DefaultRetention is how long a record survives after creation.
const DefaultRetention = 24 * time.Hour

// Venue is the normalized venue reference carried by a record.
type Venue struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// EventRef is the record's embedded mirror of one point event.
type EventRef struct {
	ID        string       `json:"id"`
	Team      scoring.Team `json:"team"`
	ServeType string       `json:"serve_type"`
	Timestamp time.Time    `json:"timestamp"`
}

// Record is a persisted match snapshot.
type Record struct {
	MatchID       string             `json:"match_id"`
	Venue         Venue              `json:"venue"`
	MatchType     string             `json:"match_type"`
	Mode          scoring.Mode       `json:"mode"`
	TeamA         []string           `json:"team_a"`
	TeamB         []string           `json:"team_b"`
	Score         scoring.MatchState `json:"score"`
	Events        []EventRef         `json:"events"`
	CurrentServer string             `json:"current_server,omitempty"`
	ServerTeam    scoring.Team       `json:"server_team,omitempty"`
	Completed     bool               `json:"completed"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// LastTouched is UpdatedAt, or CreatedAt for a record never updated.
func (r Record) LastTouched() time.Time {
	if r.UpdatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

// Patch carries the fields Save should change. Nil fields are left as they
// are; on a new record they take their zero value.
type Patch struct {
	// Venue accepts a Venue, *Venue, a bare name string, or a map using any
	// of the id/name, venue_id/venue_name or venueId/venueName key pairs.
	Venue any

	MatchType     *string
	Mode          *scoring.Mode
	TeamA         []string
	TeamB         []string
	Score         *scoring.MatchState
	Events        *[]EventRef
	CurrentServer *string
	ServerTeam    *scoring.Team

	// Completed defaults to Score.Completed when Score is set.
	Completed *bool
}

// Listing is the result of a list read. When storage fails, Records is empty
// and Err holds the cause.
type Listing struct {
	Records []Record
	Err     error
}

// Degraded reports whether the listing fell back to the empty default.
func (l Listing) Degraded() bool {
	return l.Err != nil
}
