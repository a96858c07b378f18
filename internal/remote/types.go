// Package remote is the client for the authoritative scoring server.
//
// Every response is wrapped in an envelope: {"data": ...} on success and
// {"error": "..."} otherwise. Non-2xx responses surface as *APIError.
package remote

import (
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
)

// MaxEventsPerRequest is the largest batch the server accepts.
const MaxEventsPerRequest = 1000

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote: status %d: %s", e.Status, e.Message)
}

// Temporary reports whether the request may succeed if retried: the
// server is failing or overloaded rather than refusing the request.
func (e *APIError) Temporary() bool {
	switch e.Status {
	case fasthttp.StatusInternalServerError, fasthttp.StatusBadGateway,
		fasthttp.StatusServiceUnavailable, fasthttp.StatusGatewayTimeout:
		return true
	}
	return false
}

// ErrUnreachable wraps failures where no response arrived.
var ErrUnreachable = errors.New("remote unreachable")

type errorEnvelope struct {
	Error string `json:"error"`
}

// EventPayload is the wire form of one point event.
type EventPayload struct {
	ID              string `json:"id"`
	Timestamp       string `json:"timestamp"`
	ServerPlayerID  string `json:"server_player_id"`
	ServeType       string `json:"serve_type"`
	PointWinnerTeam string `json:"point_winner_team"`
}

type eventsRequest struct {
	Events []EventPayload `json:"events"`
}

type eventsResponse struct {
	Inserted int `json:"inserted"`
	Total    int `json:"total"`
}

type CreateMatchRequest struct {
	VenueID   string   `json:"venue_id"`
	MatchType string   `json:"match_type"`
	TeamA     []string `json:"team_a"`
	TeamB     []string `json:"team_b"`
}

type Match struct {
	ID        string     `json:"id"`
	VenueID   string     `json:"venue_id"`
	MatchType string     `json:"match_type"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type Venue struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Surface   string    `json:"surface"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// PlayerStats is one player's serve and point totals for a match.
type PlayerStats struct {
	PlayerID          string `json:"player_id"`
	PlayerName        string `json:"player_name"`
	Team              string `json:"team"`
	FirstServesIn     int    `json:"first_serves_in"`
	FirstServesTotal  int    `json:"first_serves_total"`
	FirstServeWon     int    `json:"first_serve_won"`
	SecondServesIn    int    `json:"second_serves_in"`
	SecondServesTotal int    `json:"second_serves_total"`
	SecondServeWon    int    `json:"second_serve_won"`
	DoubleFaults      int    `json:"double_faults"`
	TotalPointsWon    int    `json:"total_points_won"`
}

type MatchSummary struct {
	MatchID     string        `json:"match_id"`
	Venue       Venue         `json:"venue"`
	MatchType   string        `json:"match_type"`
	StartedAt   time.Time     `json:"started_at"`
	EndedAt     *time.Time    `json:"ended_at,omitempty"`
	TeamAScore  int           `json:"team_a_score"`
	TeamBScore  int           `json:"team_b_score"`
	GamesA      int           `json:"games_a"`
	GamesB      int           `json:"games_b"`
	SetsA       int           `json:"sets_a"`
	SetsB       int           `json:"sets_b"`
	PlayerStats []PlayerStats `json:"player_stats"`
}
