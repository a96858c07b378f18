package harness

import (
	"fmt"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// TraceEvent is the scoreboard after one point.
type TraceEvent struct {
	Seq  int          `json:"seq"`
	Team scoring.Team `json:"team"`

	// Ignored marks a point played after the match was already over.
	Ignored bool `json:"ignored,omitempty"`

	Points string `json:"points"`
	Games  string `json:"games"`
	Sets   string `json:"sets,omitempty"`

	// Server is who serves the next point. Set for short format only.
	Server string       `json:"server,omitempty"`
	Winner scoring.Team `json:"winner,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expectation held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	// Final is the state after the last point.
	Final scoring.MatchState `json:"final"`

	// Ignored counts points played after completion.
	Ignored int `json:"ignored"`

	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failed expectation.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddPoint appends the trace event for a point won by team that produced
// state.
func (r *Result) AddPoint(team scoring.Team, ignored bool, state scoring.MatchState) {
	event := TraceEvent{
		Seq:     len(r.Trace) + 1,
		Team:    team,
		Ignored: ignored,
		Points:  DisplayPoints(state),
		Games:   fmt.Sprintf("%d-%d", state.GamesA, state.GamesB),
		Winner:  state.Winner,
	}
	if state.Mode == scoring.ModeStandard {
		event.Sets = fmt.Sprintf("%d-%d", state.SetsA, state.SetsB)
	}
	if !state.Completed {
		event.Server = scoring.CurrentServer(state)
	}
	if ignored {
		r.Ignored++
	}
	r.Trace = append(r.Trace, event)
}

// DisplayPoints renders the current game score the way a scoreboard reads
// it: "30-15", "Deuce", "Ad-40".
func DisplayPoints(state scoring.MatchState) string {
	a, b := scoring.GameDisplay(state.CurrentGame.PointsA, state.CurrentGame.PointsB)
	if a == "Deuce" {
		return a
	}
	return a + "-" + b
}
