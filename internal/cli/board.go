package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/harness"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/matchstore"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// MatchView is the JSON shape of one match in command output.
type MatchView struct {
	Match    *matchstore.Record `json:"match"`
	Board    scoring.Board      `json:"board"`
	Events   int                `json:"events"`
	Unsynced int                `json:"unsynced"`
}

func (a *app) view(ctx context.Context, rec *matchstore.Record) MatchView {
	total, unsynced, err := a.events.Counts(ctx, rec.MatchID)
	if err != nil {
		a.logger.Sugar().Warnw("event counts unavailable", "match_id", rec.MatchID, "error", err)
	}
	return MatchView{
		Match:    rec,
		Board:    scoring.Scoreboard(rec.Score),
		Events:   total,
		Unsynced: unsynced,
	}
}

func printMatch(w io.Writer, v MatchView) {
	rec, b := v.Match, v.Board

	fmt.Fprintf(w, "Match %s (%s, %s)", rec.MatchID, rec.MatchType, rec.Mode)
	if rec.Venue.Name != "" {
		fmt.Fprintf(w, " at %s", rec.Venue.Name)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Team A: %s\n", strings.Join(rec.TeamA, ", "))
	fmt.Fprintf(w, "  Team B: %s\n", strings.Join(rec.TeamB, ", "))
	fmt.Fprintf(w, "  %s\n", scoreLine(rec.Score))

	switch {
	case b.Completed:
		fmt.Fprintf(w, "  Winner: Team %s\n", b.Winner)
	case b.TieBreak:
		fmt.Fprintln(w, "  Tie-break")
	}
	if !b.Completed && rec.CurrentServer != "" {
		fmt.Fprintf(w, "  Server: %s\n", rec.CurrentServer)
	}
	fmt.Fprintf(w, "  Events: %d (%d unsynced)\n", v.Events, v.Unsynced)
}

func scoreLine(s scoring.MatchState) string {
	b := scoring.Scoreboard(s)
	if b.Sets == nil {
		return fmt.Sprintf("Game %d of %d  Games %d-%d  Points %s",
			b.GameNumber, b.TotalGames, b.Games.A, b.Games.B, harness.DisplayPoints(s))
	}
	return fmt.Sprintf("Set %d  Sets %d-%d  Games %d-%d  Points %s",
		b.CurrentSet, b.Sets.A, b.Sets.B, b.Games.A, b.Games.B, harness.DisplayPoints(s))
}

func printMatchList(w io.Writer, records []matchstore.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No matches in progress.")
		return
	}
	fmt.Fprintf(w, "%-38s %-8s %-8s %-10s %s\n", "ID", "MODE", "TYPE", "STATUS", "UPDATED")
	for _, rec := range records {
		status := "playing"
		if rec.Completed {
			status = "won by " + string(rec.Score.Winner)
		}
		fmt.Fprintf(w, "%-38s %-8s %-8s %-10s %s\n",
			rec.MatchID, rec.Mode, rec.MatchType, status, rec.LastTouched().Local().Format(time.DateTime))
	}
}
