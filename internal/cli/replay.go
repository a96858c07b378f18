package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scorekeeper"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*AppOptions
	All       bool
	Reconcile bool
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Matches       []scorekeeper.Verification `json:"matches"`
	TotalMatches  int                        `json:"total_matches"`
	AllConsistent bool                       `json:"all_consistent"`
	Reconciled    int                        `json:"reconciled"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay [match-id]",
		Short: "Replay the event log and verify the stored scoreboard",
		Long: `Replay each match's event log from the opening state and compare the result
with the stored snapshot. With --reconcile a diverged snapshot is replaced by
the replayed state; the event log is never changed.

Exit codes:
  0 - Every snapshot matches its log (or was reconciled)
  1 - At least one snapshot diverged
  2 - Command error (unknown match, database not found, etc.)

Examples:
  ots replay 6f1c...
  ots replay --all --reconcile
  ots replay --all --format json`,
		Args: cobra.MaximumNArgs(1),
	}
	opts := &ReplayOptions{AppOptions: newAppOptions(rootOpts, cmd)}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if opts.All == (len(args) == 1) {
			return NewExitError(ExitCommandError, "give a match id or --all")
		}
		return withApp(cmd, opts.AppOptions, func(ctx context.Context, a *app) error {
			return runReplay(ctx, cmd, opts, a, args)
		})
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "verify every match on the device")
	cmd.Flags().BoolVar(&opts.Reconcile, "reconcile", false, "replace diverged snapshots with the replayed state")
	return cmd
}

func runReplay(ctx context.Context, cmd *cobra.Command, opts *ReplayOptions, a *app, args []string) error {
	out := newFormatter(cmd, opts.RootOptions)

	ids := args
	if opts.All {
		listing := a.matches.GetAll(ctx)
		if listing.Degraded() {
			return WrapExitError(ExitCommandError, "failed to list matches", listing.Err)
		}
		ids = make([]string, 0, len(listing.Records))
		for _, rec := range listing.Records {
			ids = append(ids, rec.MatchID)
		}
	}

	result := ReplayResult{
		Matches:       make([]scorekeeper.Verification, 0, len(ids)),
		TotalMatches:  len(ids),
		AllConsistent: true,
	}
	for _, id := range ids {
		verify := a.keeper.Verify
		if opts.Reconcile {
			verify = a.keeper.Reconcile
		}
		v, err := verify(ctx, id)
		if err != nil {
			return classify(fmt.Sprintf("failed to replay %s", id), err)
		}
		out.VerboseLog("%s: %d events, snapshot %s, replayed %s", id, v.Events, v.SnapshotDigest, v.ReplayedDigest)

		if v.Reconciled {
			result.Reconciled++
		} else if !v.Consistent {
			result.AllConsistent = false
		}
		result.Matches = append(result.Matches, v)
	}

	text := func(w io.Writer) { printReplay(w, result) }
	if !result.AllConsistent {
		return out.Fail(ExitFailure, "E_DIVERGED", "snapshot diverged from event log", result, text)
	}
	return out.Render(result, text)
}

func printReplay(w io.Writer, r ReplayResult) {
	if r.TotalMatches == 0 {
		fmt.Fprintln(w, "No matches found in database.")
		return
	}

	fmt.Fprintf(w, "Replay Summary: %d match(es)\n\n", r.TotalMatches)
	for _, v := range r.Matches {
		status := "✓"
		switch {
		case v.Reconciled:
			status = "↻"
		case !v.Consistent:
			status = "✗"
		}
		fmt.Fprintf(w, "%s Match: %s (%d events)\n", status, v.MatchID, v.Events)
		if !v.Consistent {
			fmt.Fprintf(w, "  Snapshot: %s\n", scoreLine(v.Snapshot))
			fmt.Fprintf(w, "  Replayed: %s\n", scoreLine(v.Replayed))
		}
		if v.Problem != "" {
			fmt.Fprintf(w, "  Problem: %s\n", v.Problem)
		}
		if v.Reconciled {
			fmt.Fprintln(w, "  Snapshot replaced with replayed state")
		}
	}
	fmt.Fprintln(w)

	if r.AllConsistent {
		fmt.Fprintln(w, "✓ All snapshots match their event logs")
		return
	}
	fmt.Fprintln(w, "✗ Snapshot verification failed")
}
