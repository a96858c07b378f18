package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/syncer"
)

// SyncReport is the JSON shape of a sync run.
type SyncReport struct {
	Results  []syncer.Result   `json:"results"`
	Failures map[string]string `json:"failures,omitempty"`
}

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sync [match-id]",
		Short: "Push unsynced point events to the remote",
		Long: `Push unsynced point events to the remote authority in batches of at most
1000. Events are marked synced only after the remote confirms their batch,
so an interrupted sync resumes where it stopped.

Exit codes:
  0 - Everything pending was confirmed
  1 - At least one match failed to sync
  2 - Command error (no remote configured, bad arguments, etc.)

Examples:
  ots sync 6f1c...
  ots sync --all`,
		Args: cobra.MaximumNArgs(1),
	}
	opts := newAppOptions(rootOpts, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if all == (len(args) == 1) {
			return NewExitError(ExitCommandError, "give a match id or --all")
		}
		return withApp(cmd, opts, func(ctx context.Context, a *app) error {
			if err := a.requireRemote(); err != nil {
				return err
			}
			out := newFormatter(cmd, opts.RootOptions)

			if !all {
				res, err := a.syncer.Sync(ctx, args[0])
				report := SyncReport{Results: []syncer.Result{res}}
				if err != nil {
					report.Failures = map[string]string{args[0]: err.Error()}
					_ = out.Fail(ExitFailure, "E_SYNC", err.Error(), report, func(w io.Writer) { printSync(w, report) })
					return syncFailure(res, err)
				}
				return out.Render(report, func(w io.Writer) { printSync(w, report) })
			}

			summary, err := a.syncer.SyncAll(ctx)
			report := SyncReport{Results: summary.Results}
			if report.Results == nil {
				report.Results = []syncer.Result{}
			}
			if err != nil && len(summary.Failures) == 0 {
				return WrapExitError(ExitFailure, "sync failed", err)
			}
			if err != nil {
				report.Failures = make(map[string]string, len(summary.Failures))
				for id, ferr := range summary.Failures {
					report.Failures[id] = ferr.Error()
				}
				msg := fmt.Sprintf("%d match(es) failed to sync", len(summary.Failures))
				return out.Fail(ExitFailure, "E_SYNC", msg, report, func(w io.Writer) { printSync(w, report) })
			}
			return out.Render(report, func(w io.Writer) { printSync(w, report) })
		})
	}

	cmd.Flags().BoolVar(&all, "all", false, "sync every match with pending events")
	return cmd
}

func printSync(w io.Writer, r SyncReport) {
	if len(r.Results) == 0 && len(r.Failures) == 0 {
		fmt.Fprintln(w, "Nothing to sync.")
		return
	}
	for _, res := range r.Results {
		if _, failed := r.Failures[res.MatchID]; failed {
			continue
		}
		fmt.Fprintf(w, "✓ %s: %d/%d events confirmed in %d batch(es), %d new on remote\n",
			res.MatchID, res.Confirmed, res.Total, res.Batches, res.Inserted)
	}

	ids := make([]string, 0, len(r.Failures))
	for id := range r.Failures {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(w, "✗ %s: %s\n", id, r.Failures[id])
	}
}
