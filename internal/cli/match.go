package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/remote"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scorekeeper"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/syncer"
)

// NewMatchCommand creates the match command group.
func NewMatchCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Start, inspect and close matches",
	}
	opts := newAppOptions(rootOpts, cmd)

	cmd.AddCommand(newMatchStartCommand(opts))
	cmd.AddCommand(newMatchListCommand(opts))
	cmd.AddCommand(newMatchShowCommand(opts))
	cmd.AddCommand(newMatchCompleteCommand(opts))
	cmd.AddCommand(newMatchDeleteCommand(opts))
	cmd.AddCommand(newMatchSummaryCommand(opts))
	return cmd
}

type matchStartOptions struct {
	matchType string
	mode      string
	teamA     []string
	teamB     []string
	servers   []string
	venue     string
	venueID   string
	local     bool
}

func newMatchStartCommand(opts *AppOptions) *cobra.Command {
	so := &matchStartOptions{}

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new match",
		Long: `Start a new match and print its opening scoreboard.

When a remote is configured the match is registered there first and takes
the remote's id. If registration fails the match still starts with a local
id.

Examples:
  ots match start --team-a ana --team-b bo --venue "Court 1"
  ots match start --type doubles --mode short --team-a ana,cy --team-b bo,di
  ots match start --type 1v2 --team-a ana --team-b bo,cy --venue-id v-9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				return runMatchStart(ctx, cmd, opts, so, a)
			})
		},
	}

	cmd.Flags().StringVar(&so.matchType, "type", string(scorekeeper.MatchTypeSingles), "match type (singles|doubles|1v2)")
	cmd.Flags().StringVar(&so.mode, "mode", string(scoring.ModeStandard), "scoring format (standard|short)")
	cmd.Flags().StringSliceVar(&so.teamA, "team-a", nil, "team A player ids")
	cmd.Flags().StringSliceVar(&so.teamB, "team-b", nil, "team B player ids")
	cmd.Flags().StringSliceVar(&so.servers, "servers", nil, "short-format serve rotation (three player ids)")
	cmd.Flags().StringVar(&so.venue, "venue", "", "venue name")
	cmd.Flags().StringVar(&so.venueID, "venue-id", "", "venue id")
	cmd.Flags().BoolVar(&so.local, "local", false, "do not register the match with the remote")
	_ = cmd.MarkFlagRequired("team-a")
	_ = cmd.MarkFlagRequired("team-b")

	return cmd
}

func runMatchStart(ctx context.Context, cmd *cobra.Command, opts *AppOptions, so *matchStartOptions, a *app) error {
	out := newFormatter(cmd, opts.RootOptions)

	mode, err := scoring.ParseMode(so.mode)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid --mode", err)
	}

	n := scorekeeper.NewMatch{
		MatchType: scorekeeper.MatchType(so.matchType),
		Mode:      mode,
		TeamA:     so.teamA,
		TeamB:     so.teamB,
		Servers:   so.servers,
	}
	switch {
	case so.venueID != "":
		n.Venue = map[string]any{"id": so.venueID, "name": so.venue}
	case so.venue != "":
		n.Venue = so.venue
	}

	if a.remote != nil && !so.local {
		m, err := a.remote.CreateMatch(ctx, remote.CreateMatchRequest{
			VenueID:   so.venueID,
			MatchType: so.matchType,
			TeamA:     so.teamA,
			TeamB:     so.teamB,
		})
		if err != nil {
			a.logger.Warn("remote match registration failed; starting with a local id", zap.Error(err))
			out.Warn("remote registration failed, match starts locally: %v", err)
		} else {
			n.ID = m.ID
		}
	}

	rec, err := a.keeper.StartMatch(ctx, n)
	if err != nil {
		return classify("failed to start match", err)
	}

	v := a.view(ctx, rec)
	return out.Render(v, func(w io.Writer) { printMatch(w, v) })
}

func newMatchListCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List matches in progress, most recently touched first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := newFormatter(cmd, opts.RootOptions)

				listing := a.matches.GetAll(ctx)
				if listing.Degraded() {
					out.Warn("match list unavailable: %v", listing.Err)
				}
				return out.Render(listing.Records, func(w io.Writer) { printMatchList(w, listing.Records) })
			})
		},
	}
}

func newMatchShowCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <match-id>",
		Short: "Show a match scoreboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				rec, err := a.matches.Get(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read match", err)
				}
				if rec == nil {
					return notFound(args[0])
				}

				v := a.view(ctx, rec)
				return newFormatter(cmd, opts.RootOptions).Render(v, func(w io.Writer) { printMatch(w, v) })
			})
		},
	}
}

func newMatchCompleteCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <match-id>",
		Short: "Close a won match: sync its events, notify the remote, drop the local copy",
		Long: `Close a match the scoring engine has declared won.

Outstanding events are synced first. The local record is only removed once
every event is confirmed by the remote; offline, or with events still
unsynced, the command fails and the match stays on the device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := newFormatter(cmd, opts.RootOptions)

				res, err := a.keeper.Complete(ctx, args[0])
				switch {
				case errors.Is(err, scorekeeper.ErrMatchNotComplete):
					return WrapExitError(ExitCommandError, "match is still in play", err)
				case err != nil:
					return classify("failed to complete match", err)
				}
				return out.Render(res, func(w io.Writer) {
					fmt.Fprintf(w, "Match %s closed (%d events synced)\n", args[0], res.Confirmed)
				})
			})
		},
	}
}

func newMatchDeleteCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <match-id>",
		Aliases: []string{"abandon"},
		Short:   "Abandon a match and delete it and its events locally",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := newFormatter(cmd, opts.RootOptions)

				_, unsynced, _ := a.events.Counts(ctx, args[0])
				if err := a.keeper.Abandon(ctx, args[0]); err != nil {
					return classify("failed to delete match", err)
				}
				if unsynced > 0 {
					out.Warn("%d unsynced events were discarded", unsynced)
				}
				data := map[string]any{"match_id": args[0], "discarded_unsynced": unsynced}
				return out.Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "Match %s deleted\n", args[0])
				})
			})
		},
	}
}

func newMatchSummaryCommand(opts *AppOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <match-id>",
		Short: "Fetch a completed match's summary from the remote",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.requireRemote(); err != nil {
					return err
				}
				s, err := a.remote.MatchSummary(ctx, args[0])
				if err != nil {
					return WrapExitError(ExitFailure, "failed to fetch summary", err)
				}
				return newFormatter(cmd, opts.RootOptions).Render(s, func(w io.Writer) {
					fmt.Fprintf(w, "Match %s at %s (%s)\n", s.MatchID, s.Venue.Name, s.MatchType)
					fmt.Fprintf(w, "  Sets %d-%d  Games %d-%d  Points %d-%d\n",
						s.SetsA, s.SetsB, s.GamesA, s.GamesB, s.TeamAScore, s.TeamBScore)
					for _, p := range s.PlayerStats {
						fmt.Fprintf(w, "  %-3s %-20s won %3d  1st %d/%d  2nd %d/%d  DF %d\n",
							p.Team, p.PlayerName, p.TotalPointsWon,
							p.FirstServesIn, p.FirstServesTotal,
							p.SecondServesIn, p.SecondServesTotal, p.DoubleFaults)
					}
				})
			})
		},
	}
}

// syncFailure converts a sync error into an exit error that names what was
// confirmed before the failure.
func syncFailure(res syncer.Result, err error) error {
	var se *syncer.SyncError
	if errors.As(err, &se) {
		return WrapExitError(ExitFailure,
			fmt.Sprintf("sync of %s stopped after %d confirmed events", se.MatchID, se.Confirmed), err)
	}
	return WrapExitError(ExitFailure, fmt.Sprintf("sync of %s failed", res.MatchID), err)
}
