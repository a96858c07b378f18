package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/eventlog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scorekeeper"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
)

// PointView is the JSON shape of a point or undo result.
type PointView struct {
	Event eventlog.PointEvent `json:"event"`
	MatchView
}

// NewPointCommand creates the point command.
func NewPointCommand(rootOpts *RootOptions) *cobra.Command {
	var server, serve string

	cmd := &cobra.Command{
		Use:   "point <match-id> <A|B>",
		Short: "Record a point won by team A or B",
		Long: `Record one point. The event is written to the local log before the
scoreboard is updated, so a crash never loses a point that was shown.

Examples:
  ots point 6f1c... A
  ots point 6f1c... B --serve second --server bo`,
		Args: cobra.ExactArgs(2),
	}
	opts := newAppOptions(rootOpts, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		team, err := scoring.ParseTeam(strings.ToUpper(args[1]))
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid team", err)
		}
		return withApp(cmd, opts, func(ctx context.Context, a *app) error {
			rec, ev, err := a.keeper.RecordPoint(ctx, args[0], scorekeeper.Point{
				Team:           team,
				ServerPlayerID: server,
				ServeType:      serve,
			})
			switch {
			case errors.Is(err, scorekeeper.ErrMatchCompleted):
				return WrapExitError(ExitCommandError, "match is already won; run `ots match complete`", err)
			case err != nil:
				return classify("failed to record point", err)
			}

			v := PointView{Event: ev, MatchView: a.view(ctx, rec)}
			return newFormatter(cmd, opts.RootOptions).Render(v, func(w io.Writer) {
				fmt.Fprintf(w, "Point to team %s\n", team)
				printMatch(w, v.MatchView)
			})
		})
	}

	cmd.Flags().StringVar(&server, "server", "", "serving player id (defaults to the current server)")
	cmd.Flags().StringVar(&serve, "serve", string(eventlog.ServeFirst), "serve type (first|second|double_fault)")
	return cmd
}

// NewUndoCommand creates the undo command.
func NewUndoCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo <match-id>",
		Short: "Remove the last recorded point and rebuild the score",
		Args:  cobra.ExactArgs(1),
	}
	opts := newAppOptions(rootOpts, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, opts, func(ctx context.Context, a *app) error {
			rec, removed, err := a.keeper.UndoLast(ctx, args[0])
			if err != nil {
				return classify("failed to undo", err)
			}

			v := PointView{Event: removed, MatchView: a.view(ctx, rec)}
			return newFormatter(cmd, opts.RootOptions).Render(v, func(w io.Writer) {
				fmt.Fprintf(w, "Removed point to team %s\n", removed.PointWinnerTeam)
				printMatch(w, v.MatchView)
			})
		})
	}
	return cmd
}
