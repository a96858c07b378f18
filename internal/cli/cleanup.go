package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// CleanupReport is the JSON shape of a cleanup run.
type CleanupReport struct {
	Synced             int `json:"synced"`
	MatchesExpired     int `json:"matches_expired"`
	TempPlayersExpired int `json:"temp_players_expired"`
}

// NewCleanupCommand creates the cleanup command.
func NewCleanupCommand(rootOpts *RootOptions) *cobra.Command {
	var noSync bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete expired matches and temporary players",
		Long: `Delete matches older than retention.match (measured from creation) and
temporary players past their expiry.

When a remote is configured, pending events are synced first so that
expiring a match discards as little as possible.`,
		Args: cobra.NoArgs,
	}
	opts := newAppOptions(rootOpts, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, opts, func(ctx context.Context, a *app) error {
			var report CleanupReport

			if a.syncer != nil && !noSync {
				summary, err := a.syncer.SyncAll(ctx)
				if err != nil {
					a.logger.Warn("sync before cleanup incomplete", zap.Error(err))
				}
				for _, res := range summary.Results {
					report.Synced += res.Confirmed
				}
			}

			n, err := a.matches.CleanupExpired(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to expire matches", err)
			}
			report.MatchesExpired = n

			n, err = a.cache.CleanupExpiredTempPlayers(ctx)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to expire temporary players", err)
			}
			report.TempPlayersExpired = n
			a.metrics.Expired(report.MatchesExpired, report.TempPlayersExpired)

			return newFormatter(cmd, opts.RootOptions).Render(report, func(w io.Writer) {
				if report.Synced > 0 {
					fmt.Fprintf(w, "Synced %d events\n", report.Synced)
				}
				fmt.Fprintf(w, "Expired %d match(es) and %d temporary player(s)\n",
					report.MatchesExpired, report.TempPlayersExpired)
			})
		})
	}

	cmd.Flags().BoolVar(&noSync, "no-sync", false, "skip the sync pass before expiring")
	return cmd
}
