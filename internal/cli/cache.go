package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/refcache"
)

// NewCacheCommand creates the cache command group.
func NewCacheCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and refresh the cached players and venues",
	}
	opts := newAppOptions(rootOpts, cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "players",
		Short: "List cached players",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := newFormatter(cmd, opts.RootOptions)
				players, err := a.cache.Players(ctx)
				if err != nil {
					out.Warn("player cache unavailable: %v", err)
				}
				return out.Render(players, func(w io.Writer) {
					if len(players) == 0 {
						fmt.Fprintln(w, "No cached players. Run `ots cache refresh`.")
					}
					for _, p := range players {
						fmt.Fprintf(w, "%-38s %s%s\n", p.ID, p.Name, inactive(p.Active))
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "venues",
		Short: "List cached venues",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := newFormatter(cmd, opts.RootOptions)
				venues, err := a.cache.Venues(ctx)
				if err != nil {
					out.Warn("venue cache unavailable: %v", err)
				}
				return out.Render(venues, func(w io.Writer) {
					if len(venues) == 0 {
						fmt.Fprintln(w, "No cached venues. Run `ots cache refresh`.")
					}
					for _, v := range venues {
						fmt.Fprintf(w, "%-38s %s", v.ID, v.Name)
						if v.Surface != "" {
							fmt.Fprintf(w, " (%s)", v.Surface)
						}
						fmt.Fprintln(w, inactive(v.Active))
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Replace the cached players and venues with the remote's lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.requireRemote(); err != nil {
					return err
				}
				players, venues, err := refreshCache(ctx, a)
				if err != nil {
					return WrapExitError(ExitFailure, "cache refresh failed", err)
				}
				data := map[string]int{"players": players, "venues": venues}
				return newFormatter(cmd, opts.RootOptions).Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "Cached %d players and %d venues\n", players, venues)
				})
			})
		},
	})

	return cmd
}

// refreshCache fetches both lists before replacing either, so a failed
// fetch leaves the cache as it was.
func refreshCache(ctx context.Context, a *app) (int, int, error) {
	remotePlayers, err := a.remote.ListPlayers(ctx)
	if err != nil {
		return 0, 0, err
	}
	remoteVenues, err := a.remote.ListVenues(ctx)
	if err != nil {
		return 0, 0, err
	}

	players := make([]refcache.Player, 0, len(remotePlayers))
	for _, p := range remotePlayers {
		players = append(players, refcache.Player{ID: p.ID, Name: p.Name, Active: p.Active})
	}
	venues := make([]refcache.Venue, 0, len(remoteVenues))
	for _, v := range remoteVenues {
		venues = append(venues, refcache.Venue{ID: v.ID, Name: v.Name, Surface: v.Surface, Active: v.Active})
	}

	if err := a.cache.ReplacePlayers(ctx, players); err != nil {
		return 0, 0, err
	}
	if err := a.cache.ReplaceVenues(ctx, venues); err != nil {
		return len(players), 0, err
	}
	return len(players), len(venues), nil
}

// NewTempCommand creates the temp command group for venue-scoped
// temporary players.
func NewTempCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "temp",
		Short: "Manage temporary players (guests who expire after a day)",
	}
	opts := newAppOptions(rootOpts, cmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "add <venue-id> <name>",
		Short: "Add a temporary player at a venue",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				p, err := a.cache.AddTempPlayer(ctx, args[0], args[1])
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to add temporary player", err)
				}
				return newFormatter(cmd, opts.RootOptions).Render(p, func(w io.Writer) {
					fmt.Fprintf(w, "Added %s (%s), expires %s\n", p.Name, p.ID, p.ExpiresAt.Local().Format(time.DateTime))
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list <venue-id>",
		Short: "List usable temporary players at a venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				out := newFormatter(cmd, opts.RootOptions)
				players, err := a.cache.TempPlayers(ctx, args[0])
				if err != nil {
					out.Warn("temporary players unavailable: %v", err)
				}
				return out.Render(players, func(w io.Writer) {
					if len(players) == 0 {
						fmt.Fprintf(w, "No temporary players at %s.\n", args[0])
					}
					for _, p := range players {
						fmt.Fprintf(w, "%-38s %-20s expires %s\n", p.ID, p.Name, p.ExpiresAt.Local().Format(time.DateTime))
					}
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <temp-player-id>",
		Short: "Deactivate a temporary player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				if err := a.cache.DeactivateTempPlayer(ctx, args[0]); err != nil {
					return classify("failed to remove temporary player", err)
				}
				data := map[string]string{"id": args[0]}
				return newFormatter(cmd, opts.RootOptions).Render(data, func(w io.Writer) {
					fmt.Fprintf(w, "Deactivated %s\n", args[0])
				})
			})
		},
	})

	return cmd
}

func inactive(active bool) string {
	if active {
		return ""
	}
	return " (inactive)"
}
