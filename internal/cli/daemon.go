package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scheduler"
)

// NewDaemonCommand creates the daemon command.
func NewDaemonCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		once          bool
		sweepInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run periodic sync and expiry in the foreground",
		Long: `Run the background work of a scoring device: drain unsynced events every
sync.interval and expire old matches and temporary players every
--sweep-interval. When metrics.address is set, Prometheus metrics are served
on /metrics.

With --once, one sync pass and one sweep pass run and the command exits.`,
		Args: cobra.NoArgs,
	}
	opts := newAppOptions(rootOpts, cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, opts, func(ctx context.Context, a *app) error {
			jobs := scheduler.Jobs{
				Matches:       a.matches,
				TempPlayers:   a.cache,
				SyncInterval:  a.cfg.Sync.Interval,
				SweepInterval: sweepInterval,
			}
			if a.syncer != nil {
				jobs.Sync = a.syncer
			}
			sched, err := scheduler.New(jobs,
				scheduler.WithLogger(a.logger),
				scheduler.WithMetrics(a.metrics))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to build scheduler", err)
			}

			if once {
				sched.SweepPass(ctx)
				if err := sched.Shutdown(); err != nil {
					return WrapExitError(ExitFailure, "scheduler shutdown failed", err)
				}
				newFormatter(cmd, opts.RootOptions).VerboseLog("sync and sweep pass complete")
				return nil
			}
			return runDaemon(ctx, a, sched)
		})
	}

	cmd.Flags().BoolVar(&once, "once", false, "run a single sync and sweep pass, then exit")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", 15*time.Minute, "time between expiry sweeps")
	return cmd
}

func runDaemon(ctx context.Context, a *app, sched *scheduler.Scheduler) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var srv *http.Server
	errCh := make(chan error, 1)
	if addr := a.cfg.Metrics.Address; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		srv = &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			a.logger.Info("metrics listening", zap.String("address", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	sched.Start()
	a.logger.Info("daemon started", zap.Strings("jobs", sched.JobNames()))

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err := <-errCh:
		runErr = WrapExitError(ExitFailure, "metrics listener failed", err)
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics shutdown", zap.Error(err))
		}
	}
	if err := sched.Shutdown(); err != nil && runErr == nil {
		runErr = WrapExitError(ExitFailure, "scheduler shutdown failed", err)
	}
	return runErr
}
