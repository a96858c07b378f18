package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/saurabh22suman/oreo-tennis-scoring/internal/config"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/eventlog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/matchstore"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/metrics"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/obslog"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/refcache"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/remote"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scorekeeper"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/scoring"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/store"
	"github.com/saurabh22suman/oreo-tennis-scoring/internal/syncer"
)

// AppOptions holds the flags of commands that work on the local database.
type AppOptions struct {
	*RootOptions
	ConfigPath string
	Database   string
}

func newAppOptions(root *RootOptions, cmd *cobra.Command) *AppOptions {
	opts := &AppOptions{RootOptions: root}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config (environment only when unset or missing)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides database.path)")
	return opts
}

// app is the set of components one command invocation works with.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   *store.Store
	matches *matchstore.Store
	events  *eventlog.Log
	cache   refcache.Cache
	metrics *metrics.Metrics
	keeper  *scorekeeper.Keeper

	// remote and syncer are nil when no remote authority is configured.
	remote *remote.Client
	syncer *syncer.Coordinator

	closers []func() error
}

func openApp(opts *AppOptions) (*app, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}

	logOpts := cfg.LogOptions()
	if opts.Verbose {
		logOpts.Level = "debug"
	}
	logger, err := obslog.New(logOpts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build logger", err)
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		events:  eventlog.New(st),
		metrics: metrics.New(),
		closers: []func() error{st.Close},
	}
	a.matches = matchstore.New(st,
		matchstore.WithRetention(cfg.Retention.Match),
		matchstore.WithLogger(logger))

	cacheOpts := []refcache.Option{
		refcache.WithTempPlayerTTL(cfg.Retention.TempPlayer),
		refcache.WithLogger(logger),
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := refcache.NewRedisCacheFromURL(cfg.Cache.RedisURL, cacheOpts...)
		if err != nil {
			a.Close()
			return nil, WrapExitError(ExitCommandError, "failed to connect to redis", err)
		}
		a.cache = rc
		a.closers = append(a.closers, rc.Close)
	default:
		a.cache = refcache.NewSQLCache(st, cacheOpts...)
	}

	keeperOpts := []scorekeeper.Option{
		scorekeeper.WithLogger(logger),
		scorekeeper.WithMetrics(a.metrics),
	}
	if !cfg.Offline() {
		clientOpts := []remote.Option{
			remote.WithTimeout(cfg.Remote.Timeout),
			remote.WithRetry(cfg.Remote.Retries),
		}
		if cfg.Remote.Token != "" {
			clientOpts = append(clientOpts, remote.WithToken(cfg.Remote.Token))
		}
		if opts.dial != nil {
			clientOpts = append(clientOpts, remote.WithDial(opts.dial))
		}
		a.remote = remote.NewClient(cfg.Remote.BaseURL, clientOpts...)
		a.syncer = syncer.New(a.events, a.remote,
			syncer.WithLogger(logger),
			syncer.WithMetrics(a.metrics),
			syncer.WithBatchSize(cfg.Sync.BatchSize),
			syncer.WithRateLimit(cfg.Sync.RatePerSecond, 1))
		keeperOpts = append(keeperOpts,
			scorekeeper.WithSyncer(a.syncer),
			scorekeeper.WithCompleter(a.remote))
	}
	a.keeper = scorekeeper.New(a.matches, a.events, keeperOpts...)
	return a, nil
}

// Close releases the cache and the database in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// requireRemote fails commands that need the remote authority when running
// offline.
func (a *app) requireRemote() error {
	if a.remote == nil {
		return NewExitError(ExitCommandError, "no remote configured: set remote.base_url or OTS_REMOTE_URL")
	}
	return nil
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, opts *AppOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}

// classify maps a domain error onto an exit code: caller mistakes are
// command errors, everything else is an operation failure.
func classify(message string, err error) error {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	switch {
	case errors.Is(err, scorekeeper.ErrMatchNotFound),
		errors.Is(err, scorekeeper.ErrInvalidMatch),
		errors.Is(err, scorekeeper.ErrInvalidPoint),
		errors.Is(err, refcache.ErrNotFound),
		errors.Is(err, eventlog.ErrNotFound),
		scoring.IsInvalidInput(err):
		return WrapExitError(ExitCommandError, message, err)
	}
	return WrapExitError(ExitFailure, message, err)
}

func notFound(matchID string) error {
	return WrapExitError(ExitCommandError, fmt.Sprintf("match %s", matchID), scorekeeper.ErrMatchNotFound)
}
