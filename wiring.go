package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/CrestNiraj12/twiddle/infra/auth"
	"github.com/CrestNiraj12/twiddle/infra/config"
	"github.com/CrestNiraj12/twiddle/infra/logging"
	"github.com/CrestNiraj12/twiddle/infra/mastodon"
	"github.com/CrestNiraj12/twiddle/infra/metrics"
	"github.com/CrestNiraj12/twiddle/infra/tracing"
	"github.com/CrestNiraj12/twiddle/timeline"
)

const shutdownTimeout = 5 * time.Second

// env is everything a command needs once configuration is resolved.
type env struct {
	cfg      config.Config
	instance string // Normalized API base URL
	source   mastodon.Source
	logger   *slog.Logger
	recorder *metrics.Recorder
	store    *timeline.Store

	closers []func(context.Context) error
}

type envOptions struct {
	logOut   io.Writer // Log destination
	prompt   io.Writer // Where the login URL is printed
	listener timeline.Listener
}

// loadConfig resolves the config file, environment and global flags, in
// that order of increasing precedence.
func loadConfig(c *cli.Context) (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, fmt.Errorf("config: %w", err)
	}
	if c.IsSet("source") {
		cfg.Source = c.String("source")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	return cfg, nil
}

func newEnv(ctx context.Context, cfg config.Config, opts envOptions) (*env, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger := logging.New(opts.logOut, level)

	source, err := mastodon.ParseSource(cfg.Source)
	if err != nil {
		return nil, err
	}

	v, _, _ := resolvedRuntimeVersionInfo(version, commit, date)
	shutdownTracing, err := tracing.Setup(ctx, cfg.OTLPEndpoint, v)
	if err != nil {
		return nil, err
	}

	recorder := metrics.NewRecorder()
	authenticator := auth.NewOAuthAuthenticator(
		cfg.InstanceURL,
		cfg.OAuthTokenPath(),
		cfg.OAuthClientPath(),
		cfg.OAuthCallbackPort,
		opts.prompt,
	)
	client := mastodon.NewClient(cfg.InstanceURL, auth.NewFileTokenProvider(cfg.OAuthTokenPath()))

	storeOpts := []timeline.Option{
		timeline.WithPageSize(cfg.PageSize),
		timeline.WithMaxRefreshPages(cfg.MaxRefreshPages),
		timeline.WithLogger(logger),
		timeline.WithRecorder(recorder),
	}
	if opts.listener != nil {
		storeOpts = append(storeOpts, timeline.WithListener(opts.listener))
	}
	store := timeline.New(timeline.Deps{
		Auth:     authenticator,
		Timeline: mastodon.NewTimelineService(client, source),
		Accounts: mastodon.NewAccountService(client),
		Media:    mastodon.NewMediaService(),
	}, storeOpts...)

	logger.Debug("environment ready",
		slog.String("instance", client.BaseURL()),
		slog.String("source", source.String()),
		slog.Int("page_size", cfg.PageSize),
	)

	return &env{
		cfg:      cfg,
		instance: client.BaseURL(),
		source:   source,
		logger:   logger,
		recorder: recorder,
		store:    store,
		closers:  []func(context.Context) error{shutdownTracing},
	}, nil
}

// serveMetrics exposes the recorder on cfg.MetricsAddr, if set. The server
// is stopped by close.
func (e *env) serveMetrics() {
	if e.cfg.MetricsAddr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.recorder.Handler())
	srv := &http.Server{
		Addr:              e.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server stopped", slog.String("addr", srv.Addr), slog.Any("err", err))
		}
	}()
	e.logger.Info("serving metrics", slog.String("addr", srv.Addr))
	e.closers = append(e.closers, srv.Shutdown)
}

// close releases everything newEnv and serveMetrics started, newest first.
func (e *env) close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](ctx); err != nil {
			e.logger.Warn("shutdown", slog.Any("err", err))
		}
	}
}
