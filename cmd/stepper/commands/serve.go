package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gabrielmiguelok/golivestepper/internal/config"
	"github.com/gabrielmiguelok/golivestepper/internal/reload"
	"github.com/gabrielmiguelok/golivestepper/pkg/core"
	"github.com/gabrielmiguelok/golivestepper/pkg/live"
	"github.com/gabrielmiguelok/golivestepper/pkg/logging"
	"github.com/gabrielmiguelok/golivestepper/pkg/metrics"
	"github.com/gabrielmiguelok/golivestepper/pkg/shutdown"
	"github.com/gabrielmiguelok/golivestepper/pkg/stepper"
)

// Serve returns the serve command.
func Serve() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wizard over HTTP and WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			logging.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, logger)
		},
	}

	flags := cmd.Flags()
	flags.String("addr", ":8080", "listen address")
	flags.Bool("watch", false, "reload the definition file when it changes")
	flags.StringSlice("allowed-origins", nil, "extra WebSocket origin patterns")
	flags.Duration("session-idle", 30*time.Minute, "expire sessions idle this long")
	flags.Int("max-sessions", 10000, "maximum live sessions (0 = unlimited)")
	flags.Duration("submit-delay", 0, "simulated submit latency")

	return cmd
}

// app is the wired serve command.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	holder   *reload.Holder
	metrics  *metrics.Metrics
	server   *live.Server
	shutdown *shutdown.Handler
}

func newApp(cfg *config.Config, logger logging.Logger) (*app, error) {
	def, err := loadDefinition(cfg.Definition)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		holder:  reload.NewHolder(def),
		metrics: metrics.NewMetrics("stepper"),
	}

	submit := demoSubmit(logger, cfg.SubmitDelay)
	factory := func(ctx context.Context) (core.Component, error) {
		s, err := stepper.New(a.holder.Load(), submit,
			stepper.WithLogger(logger),
			stepper.WithMetrics(a.metrics),
			stepper.WithSubmitTimeout(cfg.SubmitTimeout),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	}

	a.server = live.NewServer(factory, serverConfig(cfg, def.Title),
		live.WithLogger(logger),
		live.WithMetrics(a.metrics),
	)
	a.shutdown = shutdown.NewHandler(cfg.ShutdownTimeout, logger)
	return a, nil
}

func serverConfig(cfg *config.Config, title string) live.Config {
	sc := live.DefaultConfig()
	if title != "" {
		sc.Title = title
	}
	sc.AllowedOrigins = cfg.AllowedOrigins
	sc.SessionIdle = cfg.SessionIdle
	sc.MaxSessions = cfg.MaxSessions
	sc.EventsPerSecond = cfg.EventsPerSecond
	sc.EventBurst = cfg.EventBurst
	sc.MaxConnsPerIP = cfg.MaxConnsPerIP
	sc.CSRFSecret = []byte(cfg.CSRFSecret)
	sc.Version = version
	return sc
}

func runServe(ctx context.Context, cfg *config.Config, logger logging.Logger) error {
	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.server,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Hijacked WebSockets are not drained by http.Server.Shutdown; closing
	// the live server ends them.
	a.shutdown.RegisterFunc("http", shutdown.PriorityHTTP, httpServer.Shutdown)
	a.shutdown.RegisterFunc("sessions", shutdown.PrioritySessions, a.server.Close)

	var watcher *reload.Watcher
	if cfg.Watch && cfg.Definition != "" {
		if watcher, err = reload.NewWatcher(cfg.Definition, a.holder, logger); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("listening", logging.String("addr", cfg.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return a.server.Run(gctx)
	})
	if watcher != nil {
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}
	g.Go(func() error {
		return a.shutdown.Wait(gctx)
	})

	return g.Wait()
}
