package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/config"
	"github.com/efreitasn/toymarket/internal/engine"
	"github.com/efreitasn/toymarket/internal/handler"
	"github.com/efreitasn/toymarket/internal/service"
)

type serveCmd struct {
	noScheduler bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the market HTTP server (default)" }
func (*serveCmd) Usage() string {
	return `toymarket serve [-no-scheduler]

  Loads configuration from the environment, seeds companies from SEED_FILE,
  starts the market scheduler and serves the HTTP API until SIGINT/SIGTERM.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.noScheduler, "no-scheduler", false, "Do not start snapshots and ambient events at boot.")
}

func (c *serveCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return subcommands.ExitFailure
	}
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	if err := c.run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *serveCmd) run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	seeds, err := config.LoadSeed(cfg.SeedFile)
	if err != nil {
		return err
	}

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	// Corrupt state found by a background tick stops the whole server.
	ctx, fatal := context.WithCancelCause(ctx)
	defer fatal(nil)

	svc := service.NewMarketService(db, service.Options{
		OpeningBalance: cfg.OpeningBalance,
		Currency:       cfg.Currency,
		Scheduler: engine.SchedulerConfig{
			SnapshotInterval: cfg.SnapshotInterval,
			EventMinDelay:    cfg.EventMinDelay,
			EventMaxDelay:    cfg.EventMaxDelay,
		},
		OnFatal: fatal,
	}, logger)

	if len(seeds) > 0 {
		created, err := svc.Seed(ctx, seeds)
		if err != nil {
			return fmt.Errorf("seed companies: %w", err)
		}
		logger.Info("companies seeded",
			zap.Int("created", created),
			zap.Int("listed", len(seeds)),
		)
	}

	if !c.noScheduler {
		if err := svc.StartScheduler(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	}
	defer svc.StopScheduler()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(svc, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("driver", db.Driver()),
			zap.String("currency", svc.Currency()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			logger.Error("shutting down on fatal error", zap.Error(cause))
		} else {
			logger.Info("shutdown signal received")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	svc.StopScheduler()

	logger.Info("server stopped")
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return nil
}
