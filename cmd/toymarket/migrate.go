package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/efreitasn/toymarket/internal/config"
	"github.com/efreitasn/toymarket/internal/service"
)

type migrateCmd struct{}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create the market schema, apply the seed file and exit" }
func (*migrateCmd) Usage() string {
	return `toymarket migrate

  Connects to DB_DRIVER/DB_DSN, applies the schema and creates the companies
  listed in SEED_FILE that do not exist yet. Safe to run repeatedly.
`
}

func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	logger, err := createLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	defer logger.Sync()

	seeds, err := config.LoadSeed(cfg.SeedFile)
	if err != nil {
		logger.Error("invalid seed file", zap.String("path", cfg.SeedFile), zap.Error(err))
		return subcommands.ExitFailure
	}

	db, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("migration failed", zap.Error(err))
		return subcommands.ExitFailure
	}
	defer db.Close()

	svc := service.NewMarketService(db, service.Options{
		OpeningBalance: cfg.OpeningBalance,
		Currency:       cfg.Currency,
	}, logger)
	created, err := svc.Seed(ctx, seeds)
	if err != nil {
		logger.Error("seeding failed", zap.Error(err))
		return subcommands.ExitFailure
	}

	logger.Info("schema up to date", zap.Int("seeded", created), zap.String("driver", db.Driver()))
	return subcommands.ExitSuccess
}
