package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"github.com/finbook/finbook/internal/cli"
	"github.com/finbook/finbook/internal/config"
	"github.com/finbook/finbook/internal/database"
	"github.com/finbook/finbook/internal/database/repository"
	"github.com/finbook/finbook/internal/logging"
	"github.com/finbook/finbook/internal/remote"
	"github.com/finbook/finbook/internal/service"
	"github.com/finbook/finbook/internal/syncer"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Log.Debug)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatal("mkdir db dir", zap.Error(err))
	}

	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}
	if ver, err := database.InspectSchemaVersion(db); err == nil {
		logger.Debug("schema ready", zap.Uint("version", ver))
	}

	// repositories
	repos := syncer.Repos{
		Accounts:     repository.NewAccountRepo(db),
		Transactions: repository.NewTransactionRepo(db),
		Recurring:    repository.NewRecurringRepo(db),
		Adjustments:  repository.NewAdjustmentRepo(db),
		Preferences:  repository.NewPreferencesRepo(db),
		State:        repository.NewSyncStateRepo(db),
	}

	if _, err := service.EnsurePreferences(ctx, repos.Preferences, cfg); err != nil {
		logger.Warn("seed preferences", zap.Error(err))
	}

	// services
	adjustments := &service.AdjustmentService{Repo: repos.Adjustments, Log: logger}
	forecast := &service.ForecastService{
		Accounts:     repos.Accounts,
		Transactions: repos.Transactions,
		Recurring:    repos.Recurring,
		Adjustments:  adjustments,
		Log:          logger,
	}
	materializer := &service.Materializer{Transactions: repos.Transactions, Recurring: repos.Recurring, Log: logger}
	maintenance := &service.MaintenanceService{DB: db, Transactions: repos.Transactions, Log: logger}

	store := remote.NewHTTPStore(cfg.Remote.BaseURL, time.Duration(cfg.Remote.TimeoutSeconds)*time.Second, logger)
	sync := syncer.New(repos, store, logger)
	sync.Wipe = maintenance.WipeEntities

	app := &cli.App{
		Cfg:          cfg,
		Log:          logger,
		DB:           db,
		Repos:        repos,
		Syncer:       sync,
		Forecast:     forecast,
		Adjustments:  adjustments,
		Materializer: materializer,
		Maintenance:  maintenance,
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	for _, c := range cli.Commands(app) {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(ctx)))
}
