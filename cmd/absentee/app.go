package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"absentee/internal/adapters/auth"
	"absentee/internal/adapters/storage"
	accountStore "absentee/internal/adapters/storage/account"
	"absentee/internal/application/orchestrators"
	"absentee/internal/config"
	"absentee/internal/observability"
	"absentee/internal/observability/perf"
)

// loadConfig reads configuration and installs the process-wide slog logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(observability.NewLogger(os.Stderr, cfg.Logging.Level, cfg.Logging.Format))
	return cfg, nil
}

// openDatabase connects, migrates and wraps the pool with query timing.
// POST: the caller owns the returned TimedDB and must Close it
func openDatabase(ctx context.Context, cfg *config.Config, collector *perf.Collector) (*storage.TimedDB, error) {
	db, dialect, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	if err := storage.MigrateDB(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	slog.Info("database_ready", "driver", dialect, "schema", storage.LatestSchemaVersion())
	return storage.NewTimedDB(db, dialect, collector, cfg.Database.SlowQueryMS), nil
}

// newChecker builds the configured credential checker. Accounts mode seeds the
// first admin when the account table is empty.
func newChecker(ctx context.Context, cfg *config.Config, db *storage.TimedDB) (auth.CredentialChecker, error) {
	switch cfg.Auth.Mode {
	case config.AuthSharedSecret:
		return auth.NewSharedSecretChecker(cfg.Auth.SecretHash, cfg.Auth.Secret)
	case config.AuthAccounts:
		store := accountStore.NewSQLStore(db, db.Dialect())
		deps := orchestrators.CreateAccountDeps{AccountStore: store}
		if err := orchestrators.ExecuteSeedAdmin(ctx, deps, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to seed admin: %w", err)
		}
		return auth.NewAccountChecker(store, time.Now), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
	}
}
