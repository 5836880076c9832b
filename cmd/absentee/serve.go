package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"absentee/internal/adapters/drafts"
	web "absentee/internal/adapters/http"
	reportStore "absentee/internal/adapters/storage/report"
	"absentee/internal/observability/perf"
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the operator web service",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	db, err := openDatabase(ctx, cfg, collector)
	if err != nil {
		return err
	}
	defer db.Close()

	checker, err := newChecker(ctx, cfg, db)
	if err != nil {
		return err
	}
	csrfKey, err := web.ResolveCSRFKey(cfg.Server.CSRFKey, cfg.IsProduction())
	if err != nil {
		return err
	}

	draftStore := drafts.NewMemoryStore(cfg.Report.DraftTTL)
	draftStore.StartSweeper(ctx, time.Minute)

	server, err := web.NewServer(web.Deps{
		Checker:        checker,
		Reports:        reportStore.NewSQLStore(db, db.Dialect()),
		Drafts:         draftStore,
		Settings:       cfg.Report.Settings(),
		Collector:      collector,
		Ping:           db.PingContext,
		CSRFKey:        csrfKey,
		Production:     cfg.IsProduction(),
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		LoginRateLimit: cfg.Server.LoginRateLimit,
		SlowRequestMS:  cfg.Server.SlowRequestMS,
		SessionTTL:     time.Duration(cfg.Server.SessionTTLHours) * time.Hour,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server_starting",
			"version", version,
			"addr", cfg.Server.Addr,
			"env", cfg.Server.Env,
			"auth_mode", checker.Mode(),
		)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
