// Command sv-server starts the SocialVault credential-store HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mkarpenko/socialvault/internal/auth"
	"github.com/mkarpenko/socialvault/internal/config"
	"github.com/mkarpenko/socialvault/internal/crypto/credcrypto"
	"github.com/mkarpenko/socialvault/internal/limiter"
	"github.com/mkarpenko/socialvault/internal/migrate"
	"github.com/mkarpenko/socialvault/internal/repository/postgres"
	"github.com/mkarpenko/socialvault/internal/server/httpapi"
	"github.com/mkarpenko/socialvault/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main parses configuration, runs migrations, and starts the HTTP server.
func main() {
	// Flags
	cfgPath := flag.String("config", "", "path to YAML config (optional)")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Server.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.Database.DSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	db, err := postgres.New(ctx, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("postgres.New", zap.Error(err))
	}
	defer db.Close()

	// Derived encryption key; the master secret itself is never used as a
	// cipher key or logged.
	encKey, err := credcrypto.DeriveKey([]byte(cfg.Secrets.MasterKey), "credentials")
	if err != nil {
		logger.Fatal("derive encryption key", zap.Error(err))
	}

	repo := postgres.NewIntegrationRepo(db)
	svc := service.NewIntegrationService(repo, encKey, cfg.OpTimeout)

	verifier := auth.NewVerifier(cfg.Secrets.APIKey)
	verifier.RequireSignature = cfg.RequireSignature
	sessions := auth.NewSessions([]byte(cfg.Secrets.SessionKey))
	lim := limiter.NewMemory(cfg.RateLimit.Max, cfg.RateLimit.Window)

	api := httpapi.New(svc, verifier, sessions, lim, logger)
	srv := &http.Server{Addr: cfg.Server.Addr, Handler: api.Handler()}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
