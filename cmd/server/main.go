// Command server runs the jewgo API: the consumer endpoints under /api/v5,
// the admin back office under /api/admin, auth under /api/auth, and the
// caching proxy for the legacy /api/v4 surface.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/levipshemish/jewgo-api/internal/config"
	"github.com/levipshemish/jewgo-api/internal/server"
	"github.com/levipshemish/jewgo-api/internal/storage/sqlstore"
	"github.com/levipshemish/jewgo-api/pkg/logging"
)

const (
	shutdownTimeout = 10 * time.Second
	janitorInterval = time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	// A missing .env is fine; it only feeds the environment overrides.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	store, err := sqlstore.New(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	store.SetPool(cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	slog.Info("storage ready", "driver", cfg.Database.Driver)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lims := server.NewLimiters(cfg.RateLimit)
	lims.Run(ctx, janitorInterval)

	engine, err := server.New(cfg, store, lims)
	if err != nil {
		slog.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	// h2c lets internal callers speak HTTP/2 without TLS; TLS terminates at
	// the load balancer.
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(engine, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		slog.Error("server failed", "error", err)
		os.Exit(1)
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown incomplete", "error", err)
	}
}
