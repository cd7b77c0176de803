package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tphummel/machine_registry/internal/apiclient"
	"github.com/tphummel/machine_registry/internal/archive"
	"github.com/tphummel/machine_registry/internal/config"
	"github.com/tphummel/machine_registry/internal/console"
	"github.com/tphummel/machine_registry/internal/db"
	"github.com/tphummel/machine_registry/internal/handlers"
	"github.com/tphummel/machine_registry/internal/metrics"
	"github.com/tphummel/machine_registry/internal/middleware"
	"github.com/tphummel/machine_registry/internal/models"
	"github.com/tphummel/machine_registry/internal/mutation"
	"github.com/tphummel/machine_registry/internal/store"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "dev"
	commit  = "none"
)

// app is the wired console.
type app struct {
	handler http.Handler
	db      *db.DB
	records *store.Store
	session *console.Session
}

// newArchive returns the export archive selected by cfg, or nil when
// archiving is off.
func newArchive(ctx context.Context, cfg config.ArchiveConfig) (archive.Store, error) {
	switch cfg.Driver {
	case config.ArchiveFS:
		return archive.NewFS(cfg.Dir)
	case config.ArchiveS3:
		return archive.NewS3(ctx, archive.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	}
	return nil, nil
}

// setup wires the backend client, record store, snapshot mirror, session and
// HTTP stack. It does not perform the initial load.
func setup(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	client, err := apiclient.New(cfg.Backend.BaseURL, apiclient.Options{
		CSRFHeader: cfg.Backend.CSRFHeader,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("backend client: %w", err)
	}
	if cfg.Backend.Email != "" {
		user, err := client.Login(ctx, cfg.Backend.Email, cfg.Backend.Password)
		if err != nil {
			logger.Warn("backend login failed; mutations need a CSRF cookie", "email", cfg.Backend.Email, "error", err)
		} else {
			logger.Info("signed in to backend", "user", user.Username, "role", user.Role)
		}
	}

	database, err := db.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	records := store.New(client, store.WithMirror(database), store.WithLogger(logger))

	var downloader mutation.Downloader = mutation.ContextDownloader{}
	arch, err := newArchive(ctx, cfg.Archive)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("export archive: %w", err)
	}
	if arch != nil {
		downloader = archive.Tee(downloader, arch, logger)
	}

	dash := cache.New(cfg.Server.CacheTTL, 2*cfg.Server.CacheTTL)
	session := console.NewSession(console.Options{
		Store:   records,
		Backend: client,
		Credentials: apiclient.CookieCredentials{
			Jar:  client.Jar(),
			URL:  client.BaseURL(),
			Name: cfg.Backend.CSRFCookie,
		},
		Downloader: downloader,
		Logger:     logger,
		OnReload:   func([]models.Machine) { dash.Flush() },
	})

	h := &handlers.Handler{
		Session:        session,
		Snapshots:      database,
		DashboardCache: dash,
		CacheTTL:       cfg.Server.CacheTTL,
		Logger:         logger,
		Version:        version,
		Commit:         commit,
	}
	mux := handlers.NewMux(h, cfg.Server.Token)

	limiter := middleware.NewIPRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateBurst)
	skip := func(r *http.Request) bool {
		return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
	}
	handler := middleware.RequestLogger(logger, skip, middleware.RateLimit(limiter, mux))

	return &app{handler: handler, db: database, records: records, session: session}, nil
}

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal(err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	logger := slog.Default()

	ctx := context.Background()
	a, err := setup(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("startup: %v", err)
	}
	metrics.Register(a.records)
	a.session.Mount(ctx)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s (backend %s)", cfg.Server.Port, cfg.Backend.BaseURL)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
	if err := a.db.Close(); err != nil {
		log.Printf("database close error: %v", err)
	}
	log.Println("server stopped")
}
