// Breadbox Server
//
// Features:
// - Persisted file-manager UI state with full-snapshot writes
// - Pluggable persistence (local, SQLite, PostgreSQL, Redis, S3)
// - Coalescing snapshot writer with retry
// - SSE real-time change feed, optional NATS relay
// - Prometheus metrics & structured logging (zap)
// - Optional JWT device auth
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fruitsalade/breadbox/internal/api"
	"github.com/fruitsalade/breadbox/internal/auth"
	"github.com/fruitsalade/breadbox/internal/config"
	"github.com/fruitsalade/breadbox/internal/events"
	"github.com/fruitsalade/breadbox/internal/logging"
	"github.com/fruitsalade/breadbox/internal/metrics"
	"github.com/fruitsalade/breadbox/internal/persist"
	"github.com/fruitsalade/breadbox/internal/settings"
	"github.com/fruitsalade/breadbox/internal/state"
	"github.com/fruitsalade/breadbox/pkg/retry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Initialize structured logging
	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("Breadbox Server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("backend", cfg.PersistType))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the persistence backend
	backend, err := persist.NewBackendFromConfig(ctx, cfg.PersistType, backendConfig(cfg))
	if err != nil {
		logging.Fatal("persistence backend init failed", zap.Error(err))
	}
	defer backend.Close()

	// Snapshot writer coalesces per-mutation writes
	writer := persist.NewWriter(backend, cfg.FlushInterval, retry.DefaultConfig())
	writer.Start()
	logging.Info("snapshot writer started", zap.Duration("flush_interval", cfg.FlushInterval))

	// Initialize SSE broadcaster
	broadcaster := events.NewBroadcaster()

	// Optional NATS relay for cross-instance change feeds
	if cfg.NATSURL != "" {
		relay, err := events.NewNATSRelay(cfg.NATSURL, cfg.NATSSubjectPrefix, broadcaster)
		if err != nil {
			logging.Fatal("NATS relay init failed", zap.Error(err))
		}
		relay.Start()
		defer relay.Close()
	}

	// Initialize the stores and hydrate them from the backend
	stateStore := state.New(state.DefaultKey, backend, writer, broadcaster)
	generalStore := settings.NewGeneralStore(backend, writer, broadcaster)
	downloadStore := settings.NewDownloadStore(backend, writer, broadcaster)

	stateStore.Load(ctx)
	generalStore.Load(ctx)
	downloadStore.Load(ctx)
	logging.Info("stores hydrated",
		zap.String("state_key", stateStore.Key()),
		zap.String("backend", backend.Type()))

	// Initialize auth
	authHandler := auth.New(cfg.JWTSecret, cfg.APIKeyHash, cfg.TokenTTL)
	if authHandler.Enabled() {
		logging.Info("authentication enabled", zap.Duration("token_ttl", cfg.TokenTTL))
	} else {
		logging.Warn("authentication disabled, set BREADBOX_JWT_SECRET to enable")
	}

	// Create API server
	srv := api.NewServer(stateStore, generalStore, downloadStore, backend, writer, authHandler, broadcaster)

	// Start metrics server
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: srv.Handler(),
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logging.Info("shutting down...")
		cancel()
		httpServer.Close()
		metricsServer.Close()
	}()

	// Start periodic stats logging
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				logging.Debug("store stats",
					zap.Int64("mutations", stateStore.Mutations()),
					zap.Int("pending_writes", writer.Pending()),
					zap.Int("subscribers", broadcaster.Count()))
			}
		}
	}()

	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("server error", zap.Error(err))
	}

	// Drain pending snapshot writes before the backend closes.
	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()
	if err := writer.Close(flushCtx); err != nil {
		logging.Error("final snapshot flush failed", zap.Error(err))
	} else {
		logging.Info("pending snapshots flushed")
	}
}

// backendConfig returns the configured backend options, synthesizing
// sensible defaults under the data directory when none are given.
func backendConfig(cfg *config.Config) json.RawMessage {
	if cfg.PersistConfig != "" {
		return json.RawMessage(cfg.PersistConfig)
	}

	switch cfg.PersistType {
	case "sqlite":
		raw, _ := json.Marshal(persist.SQLiteConfig{
			Path: filepath.Join(cfg.DataDir, "breadbox.db"),
		})
		return raw
	default:
		raw, _ := json.Marshal(persist.LocalConfig{
			RootPath:   cfg.DataDir,
			CreateDirs: true,
		})
		return raw
	}
}
