package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/shyamsivadas/event-lens/internal/adapters/blob/localfs"
	"github.com/shyamsivadas/event-lens/internal/adapters/blob/s3store"
	"github.com/shyamsivadas/event-lens/internal/adapters/photoevents"
	"github.com/shyamsivadas/event-lens/internal/adapters/sqlstore"
	"github.com/shyamsivadas/event-lens/internal/app/ports"
	appservices "github.com/shyamsivadas/event-lens/internal/app/services"
	"github.com/shyamsivadas/event-lens/internal/config"
	"github.com/shyamsivadas/event-lens/internal/db"
	"github.com/shyamsivadas/event-lens/internal/observability"
	"github.com/shyamsivadas/event-lens/internal/server"
	"github.com/shyamsivadas/event-lens/internal/server/routes"
)

func Run() error {
	baseHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	log := slog.New(observability.WrapSlogHandler(baseHandler))
	slog.SetDefault(log)

	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.UsesDevBlobSecret() {
		slog.Warn("EVENTLENS_BLOB_SECRET not set, using local development fallback")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.SetupOpenTelemetry(ctx, log, observability.OpenTelemetryConfig{
		Enabled:           cfg.Observability.Enabled,
		OTLPEndpoint:      cfg.Observability.OTLPEndpoint,
		OTLPTraceHeaders:  cfg.Observability.OTLPTraceHeaders,
		OTLPMetricHeaders: cfg.Observability.OTLPMetricHeaders,
		ServiceName:       cfg.Observability.ServiceName,
		ServiceVer:        cfg.Observability.ServiceVer,
		SamplingRatio:     cfg.Observability.SamplingRatio,
		MetricsConsole:    cfg.Observability.MetricsConsole,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	database, err := db.Open(db.Options{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		URL:    cfg.Database.URL,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			slog.Error("Failed to close database", "error", err)
		}
	}()

	if cfg.Database.LogTiming {
		go database.LogLatencyStats(ctx, log, time.Minute, 5)
	}

	srv := server.New(log, server.Options{
		ServiceName:    cfg.Observability.ServiceName,
		CORSOrigins:    cfg.Server.CORSOrigins,
		RateLimit:      cfg.Server.RateLimit,
		BodyLimitBytes: cfg.Upload.MaxUploadBytes,
	})

	var blobs ports.BlobStore
	switch cfg.Blob.Backend {
	case "s3":
		store, err := s3store.New(ctx, s3store.Options{
			Bucket:          cfg.Blob.S3.Bucket,
			Region:          cfg.Blob.S3.Region,
			Endpoint:        cfg.Blob.S3.Endpoint,
			AccessKeyID:     cfg.Blob.S3.AccessKeyID,
			SecretAccessKey: cfg.Blob.S3.SecretAccessKey,
			PathStyle:       cfg.Blob.S3.PathStyle,
		})
		if err != nil {
			return fmt.Errorf("failed to configure s3 blob store: %w", err)
		}
		blobs = store
	default:
		store, err := localfs.NewOnDisk(cfg.Blob.Dir, localfs.Options{
			BaseURL:  cfg.Server.PublicURL,
			Secret:   cfg.Blob.Secret,
			MaxBytes: cfg.Upload.MaxUploadBytes,
		})
		if err != nil {
			return fmt.Errorf("failed to open local blob store: %w", err)
		}
		blobs = store
		srv.RegisterRouter(routes.NewBlobRoutes(store))
	}

	publisher, err := photoevents.New(cfg.Events.SinkURL, cfg.Server.PublicURL)
	if err != nil {
		return fmt.Errorf("failed to configure photo event sink: %w", err)
	}
	if !publisher.Enabled() {
		slog.Info("EVENTLENS_EVENTS_SINK not set, photo events disabled")
	}

	keys, err := appservices.NewObjectKeyGenerator(cfg.Upload.NodeID)
	if err != nil {
		return fmt.Errorf("failed to create object key generator: %w", err)
	}

	store := sqlstore.NewStore(database)
	lookup := appservices.NewLookupService(store, store, appservices.NewEventCache(0, 0))
	issuer := appservices.NewIssuerService(store, store, store, blobs, keys, cfg.Upload.TicketTTL)
	confirm := appservices.NewConfirmationService(store, store, store, blobs, publisher, log, appservices.ConfirmationOptions{
		ConfirmGrace:   cfg.Upload.ConfirmGrace,
		MaxUploadBytes: cfg.Upload.MaxUploadBytes,
	})
	reaper := appservices.NewReaper(store, blobs, log, cfg.Upload.ConfirmGrace, cfg.Upload.ReaperInterval)
	go reaper.Run(ctx)

	srv.RegisterRouter(routes.NewHealthRoutes(database))
	srv.RegisterRouter(routes.NewGuestRoutes(lookup, issuer, confirm))

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("Starting server", "port", cfg.Server.Port, "blob_backend", cfg.Blob.Backend, "db_driver", cfg.Database.Driver)
		errCh <- srv.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("Shutting down server")
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := Run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
