package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/patrickmn/go-cache"

	"schedule-sync-backend/config"
	"schedule-sync-backend/internal/api"
	"schedule-sync-backend/internal/db"
	"schedule-sync-backend/internal/ingest"
	"schedule-sync-backend/internal/notification"
	"schedule-sync-backend/internal/retry"
	"schedule-sync-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "schedule-sync ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	webpushOptions := webpush.Options{
		VAPIDPublicKey:  cfg.Push.PublicKey,
		VAPIDPrivateKey: cfg.Push.PrivateKey,
		Subscriber:      cfg.Push.Subject,
		TTL:             cfg.Push.TTL,
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB, store.Options{
		PageSize:    cfg.Ingest.PageSize,
		BatchSize:   cfg.Ingest.BatchSize,
		MaxFilterIn: cfg.Ingest.MaxFilterIn,
		Retry: retry.Policy{
			MaxRetries: cfg.Ingest.MaxRetries,
			BaseDelay:  cfg.Ingest.BaseDelay,
		},
	})
	logger.Println("data store initialized")

	// The read cache is shared between the router and the ingestion service,
	// which flushes it after every successful run.
	cacheStore := cache.New(5*time.Minute, 10*time.Minute)

	workerPool := notification.NewWorkerPool(cfg.WorkerPool.Size, gormDB, &webpushOptions)
	workerPool.Start(ctx)

	ingestSvc := ingest.NewService(cfg, appStore, cacheStore, workerPool)

	// Initialize router
	router := api.NewRouter(cfg, appStore, ingestSvc, cacheStore, &webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
