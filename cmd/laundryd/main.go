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

	"laundry-reserve-backend/config"
	"laundry-reserve-backend/internal/api"
	"laundry-reserve-backend/internal/clock"
	"laundry-reserve-backend/internal/db"
	"laundry-reserve-backend/internal/engine"
	"laundry-reserve-backend/internal/store"
	"laundry-reserve-backend/internal/sweeper"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "laundry-reserve ", log.LstdFlags)

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

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Provision the fleet once; counts already present are left alone.
	if err := db.SeedFleet(appStore.DB(), cfg.Reservation.Washers, cfg.Reservation.Dryers); err != nil {
		logger.Fatalf("failed to provision appliance fleet: %v", err)
	}

	eng := engine.New(&cfg.Reservation, appStore, clock.System())

	// Run the status sweeper in the background
	sweep := sweeper.New(&cfg.Sweeper, eng)
	go sweep.Run(ctx)

	// Initialize router
	router := api.NewRouter(eng, &cfg.Server)
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

	// Stop the sweeper, then drain the HTTP server.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
