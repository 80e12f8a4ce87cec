package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pulse-social/backend/internal/events"
	"github.com/pulse-social/backend/internal/realtime"
	"github.com/pulse-social/backend/internal/router"
	"github.com/pulse-social/backend/pkg/config"
	"github.com/pulse-social/backend/validators"
)

const (
	eventBufferSize  = 256
	eventWorkerCount = 4
	shutdownTimeout  = 10 * time.Second
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Event pipeline and live push registry
	bus := events.NewBus(eventBufferSize)
	registry := realtime.NewRegistry()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, cfg, db, bus, registry)

	// Validator
	e.Validator = validators.NewValidator()

	// Workers start only after all subscribers are registered.
	bus.Start(eventWorkerCount)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown: stop accepting requests, drain the event queue, then
	// tear down the live streams.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	bus.Close()
	registry.Close()
}
