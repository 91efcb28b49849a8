package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopops/payment-reaper/internal/api"
	"github.com/shopops/payment-reaper/internal/config"
	"github.com/shopops/payment-reaper/pkg/logger"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.NewLogger(cfg.LogLevel)
	l.Info("Starting incomplete-payment escalation engine...")

	server, err := api.NewServer(cfg, l)

	if err != nil {
		l.Error("Failed to initialize service", "error", err)
		os.Exit(1)
	}

	// Start the ops server in a goroutine
	go func() {
		l.Info(fmt.Sprintf("Ops server is starting on port %d", cfg.Port))

		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			l.Error("Failed to start ops server", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown via interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	l.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		l.Error("Service forced to shutdown", "error", err)
	} else {
		l.Info("Service exiting")
	}
}
