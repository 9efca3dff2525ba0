// Command taposcan-server runs the HTTP control plane around the
// discovery engine: POST /api/v1/scan triggers one synchronous sweep,
// GET /health reports liveness. Initializes a production zap logger,
// loads viper-backed configuration, and shuts down gracefully on
// SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/localcam/taposcan/internal/api"
	"github.com/localcam/taposcan/internal/config"
	"github.com/localcam/taposcan/internal/publisher"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sugar := logger.Sugar()
	sugar.Info("starting taposcan server")

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("failed to load configuration: %v", err)
	}

	sugar.Infow("configuration loaded",
		"bind_address", cfg.Server.BindAddress,
		"max_parallelism", cfg.Scan.MaxParallelism,
		"rabbitmq_enabled", cfg.RabbitMQ.Enabled,
	)

	var pub *publisher.Publisher
	if cfg.RabbitMQ.Enabled {
		pub, err = publisher.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, sugar)
		if err != nil {
			sugar.Fatalf("failed to initialize publisher: %v", err)
		}
		defer pub.Close()
	}

	server := api.New(cfg.Server, cfg.Scan, pub, sugar)

	httpServer := &http.Server{
		Addr:         cfg.Server.BindAddress,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sugar.Infof("HTTP server listening on %s", cfg.Server.BindAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sugar.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		sugar.Errorf("server forced to shutdown: %v", err)
	}

	sugar.Info("server stopped")
}
