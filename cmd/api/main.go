package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dan9191/shop-service/internal/app"
	"github.com/Dan9191/shop-service/internal/config"
	"github.com/Dan9191/shop-service/internal/handler"
	"github.com/Dan9191/shop-service/internal/integrations/paynotify"
	"github.com/Dan9191/shop-service/internal/repository"
	"github.com/Dan9191/shop-service/internal/service"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := app.NewLogger(cfg.LogLevel)

	// Initialize database
	db, err := app.OpenDB(cfg)
	if err != nil {
		logger.Fatalf("Database unavailable: %v", err)
	}
	defer db.Close()

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, logger, cfg)
	h := handler.NewHandler(svc, paynotify.NewGateway(cfg, logger), logger)

	sched, err := app.NewScheduler(cfg, repo, logger)
	if err != nil {
		logger.Fatalf("Failed to set up scheduler: %v", err)
	}
	sched.Start()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      h.Router(cfg),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server shutdown failed")
	}
	select {
	case <-sched.Stop().Done():
	case <-ctx.Done():
		logger.Warn("Scheduled tasks still running at shutdown")
	}
}
