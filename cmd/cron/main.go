package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dan9191/shop-service/internal/app"
	"github.com/Dan9191/shop-service/internal/config"
	"github.com/Dan9191/shop-service/internal/repository"
	"github.com/Dan9191/shop-service/internal/scheduler"
	"github.com/sirupsen/logrus"
)

// Usage:
//
//	cron                                  run the scheduler in the foreground
//	cron cron:calculate-installment-fine  run one task now and exit
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	logger := app.NewLogger(cfg.LogLevel)

	db, err := app.OpenDB(cfg)
	if err != nil {
		logger.Fatalf("Database unavailable: %v", err)
	}
	defer db.Close()

	sched, err := app.NewScheduler(cfg, repository.NewRepository(db), logger)
	if err != nil {
		logger.Fatalf("Failed to set up scheduler: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 {
		if err := sched.RunOnce(ctx, os.Args[1]); err != nil {
			if errors.Is(err, scheduler.ErrUnknownTask) {
				fmt.Fprintf(os.Stderr, "unknown task %q, available: %v\n", os.Args[1], sched.Tasks())
			}
			db.Close()
			os.Exit(1)
		}
		return
	}

	sched.Start()
	<-ctx.Done()
	<-sched.Stop().Done()
}
