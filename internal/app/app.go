package app

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/Dan9191/shop-service/internal/config"
	"github.com/Dan9191/shop-service/internal/repository"
	"github.com/Dan9191/shop-service/internal/scheduler"
	"github.com/Dan9191/shop-service/internal/service"
	"github.com/Dan9191/shop-service/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// NewLogger builds the JSON logger shared by every binary
func NewLogger(level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)
	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	return logger
}

// OpenDB connects to Postgres and verifies the connection
func OpenDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewScheduler registers the background tasks
func NewScheduler(cfg *config.Config, repo *repository.Repository, logger *logrus.Logger) (*scheduler.Scheduler, error) {
	var notifier service.FineNotifier
	if cfg.MailEnabled() {
		notifier = email.NewSender(cfg, logger)
	}
	fines := service.NewFineCalculator(repo, notifier, logger, cfg.FineBatchSize)

	s := scheduler.New(logger)
	err := s.Register(scheduler.Task{
		Name: service.CalculateInstallmentFineTask,
		Spec: cfg.FineCron,
		Run:  fines.Run,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}
