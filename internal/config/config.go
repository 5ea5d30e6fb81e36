package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port            string
	DBConn          string
	LogLevel        string
	JWTSecret       string
	CSRFKey         []byte
	CSRFSecure      bool
	AlipayNotifyKey string
	WechatPayKey    string
	FineCron        string
	FineBatchSize   int
	SMTPHost        string
	SMTPPort        string
	SMTPUsername    string
	SMTPPassword    string
	SenderEmail     string
}

// NewConfig loads configuration from environment variables.
// A .env file in the working directory is applied first when present;
// variables already set in the environment win.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		DBConn:          getEnv("DB_CONN", "host=localhost port=5436 user=test password=test dbname=shop sslmode=disable"),
		LogLevel:        getEnv("LOG_LEVEL", "INFO"),
		JWTSecret:       getEnv("JWT_SECRET", "secret"),
		AlipayNotifyKey: getEnv("ALIPAY_NOTIFY_KEY", ""),
		WechatPayKey:    getEnv("WECHAT_PAY_KEY", ""),
		FineCron:        getEnv("FINE_CRON", "@daily"),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getEnv("SMTP_PORT", "587"),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SenderEmail:     getEnv("SENDER_EMAIL", "no-reply@shop.local"),
	}

	if cfg.DBConn == "" {
		return nil, fmt.Errorf("DB_CONN is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.FineCron == "" {
		return nil, fmt.Errorf("FINE_CRON is required")
	}

	key, err := hex.DecodeString(getEnv("CSRF_KEY", "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"))
	if err != nil {
		return nil, fmt.Errorf("CSRF_KEY must be hex encoded: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("CSRF_KEY must be 32 bytes, got %d", len(key))
	}
	cfg.CSRFKey = key

	cfg.CSRFSecure, err = strconv.ParseBool(getEnv("CSRF_SECURE", "true"))
	if err != nil {
		return nil, fmt.Errorf("CSRF_SECURE must be a boolean: %w", err)
	}

	cfg.FineBatchSize, err = strconv.Atoi(getEnv("FINE_BATCH_SIZE", "1000"))
	if err != nil {
		return nil, fmt.Errorf("FINE_BATCH_SIZE must be an integer: %w", err)
	}
	if cfg.FineBatchSize <= 0 {
		return nil, fmt.Errorf("FINE_BATCH_SIZE must be positive, got %d", cfg.FineBatchSize)
	}

	return cfg, nil
}

// MailEnabled reports whether SMTP settings are present
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
