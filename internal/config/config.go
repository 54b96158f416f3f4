package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/oisentinel/models"
)

// Load initializes configuration from environment variables
func Load() (*models.Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg models.Config

	cfg.Symbol = getEnvWithDefault("SYMBOL", "NIFTY")
	cfg.OIChangeThresholdPercent = getEnvFloatWithDefault("OI_CHANGE_THRESHOLD_PERCENT", 400.0)
	cfg.OIRatioThreshold = getEnvFloatWithDefault("OI_RATIO_THRESHOLD", 2.0)
	cfg.StrikeRange = getEnvIntWithDefault("STRIKE_RANGE", 6)
	cfg.PollIntervalSeconds = getEnvIntWithDefault("POLL_INTERVAL_SECONDS", 60)
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 10)

	cfg.BaselineCaptureStart = getEnvWithDefault("BASELINE_CAPTURE_START", "09:17")
	cfg.BaselineCaptureDeadline = getEnvWithDefault("BASELINE_CAPTURE_DEADLINE", "09:22")

	cfg.ExpiryDates = getEnvWithDefault("EXPIRY_DATES", "")

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "oisentinel")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.EmailEnabled = getEnvBoolWithDefault("EMAIL_ENABLED", false)
	cfg.SMTPServer = getEnvWithDefault("SMTP_SERVER", "smtp.gmail.com")
	cfg.SMTPPort = getEnvIntWithDefault("SMTP_PORT", 465)
	cfg.EmailFrom = os.Getenv("EMAIL_FROM")
	cfg.EmailTo = os.Getenv("EMAIL_TO")
	cfg.EmailPassword = os.Getenv("EMAIL_PASSWORD")

	cfg.TelegramEnabled = getEnvBoolWithDefault("TELEGRAM_ENABLED", false)
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes" || value == "True"
	}
	return defaultValue
}
