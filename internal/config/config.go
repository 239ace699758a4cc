package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// HTTP server configuration
	Server ServerConfig

	// Database Configuration
	Database DatabaseConfig

	// Redis Configuration (task queue)
	Redis RedisConfig

	// Authentication configuration
	Auth AuthConfig

	// OTP issuance configuration
	OTP OTPConfig

	// Outgoing email configuration
	Mail MailConfig

	// Logging Configuration
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Address    string // listen address (host:port)
	CORSOrigin string // allowed browser origin for the SPA
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Address string // Redis address (host:port)
}

// AuthConfig holds token-related configuration
type AuthConfig struct {
	JWTSecret      string        // HMAC secret for session tokens and reset tickets
	TokenTTL       time.Duration // session token lifetime
	ResetTicketTTL time.Duration // password-reset ticket lifetime
}

// OTPConfig holds one-time passcode configuration
type OTPConfig struct {
	TTL            time.Duration // how long an issued code stays valid
	MaxAttempts    int           // failed verifications before a code is burned
	ResendInterval time.Duration // server-side minimum gap between issues per email+purpose
	PurgeSchedule  string        // cron expression for purging expired codes and tickets
}

// MailConfig holds outgoing email configuration
type MailConfig struct {
	Driver   string // "smtp" or "log"
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	smtpPort, err := intEnv("SMTP_PORT", 587)
	if err != nil {
		return nil, err
	}

	maxAttempts, err := intEnv("OTP_MAX_ATTEMPTS", 5)
	if err != nil {
		return nil, err
	}

	tokenTTL, err := durationEnv("TOKEN_TTL", 7*24*time.Hour)
	if err != nil {
		return nil, err
	}

	resetTicketTTL, err := durationEnv("RESET_TICKET_TTL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	otpTTL, err := durationEnv("OTP_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	resendInterval, err := durationEnv("OTP_RESEND_INTERVAL", 60*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Address:    stringEnv("HTTP_ADDRESS", ":8080"),
			CORSOrigin: stringEnv("CORS_ORIGIN", "http://localhost:5173"),
		},
		Database: DatabaseConfig{
			URL: stringEnv("DATABASE_URL", "storelane.sqlite"),
		},
		Redis: RedisConfig{
			Address: stringEnv("REDIS_ADDRESS", "localhost:6379"),
		},
		Auth: AuthConfig{
			JWTSecret:      jwtSecret,
			TokenTTL:       tokenTTL,
			ResetTicketTTL: resetTicketTTL,
		},
		OTP: OTPConfig{
			TTL:            otpTTL,
			MaxAttempts:    maxAttempts,
			ResendInterval: resendInterval,
			PurgeSchedule:  stringEnv("OTP_PURGE_SCHEDULE", "*/15 * * * *"),
		},
		Mail: MailConfig{
			Driver:   stringEnv("MAIL_DRIVER", "log"),
			Host:     stringEnv("SMTP_HOST", "localhost"),
			Port:     smtpPort,
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     stringEnv("MAIL_FROM", "no-reply@storelane.dev"),
		},
		Logging: LoggingConfig{
			Level:  stringEnv("LOG_LEVEL", "info"),
			Format: stringEnv("LOG_FORMAT", "json"),
		},
	}, nil
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
