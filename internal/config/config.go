// File: internal/config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	// Server Configuration
	GinMode       string        `mapstructure:"GIN_MODE"`
	ServerHost    string        `mapstructure:"SERVER_HOST"`
	ServerPort    string        `mapstructure:"SERVER_PORT"`
	ServerTimeout time.Duration `mapstructure:"SERVER_TIMEOUT_SECONDS"`
	CORSOrigins   []string      `mapstructure:"CORS_ORIGINS"`

	// Database Configuration
	DBHost            string        `mapstructure:"DB_HOST"`
	DBPort            string        `mapstructure:"DB_PORT"`
	DBUser            string        `mapstructure:"DB_USER"`
	DBPassword        string        `mapstructure:"DB_PASSWORD"`
	DBName            string        `mapstructure:"DB_NAME"`
	DBSSLMode         string        `mapstructure:"DB_SSL_MODE"`
	DBTimezone        string        `mapstructure:"DB_TIMEZONE"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME_MINUTES"`

	// Redis Configuration
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Logging Configuration
	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`

	// Session / OTP Configuration
	JWTSecretKey       string        `mapstructure:"JWT_SECRET_KEY"`
	SessionTokenExpiry time.Duration `mapstructure:"SESSION_TOKEN_EXPIRY_MINUTES"`
	OTPExpiry          time.Duration `mapstructure:"OTP_EXPIRY_MINUTES"`
	OTPLength          int           `mapstructure:"OTP_LENGTH"`
	// OTPStaticCode, when non-empty, is accepted for any pending verification.
	// Local and E2E use only; must be empty in production.
	OTPStaticCode string `mapstructure:"OTP_STATIC_CODE"`

	// SMTP Configuration (OTP delivery; optional, codes are logged when unset)
	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort int    `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	SMTPFrom string `mapstructure:"SMTP_FROM"`

	// File storage
	FileStoragePath   string `mapstructure:"FILE_STORAGE_PATH"`
	FilePublicBaseURL string `mapstructure:"FILE_PUBLIC_BASE_URL"`

	// Cron Jobs
	AppointmentCompletionJobSchedule string `mapstructure:"APPOINTMENT_COMPLETION_JOB_SCHEDULE"`

	// Appointment defaults
	DefaultAppointmentMinutes int `mapstructure:"DEFAULT_APPOINTMENT_MINUTES"`

	// Elasticsearch Configuration (optional lawyer directory search)
	ElasticsearchURL string `mapstructure:"ELASTICSEARCH_URL"`
}

// Load attempts to load configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	v := viper.New()

	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT_SECONDS", 30)
	v.SetDefault("CORS_ORIGINS", []string{"*"})

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "password")
	v.SetDefault("DB_NAME", "kanoonwise_db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MINUTES", 60)

	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("JWT_SECRET_KEY", "")
	v.SetDefault("SESSION_TOKEN_EXPIRY_MINUTES", 60*24)
	v.SetDefault("OTP_EXPIRY_MINUTES", 10)
	v.SetDefault("OTP_LENGTH", 6)
	v.SetDefault("OTP_STATIC_CODE", "")

	v.SetDefault("SMTP_HOST", "")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USER", "")
	v.SetDefault("SMTP_PASS", "")
	v.SetDefault("SMTP_FROM", "no-reply@kanoonwise.com")

	v.SetDefault("FILE_STORAGE_PATH", "./uploads")
	v.SetDefault("FILE_PUBLIC_BASE_URL", "http://localhost:8080/uploads")

	v.SetDefault("APPOINTMENT_COMPLETION_JOB_SCHEDULE", "@hourly")
	v.SetDefault("DEFAULT_APPOINTMENT_MINUTES", 30)

	v.SetDefault("ELASTICSEARCH_URL", "")

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}

	// Convert duration fields declared in whole units.
	cfg.ServerTimeout = time.Duration(v.GetInt("SERVER_TIMEOUT_SECONDS")) * time.Second
	cfg.DBConnMaxLifetime = time.Duration(v.GetInt("DB_CONN_MAX_LIFETIME_MINUTES")) * time.Minute
	cfg.SessionTokenExpiry = time.Duration(v.GetInt("SESSION_TOKEN_EXPIRY_MINUTES")) * time.Minute
	cfg.OTPExpiry = time.Duration(v.GetInt("OTP_EXPIRY_MINUTES")) * time.Minute

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("FATAL: JWT_SECRET_KEY is not set; session tokens cannot be signed")
	}
	if cfg.OTPLength < 4 || cfg.OTPLength > 8 {
		return nil, fmt.Errorf("OTP_LENGTH must be between 4 and 8, got %d", cfg.OTPLength)
	}

	return &cfg, nil
}

// DSN returns the GORM Postgres DSN built from the individual DB_* params.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode, c.DBTimezone)
}

// MigrateURL returns the database URL in the format golang-migrate expects.
func (c *Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}
