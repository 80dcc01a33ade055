package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	NSQ      NSQConfig
	JWT      JWTConfig
	Gateway  GatewayConfig
	Pricing  PricingConfig
	Jobs     JobsConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// NSQConfig holds the nsqd address notifications are published to. An empty
// address disables publishing.
type NSQConfig struct {
	Address string
}

// JWTConfig holds the bearer token settings.
type JWTConfig struct {
	Secret string
}

// GatewayConfig holds payment provider credentials.
type GatewayConfig struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
}

// PricingConfig holds the business constants for pricing and cancellation.
type PricingConfig struct {
	GSTElectric           float64
	GSTNonElectric        float64
	MinCancellationCharge float64
	AdvancePaymentPercent float64
	MinBookingHours       float64
	Timezone              string
	CartItemStaleAfter    time.Duration
}

// Location resolves the configured timezone.
func (c PricingConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// JobsConfig holds background job schedules.
type JobsConfig struct {
	CartPruneInterval    time.Duration
	PendingSweepInterval time.Duration
	PendingStaleAfter    time.Duration
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string
}

var defaults = map[string]any{
	"SERVER_PORT":             "8080",
	"SERVER_READ_TIMEOUT":     10 * time.Second,
	"SERVER_WRITE_TIMEOUT":    10 * time.Second,
	"SERVER_SHUTDOWN_TIMEOUT": 15 * time.Second,
	"CORS_ALLOWED_ORIGINS":    "",

	"DB_HOST":              "localhost",
	"DB_PORT":              "5432",
	"DB_USER":              "postgres",
	"DB_PASSWORD":          "postgres",
	"DB_NAME":              "motorent",
	"DB_SSLMODE":           "disable",
	"DB_MAX_OPEN_CONNS":    25,
	"DB_MAX_IDLE_CONNS":    5,
	"DB_CONN_MAX_LIFETIME": 5 * time.Minute,

	"REDIS_ADDR":          "localhost:6379",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"REDIS_POOL_SIZE":     20,
	"REDIS_DIAL_TIMEOUT":  5 * time.Second,
	"REDIS_READ_TIMEOUT":  time.Second,
	"REDIS_WRITE_TIMEOUT": time.Second,

	"NEW_RELIC_APP_NAME":    "motorent",
	"NEW_RELIC_LICENSE_KEY": "",
	"NEW_RELIC_ENABLED":     false,

	"NSQ_ADDRESS": "",

	"JWT_SECRET": "",

	"GATEWAY_BASE_URL":       "https://api.razorpay.com/v1",
	"GATEWAY_KEY_ID":         "",
	"GATEWAY_KEY_SECRET":     "",
	"GATEWAY_WEBHOOK_SECRET": "",
	"GATEWAY_CURRENCY":       "INR",
	"GATEWAY_TIMEOUT":        10 * time.Second,

	"GST_ELECTRIC":            5.0,
	"GST_NON_ELECTRIC":        28.0,
	"MIN_CANCELLATION_CHARGE": 199.0,
	"ADVANCE_PAYMENT_PERCENT": 20.0,
	"MIN_BOOKING_HOURS":       6.0,
	"TIMEZONE":                "Asia/Kolkata",
	"CART_ITEM_STALE_AFTER":   24 * time.Hour,

	"CART_PRUNE_INTERVAL":    time.Hour,
	"PENDING_SWEEP_INTERVAL": 15 * time.Minute,
	"PENDING_STALE_AFTER":    2 * time.Hour,

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",
}

// Load loads configuration from environment variables, optionally overlaid on
// a config.yaml found in the working directory or ./config.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			AllowedOrigins:  splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("DB_HOST"),
			Port:            v.GetString("DB_PORT"),
			User:            v.GetString("DB_USER"),
			Password:        v.GetString("DB_PASSWORD"),
			DBName:          v.GetString("DB_NAME"),
			SSLMode:         v.GetString("DB_SSLMODE"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Addr:         v.GetString("REDIS_ADDR"),
			Password:     v.GetString("REDIS_PASSWORD"),
			DB:           v.GetInt("REDIS_DB"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
		},
		NewRelic: NewRelicConfig{
			AppName:    v.GetString("NEW_RELIC_APP_NAME"),
			LicenseKey: v.GetString("NEW_RELIC_LICENSE_KEY"),
			Enabled:    v.GetBool("NEW_RELIC_ENABLED"),
		},
		NSQ: NSQConfig{
			Address: v.GetString("NSQ_ADDRESS"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
		},
		Gateway: GatewayConfig{
			BaseURL:       v.GetString("GATEWAY_BASE_URL"),
			KeyID:         v.GetString("GATEWAY_KEY_ID"),
			KeySecret:     v.GetString("GATEWAY_KEY_SECRET"),
			WebhookSecret: v.GetString("GATEWAY_WEBHOOK_SECRET"),
			Currency:      v.GetString("GATEWAY_CURRENCY"),
			Timeout:       v.GetDuration("GATEWAY_TIMEOUT"),
		},
		Pricing: PricingConfig{
			GSTElectric:           v.GetFloat64("GST_ELECTRIC"),
			GSTNonElectric:        v.GetFloat64("GST_NON_ELECTRIC"),
			MinCancellationCharge: v.GetFloat64("MIN_CANCELLATION_CHARGE"),
			AdvancePaymentPercent: v.GetFloat64("ADVANCE_PAYMENT_PERCENT"),
			MinBookingHours:       v.GetFloat64("MIN_BOOKING_HOURS"),
			Timezone:              v.GetString("TIMEZONE"),
			CartItemStaleAfter:    v.GetDuration("CART_ITEM_STALE_AFTER"),
		},
		Jobs: JobsConfig{
			CartPruneInterval:    v.GetDuration("CART_PRUNE_INTERVAL"),
			PendingSweepInterval: v.GetDuration("PENDING_SWEEP_INTERVAL"),
			PendingStaleAfter:    v.GetDuration("PENDING_STALE_AFTER"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Pricing.AdvancePaymentPercent <= 0 || c.Pricing.AdvancePaymentPercent > 100 {
		return fmt.Errorf("ADVANCE_PAYMENT_PERCENT must be in (0, 100], got %v", c.Pricing.AdvancePaymentPercent)
	}
	if _, err := c.Pricing.Location(); err != nil {
		return err
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
