// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// HoldExpiryMinutes bounds how long an unpaid pending booking keeps its slot.
	HoldExpiryMinutes int `yaml:"hold_expiry_minutes"`
	// SweepCron schedules the expired-hold sweep. Empty disables the sweep;
	// expiry is still enforced lazily at read and reserve time.
	SweepCron string `yaml:"sweep_cron"`
}

type PaymentsConfig struct {
	StripeSecretKey        string `yaml:"-"` // Loaded from environment
	MercadoPagoToken       string `yaml:"-"` // Loaded from environment
	CheckoutSuccessURL     string `yaml:"checkout_success_url"`
	CheckoutCancelURL      string `yaml:"checkout_cancel_url"`
	WebhookNotificationURL string `yaml:"webhook_notification_url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"` // Loaded from environment
	DB       int    `yaml:"db"`
}

type EmailConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Region          string `yaml:"region"`
	Sender          string `yaml:"sender"`
	AccessKeyID     string `yaml:"-"` // Loaded from environment
	SecretAccessKey string `yaml:"-"` // Loaded from environment
}

type RateLimitConfig struct {
	ReservePerMinute int `yaml:"reserve_per_minute"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
	} `yaml:"app"`

	Database  DatabaseConfig  `yaml:"database"`
	Booking   BookingConfig   `yaml:"booking"`
	Payments  PaymentsConfig  `yaml:"payments"`
	Redis     RedisConfig     `yaml:"redis"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

const defaultHoldExpiryMinutes = 10

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.Payments.StripeSecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Payments.MercadoPagoToken = os.Getenv("MERCADOPAGO_ACCESS_TOKEN")
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Email.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Email.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	if cfg.Booking.HoldExpiryMinutes == 0 {
		cfg.Booking.HoldExpiryMinutes = defaultHoldExpiryMinutes
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Booking.HoldExpiryMinutes < 0 {
		return fmt.Errorf("hold_expiry_minutes must not be negative")
	}
	if c.Booking.SweepCron != "" {
		if _, err := cron.ParseStandard(c.Booking.SweepCron); err != nil {
			return fmt.Errorf("invalid sweep_cron expression: %w", err)
		}
	}
	if c.RateLimit.ReservePerMinute < 0 {
		return fmt.Errorf("reserve_per_minute must not be negative")
	}
	if c.Email.Enabled {
		if c.Email.Region == "" || c.Email.Sender == "" {
			return fmt.Errorf("email region and sender are required when email is enabled")
		}
	}

	return nil
}
