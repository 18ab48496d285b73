package config

import (
	"os"
	"path/filepath"
	"testing"
)

const validYAML = `
app:
  name: reservalo
  environment: test
  port: 8080
database:
  driver: sqlite
  filename: data/test.db
booking:
  hold_expiry_minutes: 15
  sweep_cron: "*/5 * * * *"
`

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValid(t *testing.T) {
	cfg, err := Load(writeConfig(t, validYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Booking.HoldExpiryMinutes != 15 {
		t.Errorf("hold expiry = %d, want 15", cfg.Booking.HoldExpiryMinutes)
	}
	if cfg.Booking.SweepCron != "*/5 * * * *" {
		t.Errorf("sweep cron = %s", cfg.Booking.SweepCron)
	}
}

func TestLoadDefaultsHoldExpiry(t *testing.T) {
	yaml := `
app:
  name: reservalo
  environment: test
  port: 8080
database:
  driver: sqlite
  filename: data/test.db
`
	cfg, err := Load(writeConfig(t, yaml))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Booking.HoldExpiryMinutes != defaultHoldExpiryMinutes {
		t.Errorf("hold expiry = %d, want default %d", cfg.Booking.HoldExpiryMinutes, defaultHoldExpiryMinutes)
	}
}

func TestLoadRejectsBadSweepCron(t *testing.T) {
	yaml := `
app:
  name: reservalo
  environment: test
  port: 8080
database:
  driver: sqlite
  filename: data/test.db
booking:
  sweep_cron: "every five minutes"
`
	if _, err := Load(writeConfig(t, yaml)); err == nil {
		t.Fatal("expected invalid sweep_cron to be rejected")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing app name", func(c *Config) { c.App.Name = "" }},
		{"missing port", func(c *Config) { c.App.Port = 0 }},
		{"unsupported driver", func(c *Config) { c.Database.Driver = "postgres" }},
		{"missing sqlite filename", func(c *Config) { c.Database.Filename = "" }},
		{"negative hold expiry", func(c *Config) { c.Booking.HoldExpiryMinutes = -1 }},
		{"negative rate limit", func(c *Config) { c.RateLimit.ReservePerMinute = -5 }},
		{"email enabled without region", func(c *Config) { c.Email.Enabled = true; c.Email.Sender = "x@y.z" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.App.Name = "reservalo"
			cfg.App.Port = 8080
			cfg.Database.Driver = "sqlite"
			cfg.Database.Filename = "data/test.db"
			cfg.Booking.HoldExpiryMinutes = 10

			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
