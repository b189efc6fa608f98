package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("RECONCILE_INTERVAL", "")
	t.Setenv("LATE_AFTER", "")
	t.Setenv("OVERTIME_THRESHOLD_HOURS", "")
	t.Setenv("HALF_DAY_THRESHOLD_HOURS", "")

	cfg := Load()
	assert.Equal(t, StoreDriverPostgres, cfg.StoreDriver)
	assert.Equal(t, time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 8.0, cfg.OvertimeThreshold)
	assert.Equal(t, 5.0, cfg.HalfDayThreshold)
	assert.Equal(t, "09:30", cfg.LateAfter)
}

func TestLoadParsesEnvironment(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("RECONCILE_INTERVAL", "30s")
	t.Setenv("OVERTIME_THRESHOLD_HOURS", "7.5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("EMAIL_ENABLED", "not-a-bool")
	t.Setenv("SMTP_PORT", "2525")

	cfg := Load()
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 30*time.Second, cfg.ReconcileInterval)
	assert.Equal(t, 7.5, cfg.OvertimeThreshold)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.False(t, cfg.EmailEnabled)
	assert.Equal(t, 2525, cfg.SMTPPort)
}

func validConfig() Config {
	return Config{
		StoreDriver:       StoreDriverMemory,
		Environment:       "development",
		Timezone:          "UTC",
		LateAfter:         "09:30",
		MaxBodyBytes:      1 << 20,
		OvertimeThreshold: 8,
		HalfDayThreshold:  5,
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "postgres without url", mutate: func(c *Config) { c.StoreDriver = StoreDriverPostgres }},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "sqlite" }},
		{name: "production without secret", mutate: func(c *Config) { c.Environment = "production"; c.DatabaseURL = "postgres://x"; c.StoreDriver = StoreDriverPostgres }},
		{name: "production memory", mutate: func(c *Config) { c.Environment = "production"; c.JWTSecret = "s" }},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{name: "bad late clock", mutate: func(c *Config) { c.LateAfter = "25:99" }},
		{name: "tiny body limit", mutate: func(c *Config) { c.MaxBodyBytes = 10 }},
		{name: "half day above overtime", mutate: func(c *Config) { c.HalfDayThreshold = 9 }},
		{name: "email without host", mutate: func(c *Config) { c.EmailEnabled = true }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLateAfterClock(t *testing.T) {
	cfg := validConfig()
	cfg.LateAfter = "10:15"
	hour, minute, err := cfg.LateAfterClock()
	require.NoError(t, err)
	assert.Equal(t, 10, hour)
	assert.Equal(t, 15, minute)
}
