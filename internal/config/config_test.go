package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("APP_URL", "https://shop.example.com/")

	cfg := Load()

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Len(t, cfg.JWTSecret, 32)
	assert.Equal(t, "https://shop.example.com", cfg.AppURL)
	assert.True(t, cfg.ExpiryJobEnabled)
	assert.Equal(t, time.Minute, cfg.ExpiryCheckInterval)
	assert.Equal(t, 24*time.Hour, cfg.ManualPaymentWindow)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("EXPIRY_JOB_ENABLED", "no")
	t.Setenv("EXPIRY_CHECK_INTERVAL", "30")
	t.Setenv("MANUAL_PAYMENT_WINDOW", "2h")
	t.Setenv("HTTP_CLIENT_TIMEOUT", "0")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()

	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, 9000, cfg.ServerPort)
	assert.False(t, cfg.ExpiryJobEnabled)
	assert.Equal(t, 30*time.Second, cfg.ExpiryCheckInterval)
	assert.Equal(t, 2*time.Hour, cfg.ManualPaymentWindow)
	assert.Equal(t, time.Duration(0), cfg.HTTPClientTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestGetEnvAsDurationInvalid(t *testing.T) {
	t.Setenv("SOME_WINDOW", "soon")
	assert.Equal(t, time.Hour, getEnvAsDuration("SOME_WINDOW", time.Hour))

	t.Setenv("SOME_WINDOW", "-5s")
	assert.Equal(t, time.Hour, getEnvAsDuration("SOME_WINDOW", time.Hour))
}
