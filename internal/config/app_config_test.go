package config

import (
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("COURIER_DATA_DIR", t.TempDir())

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8990, c.Port)
	assert.Equal(t, "info", c.LogLevel)
	assert.False(t, c.LogToFile)
	assert.Equal(t, 30*time.Second, c.SendTimeout)
	assert.Equal(t, 5*time.Minute, c.HealthProbeInterval)
	assert.Equal(t, 587, c.SMTP.Port)
	assert.Equal(t, "starttls", c.SMTP.Encryption)
}

func TestLoad_FromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("COURIER_DATA_DIR", dir)
	t.Setenv("PORT", "9001")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SEND_TIMEOUT", "10s")
	t.Setenv("SENDGRID_API_KEY", "sg-key")
	t.Setenv("SENDGRID_FROM_ADDRESS", "noreply@svc.com")
	t.Setenv("SMTP_HOST", "mail.svc.com")
	t.Setenv("SMTP_ENCRYPTION", "ssl_tls")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, c.DataDir)
	assert.Equal(t, 9001, c.Port)
	assert.Equal(t, 10*time.Second, c.SendTimeout)
	assert.Equal(t, "sg-key", c.SendGrid.APIKey)
	assert.Equal(t, "noreply@svc.com", c.SendGrid.FromAddress)
	assert.Equal(t, "mail.svc.com", c.SMTP.Host)
	assert.Equal(t, "ssl_tls", c.SMTP.Encryption)
}

func TestAppConfig_Paths(t *testing.T) {
	c := &AppConfig{DataDir: "/data/courier"}

	assert.Equal(t, filepath.Join("/data/courier", "logs"), c.LogDir())
	assert.Equal(t, filepath.Join("/data/courier", "courier.db"), c.DBPath())
	assert.Equal(t, filepath.Join("/data/courier", "providers.yaml"), c.RoutingPath())
}

func TestSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
	}
	for in, want := range cases {
		c := &AppConfig{LogLevel: in}
		assert.Equal(t, want, c.SlogLevel(), "level %q", in)
	}
}
