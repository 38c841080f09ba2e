package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP server port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.courier.
	DataDir string `envconfig:"COURIER_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogToFile routes logs to a rotating file under LogDir instead of stderr.
	LogToFile bool `envconfig:"LOG_TO_FILE"`

	// SendTimeout bounds each delivery attempt. Defaults to 30s.
	SendTimeout time.Duration `envconfig:"SEND_TIMEOUT" default:"30s"`

	// HealthProbeInterval is how often provider configurations are re-probed.
	HealthProbeInterval time.Duration `envconfig:"HEALTH_PROBE_INTERVAL" default:"5m"`

	SendGrid SendGridSettings
	SMTP     SMTPSettings
	Gmail    GmailSettings
}

// SendGridSettings configures the SendGrid provider. The provider is
// registered only when APIKey is set.
type SendGridSettings struct {
	APIKey      string `envconfig:"SENDGRID_API_KEY"`
	FromAddress string `envconfig:"SENDGRID_FROM_ADDRESS"`
	FromName    string `envconfig:"SENDGRID_FROM_NAME"`
}

// SMTPSettings configures the SMTP provider. The provider is registered
// only when Host is set.
type SMTPSettings struct {
	Host        string `envconfig:"SMTP_HOST"`
	Port        int    `envconfig:"SMTP_PORT" default:"587"`
	Username    string `envconfig:"SMTP_USERNAME"`
	Password    string `envconfig:"SMTP_PASSWORD"`
	Encryption  string `envconfig:"SMTP_ENCRYPTION" default:"starttls"`
	FromAddress string `envconfig:"SMTP_FROM_ADDRESS"`
	FromName    string `envconfig:"SMTP_FROM_NAME"`
}

// GmailSettings configures the Gmail API provider. The provider is
// registered only when all three OAuth credentials are set.
type GmailSettings struct {
	ClientID     string `envconfig:"GMAIL_CLIENT_ID"`
	ClientSecret string `envconfig:"GMAIL_CLIENT_SECRET"`
	RefreshToken string `envconfig:"GMAIL_REFRESH_TOKEN"`
	FromAddress  string `envconfig:"GMAIL_FROM_ADDRESS"`
	FromName     string `envconfig:"GMAIL_FROM_NAME"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.courier if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".courier")
	}
	return &c, nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory (~/.courier/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the SQLite delivery log database.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "courier.db")
}

// RoutingPath returns the path to the routing policy YAML file.
func (c *AppConfig) RoutingPath() string {
	return filepath.Join(c.DataDir, "providers.yaml")
}
