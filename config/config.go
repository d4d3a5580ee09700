package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	// Webhook configuration
	VerifyToken string `env:"VERIFY_TOKEN"`
	AppSecret   string `env:"APP_SECRET"`
	WebhookPath string `env:"WEBHOOK_PATH" default:"/"`

	// Send API configuration
	PageAccessToken string        `env:"PAGE_ACCESS_TOKEN"`
	GraphAPIURL     string        `env:"GRAPH_API_URL" default:"https://graph.facebook.com"`
	GraphAPIVersion string        `env:"GRAPH_API_VERSION" default:"v11.0"`
	SendTimeout     time.Duration `env:"SEND_TIMEOUT" default:"10s"`

	// Dispatch configuration
	DispatchConcurrency int           `env:"DISPATCH_CONCURRENCY" default:"8"`
	DedupTTL            time.Duration `env:"DEDUP_TTL" default:"0s"` // 0 disables replay protection

	// Server configuration
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"json"`
}

// Load reads the configuration from the environment, falling back to a .env
// file in the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks required values and ranges.
func (c *Config) Validate() error {
	if c.VerifyToken == "" {
		return errors.New("VERIFY_TOKEN is required")
	}
	if c.PageAccessToken == "" {
		return errors.New("PAGE_ACCESS_TOKEN is required")
	}

	if !strings.HasPrefix(c.WebhookPath, "/") {
		return fmt.Errorf("WEBHOOK_PATH must start with '/', got %q", c.WebhookPath)
	}

	u, err := url.Parse(c.GraphAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("GRAPH_API_URL must be an absolute URL, got %q", c.GraphAPIURL)
	}
	if c.GraphAPIVersion == "" {
		return errors.New("GRAPH_API_VERSION must not be empty")
	}

	if c.SendTimeout <= 0 {
		return fmt.Errorf("SEND_TIMEOUT must be positive, got %s", c.SendTimeout)
	}
	if c.DispatchConcurrency < 1 {
		return fmt.Errorf("DISPATCH_CONCURRENCY must be at least 1, got %d", c.DispatchConcurrency)
	}
	if c.DedupTTL < 0 {
		return fmt.Errorf("DEDUP_TTL must not be negative, got %s", c.DedupTTL)
	}

	return nil
}

// SendAPIURL returns the Send API endpoint without credentials.
func (c *Config) SendAPIURL() string {
	return fmt.Sprintf("%s/%s/me/messages", strings.TrimRight(c.GraphAPIURL, "/"), c.GraphAPIVersion)
}
