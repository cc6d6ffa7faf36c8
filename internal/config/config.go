package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/edwardmsalem/sms-gateway/pkg/logger"

	"go.uber.org/zap"
)

// BankConfig describes one configured SIM bank device.
type BankConfig struct {
	ID       string `json:"id"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Config holds all configuration settings
type Config struct {
	Server struct {
		Port int    `json:"port"`
		Host string `json:"host"`
	} `json:"server"`
	Database struct {
		DSN string `json:"dsn"`
	} `json:"database"`
	Banks     []BankConfig `json:"banks"`
	Readiness struct {
		PollInterval time.Duration `json:"poll_interval"`
		Ceiling      time.Duration `json:"ceiling"`
		HTTPTimeout  time.Duration `json:"http_timeout"`
	} `json:"readiness"`
	Send struct {
		Attempts  int           `json:"attempts"`
		BaseDelay time.Duration `json:"base_delay"`
	} `json:"send"`
	Dedupe struct {
		Window         time.Duration `json:"window"`
		SweepThreshold int           `json:"sweep_threshold"`
	} `json:"dedupe"`
	Notify struct {
		WebhookURL          string `json:"webhook_url"`
		VerificationChannel string `json:"verification_channel"`
		SpamChannel         string `json:"spam_channel"`
	} `json:"notify"`
	Spam struct {
		ClassifierURL string        `json:"classifier_url"`
		Timeout       time.Duration `json:"timeout"`
	} `json:"spam"`
	JWT struct {
		Secret      string        `json:"secret"`
		TokenExpiry time.Duration `json:"token_expiry"`
	} `json:"jwt"`
	Logging struct {
		Level string `json:"level"`
		Path  string `json:"path"`
	} `json:"logging"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	// Validate path to prevent directory traversal
	cleanPath := filepath.Clean(path)
	if !filepath.IsAbs(cleanPath) {
		return nil, fmt.Errorf("config path must be absolute")
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("config file error: %w", err)
	}
	if !fileInfo.Mode().IsRegular() {
		return nil, fmt.Errorf("config path is not a regular file")
	}

	file, err := os.Open(cleanPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			logger.Warn("Failed to close config file", zap.Error(closeErr))
		}
	}()

	config := DefaultConfig()
	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the invariants the rest of the system assumes.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("invalid server port")
	}
	if c.Readiness.PollInterval <= 0 {
		return fmt.Errorf("readiness poll interval must be positive")
	}
	if c.Readiness.Ceiling < c.Readiness.PollInterval {
		return fmt.Errorf("readiness ceiling must be at least one poll interval")
	}
	if c.Send.Attempts < 1 {
		return fmt.Errorf("send attempts must be at least 1")
	}
	seen := make(map[string]bool, len(c.Banks))
	for _, b := range c.Banks {
		if b.ID == "" {
			return fmt.Errorf("bank entry is missing an id")
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate bank id %q", b.ID)
		}
		seen[b.ID] = true
		if b.Host == "" {
			return fmt.Errorf("bank %q is missing a host", b.ID)
		}
	}
	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	config := &Config{}
	config.Server.Port = 8080
	config.Server.Host = "localhost"
	config.Database.DSN = "file:gateway.db?cache=shared&mode=rwc"
	config.Readiness.PollInterval = 10 * time.Second
	config.Readiness.Ceiling = 90 * time.Second
	config.Readiness.HTTPTimeout = 5 * time.Second
	config.Send.Attempts = 3
	config.Send.BaseDelay = time.Second
	config.Dedupe.Window = 30 * time.Minute
	config.Dedupe.SweepThreshold = 100
	config.Notify.VerificationChannel = "verification-codes"
	config.Notify.SpamChannel = "sms-spam"
	config.Spam.Timeout = 5 * time.Second
	config.JWT.Secret = "change-me" // overridden via config file in production
	config.JWT.TokenExpiry = 24 * time.Hour
	config.Logging.Level = "info"
	config.Logging.Path = "gateway.log"
	return config
}
