package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	ListenAddr string `envconfig:"TRADBOT_LISTEN_ADDR" default:":8080"`

	StorageEndpoint  string `envconfig:"STORAGE_ENDPOINT" required:"true"`
	StorageAccessKey string `envconfig:"STORAGE_ACCESS_KEY" required:"true"`
	StorageSecretKey string `envconfig:"STORAGE_SECRET_KEY" required:"true"`
	StorageRegion    string `envconfig:"STORAGE_REGION" default:"us-east-1"`
	StorageUseSSL    bool   `envconfig:"STORAGE_USE_SSL" default:"true"`
	InputBucket      string `envconfig:"INPUT_BUCKET" default:"doc-to-trad"`
	OutputBucket     string `envconfig:"OUTPUT_BUCKET" default:"doc-trad"`

	TranslatorEndpoint string `envconfig:"TRANSLATOR_ENDPOINT" required:"true"`
	TranslatorKey      string `envconfig:"TRANSLATOR_KEY" required:"true"`

	GraphClientID     string `envconfig:"GRAPH_CLIENT_ID" default:""`
	GraphClientSecret string `envconfig:"GRAPH_CLIENT_SECRET" default:""`
	GraphTenantID     string `envconfig:"GRAPH_TENANT_ID" default:""`
	DeliveryEnabled   bool   `envconfig:"DELIVERY_ENABLED" default:"false"`
	DeliveryFolder    string `envconfig:"DELIVERY_FOLDER" default:"Translated Documents"`

	LocatorTTL     time.Duration `envconfig:"LOCATOR_TTL" default:"2h"`
	DownloadTTL    time.Duration `envconfig:"DOWNLOAD_TTL" default:"24h"`
	CancelGrace    time.Duration `envconfig:"CANCEL_GRACE" default:"5m"`
	ArtifactMaxAge time.Duration `envconfig:"ARTIFACT_MAX_AGE" default:"1h"`
	SweepMaxAge    time.Duration `envconfig:"SWEEP_MAX_AGE" default:"2h"`
	SweepSchedule  string        `envconfig:"SWEEP_SCHEDULE" default:"@every 30m"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.StorageEndpoint) == "" {
		return fmt.Errorf("STORAGE_ENDPOINT is required")
	}
	if strings.TrimSpace(c.StorageAccessKey) == "" || strings.TrimSpace(c.StorageSecretKey) == "" {
		return fmt.Errorf("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required")
	}
	if strings.TrimSpace(c.InputBucket) == "" || strings.TrimSpace(c.OutputBucket) == "" {
		return fmt.Errorf("INPUT_BUCKET and OUTPUT_BUCKET are required")
	}
	if c.InputBucket == c.OutputBucket {
		return fmt.Errorf("INPUT_BUCKET and OUTPUT_BUCKET must differ")
	}
	if strings.TrimSpace(c.TranslatorEndpoint) == "" {
		return fmt.Errorf("TRANSLATOR_ENDPOINT is required")
	}
	if strings.TrimSpace(c.TranslatorKey) == "" {
		return fmt.Errorf("TRANSLATOR_KEY is required")
	}
	if c.LocatorTTL < time.Minute {
		return fmt.Errorf("LOCATOR_TTL must be at least 1m")
	}
	if c.DownloadTTL < time.Minute {
		return fmt.Errorf("DOWNLOAD_TTL must be at least 1m")
	}
	if c.CancelGrace < 0 {
		return fmt.Errorf("CANCEL_GRACE cannot be negative")
	}
	if c.SweepMaxAge < time.Minute {
		return fmt.Errorf("SWEEP_MAX_AGE must be at least 1m")
	}
	if strings.TrimSpace(c.SweepSchedule) == "" {
		return fmt.Errorf("SWEEP_SCHEDULE is required")
	}
	if c.DeliveryEnabled {
		if c.GraphClientID == "" || c.GraphClientSecret == "" || c.GraphTenantID == "" {
			return fmt.Errorf("DELIVERY_ENABLED requires GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET and GRAPH_TENANT_ID")
		}
	}
	return nil
}
