package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string        `json:"serverAddress"`
	DatabasePath  string        `json:"databasePath"`
	DatabaseURL   string        `json:"databaseUrl"`
	BlobStorage   BlobStorage   `json:"blobStorage"`
	Photos        Photos        `json:"photos"`
	Drafts        Drafts        `json:"drafts"`
	Security      Security      `json:"security"`
	Notifications Notifications `json:"notifications"`
	Telemetry     Telemetry     `json:"telemetry"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// BlobStorage configuration. Driver is "local" or "s3".
type BlobStorage struct {
	Driver   string `json:"driver"`
	BasePath string `json:"basePath"`
	S3       S3     `json:"s3"`
}

// S3 configuration, used when the blob driver is "s3"
type S3 struct {
	Region    string `json:"region"`
	Bucket    string `json:"bucket"`
	Endpoint  string `json:"endpoint"`
	PathStyle bool   `json:"pathStyle"`
}

// Photos configuration for the capture pipeline
type Photos struct {
	MaxDimension int `json:"maxDimension"`
	Quality      int `json:"quality"`
}

// Drafts configuration: sync debounce, spool directory for write-ahead
// logs and the draft cache backing store. An empty RedisAddr keeps the
// cache in process memory.
type Drafts struct {
	QuietPeriodSeconds int    `json:"quietPeriodSeconds"`
	SpoolDir           string `json:"spoolDir"`
	CacheTTLMinutes    int    `json:"cacheTtlMinutes"`
	RedisAddr          string `json:"redisAddr"`
}

// Security configuration
type Security struct {
	APIKeyHeader string `json:"apiKeyHeader"`
}

// Notifications configuration. An empty WebhookURL disables the
// completion webhook; WebSocket broadcasting is always on.
type Notifications struct {
	WebhookURL string `json:"webhookUrl"`
}

// Telemetry configuration for OTLP export
type Telemetry struct {
	Enabled      bool   `json:"enabled"`
	OTLPEndpoint string `json:"otlpEndpoint"`
	Environment  string `json:"environment"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "facilityinspect.db",
		BlobStorage: BlobStorage{
			Driver:   "local",
			BasePath: "./photos",
		},
		Photos: Photos{
			MaxDimension: 1600,
			Quality:      85,
		},
		Drafts: Drafts{
			QuietPeriodSeconds: 3,
			SpoolDir:           "./spool",
			CacheTTLMinutes:    720,
		},
		Security: Security{
			APIKeyHeader: "X-API-Key",
		},
		Telemetry: Telemetry{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
			Environment:  "development",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if driver := os.Getenv("BLOB_DRIVER"); driver != "" {
		cfg.BlobStorage.Driver = driver
	}
	if basePath := os.Getenv("BLOB_STORAGE_PATH"); basePath != "" {
		cfg.BlobStorage.BasePath = basePath
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		cfg.BlobStorage.S3.Bucket = bucket
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		cfg.BlobStorage.S3.Region = region
	}
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.BlobStorage.S3.Endpoint = endpoint
		cfg.BlobStorage.S3.PathStyle = true
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Drafts.RedisAddr = addr
	}
	if dir := os.Getenv("DRAFT_SPOOL_DIR"); dir != "" {
		cfg.Drafts.SpoolDir = dir
	}
	if quiet := os.Getenv("DRAFT_QUIET_PERIOD_SECONDS"); quiet != "" {
		if seconds, err := strconv.Atoi(quiet); err == nil && seconds > 0 {
			cfg.Drafts.QuietPeriodSeconds = seconds
		}
	}
	if url := os.Getenv("COMPLETION_WEBHOOK_URL"); url != "" {
		cfg.Notifications.WebhookURL = url
	}
	if enabled := os.Getenv("OTEL_ENABLED"); enabled != "" {
		cfg.Telemetry.Enabled = enabled == "true" || enabled == "1"
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		cfg.Telemetry.OTLPEndpoint = endpoint
	}

	// Ensure the spool directory exists
	if err := os.MkdirAll(cfg.Drafts.SpoolDir, 0755); err != nil {
		return nil, err
	}

	if cfg.BlobStorage.Driver == "local" {
		if err := os.MkdirAll(cfg.BlobStorage.BasePath, 0755); err != nil {
			return nil, err
		}
		absPath, err := filepath.Abs(cfg.BlobStorage.BasePath)
		if err != nil {
			return nil, err
		}
		cfg.BlobStorage.BasePath = absPath
	}

	return cfg, nil
}
