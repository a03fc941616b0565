package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Import        ImportConfig
	Sync          SyncConfig
	Storage       StorageConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// ImportConfig controls statement ingestion behaviour.
type ImportConfig struct {
	// DefaultCurrency is assigned to rows whose source file carries no
	// currency information.
	DefaultCurrency string
	// ArchiveUploads keeps a copy of every uploaded statement file.
	ArchiveUploads bool
}

// SyncConfig controls the periodic bank synchronisation driver.
type SyncConfig struct {
	Enabled bool
	// Interval between full sync passes over all linked connections.
	Interval time.Duration
	// UserDelay is the pause between consecutive users within one pass.
	UserDelay time.Duration
	// Lookback bounds the fetch window for connections that have never
	// synced before.
	Lookback time.Duration
	// FetchRetries caps the retries after the first fetch attempt.
	FetchRetries int
	// ProviderURL overrides the aggregator API root; empty selects the
	// hosted endpoint.
	ProviderURL string
	// ProviderToken is the pre-provisioned aggregator access token.
	ProviderToken string
}

type StorageConfig struct {
	Type      string // "local" or "s3"
	LocalPath string
}

type ObservabilityConfig struct {
	LogLevel         string
	LogFormat        string // "json" or "text"
	MetricsNamespace string
}

// Load reads configuration from the environment, with a .env file as an
// optional local override.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "drachma"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
			MaxConns: int32(getEnvAsInt("DB_MAX_CONNS", 10)),
			MinConns: int32(getEnvAsInt("DB_MIN_CONNS", 2)),
		},
		Import: ImportConfig{
			DefaultCurrency: getEnv("IMPORT_DEFAULT_CURRENCY", "EUR"),
			ArchiveUploads:  getEnvAsBool("IMPORT_ARCHIVE_UPLOADS", false),
		},
		Sync: SyncConfig{
			Enabled:       getEnvAsBool("SYNC_ENABLED", false),
			Interval:      getEnvAsDuration("SYNC_INTERVAL", 6*time.Hour),
			UserDelay:     getEnvAsDuration("SYNC_USER_DELAY", 2*time.Second),
			Lookback:      getEnvAsDuration("SYNC_LOOKBACK", 7*24*time.Hour),
			FetchRetries:  getEnvAsInt("SYNC_FETCH_RETRIES", 3),
			ProviderURL:   getEnv("SYNC_PROVIDER_URL", ""),
			ProviderToken: getEnv("SYNC_PROVIDER_TOKEN", ""),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		},
		Observability: ObservabilityConfig{
			LogLevel:         getEnv("LOG_LEVEL", "info"),
			LogFormat:        getEnv("LOG_FORMAT", "json"),
			MetricsNamespace: getEnv("METRICS_NAMESPACE", "drachma"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Password == "" {
		return errors.New("DB_PASSWORD is required")
	}
	if c.Import.DefaultCurrency == "" {
		return errors.New("IMPORT_DEFAULT_CURRENCY must not be empty")
	}
	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return fmt.Errorf("unknown STORAGE_TYPE %q", c.Storage.Type)
	}
	if c.Sync.Enabled && c.Sync.Interval <= 0 {
		return errors.New("SYNC_INTERVAL must be positive when sync is enabled")
	}
	if c.Sync.Enabled && c.Sync.ProviderToken == "" {
		return errors.New("SYNC_PROVIDER_TOKEN is required when sync is enabled")
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
