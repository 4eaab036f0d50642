package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/wearable-sync/internal/security"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Azure    AzureConfig
	Bridge   BridgeConfig
	Sync     SyncConfig
	Logging  LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds the sync event stream configuration. An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

// AzureConfig holds Azure service configuration
type AzureConfig struct {
	Storage StorageConfig
}

// StorageConfig holds Azure Blob Storage configuration. Without credentials snapshots are not archived.
type StorageConfig struct {
	AccountName      string
	AccountKey       string
	ArchiveContainer string
	EncryptionKey    string // base64 AES-256 key; empty stores snapshots in clear
}

// Enabled reports whether blob archiving is configured
func (s StorageConfig) Enabled() bool {
	return s.AccountName != "" && s.AccountKey != ""
}

// BridgeConfig selects where health store samples come from
type BridgeConfig struct {
	Kind          string // store or remote
	Platform      string // ios, android, or anything else for unsupported
	RemoteURL     string
	RemoteTimeout time.Duration
}

// SyncConfig holds sync and auto-sync settings
type SyncConfig struct {
	Enabled         bool
	IntervalMinutes int
	Timeout         time.Duration
	IdleReset       time.Duration
	Timezone        string
}

// Interval returns the auto-sync period
func (s SyncConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMinutes) * time.Minute
}

// Location resolves the configured timezone used to cut calendar days
func (s SyncConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || s.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from a .env file, environment variables and defaults
func Load() (*Config, error) {
	// a missing .env is fine, the environment wins anyway
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Redis defaults
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "wearable:sync_events")

	// Azure Storage defaults
	v.SetDefault("azure.storage.archivecontainer", "wearable-snapshots")

	// Bridge defaults
	v.SetDefault("bridge.kind", "store")
	v.SetDefault("bridge.platform", "ios")
	v.SetDefault("bridge.remotetimeout", 8*time.Second)

	// Sync defaults
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.intervalminutes", 30)
	v.SetDefault("sync.timeout", 10*time.Second)
	v.SetDefault("sync.idlereset", 3*time.Second)
	v.SetDefault("sync.timezone", "Local")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.environment", "ENV", "ENVIRONMENT")

	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Redis
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")
	v.BindEnv("redis.stream", "REDIS_SYNC_STREAM")

	// Azure Storage
	v.BindEnv("azure.storage.accountname", "AZURE_STORAGE_ACCOUNT_NAME")
	v.BindEnv("azure.storage.accountkey", "AZURE_STORAGE_ACCOUNT_KEY")
	v.BindEnv("azure.storage.archivecontainer", "AZURE_STORAGE_ARCHIVE_CONTAINER")
	v.BindEnv("azure.storage.encryptionkey", "SNAPSHOT_ENCRYPTION_KEY")

	// Bridge
	v.BindEnv("bridge.kind", "HEALTH_BRIDGE")
	v.BindEnv("bridge.platform", "HEALTH_PLATFORM")
	v.BindEnv("bridge.remoteurl", "HEALTH_AGENT_URL")
	v.BindEnv("bridge.remotetimeout", "HEALTH_AGENT_TIMEOUT")

	// Sync
	v.BindEnv("sync.enabled", "AUTO_SYNC_ENABLED")
	v.BindEnv("sync.intervalminutes", "AUTO_SYNC_INTERVAL_MINUTES")
	v.BindEnv("sync.timeout", "SYNC_TIMEOUT")
	v.BindEnv("sync.idlereset", "SYNC_IDLE_RESET")
	v.BindEnv("sync.timezone", "SYNC_TIMEZONE")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("logging.format", "LOG_FORMAT")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	switch c.Bridge.Kind {
	case "store":
	case "remote":
		if c.Bridge.RemoteURL == "" {
			return fmt.Errorf("bridge.remoteurl is required for the remote bridge")
		}
	default:
		return fmt.Errorf("bridge.kind must be store or remote, got %q", c.Bridge.Kind)
	}

	if c.Sync.IntervalMinutes <= 0 {
		return fmt.Errorf("sync.intervalminutes must be positive")
	}

	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive")
	}

	if (c.Azure.Storage.AccountName == "") != (c.Azure.Storage.AccountKey == "") {
		return fmt.Errorf("azure storage needs both account name and key")
	}

	if c.Azure.Storage.EncryptionKey != "" {
		if _, err := security.NewSealerFromBase64(c.Azure.Storage.EncryptionKey); err != nil {
			return fmt.Errorf("invalid snapshot encryption key: %w", err)
		}
	}

	if _, err := c.Sync.Location(); err != nil {
		return err
	}

	return nil
}
