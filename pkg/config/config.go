package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/catalog/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `yaml:"-"`

	// Storage configuration
	Storage StorageConfig `yaml:"-"`

	// Plugins lists the enabled extensions in load order
	Plugins PluginsConfig `yaml:"plugins"`

	// Auth holds the permission defaults read by the default auth functions
	Auth AuthConfig `yaml:"auth"`

	// Observability configuration
	Observability ObservabilityConfig `yaml:"-"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// StorageConfig selects the domain model backend
type StorageConfig struct {
	Type string // memory, sqlite or postgres
	DSN  string

	CacheEnabled bool
	CacheSize    int
	CacheTTL     time.Duration

	// RedisURL is only probed by the health checker
	RedisURL string
}

// PluginsConfig holds the ordered plugin list
type PluginsConfig struct {
	Names        []string `yaml:"enabled"`
	ManifestDirs []string `yaml:"manifest_dirs"`

	// DatasetTypes are claimed by the datasettypes extension
	DatasetTypes []string `yaml:"dataset_types"`
	// I18nDir is the translation directory of the datasettypes extension
	I18nDir string `yaml:"i18n_dir"`
}

// AuthConfig holds the permission-default flags
type AuthConfig struct {
	AnonCreateDataset                bool `yaml:"anon_create_dataset"`
	CreateUnownedDataset             bool `yaml:"create_unowned_dataset"`
	CreateDatasetIfNotInOrganization bool `yaml:"create_dataset_if_not_in_organization"`
	UserCreateGroups                 bool `yaml:"user_create_groups"`
	UserCreateOrganizations          bool `yaml:"user_create_organizations"`
	UserDeleteGroups                 bool `yaml:"user_delete_groups"`
	UserDeleteOrganizations          bool `yaml:"user_delete_organizations"`
	CreateUserViaAPI                 bool `yaml:"create_user_via_api"`
	CreateUserViaWeb                 bool `yaml:"create_user_via_web"`
	PublicUserDetails                bool `yaml:"public_user_details"`
}

// DefaultAuthConfig returns the stock permission defaults
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		AnonCreateDataset:                false,
		CreateUnownedDataset:             false,
		CreateDatasetIfNotInOrganization: true,
		UserCreateGroups:                 true,
		UserCreateOrganizations:          true,
		UserDeleteGroups:                 true,
		UserDeleteOrganizations:          true,
		CreateUserViaAPI:                 false,
		CreateUserViaWeb:                 true,
		PublicUserDetails:                true,
	}
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel observability.LogLevel

	// Metrics
	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from an optional YAML file (CATALOG_CONFIG_FILE)
// and environment variables. Environment variables win over the file.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Auth: DefaultAuthConfig(),
	}

	if path := getEnv("CATALOG_CONFIG_FILE", ""); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.Server = loadServerConfig()
	cfg.Storage = loadStorageConfig()
	cfg.Plugins = loadPluginsConfig(cfg.Plugins)
	cfg.Auth = loadAuthConfig(cfg.Auth)
	cfg.Observability = loadObservabilityConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadFile overlays the plugin list and auth flags found in a YAML file
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("CATALOG_HOST", "0.0.0.0"),
		Port:            getEnv("CATALOG_PORT", "8080"),
		ReadTimeout:     getEnvDuration("CATALOG_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("CATALOG_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("CATALOG_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("CATALOG_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("CATALOG_HEALTH_PORT", "9090"),
	}
}

// loadStorageConfig loads storage configuration from environment
func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Type:         strings.ToLower(getEnv("CATALOG_STORAGE_TYPE", "memory")),
		DSN:          getEnv("CATALOG_STORAGE_DSN", ""),
		CacheEnabled: getEnvBool("CATALOG_CACHE_ENABLED", true),
		CacheSize:    getEnvInt("CATALOG_CACHE_SIZE", 1024),
		CacheTTL:     getEnvDuration("CATALOG_CACHE_TTL", 30*time.Second),
		RedisURL:     getEnv("CATALOG_REDIS_URL", ""),
	}
}

// loadPluginsConfig reads CATALOG_PLUGINS ("a b" or "a,b"; order is significant)
func loadPluginsConfig(base PluginsConfig) PluginsConfig {
	if names := getEnv("CATALOG_PLUGINS", ""); names != "" {
		base.Names = splitList(names)
	}
	if dirs := getEnv("CATALOG_PLUGIN_DIRS", ""); dirs != "" {
		base.ManifestDirs = splitList(dirs)
	}
	if types := getEnv("CATALOG_DATASET_TYPES", ""); types != "" {
		base.DatasetTypes = splitList(types)
	}
	base.I18nDir = getEnv("CATALOG_I18N_DIR", base.I18nDir)
	return base
}

// loadAuthConfig applies CATALOG_AUTH_* overrides on top of base
func loadAuthConfig(base AuthConfig) AuthConfig {
	return AuthConfig{
		AnonCreateDataset:                getEnvBool("CATALOG_AUTH_ANON_CREATE_DATASET", base.AnonCreateDataset),
		CreateUnownedDataset:             getEnvBool("CATALOG_AUTH_CREATE_UNOWNED_DATASET", base.CreateUnownedDataset),
		CreateDatasetIfNotInOrganization: getEnvBool("CATALOG_AUTH_CREATE_DATASET_IF_NOT_IN_ORGANIZATION", base.CreateDatasetIfNotInOrganization),
		UserCreateGroups:                 getEnvBool("CATALOG_AUTH_USER_CREATE_GROUPS", base.UserCreateGroups),
		UserCreateOrganizations:          getEnvBool("CATALOG_AUTH_USER_CREATE_ORGANIZATIONS", base.UserCreateOrganizations),
		UserDeleteGroups:                 getEnvBool("CATALOG_AUTH_USER_DELETE_GROUPS", base.UserDeleteGroups),
		UserDeleteOrganizations:          getEnvBool("CATALOG_AUTH_USER_DELETE_ORGANIZATIONS", base.UserDeleteOrganizations),
		CreateUserViaAPI:                 getEnvBool("CATALOG_AUTH_CREATE_USER_VIA_API", base.CreateUserViaAPI),
		CreateUserViaWeb:                 getEnvBool("CATALOG_AUTH_CREATE_USER_VIA_WEB", base.CreateUserViaWeb),
		PublicUserDetails:                getEnvBool("CATALOG_AUTH_PUBLIC_USER_DETAILS", base.PublicUserDetails),
	}
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("CATALOG_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("CATALOG_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("CATALOG_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("CATALOG_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("CATALOG_OTEL_SERVICE_NAME", "catalog"),
		OTelServiceVersion: getEnv("CATALOG_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("CATALOG_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Storage.Type {
	case "memory":
	case "sqlite", "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage DSN is required for %s storage", c.Storage.Type)
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be memory, sqlite, or postgres)", c.Storage.Type)
	}
	if c.Storage.CacheEnabled && c.Storage.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive when the cache is enabled")
	}

	seen := make(map[string]bool, len(c.Plugins.Names))
	for _, name := range c.Plugins.Names {
		if seen[name] {
			return fmt.Errorf("plugin listed twice: %s", name)
		}
		seen[name] = true
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

// splitList splits on commas and whitespace, dropping empty items
func splitList(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
