package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	// Provider settings
	APIKey          string
	ProviderURL     string
	ProviderCountry string
	ProviderTimeout time.Duration
	ProviderRetries int

	// Server settings
	ServerHost string
	ServerPort int
	StaticDir  string

	// Feed settings
	FallbackCount int
	DefaultLimit  int

	// Catalog settings
	DBPath         string
	CatalogPath    string
	CatalogCSVPath string
	HarvestFeeds   []string
	WorkerCount    int
	ResetCatalog   bool

	// Log settings
	LogLevel zerolog.Level
}

// DefaultConfig returns an initial configuration with hardcoded defaults.
// The API key and log level are read from the environment, since the
// API key has no flag and logging starts before flags are parsed.
func DefaultConfig() *Config {
	logLevel, _ := zerolog.ParseLevel(DefaultLogLevel)

	return &Config{
		APIKey:          GetEnvString(EnvAPIKey, GetEnvString(EnvLegacyAPIKey, "")),
		ProviderURL:     DefaultProviderURL,
		ProviderCountry: DefaultProviderCountry,
		ProviderTimeout: DefaultProviderTimeout * time.Second,
		ProviderRetries: DefaultProviderRetries,
		ServerHost:      DefaultServerHost,
		ServerPort:      DefaultServerPort,
		FallbackCount:   DefaultFallbackCount,
		DefaultLimit:    DefaultPageLimit,
		DBPath:          DefaultDBPath,
		CatalogCSVPath:  DefaultCatalogCSVPath,
		WorkerCount:     DefaultWorkerCount,
		LogLevel:        GetEnvLogLevel(EnvLogLevel, logLevel),
	}
}

// ListenAddr returns the formatted listen address for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// Validate checks the page size settings.
func (c *Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default limit must be positive, got %d", c.DefaultLimit)
	}
	if c.FallbackCount < 1 {
		return fmt.Errorf("fallback count must be positive, got %d", c.FallbackCount)
	}
	return nil
}

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables that are already set. Missing files
// are not an error.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}
