package config

// Constants defining default values for application configuration
const (
	DefaultDBPath         = "./catalog.db"
	DefaultCatalogCSVPath = "./catalog.csv"

	DefaultProviderURL     = "https://newsapi.org"
	DefaultProviderCountry = "us"
	DefaultProviderTimeout = 5 // Seconds
	DefaultProviderRetries = 1 // Attempts per call, 1 means no retry

	DefaultServerPort = 3000
	DefaultServerHost = "" // Empty string means all interfaces

	DefaultFallbackCount = 5
	DefaultPageLimit     = 20

	DefaultWorkerCount = 0 // 0 means use runtime.NumCPU()

	DefaultLogLevel = "info"
)

// Environment variable names
const (
	EnvAPIKey          = "NEWSFEED_API_KEY"
	EnvLegacyAPIKey    = "NEWS_API_KEY"
	EnvProviderURL     = "NEWSFEED_PROVIDER_URL"
	EnvProviderCountry = "NEWSFEED_PROVIDER_COUNTRY"
	EnvProviderTimeout = "NEWSFEED_PROVIDER_TIMEOUT"
	EnvProviderRetries = "NEWSFEED_PROVIDER_RETRIES"
	EnvHost            = "NEWSFEED_HOST"
	EnvPort            = "NEWSFEED_PORT"
	EnvLegacyPort      = "PORT"
	EnvDBPath          = "NEWSFEED_DB_PATH"
	EnvCatalogPath     = "NEWSFEED_CATALOG_PATH"
	EnvStaticDir       = "NEWSFEED_STATIC_DIR"
	EnvFallbackCount   = "NEWSFEED_FALLBACK_COUNT"
	EnvDefaultLimit    = "NEWSFEED_DEFAULT_LIMIT"
	EnvCSVPath         = "NEWSFEED_CSV_PATH"
	EnvHarvestFeeds    = "NEWSFEED_HARVEST_FEEDS"
	EnvWorkerCount     = "NEWSFEED_WORKER_COUNT"
	EnvImportReset     = "NEWSFEED_IMPORT_RESET"
	EnvLogLevel        = "NEWSFEED_LOG_LEVEL"
)
