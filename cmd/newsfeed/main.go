package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/aggregator"
	"reddot-watch/newsfeed/internal/config"
	"reddot-watch/newsfeed/internal/database"
	"reddot-watch/newsfeed/internal/database/migrations"
	"reddot-watch/newsfeed/internal/fallback"
	"reddot-watch/newsfeed/internal/harvest"
	importcatalog "reddot-watch/newsfeed/internal/import"
	"reddot-watch/newsfeed/internal/models"
	"reddot-watch/newsfeed/internal/provider"
	"reddot-watch/newsfeed/internal/server"
	"reddot-watch/newsfeed/internal/server/api"
	"reddot-watch/newsfeed/internal/server/storage"
)

const usage = `Usage: newsfeed [command] [options]
Commands: server, import, harvest, migrate

For command-specific options, use: newsfeed [command] -h`

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file")
	}

	cfg := config.DefaultConfig()
	zerolog.SetGlobalLevel(cfg.LogLevel)

	var logLevelStr string
	addLogLevel := func(fs *flag.FlagSet) {
		fs.StringVar(&logLevelStr, "log-level", config.GetEnvString(config.EnvLogLevel, config.DefaultLogLevel),
			"Log level: debug, info, warn, error (env: NEWSFEED_LOG_LEVEL)")
	}
	addDBPath := func(fs *flag.FlagSet) {
		fs.StringVar(&cfg.DBPath, "db", config.GetEnvString(config.EnvDBPath, config.DefaultDBPath),
			"Path to the SQLite catalog database (env: NEWSFEED_DB_PATH)")
	}

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	addDBPath(serverCmd)
	addLogLevel(serverCmd)
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString(config.EnvHost, config.DefaultServerHost),
		"Host to bind the server to (env: NEWSFEED_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port",
		config.GetEnvInt(config.EnvPort, config.GetEnvInt(config.EnvLegacyPort, config.DefaultServerPort)),
		"Port to listen on (env: NEWSFEED_PORT or PORT)")
	serverCmd.StringVar(&cfg.CatalogPath, "catalog", config.GetEnvString(config.EnvCatalogPath, ""),
		"YAML fallback catalog; overrides the database catalog (env: NEWSFEED_CATALOG_PATH)")
	serverCmd.StringVar(&cfg.StaticDir, "static", config.GetEnvString(config.EnvStaticDir, ""),
		"Directory of a built web client to serve at / (env: NEWSFEED_STATIC_DIR)")
	serverCmd.StringVar(&cfg.ProviderURL, "provider-url", config.GetEnvString(config.EnvProviderURL, config.DefaultProviderURL),
		"News provider base URL (env: NEWSFEED_PROVIDER_URL)")
	serverCmd.StringVar(&cfg.ProviderCountry, "country", config.GetEnvString(config.EnvProviderCountry, config.DefaultProviderCountry),
		"Country code for top headlines (env: NEWSFEED_PROVIDER_COUNTRY)")
	serverCmd.DurationVar(&cfg.ProviderTimeout, "provider-timeout",
		config.GetEnvDuration(config.EnvProviderTimeout, config.DefaultProviderTimeout*time.Second),
		"Timeout for one provider call, retries included (env: NEWSFEED_PROVIDER_TIMEOUT)")
	serverCmd.IntVar(&cfg.ProviderRetries, "provider-attempts", config.GetEnvInt(config.EnvProviderRetries, config.DefaultProviderRetries),
		"Attempts per provider call, 1 disables retry (env: NEWSFEED_PROVIDER_RETRIES)")
	serverCmd.IntVar(&cfg.FallbackCount, "fallback-count", config.GetEnvInt(config.EnvFallbackCount, config.DefaultFallbackCount),
		"Fallback items blended into every page (env: NEWSFEED_FALLBACK_COUNT)")
	serverCmd.IntVar(&cfg.DefaultLimit, "default-limit", config.GetEnvInt(config.EnvDefaultLimit, config.DefaultPageLimit),
		"Page size when the request has none (env: NEWSFEED_DEFAULT_LIMIT)")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	addDBPath(importCmd)
	addLogLevel(importCmd)
	importCmd.StringVar(&cfg.CatalogCSVPath, "csv", config.GetEnvString(config.EnvCSVPath, config.DefaultCatalogCSVPath),
		"Path or http(s) URL of the catalog CSV file (env: NEWSFEED_CSV_PATH)")
	importCmd.BoolVar(&cfg.ResetCatalog, "reset", config.GetEnvBool(config.EnvImportReset, false),
		"Delete the existing catalog database before importing (env: NEWSFEED_IMPORT_RESET)")

	harvestCmd := flag.NewFlagSet("harvest", flag.ExitOnError)
	addDBPath(harvestCmd)
	addLogLevel(harvestCmd)
	var feedsStr, itemTypeStr string
	var maxAge time.Duration
	harvestCmd.StringVar(&feedsStr, "feeds", config.GetEnvString(config.EnvHarvestFeeds, ""),
		"Comma-separated RSS/Atom feed URLs (env: NEWSFEED_HARVEST_FEEDS)")
	harvestCmd.StringVar(&itemTypeStr, "type", string(models.TypeViral),
		"Item type for harvested entries: meme, viral, other")
	harvestCmd.DurationVar(&maxAge, "max-age", 7*24*time.Hour, "Skip entries older than this")
	harvestCmd.IntVar(&cfg.WorkerCount, "workers", config.GetEnvInt(config.EnvWorkerCount, config.DefaultWorkerCount),
		"Number of feed workers, 0 for CPU count (env: NEWSFEED_WORKER_COUNT)")

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	addDBPath(migrateCmd)
	addLogLevel(migrateCmd)
	var downSteps int
	migrateCmd.IntVar(&downSteps, "down", 0, "Roll back this many migrations after applying pending ones")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	parse := func(fs *flag.FlagSet) {
		fs.Parse(os.Args[2:])
		if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
			cfg.LogLevel = level
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)
	}

	var err error
	switch os.Args[1] {
	case "server":
		parse(serverCmd)
		err = runServer(cfg)

	case "import":
		parse(importCmd)
		err = runImport(cfg)

	case "harvest":
		parse(harvestCmd)
		cfg.HarvestFeeds = config.SplitList(feedsStr)
		err = runHarvest(cfg, models.ParseItemType(itemTypeStr), maxAge)

	case "migrate":
		parse(migrateCmd)
		err = runMigrate(cfg, downSteps)

	case "-h", "--help", "help":
		fmt.Println(usage)
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

// runServer loads the fallback catalog once and serves the feed until a shutdown signal.
func runServer(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	catalog, origin, err := loadCatalog(ctx, cfg)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to load fallback catalog: %w", err)
	}

	pool := fallback.NewPool(catalog, nil)
	log.Info().Str("origin", origin).Int("items", pool.Len()).Msg("Fallback catalog loaded")

	if cfg.APIKey == "" {
		log.Warn().Msg("No provider API key configured, using the demo key; pages will hold fallback content only")
	}

	client := provider.NewClient(provider.Config{
		BaseURL:     cfg.ProviderURL,
		APIKey:      cfg.APIKey,
		Country:     cfg.ProviderCountry,
		Timeout:     cfg.ProviderTimeout,
		MaxAttempts: cfg.ProviderRetries,
	})
	agg := aggregator.New(client, pool, aggregator.Config{FallbackCount: cfg.FallbackCount})

	handler := server.NewHandler(server.Routes{
		Feed:      api.NewFeedHandler(agg, cfg.DefaultLimit),
		Catalog:   pool.Items(),
		StaticDir: cfg.StaticDir,
	}, log.Logger)

	ctx, stop := signalContext()
	defer stop()

	return server.RunServer(ctx, handler, cfg.ListenAddr(), log.Logger)
}

// loadCatalog picks the fallback catalog: a YAML file when configured, else
// the sqlite catalog when it exists and is not empty, else the built-in items.
func loadCatalog(ctx context.Context, cfg *config.Config) ([]models.FeedItem, string, error) {
	if cfg.CatalogPath != "" {
		items, err := fallback.LoadFile(cfg.CatalogPath)
		return items, cfg.CatalogPath, err
	}

	if _, err := os.Stat(cfg.DBPath); err == nil {
		dbCfg := database.NewConfig(cfg.DBPath)
		dbCfg.ReadOnly = true

		db, err := database.NewDB(dbCfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open catalog database: %w", err)
		}
		defer db.Close()

		items, err := storage.LoadFeedItems(ctx, storage.NewRepository(db), 0)
		if err != nil {
			return nil, "", err
		}
		if len(items) > 0 {
			return items, cfg.DBPath, nil
		}
		log.Warn().Str("path", cfg.DBPath).Msg("Catalog database is empty, using built-in catalog")
	}

	return fallback.Builtin(time.Now()), "builtin", nil
}

// runImport loads catalog items from a CSV file. With -reset it asks before
// deleting an existing database.
func runImport(cfg *config.Config) error {
	if cfg.ResetCatalog {
		if _, err := os.Stat(cfg.DBPath); err == nil {
			fmt.Printf("Database %s already exists. All catalog items will be lost.\n", cfg.DBPath)
			fmt.Print("Delete and recreate? (y/N): ")

			var answer string
			fmt.Scanln(&answer)

			if strings.ToLower(answer) != "y" {
				log.Info().Msg("Operation canceled by user")
				return fmt.Errorf("operation canceled by user")
			}

			if err := database.DeleteDB(cfg.DBPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			log.Info().Str("path", cfg.DBPath).Msg("Deleted existing database")
		}
	}

	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := importcatalog.NewImporter(storage.NewRepository(db)).ImportCatalog(ctx, cfg.CatalogCSVPath)
	if err != nil {
		return err
	}
	for _, rowErr := range stats.Errors {
		log.Warn().Str("error", rowErr).Msg("Skipped catalog row")
	}
	return nil
}

// runHarvest pulls entries from RSS feeds into the catalog once.
func runHarvest(cfg *config.Config, itemType models.ItemType, maxAge time.Duration) error {
	if len(cfg.HarvestFeeds) == 0 {
		return errors.New("no feeds given, use -feeds or NEWSFEED_HARVEST_FEEDS")
	}
	if itemType == models.TypeNews {
		return errors.New("harvested items cannot use the news type")
	}

	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	harvester, err := harvest.NewHarvester(storage.NewRepository(db), harvest.NewFeedSource(maxAge), harvest.Config{
		WorkerCount: cfg.WorkerCount,
		ItemType:    itemType,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize harvester: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx, cancelRun := context.WithTimeout(ctx, 30*time.Minute)
	defer cancelRun()

	log.Info().
		Int("feeds", len(cfg.HarvestFeeds)).
		Int("worker_count", harvester.WorkerCount).
		Str("type", string(itemType)).
		Msg("Starting harvest")

	start := time.Now()
	err = harvester.Harvest(ctx, cfg.HarvestFeeds)
	inserted, duplicates, failed := harvester.Stats()

	log.Info().
		Dur("duration", time.Since(start)).
		Int64("inserted", inserted).
		Int64("duplicates", duplicates).
		Int64("failed_feeds", failed).
		Msg("Harvest finished")

	if errors.Is(err, context.Canceled) {
		log.Info().Msg("Harvest canceled by shutdown signal")
		return nil
	}
	return err
}

// runMigrate applies pending migrations and optionally rolls back the last ones.
func runMigrate(cfg *config.Config, downSteps int) error {
	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if downSteps <= 0 {
		return nil
	}

	ms, err := migrations.LoadMigrations(migrations.Files())
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := migrations.RollbackMigrations(ctx, db.DB.DB, ms, downSteps)
	log.Info().Int("reverted", n).Msg("Rollback finished")
	return err
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-shutdown:
			log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(shutdown)
	}()

	return ctx, cancel
}
