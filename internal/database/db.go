// Package database opens the sqlite catalog and keeps its schema current.
package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"reddot-watch/newsfeed/internal/database/migrations"
)

// DB is the catalog database connection.
type DB struct {
	*sqlx.DB
}

// NewDB opens the catalog. A read-only open requires an existing file; a
// read-write open creates the file and its directory and applies pending
// migrations.
func NewDB(c *Config) (*DB, error) {
	cfg := c.withDefaults()

	if cfg.ReadOnly {
		if _, err := os.Stat(cfg.DBPath); err != nil {
			return nil, fmt.Errorf("catalog database not found: %w", err)
		}
	} else if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	log.Info().Str("path", cfg.DBPath).Str("mode", cfg.mode()).Msg("Opening catalog database")

	db, err := sqlx.Open("sqlite3", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(time.Hour)

	for _, pragma := range cfg.pragmas() {
		if _, err := db.Exec(pragma); err != nil {
			log.Warn().Err(err).Str("pragma", pragma).Str("mode", cfg.mode()).Msg("Failed to set PRAGMA")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping db (%s): %w", cfg.mode(), err)
	}

	if !cfg.ReadOnly {
		if err := migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &DB{db}, nil
}

func migrate(ctx context.Context, db *sqlx.DB) error {
	ms, err := migrations.LoadMigrations(migrations.Files())
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	if err := migrations.RunMigrations(ctx, db.DB, ms); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug().Int("migrations", len(ms)).Msg("Catalog schema is current")
	return nil
}

// DeleteDB removes the database file and its WAL side files, if present.
func DeleteDB(dbPath string) error {
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
