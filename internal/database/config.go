package database

import (
	"fmt"
	"time"
)

// Config describes how to open the catalog database.
type Config struct {
	DBPath   string
	ReadOnly bool

	// Zero values fall back to defaults.
	MaxOpenConns int
	BusyTimeout  time.Duration
	CacheSizeMB  int
}

// NewConfig returns a read-write configuration for dbPath.
func NewConfig(dbPath string) *Config {
	return &Config{
		DBPath:       dbPath,
		MaxOpenConns: 4,
		BusyTimeout:  5 * time.Second,
		CacheSizeMB:  16,
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.MaxOpenConns <= 0 {
		out.MaxOpenConns = 4
	}
	if out.BusyTimeout <= 0 {
		out.BusyTimeout = 5 * time.Second
	}
	if out.CacheSizeMB <= 0 {
		out.CacheSizeMB = 16
	}
	return out
}

func (c Config) dsn() string {
	dsn := fmt.Sprintf("file:%s?_journal=WAL&_synchronous=NORMAL&_busy_timeout=%d",
		c.DBPath, c.BusyTimeout.Milliseconds())
	if c.ReadOnly {
		dsn += "&mode=ro"
	}
	return dsn
}

func (c Config) pragmas() []string {
	p := []string{
		// negative cache_size is in KiB
		fmt.Sprintf("PRAGMA cache_size = -%d;", c.CacheSizeMB*1024),
		"PRAGMA temp_store = MEMORY;",
	}
	if c.ReadOnly {
		return append(p, "PRAGMA query_only = ON;")
	}
	return append(p, "PRAGMA foreign_keys = ON;")
}

func (c Config) mode() string {
	if c.ReadOnly {
		return "read-only"
	}
	return "read-write"
}
