// Package storage provides the durable key-value layer behind the fitdex
// stores. Every backend implements Store: asynchronous-safe Get, Set and
// Remove by string key, each of which may fail with an I/O error.
//
// Backends:
//   - SQLiteStore: a single kv table in a local SQLite file (default)
//   - RedisStore: keys namespaced under a prefix in a Redis database
//   - MemoryStore: a process-local map, for tests and throwaway sessions
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver names accepted in Config.Driver.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Store defines the interface for durable key-value storage.
type Store interface {
	// Get returns the value stored under key. found is false when the key
	// is absent; that is not an error.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key succeeds.
	Remove(ctx context.Context, key string) error

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}

// ErrKeysUnsupported is returned when a backend cannot enumerate keys.
var ErrKeysUnsupported = errors.New("storage backend does not support listing keys")

// KeyLister is implemented by backends that can enumerate their keys.
type KeyLister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Config selects and configures a backend.
type Config struct {
	// Driver is one of sqlite, redis, memory.
	Driver string `yaml:"driver" validate:"required,oneof=sqlite redis memory"`

	// SQLite configures the sqlite driver.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Redis configures the redis driver.
	Redis RedisConfig `yaml:"redis"`
}

// SQLiteConfig holds SQLite store configuration.
type SQLiteConfig struct {
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// RedisConfig holds Redis store configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Open constructs the configured backend and makes it ready for use.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		store, err := NewSQLiteStore(cfg.SQLite)
		if err != nil {
			return nil, err
		}
		if err := store.Init(ctx); err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil

	case DriverRedis:
		store, err := NewRedisStoreFromConfig(cfg.Redis)
		if err != nil {
			return nil, err
		}
		if err := store.HealthCheck(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		return store, nil

	case DriverMemory:
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}
