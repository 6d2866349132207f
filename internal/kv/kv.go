// Package kv provides the key-value Store capability that backs the report
// and attachment collections, with memory, SQLite and Redis backends.
package kv

import (
	"context"
	"fmt"

	apperrors "github.com/statistics102/course-monitor/internal/errors"
)

// Store is a process-local key-value store holding whole values per key.
//
// Get reports a missing key as (nil, false, nil). Delete of a missing key
// succeeds. Backend failures are returned as STORE_UNAVAILABLE errors.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Drivers accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Options selects and configures a Store backend.
type Options struct {
	Driver string

	// SQLite
	DataDir string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open creates the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverMemory:
		return NewMemoryStore(), nil
	case DriverSQLite, "":
		return OpenSQLite(opts.DataDir)
	case DriverRedis:
		return DialRedis(ctx, RedisConfig{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Prefix:   opts.RedisPrefix,
		})
	default:
		return nil, apperrors.New(apperrors.ErrInvalid, fmt.Sprintf("unknown store driver %q", opts.Driver))
	}
}

func unavailable(op, key string, err error) error {
	return apperrors.Wrap(apperrors.ErrStoreUnavailable, fmt.Sprintf("failed to %s %q", op, key), err)
}
