// Package kv provides the item store that snapshots are persisted in.
// It plays the role browser local storage plays for a client-side app: a flat
// string-to-string map where each key holds one whole serialized value and a
// Set replaces that value atomically.
package kv

import (
	"context"
	"errors"
)

// Driver identifies a concrete item store backend.
type Driver string

const (
	DriverMemory   Driver = "memory"   // in-process map (default, tests)
	DriverSQLite   Driver = "sqlite"   // single-file embedded database
	DriverPostgres Driver = "postgres" // shared relational database
	DriverRedis    Driver = "redis"    // redis / valkey
	DriverS3       Driver = "s3"       // S3 / MinIO compatible object store
)

// Store is the minimal local-storage-like surface the snapshot repos need.
type Store interface {
	// Get returns the value stored at key. ok is false when the key is absent;
	// an absent key is not an error.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set replaces the value at key in a single write.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Driver reports which backend this is.
	Driver() Driver
	// Close releases connections held by the backend.
	Close() error
}

// ErrEmptyKey is returned when a caller passes an empty key.
var ErrEmptyKey = errors.New("kv: empty key")
