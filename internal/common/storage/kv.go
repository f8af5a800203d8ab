// Package storage is the durable key-value boundary. Every read tolerates a
// missing key; callers decide how to fall back.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"form-digitizer/internal/common/config"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// KV is implemented by every backend.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttl 0 keeps it forever.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
	Close() error
}

// Well-known keys.
const (
	KeyRecords         = "records"
	KeyAppConfig       = "app_config"
	KeyUsers           = "users"
	KeyDashboardRemote = "dashboard:remote"
	sessionPrefix      = "session:"
	imagePrefix        = "image:"
)

// SessionKey namespaces a session token.
func SessionKey(token string) string { return sessionPrefix + token }

// ImageKey namespaces the source image of a record.
func ImageKey(recordID string) string { return imagePrefix + recordID }

// GetJSON decodes the value at key into dst. Absence yields ErrNotFound, a
// value that does not decode yields a wrapped json error.
func GetJSON(ctx context.Context, kv KV, key string, dst interface{}) error {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, kv KV, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return kv.Set(ctx, key, raw, ttl)
}

// Open builds the backend selected by cfg.Driver.
func Open(cfg config.StorageConfig) (KV, error) {
	switch cfg.Driver {
	case "redis":
		return NewRedis(cfg.Redis)
	case "badger", "":
		return NewBadger(cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
