// Package settings is the namespaced key-value surface the core persists
// its configuration, swap history and zone-mapping overrides through.
// Values are stored as JSON documents.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Namespace is the reserved namespace all core keys live under.
const Namespace = "threadshift_core"

// Keys used by the core.
const (
	KeySettings     = "settings"
	KeySwapHistory  = "swapHistory"
	KeyZoneMappings = "zoneMappings"
	KeyError        = "error"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("settings store closed")

// UpdateFunc receives the current raw value (nil when absent) and returns
// the value to store.
type UpdateFunc func(current json.RawMessage) (any, error)

// Store is a namespaced read/write key-value surface.
type Store interface {
	// Get returns the raw JSON stored under key and whether it exists.
	Get(ctx context.Context, key string) (json.RawMessage, bool, error)
	// Set stores value, marshalled to JSON, under key.
	Set(ctx context.Context, key string, value any) error
	// Update atomically replaces the value under key with fn's result.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	// Keys lists the keys present in the namespace, sorted.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the backend.
	Close() error
}

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open opens a store for the named backend. Path is ignored by the memory
// backend.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendSQLite, "":
		return OpenSQLite(path, Namespace)
	case BackendFile:
		return OpenFile(path, Namespace)
	case BackendMemory:
		return NewMemory(Namespace), nil
	default:
		return nil, fmt.Errorf("unknown settings backend %q (expected sqlite, file, or memory)", backend)
	}
}

// GetJSON decodes the value under key into dst. It reports false without
// error when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, dst any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetDefault stores value under key only when the key is absent. It
// reports whether it wrote.
func SetDefault(ctx context.Context, s Store, key string, value any) (bool, error) {
	wrote := false
	err := s.Update(ctx, key, func(current json.RawMessage) (any, error) {
		if current != nil {
			return current, nil
		}
		wrote = true
		return value, nil
	})
	return wrote, err
}

var validKey = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// validateKey rejects keys that could escape the namespace.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key must not be empty")
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("key must not contain '..'")
	}
	if !validKey.MatchString(key) {
		return fmt.Errorf("key %q contains invalid characters: only alphanumeric, dash, underscore, and dot are allowed", key)
	}
	return nil
}

func marshal(key string, value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		if !json.Valid(raw) {
			return nil, fmt.Errorf("value for %s is not valid JSON", key)
		}
		return append(json.RawMessage(nil), raw...), nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", key, err)
	}
	return data, nil
}
