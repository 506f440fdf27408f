package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// File persists a namespace as one JSON document on disk:
// {"<namespace>": {"<key>": <value>, ...}}. Other namespaces in the same
// file are preserved. Every write is atomic (temp file + rename).
type File struct {
	mu     sync.Mutex
	path   string
	ns     string
	closed bool
}

// DefaultFilePath returns ~/.threadshift/settings.json.
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "threadshift-settings.json")
	}
	return filepath.Join(home, ".threadshift", "settings.json")
}

// OpenFile opens a file-backed store, creating the parent directory.
func OpenFile(path, namespace string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if namespace == "" {
		namespace = Namespace
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("cannot create settings directory: %w", err)
	}
	f := &File{path: filepath.Clean(path), ns: namespace}
	if _, err := f.readAll(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false, ErrClosed
	}
	all, err := f.readAll()
	if err != nil {
		return nil, false, err
	}
	v, ok := all[f.ns][key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key string, value any) error {
	return f.Update(ctx, key, func(json.RawMessage) (any, error) { return value, nil })
}

func (f *File) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	all, err := f.readAll()
	if err != nil {
		return err
	}
	space := all[f.ns]
	if space == nil {
		space = make(map[string]json.RawMessage)
		all[f.ns] = space
	}

	next, err := fn(space[key])
	if err != nil {
		return err
	}
	raw, err := marshal(key, next)
	if err != nil {
		return err
	}
	space[key] = raw
	return f.writeAtomic(all)
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}

	all, err := f.readAll()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all[f.ns]))
	for k := range all[f.ns] {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (f *File) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

func (f *File) readAll() (map[string]map[string]json.RawMessage, error) {
	all := make(map[string]map[string]json.RawMessage)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return all, nil
		}
		return nil, fmt.Errorf("read settings file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse settings file %s: %w", f.path, err)
	}
	return all, nil
}

func (f *File) writeAtomic(all map[string]map[string]json.RawMessage) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return err
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
