package settings

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// Memory is an in-process store. It is what the core falls back to when
// no persistent backend is configured.
type Memory struct {
	mu     sync.Mutex
	ns     string
	values map[string]json.RawMessage
	closed bool
}

// NewMemory creates an empty in-memory store.
func NewMemory(namespace string) *Memory {
	if namespace == "" {
		namespace = Namespace
	}
	return &Memory{ns: namespace, values: make(map[string]json.RawMessage)}
}

func (m *Memory) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if err := validateKey(key); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, false, ErrClosed
	}
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), v...), true, nil
}

func (m *Memory) Set(ctx context.Context, key string, value any) error {
	return m.Update(ctx, key, func(json.RawMessage) (any, error) { return value, nil })
}

func (m *Memory) Update(ctx context.Context, key string, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}

	var cur json.RawMessage
	if v, ok := m.values[key]; ok {
		cur = append(json.RawMessage(nil), v...)
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	raw, err := marshal(key, next)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
