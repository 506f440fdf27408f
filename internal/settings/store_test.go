package settings

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	file, err := OpenFile(filepath.Join(dir, "settings.json"), "")
	require.NoError(t, err)
	db, err := OpenSQLite(filepath.Join(dir, "threadshift.db"), "")
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemory(""),
		"file":   file,
		"sqlite": db,
	}
	t.Cleanup(func() {
		for _, s := range stores {
			_ = s.Close()
		}
	})
	return stores
}

func TestStoreContract(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, ok, err := s.Get(ctx, KeySettings)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set(ctx, KeySettings, map[string]any{"historyLimit": 5}))
			var got map[string]int
			ok, err = GetJSON(ctx, s, KeySettings, &got)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, map[string]int{"historyLimit": 5}, got)

			require.NoError(t, s.Update(ctx, KeySwapHistory, func(cur json.RawMessage) (any, error) {
				assert.Nil(t, cur)
				return []string{"one"}, nil
			}))
			require.NoError(t, s.Update(ctx, KeySwapHistory, func(cur json.RawMessage) (any, error) {
				var list []string
				require.NoError(t, json.Unmarshal(cur, &list))
				return append(list, "two"), nil
			}))
			var hist []string
			_, err = GetJSON(ctx, s, KeySwapHistory, &hist)
			require.NoError(t, err)
			assert.Equal(t, []string{"one", "two"}, hist)

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{KeySettings, KeySwapHistory}, keys)
		})
	}
}

func TestStoreUpdateErrorLeavesValue(t *testing.T) {
	boom := errors.New("boom")
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Set(ctx, KeyError, "before"))

			err := s.Update(ctx, KeyError, func(json.RawMessage) (any, error) { return nil, boom })
			assert.ErrorIs(t, err, boom)

			var got string
			_, err = GetJSON(ctx, s, KeyError, &got)
			require.NoError(t, err)
			assert.Equal(t, "before", got)
		})
	}
}

func TestStoreRejectsBadKeys(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../etc", "a b", "x/y"} {
				assert.Error(t, s.Set(context.Background(), key, 1), "key %q", key)
			}
		})
	}
}

func TestSetDefaultNeverOverwrites(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			wrote, err := SetDefault(ctx, s, KeyZoneMappings, map[string][]string{})
			require.NoError(t, err)
			assert.True(t, wrote)

			require.NoError(t, s.Set(ctx, KeyZoneMappings, map[string][]string{"bra": {"arms"}}))
			wrote, err = SetDefault(ctx, s, KeyZoneMappings, map[string][]string{})
			require.NoError(t, err)
			assert.False(t, wrote)

			var got map[string][]string
			_, err = GetJSON(ctx, s, KeyZoneMappings, &got)
			require.NoError(t, err)
			assert.Equal(t, []string{"arms"}, got["bra"])
		})
	}
}

func TestStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, s.Set(ctx, KeySettings, 1))
		})
	}
}

func TestFilePreservesOtherNamespaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"other_plugin":{"x":1}}`), 0o600))

	f, err := OpenFile(path, "")
	require.NoError(t, err)
	require.NoError(t, f.Set(context.Background(), KeySettings, true))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var all map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &all))
	assert.Equal(t, float64(1), all["other_plugin"]["x"])
	assert.Equal(t, true, all[Namespace][KeySettings])
}

func TestFileRejectsCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))
	_, err := OpenFile(path, "")
	assert.Error(t, err)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadshift.db")
	s, err := OpenSQLite(path, "")
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), KeySettings, map[string]bool{"autoValidation": false}))
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, "")
	require.NoError(t, err)
	defer s.Close()

	var got map[string]bool
	ok, err := GetJSON(context.Background(), s, KeySettings, &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.False(t, got["autoValidation"])
}

func TestSQLiteNamespacesIsolated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadshift.db")
	a, err := OpenSQLite(path, "a")
	require.NoError(t, err)
	defer a.Close()
	require.NoError(t, a.Set(context.Background(), KeySettings, 1))

	b, err := OpenSQLite(path, "b")
	require.NoError(t, err)
	defer b.Close()
	keys, err := b.Keys(context.Background())
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, backend := range []string{BackendSQLite, BackendFile, BackendMemory} {
		s, err := Open(backend, filepath.Join(dir, backend))
		require.NoError(t, err, backend)
		require.NoError(t, s.Close())
	}
	_, err := Open("redis", "")
	assert.Error(t, err)
	_, err = OpenSQLite("", "")
	assert.Error(t, err)
}

func TestUpSection(t *testing.T) {
	assert.Equal(t, "\nCREATE x;\n", upSection("-- +migrate Up\nCREATE x;\n-- +migrate Down\nDROP x;"))
	assert.Equal(t, "CREATE y;", upSection("CREATE y;"))
}
