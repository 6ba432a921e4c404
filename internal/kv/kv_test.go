package kv

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStores_RoundTrip(t *testing.T) {
	bolt, err := OpenBolt(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer bolt.Close()

	stores := map[string]Store{
		"mem":  NewMemStore(),
		"bolt": bolt,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("missing")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, store.Set("token:gdrive", []byte(`{"a":1}`)))
			got, err := store.Get("token:gdrive")
			require.NoError(t, err)
			assert.Equal(t, []byte(`{"a":1}`), got)

			require.NoError(t, store.Set("token:gdrive", []byte("v2")))
			got, err = store.Get("token:gdrive")
			require.NoError(t, err)
			assert.Equal(t, []byte("v2"), got)

			require.NoError(t, store.Delete("token:gdrive"))
			_, err = store.Get("token:gdrive")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			// deleting a missing key is not an error
			assert.NoError(t, store.Delete("token:gdrive"))
		})
	}
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	store, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, store.Set("notes-lastSync", []byte("2025-01-01T00:00:00Z")))
	require.NoError(t, store.Close())

	reopened, err := OpenBolt(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("notes-lastSync")
	require.NoError(t, err)
	assert.Equal(t, []byte("2025-01-01T00:00:00Z"), got)
}

func TestMemStore_GetReturnsCopy(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Set("k", []byte("abc")))

	got, err := store.Get("k")
	require.NoError(t, err)
	got[0] = 'x'

	again, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}
