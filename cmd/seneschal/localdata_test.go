package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileAccessor_MissingFileReadsAsNil(t *testing.T) {
	acc := newFileAccessor(filepath.Join(t.TempDir(), "data.json"))

	data, err := acc.GetLocalData(context.Background())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFileAccessor_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")
	acc := newFileAccessor(path)

	snapshot := []any{
		map[string]any{"id": "r1", "updatedAt": "2025-01-01T00:00:00Z"},
	}
	require.NoError(t, acc.SetLocalData(context.Background(), snapshot))

	got, err := acc.GetLocalData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileAccessor_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := newFileAccessor(path).GetLocalData(context.Background())
	assert.Error(t, err)
}
