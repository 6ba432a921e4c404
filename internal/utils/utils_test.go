package utils

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenHex(t *testing.T) {
	a := TokenHex(16)
	b := TokenHex(16)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Regexp(t, "^[0-9a-f]+$", a)
}

func TestResolvePath(t *testing.T) {
	t.Run("empty path errors", func(t *testing.T) {
		_, err := ResolvePath("")
		assert.Error(t, err)
	})

	t.Run("expands tilde", func(t *testing.T) {
		home, err := os.UserHomeDir()
		require.NoError(t, err)

		got, err := ResolvePath("~/data.json")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(home, "data.json"), got)
	})

	t.Run("absolute stays absolute", func(t *testing.T) {
		got, err := ResolvePath("/tmp/../tmp/x")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/x", got)
	})
}

func TestEnsureParentAndFileExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "file.txt")
	require.NoError(t, EnsureParent(path))

	assert.False(t, FileExists(path))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
	assert.True(t, FileExists(path))

	// directories are not files
	assert.False(t, FileExists(filepath.Dir(path)))
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "*****", MaskSecret(""))
	assert.Equal(t, "*****", MaskSecret("abcd"))
	assert.Equal(t, "ya29*****", MaskSecret("ya29.a0AfH6SMBx"))
}

func TestGetFreePort(t *testing.T) {
	port, err := GetFreePort()
	require.NoError(t, err)
	assert.Greater(t, port, 0)
}

func TestFanoutHandler(t *testing.T) {
	var debugBuf, warnBuf bytes.Buffer
	debugHandler := slog.NewTextHandler(&debugBuf, &slog.HandlerOptions{Level: slog.LevelDebug})
	warnHandler := slog.NewTextHandler(&warnBuf, &slog.HandlerOptions{Level: slog.LevelWarn})

	logger := slog.New(NewFanoutHandler(debugHandler, warnHandler))
	logger.Debug("quiet detail")
	logger.Warn("loud problem")

	assert.Contains(t, debugBuf.String(), "quiet detail")
	assert.Contains(t, debugBuf.String(), "loud problem")
	assert.NotContains(t, warnBuf.String(), "quiet detail")
	assert.Contains(t, warnBuf.String(), "loud problem")

	assert.True(t, NewFanoutHandler(debugHandler).Enabled(context.Background(), slog.LevelDebug))
	assert.False(t, NewFanoutHandler(warnHandler).Enabled(context.Background(), slog.LevelDebug))
}
