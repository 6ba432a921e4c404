package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate_Normalizes(t *testing.T) {
	tmp := t.TempDir()
	cfg := &Config{
		ClientID:    "client-123",
		RedirectURI: "http://127.0.0.1:8437/oauth/callback",
		Domain:      "notes",
		DataFile:    filepath.Join(tmp, "data.json"),
		StatePath:   filepath.Join(tmp, "state.db"),
	}

	require.NoError(t, cfg.Validate())
	assert.True(t, filepath.IsAbs(cfg.DataFile))
	assert.True(t, filepath.IsAbs(cfg.StatePath))
}

func TestConfig_Validate_ErrorsOnInvalidInputs(t *testing.T) {
	tmp := t.TempDir()

	valid := func() *Config {
		return &Config{
			ClientID:    "client-123",
			RedirectURI: "http://127.0.0.1:8437/oauth/callback",
			Domain:      "notes",
			DataFile:    filepath.Join(tmp, "data.json"),
			StatePath:   filepath.Join(tmp, "state.db"),
		}
	}

	t.Run("missing client id", func(t *testing.T) {
		cfg := valid()
		cfg.ClientID = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "client_id")
	})

	t.Run("missing domain", func(t *testing.T) {
		cfg := valid()
		cfg.Domain = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "domain")
	})

	t.Run("bad redirect uri", func(t *testing.T) {
		cfg := valid()
		cfg.RedirectURI = "not a url"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "redirect_uri")
	})
}

func TestConfig_SaveAndLoad_Roundtrip(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")

	cfg := &Config{
		ClientID:     "client-123",
		ClientSecret: "secret",
		RedirectURI:  "http://127.0.0.1:8437/oauth/callback",
		Scopes:       []string{"https://www.googleapis.com/auth/drive.file"},
		Domain:       "notes",
		DataFile:     filepath.Join(tmp, "data.json"),
		StatePath:    filepath.Join(tmp, "state.db"),
		Path:         path,
	}

	require.NoError(t, cfg.Validate())
	require.NoError(t, cfg.Save())

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.ClientID, loaded.ClientID)
	assert.Equal(t, cfg.ClientSecret, loaded.ClientSecret)
	assert.Equal(t, cfg.RedirectURI, loaded.RedirectURI)
	assert.Equal(t, cfg.Scopes, loaded.Scopes)
	assert.Equal(t, cfg.Domain, loaded.Domain)
	assert.Equal(t, path, loaded.Path)

	info, statErr := os.Stat(path)
	require.NoError(t, statErr)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfig_Load_AppliesDefaults(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_id":"client-123"}`), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultDomain, cfg.Domain)
	assert.Equal(t, DefaultRedirectURI, cfg.RedirectURI)
	assert.Equal(t, DefaultScopes, cfg.Scopes)
	assert.NotEmpty(t, cfg.DataFile)
	assert.NotEmpty(t, cfg.StatePath)
}
