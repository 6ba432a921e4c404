// Package config holds the client configuration: OAuth client credentials,
// the domain being synced and the local file paths the CLI operates on.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/vanastassiou/seneschal/internal/jsonx"
	"github.com/vanastassiou/seneschal/internal/utils"
)

var (
	home, _ = os.UserHomeDir()

	DefaultConfigPath  = filepath.Join(home, ".seneschal", "config.json")
	DefaultStatePath   = filepath.Join(home, ".seneschal", "state.db")
	DefaultDataFile    = filepath.Join(home, ".seneschal", "data.json")
	DefaultLogFilePath = filepath.Join(home, ".seneschal", "logs", "seneschal.log")

	DefaultDomain      = "notes"
	DefaultRedirectURI = "http://127.0.0.1:8437/oauth/callback"
	DefaultScopes      = []string{
		"https://www.googleapis.com/auth/drive.file",
		"openid",
		"email",
	}
)

type Config struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret,omitempty"`
	RedirectURI  string   `json:"redirect_uri"`
	Scopes       []string `json:"scopes,omitempty"`
	Domain       string   `json:"domain"`
	DataFile     string   `json:"data_file"`
	StatePath    string   `json:"state_path"`
	Path         string   `json:"-"`
}

// Load reads a config file and fills in defaults for unset fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := jsonx.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config parse '%s': %w", path, err)
	}

	cfg.Path = path
	cfg.ApplyDefaults()
	return &cfg, nil
}

func (c *Config) Save() error {
	if c.Path == "" {
		c.Path = DefaultConfigPath
	}
	if err := utils.EnsureParent(c.Path); err != nil {
		return err
	}

	data, err := jsonx.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(c.Path, data, 0600)
}

func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("client_id is required")
	}
	if c.Domain == "" {
		return fmt.Errorf("domain is required")
	}

	u, err := url.Parse(c.RedirectURI)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid redirect_uri %q", c.RedirectURI)
	}

	resolved, err := utils.ResolvePath(c.DataFile)
	if err != nil {
		return fmt.Errorf("resolve data_file: %w", err)
	}
	c.DataFile = resolved

	resolved, err = utils.ResolvePath(c.StatePath)
	if err != nil {
		return fmt.Errorf("resolve state_path: %w", err)
	}
	c.StatePath = resolved

	return nil
}

// ApplyDefaults fills every unset field with its default value.
func (c *Config) ApplyDefaults() {
	if c.RedirectURI == "" {
		c.RedirectURI = DefaultRedirectURI
	}
	if len(c.Scopes) == 0 {
		c.Scopes = DefaultScopes
	}
	if c.Domain == "" {
		c.Domain = DefaultDomain
	}
	if c.DataFile == "" {
		c.DataFile = DefaultDataFile
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStatePath
	}
}
