package main

import (
	"github.com/spf13/cobra"

	"github.com/vanastassiou/seneschal/internal/config"
	"github.com/vanastassiou/seneschal/internal/gdrive"
	"github.com/vanastassiou/seneschal/internal/kv"
	"github.com/vanastassiou/seneschal/internal/oauth"
	"github.com/vanastassiou/seneschal/internal/syncer"
)

const providerName = "gdrive"

// app wires the store, authenticator, provider and engine together for one
// command invocation. Close releases the state database.
type app struct {
	cfg      *config.Config
	store    kv.Store
	auth     *oauth.Authenticator
	authReq  *oauth.AuthRequest
	provider *gdrive.Provider
	engine   *syncer.Engine
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := kv.OpenBolt(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	auth := oauth.New(store, nil)
	authReq := &oauth.AuthRequest{
		Provider:     providerName,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		RedirectURI:  cfg.RedirectURI,
	}
	provider := gdrive.New(cfg.Domain, auth, authReq, store, nil)
	engine := syncer.New(cfg.Domain, provider, newFileAccessor(cfg.DataFile), &syncer.Options{
		LastSync: syncer.NewKVLastSync(store),
	})

	return &app{
		cfg:      cfg,
		store:    store,
		auth:     auth,
		authReq:  authReq,
		provider: provider,
		engine:   engine,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}
