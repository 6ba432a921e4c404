// Package oauth implements the Authorization-Code-with-PKCE flow against a
// provider's OAuth2 endpoints, and the persistence of the resulting tokens.
// It knows nothing about what the tokens are used for; the remote storage
// provider consumes it.
package oauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/imroc/req/v3"

	"github.com/vanastassiou/seneschal/internal/kv"
	"github.com/vanastassiou/seneschal/internal/utils"
)

const (
	// Google's OAuth2 endpoints; the reference backend.
	DefaultAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
)

// Options configures an Authenticator. Zero values pick the Google endpoints,
// a default HTTP client and the wall clock.
type Options struct {
	AuthURL  string
	TokenURL string
	Client   *req.Client
	Now      func() time.Time
}

// Authenticator drives the PKCE authorization flow for any number of named
// providers sharing one key-value store.
type Authenticator struct {
	tokens   *TokenStore
	sessions *SessionStore
	client   *req.Client
	authURL  string
	tokenURL string
	now      func() time.Time
}

// New creates an Authenticator backed by the given store. opts may be nil.
func New(store kv.Store, opts *Options) *Authenticator {
	if opts == nil {
		opts = &Options{}
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	client := opts.Client
	if client == nil {
		client = req.C().
			SetCommonRetryCount(2).
			SetCommonRetryFixedInterval(1 * time.Second)
	}

	authURL := opts.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := opts.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	return &Authenticator{
		tokens:   NewTokenStore(store, now),
		sessions: NewSessionStore(store, now),
		client:   client,
		authURL:  authURL,
		tokenURL: tokenURL,
		now:      now,
	}
}

// Tokens exposes the underlying token store.
func (a *Authenticator) Tokens() *TokenStore {
	return a.tokens
}

// BeginAuth generates a PKCE verifier and a state nonce, saves them as the
// provider's pending session and returns the authorization URL the user agent
// must be sent to. Navigation itself is the caller's side effect.
func (a *Authenticator) BeginAuth(authReq *AuthRequest) (string, error) {
	verifier := newCodeVerifier()
	state := utils.TokenHex(16)

	session := &Session{
		State:        state,
		CodeVerifier: verifier,
		CreatedAt:    a.now().UnixMilli(),
	}
	if err := a.sessions.Save(authReq.Provider, session); err != nil {
		return "", fmt.Errorf("save oauth session: %w", err)
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", authReq.ClientID)
	params.Set("redirect_uri", authReq.RedirectURI)
	params.Set("scope", strings.Join(authReq.Scopes, " "))
	params.Set("state", state)
	params.Set("code_challenge", challengeS256(verifier))
	params.Set("code_challenge_method", "S256")
	// ask for a refresh token so the session outlives the first hour
	params.Set("access_type", "offline")
	params.Set("prompt", "consent")

	slog.Debug("auth flow started", "provider", authReq.Provider)
	return a.authURL + "?" + params.Encode(), nil
}

// HasCallback reports whether the query string carries an authorization
// callback. It never mutates state; callers use it to decide whether to run
// HandleCallback.
func (a *Authenticator) HasCallback(query url.Values) bool {
	return query.Get("code") != "" && query.Get("state") != ""
}

// HandleCallback validates the authorization callback against the pending
// session and exchanges the code for tokens. Every failure is an *AuthError.
// On success the token record is persisted and the pending session cleared.
func (a *Authenticator) HandleCallback(ctx context.Context, authReq *AuthRequest, query url.Values) error {
	if errCode := query.Get("error"); errCode != "" {
		return authErrf("authorization failed: %s", errCode)
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		return authErrf("callback missing code or state")
	}

	session, err := a.sessions.Get(authReq.Provider)
	if err != nil {
		return &AuthError{Reason: "load oauth session", Err: err}
	}
	if session == nil {
		return authErrf("no pending authorization for provider %q", authReq.Provider)
	}
	if session.State != state {
		return authErrf("state mismatch")
	}

	form := map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"client_id":     authReq.ClientID,
		"redirect_uri":  authReq.RedirectURI,
		"code_verifier": session.CodeVerifier,
	}
	if authReq.ClientSecret != "" {
		form["client_secret"] = authReq.ClientSecret
	}

	token, err := a.exchange(ctx, form)
	if err != nil {
		return err
	}

	if err := a.tokens.Save(authReq.Provider, token); err != nil {
		return &AuthError{Reason: "save token", Err: err}
	}
	if err := a.sessions.Delete(authReq.Provider); err != nil {
		return &AuthError{Reason: "clear oauth session", Err: err}
	}

	slog.Info("auth flow completed", "provider", authReq.Provider)
	return nil
}

// AccessToken returns a token usable for API calls, refreshing an expired one
// when a refresh token is available. Returns ErrNotAuthenticated when nothing
// usable exists.
func (a *Authenticator) AccessToken(ctx context.Context, authReq *AuthRequest) (string, error) {
	token, err := a.tokens.Load(authReq.Provider)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	if token == nil {
		return "", ErrNotAuthenticated
	}

	if !token.ExpiresWithin(a.now(), expiryBuffer) {
		return token.AccessToken, nil
	}

	if token.RefreshToken == "" {
		// nothing can revive this token record
		if err := a.tokens.Delete(authReq.Provider); err != nil {
			return "", fmt.Errorf("delete expired token: %w", err)
		}
		return "", ErrNotAuthenticated
	}

	refreshed, err := a.refresh(ctx, authReq, token)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// IsAuthenticated reports whether a usable or refreshable token exists.
func (a *Authenticator) IsAuthenticated(provider string) bool {
	token, err := a.tokens.Load(provider)
	if err != nil || token == nil {
		return false
	}
	return !token.ExpiresWithin(a.now(), expiryBuffer) || token.RefreshToken != ""
}

// IDToken returns the stored OpenID Connect id_token, if any.
func (a *Authenticator) IDToken(provider string) string {
	token, err := a.tokens.Load(provider)
	if err != nil || token == nil {
		return ""
	}
	return token.IDToken
}

// Logout clears the provider's token and any pending session.
func (a *Authenticator) Logout(provider string) error {
	if err := a.tokens.Delete(provider); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if err := a.sessions.Delete(provider); err != nil {
		return fmt.Errorf("delete oauth session: %w", err)
	}
	slog.Info("logged out", "provider", provider)
	return nil
}

func (a *Authenticator) refresh(ctx context.Context, authReq *AuthRequest, token *Token) (*Token, error) {
	form := map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": token.RefreshToken,
		"client_id":     authReq.ClientID,
	}
	if authReq.ClientSecret != "" {
		form["client_secret"] = authReq.ClientSecret
	}

	refreshed, err := a.exchange(ctx, form)
	if err != nil {
		return nil, err
	}

	// the refresh grant usually omits the refresh token; keep the old one
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = token.RefreshToken
	}
	if refreshed.IDToken == "" {
		refreshed.IDToken = token.IDToken
	}

	if err := a.tokens.Save(authReq.Provider, refreshed); err != nil {
		return nil, fmt.Errorf("save refreshed token: %w", err)
	}

	slog.Debug("access token refreshed", "provider", authReq.Provider)
	return refreshed, nil
}

// exchange POSTs a grant to the token endpoint and converts the response into
// a token record.
func (a *Authenticator) exchange(ctx context.Context, form map[string]string) (*Token, error) {
	var success tokenEndpointResponse
	var failure tokenEndpointError

	resp, err := a.client.R().
		SetContext(ctx).
		SetFormData(form).
		SetSuccessResult(&success).
		SetErrorResult(&failure).
		Post(a.tokenURL)
	if err != nil {
		return nil, &AuthError{Reason: "token endpoint unreachable", Err: err}
	}

	if resp.IsErrorState() {
		if failure.Code != "" {
			return nil, authErrf("token exchange rejected: %s: %s", failure.Code, failure.Description)
		}
		return nil, authErrf("token exchange failed with status %d", resp.StatusCode)
	}

	expiresIn := success.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = defaultExpiresIn
	}

	slog.Debug("token grant succeeded",
		"access_token", utils.MaskSecret(success.AccessToken),
		"expires_in", expiresIn)

	return &Token{
		AccessToken:  success.AccessToken,
		RefreshToken: success.RefreshToken,
		IDToken:      success.IDToken,
		ExpiresAt:    a.now().Add(time.Duration(expiresIn) * time.Second).UnixMilli(),
	}, nil
}
