package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/vanastassiou/seneschal/internal/jsonx"
	"github.com/vanastassiou/seneschal/internal/kv"
)

const (
	tokenKeyPrefix   = "token:"
	sessionKeyPrefix = "oauthsession:"
)

// TokenStore persists token records in a key-value store, one per provider.
type TokenStore struct {
	store kv.Store
	now   func() time.Time
}

func NewTokenStore(store kv.Store, now func() time.Time) *TokenStore {
	if now == nil {
		now = time.Now
	}
	return &TokenStore{store: store, now: now}
}

func (s *TokenStore) Save(provider string, token *Token) error {
	data, err := jsonx.Marshal(token)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	return s.store.Set(tokenKeyPrefix+provider, data)
}

// Load returns the stored token record verbatim, expired or not, or nil when
// none exists.
func (s *TokenStore) Load(provider string) (*Token, error) {
	data, err := s.store.Get(tokenKeyPrefix + provider)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var token Token
	if err := jsonx.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("unmarshal token: %w", err)
	}
	return &token, nil
}

// Get returns a usable token or nil. A token within the expiry buffer is
// unusable; if it carries no refresh token it is also deleted, since nothing
// can revive it.
func (s *TokenStore) Get(provider string) (*Token, error) {
	token, err := s.Load(provider)
	if err != nil || token == nil {
		return nil, err
	}

	if token.ExpiresWithin(s.now(), expiryBuffer) {
		if token.RefreshToken == "" {
			if err := s.Delete(provider); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	return token, nil
}

func (s *TokenStore) Delete(provider string) error {
	return s.store.Delete(tokenKeyPrefix + provider)
}

// SessionStore persists in-flight PKCE sessions, one per provider.
type SessionStore struct {
	store kv.Store
	now   func() time.Time
}

func NewSessionStore(store kv.Store, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{store: store, now: now}
}

func (s *SessionStore) Save(provider string, session *Session) error {
	data, err := jsonx.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.store.Set(sessionKeyPrefix+provider, data)
}

// Get returns the pending session for the provider, or nil when there is
// none. Sessions past their validity window are discarded on read.
func (s *SessionStore) Get(provider string) (*Session, error) {
	data, err := s.store.Get(sessionKeyPrefix + provider)
	if errors.Is(err, kv.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := jsonx.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	if session.expired(s.now()) {
		if err := s.Delete(provider); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return &session, nil
}

func (s *SessionStore) Delete(provider string) error {
	return s.store.Delete(sessionKeyPrefix + provider)
}
