package oauth

import "time"

const (
	// tokens this close to expiry are treated as unusable
	expiryBuffer = 5 * time.Minute

	// pending authorizations older than this are discarded
	sessionTTL = 10 * time.Minute

	defaultExpiresIn = 3600 // seconds, when the token endpoint omits expires_in
)

// AuthRequest identifies one OAuth client registration. The same values must
// be passed to BeginAuth and HandleCallback.
type AuthRequest struct {
	Provider     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	RedirectURI  string
}

// Token is a persisted token record, keyed by provider name.
type Token struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	IDToken      string `json:"idToken,omitempty"`
	ExpiresAt    int64  `json:"expiresAt"` // epoch millis
}

// ExpiresWithin reports whether the token expires before now+buffer.
func (t *Token) ExpiresWithin(now time.Time, buffer time.Duration) bool {
	return t.ExpiresAt <= now.Add(buffer).UnixMilli()
}

// Session is an in-flight PKCE authorization, saved between BeginAuth and
// HandleCallback.
type Session struct {
	State        string `json:"state"`
	CodeVerifier string `json:"codeVerifier"`
	CreatedAt    int64  `json:"createdAt"` // epoch millis
}

func (s *Session) expired(now time.Time) bool {
	return now.UnixMilli()-s.CreatedAt > sessionTTL.Milliseconds()
}

// tokenEndpointResponse is the success body of the token endpoint for both
// the authorization_code and refresh_token grants.
type tokenEndpointResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
	Scope        string `json:"scope"`
}

// tokenEndpointError is the RFC 6749 error body.
type tokenEndpointError struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}
