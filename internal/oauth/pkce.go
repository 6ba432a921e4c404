package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// verifierLength is within the 43-128 character range RFC 7636 allows, and
// base64url output stays inside the unreserved character set.
const verifierLength = 48 // bytes of entropy; encodes to 64 characters

// newCodeVerifier returns a fresh PKCE code verifier.
func newCodeVerifier() string {
	b := make([]byte, verifierLength)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// challengeS256 derives the S256 code challenge: base64url(sha256(verifier))
// with padding stripped.
func challengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
