// Package auth checks the shared bearer token that guards the HTTP API.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
)

const TokenSize = 32

// GenerateToken returns a random token as 64 hex characters.
func GenerateToken() (string, error) {
	key := make([]byte, TokenSize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}

// Equal reports whether got matches want. Both are compared as SHA-256
// digests in constant time. An empty want never matches.
func Equal(want, got string) bool {
	if want == "" {
		return false
	}
	w := sha256.Sum256([]byte(want))
	g := sha256.Sum256([]byte(got))
	return hmac.Equal(w[:], g[:])
}

// BearerToken extracts the token from an "Authorization: Bearer" header,
// falling back to the "token" query parameter for websocket clients.
func BearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}
