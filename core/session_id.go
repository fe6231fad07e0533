package core

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// TokenBytes is the number of random bytes behind a review token.
const TokenBytes = 32

var tokenEncoding = base64.URLEncoding.WithPadding(base64.NoPadding)

// GenerateSessionID returns a URL-safe review token built from crypto/rand.
// The token is 43 characters long and can be used in a path segment as is.
func GenerateSessionID() (string, error) {
	buf := make([]byte, TokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate review token: %w", err)
	}
	return tokenEncoding.EncodeToString(buf), nil
}
