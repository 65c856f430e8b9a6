package internal

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

const (
	refreshTokenSize = 64
	oneTimeTokenSize = 32
	syntheticSize    = 32
)

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NewRefreshToken returns 64 random bytes, hex encoded.
func NewRefreshToken() (string, error) {
	return randomHex(refreshTokenSize)
}

// NewOneTimeToken returns 32 random bytes, hex encoded. Used for email
// verification and password reset links.
func NewOneTimeToken() (string, error) {
	return randomHex(oneTimeTokenSize)
}

// NewSyntheticPassword returns an unguessable password for federated
// accounts, namespaced by provider so it can never collide across providers.
func NewSyntheticPassword(provider string) (string, error) {
	secret, err := randomHex(syntheticSize)
	if err != nil {
		return "", err
	}
	return provider + ":" + secret, nil
}

// HashToken is the one-way digest stored in place of raw refresh and
// one-time tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
