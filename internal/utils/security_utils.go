package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

// GenerateOpaqueToken returns a high-entropy URL-safe opaque value used for
// authorization codes and access/refresh tokens. 32 bytes of entropy, never
// stored in plain text.
func GenerateOpaqueToken() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashToken is the one-way at-rest form of codes and tokens. Lookup is an
// indexed exact match on the hash; the comparison target is already
// unpredictable so constant-time comparison is not needed there.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// PKCEChallenge computes the S256 challenge for a code verifier.
func PKCEChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyPKCE compares a stored challenge against a presented verifier. The
// verifier is attacker-supplied, so this comparison is constant time.
func VerifyPKCE(challenge string, verifier string) bool {
	computed := PKCEChallenge(verifier)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
}

// GetSecret returns a secret from either its config value or a file,
// preferring the config value.
func GetSecret(conf string, file string) string {
	if conf != "" {
		return conf
	}

	if file == "" {
		return ""
	}

	contents, err := os.ReadFile(file)
	if err != nil {
		return ""
	}

	return ParseSecretFile(string(contents))
}

// ParseSecretFile returns the first non-empty line of a secret file.
func ParseSecretFile(contents string) string {
	lines := strings.Split(contents, "\n")

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		return strings.TrimSpace(line)
	}

	return ""
}

// GetRandomString returns a cryptographically secure random string of the
// given length.
func GetRandomString(length int) (string, error) {
	if length < 1 {
		return "", errors.New("length must be greater than 0")
	}
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	state := base64.RawURLEncoding.EncodeToString(b)
	return state[:length], nil
}
