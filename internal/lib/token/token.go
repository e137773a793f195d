// Package token generates opaque identifiers and HS256-signed envelopes
// of the form "<content>.<base64url signature>".
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SecureIDBytes is the entropy of generated identifiers: 24 bytes, 192 bits.
const SecureIDBytes = 24

const separator = "."

var encoding = base64.RawURLEncoding

// strictEncoding rejects non-zero trailing bits, so every character of a signature matters.
var strictEncoding = encoding.Strict()

// GenerateSecureID returns 192 random bits encoded with the unpadded URL-safe alphabet (32 chars).
func GenerateSecureID() string {
	b := make([]byte, SecureIDBytes)

	// crypto/rand.Read never returns an error on supported platforms.
	_, _ = rand.Read(b)

	return encoding.EncodeToString(b)
}

// Sign returns content + "." + base64url(HMAC-SHA256(secret, content)).
func Sign(content, secret string) (string, error) {
	const op = "token.Sign"

	sig, err := jwt.SigningMethodHS256.Sign(content, []byte(secret))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return content + separator + encoding.EncodeToString(sig), nil
}

// Verify reports whether signed carries a valid signature of its content.
// The comparison is done in constant time.
func Verify(signed, secret string) bool {
	content, encodedSig, found := strings.Cut(signed, separator)
	if !found || content == "" || encodedSig == "" {
		return false
	}

	sig, err := strictEncoding.DecodeString(encodedSig)
	if err != nil {
		return false
	}

	return jwt.SigningMethodHS256.Verify(content, sig, []byte(secret)) == nil
}

// Content returns the part of signed before the first separator.
func Content(signed string) string {
	content, _, _ := strings.Cut(signed, separator)

	return content
}
