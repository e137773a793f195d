package token_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/lib/token"
)

const secret = "test-hs256-secret"

var urlSafe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func TestGenerateSecureID(t *testing.T) {
	t.Run("has 192 bits of url-safe entropy", func(t *testing.T) {
		id := token.GenerateSecureID()

		assert.Len(t, id, 32)
		assert.Regexp(t, urlSafe, id)

		raw, err := base64.RawURLEncoding.DecodeString(id)
		require.NoError(t, err)
		assert.Len(t, raw, token.SecureIDBytes)
	})

	t.Run("generates unique ids", func(t *testing.T) {
		seen := make(map[string]struct{}, 100)
		for range 100 {
			id := token.GenerateSecureID()
			_, dup := seen[id]
			require.False(t, dup)
			seen[id] = struct{}{}
		}
	})
}

func TestSign(t *testing.T) {
	signed, err := token.Sign("content", secret)
	require.NoError(t, err)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte("content"))
	want := "content." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, signed)
	assert.Equal(t, "content", token.Content(signed))
}

func TestVerify(t *testing.T) {
	id := token.GenerateSecureID()
	signed, err := token.Sign(id, secret)
	require.NoError(t, err)

	t.Run("accepts a valid signature", func(t *testing.T) {
		assert.True(t, token.Verify(signed, secret))
	})

	t.Run("rejects another secret", func(t *testing.T) {
		assert.False(t, token.Verify(signed, "other-secret"))
	})

	t.Run("rejects any tampered signature character", func(t *testing.T) {
		dot := strings.Index(signed, ".")
		for i := dot + 1; i < len(signed); i++ {
			replacement := byte('A')
			if signed[i] == 'A' {
				replacement = 'B'
			}
			tampered := signed[:i] + string(replacement) + signed[i+1:]
			assert.False(t, token.Verify(tampered, secret), "position %d", i)
		}
	})

	t.Run("rejects tampered content", func(t *testing.T) {
		_, sig, _ := strings.Cut(signed, ".")
		assert.False(t, token.Verify(token.GenerateSecureID()+"."+sig, secret))
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		for _, in := range []string{"", ".", "nodot", id + ".", "." + id, id + ".!!!"} {
			assert.False(t, token.Verify(in, secret), in)
		}
	})
}
