package verifyaccount_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/auth"
	"bookshelf/internal/http_server/handlers/verifyaccount"
	mwSession "bookshelf/internal/http_server/middleware/session"
	"bookshelf/internal/lib/api/validate"
	"bookshelf/internal/lib/logger/handlers/slogdiscard"
	"bookshelf/internal/models"
)

type fakeVerifier struct {
	err   error
	calls int

	gotToken string
	gotOTP   string
}

func (f *fakeVerifier) VerifyAccount(_ context.Context, current models.UserPrivate, token, otp string) (models.UserPrivate, error) {
	f.calls++
	f.gotToken = token
	f.gotOTP = otp
	if f.err != nil {
		return models.UserPrivate{}, f.err
	}

	current.Verified = true

	return current, nil
}

func TestVerifyAccountHandler(t *testing.T) {
	bob := models.UserPrivate{ID: 2, Email: "bob@outlook.com", Username: "bob"}

	tests := []struct {
		name      string
		body      string
		verifyErr error
		wantCode  int
		wantError string
		wantCalls int
	}{
		{
			name:      "valid otp",
			body:      `{"otp":"abc_DEF-1.c2lnbmF0dXJl"}`,
			wantCode:  http.StatusOK,
			wantCalls: 1,
		},
		{
			name:      "unknown or expired otp",
			body:      `{"otp":"abc.def"}`,
			verifyErr: auth.ErrOTPInvalidOrExpired,
			wantCode:  http.StatusNotFound,
			wantError: "Invalid or expired OTP",
			wantCalls: 1,
		},
		{
			name:      "malformed otp",
			body:      `{"otp":"no-dot-here"}`,
			wantCode:  http.StatusBadRequest,
			wantError: "Malformed OTP",
		},
		{
			name:      "missing otp",
			body:      `{}`,
			wantCode:  http.StatusBadRequest,
			wantError: "field otp is a required field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &fakeVerifier{err: tt.verifyErr}

			req := httptest.NewRequest(http.MethodPost, "/auth/verify-account", strings.NewReader(tt.body))
			req = req.WithContext(mwSession.WithIdentity(req.Context(), mwSession.Identity{User: bob, Token: "tok"}))

			rr := httptest.NewRecorder()
			verifyaccount.New(slogdiscard.NewDiscardLogger(), validate.New(), verifier).ServeHTTP(rr, req)

			require.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantCalls, verifier.calls)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))

			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				return
			}

			assert.Equal(t, "OK", body["status"])
			assert.Equal(t, "tok", verifier.gotToken)
		})
	}
}
