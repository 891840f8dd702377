package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/reconciler/internal/http/auth"
)

const secret = "test-secret"

func TestMiddleware(t *testing.T) {
	valid, err := auth.Sign(secret, "alice", time.Hour)
	require.NoError(t, err)

	expired, err := auth.Sign(secret, "alice", -time.Minute)
	require.NoError(t, err)

	foreign, err := auth.Sign("other-secret", "alice", time.Hour)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
		wantSub    string
	}{
		{name: "Valid", secret: secret, header: "Bearer " + valid, wantStatus: http.StatusOK, wantSub: "alice"},
		{name: "Missing", secret: secret, wantStatus: http.StatusUnauthorized},
		{name: "NotBearer", secret: secret, header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "Expired", secret: secret, header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "WrongKey", secret: secret, header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "AlgNone", secret: secret, header: "Bearer " + none, wantStatus: http.StatusUnauthorized},
		{name: "Disabled", secret: "", wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotSub string

			h := auth.Middleware(tt.secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotSub = auth.Subject(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/batches", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantSub, gotSub)
		})
	}
}
