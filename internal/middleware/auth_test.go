package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailer8/mailer8/internal/config"
	"github.com/mailer8/mailer8/internal/logger"
)

func newTestMiddleware(cfg *config.Config) *Middleware {
	return New(nil, logger.New("error", "json"), cfg)
}

func authConfig(secret, issuer string) *config.Config {
	cfg := &config.Config{}
	cfg.Security.Tokens.Secret = secret
	cfg.Security.Tokens.Issuer = issuer
	return cfg
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuth(t *testing.T) {
	t.Parallel()

	mw := newTestMiddleware(authConfig("test-secret", "mailer8"))

	var gotUserID string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid token passes through", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{
			"sub": "admin-1",
			"iss": "mailer8",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "admin-1", gotUserID)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails", nil)
		rec := httptest.NewRecorder()

		mw.Auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{
			"sub": "admin-1",
			"iss": "mailer8",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		token := signToken(t, "test-secret", jwt.MapClaims{
			"sub": "admin-1",
			"iss": "someone-else",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{
			"sub": "admin-1",
			"iss": "mailer8",
			"exp": time.Now().Add(time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		mw.Auth(next).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCronKey(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Cron.APIKey = "cron-secret"
	mw := newTestMiddleware(cfg)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("matching key passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails/cron", nil)
		req.Header.Set(CronKeyHeader, "cron-secret")
		rec := httptest.NewRecorder()

		mw.CronKey(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong key rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails/cron", nil)
		req.Header.Set(CronKeyHeader, "guess")
		rec := httptest.NewRecorder()

		mw.CronKey(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing key rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails/cron", nil)
		rec := httptest.NewRecorder()

		mw.CronKey(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unset key disables endpoint", func(t *testing.T) {
		disabled := newTestMiddleware(&config.Config{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/birthday-emails/cron", nil)
		req.Header.Set(CronKeyHeader, "")
		rec := httptest.NewRecorder()

		disabled.CronKey(next).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
