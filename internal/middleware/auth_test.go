package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"leaguevote/internal/domain"
	"leaguevote/pkg/logger"

	"github.com/stretchr/testify/assert"
)

type fakeAuth struct {
	identity *domain.Identity
	err      error
}

func (f fakeAuth) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	return f.identity, f.err
}

func identityEcho(t *testing.T, want *domain.Identity) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, want, IdentityFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	fan := &domain.Identity{Subject: "fan-1", EmailVerified: true}

	tests := []struct {
		name       string
		header     string
		auth       fakeAuth
		wantStatus int
	}{
		{name: "valid token", header: "Bearer good", auth: fakeAuth{identity: fan}, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", auth: fakeAuth{identity: fan}, wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", auth: fakeAuth{identity: fan}, wantStatus: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", auth: fakeAuth{identity: fan}, wantStatus: http.StatusUnauthorized},
		{name: "rejected token", header: "Bearer bad", auth: fakeAuth{err: errors.New("expired")}, wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := Auth(tt.auth, logger.NewNop())(identityEcho(t, fan))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOptionalAuth_Anonymous(t *testing.T) {
	h := OptionalAuth(fakeAuth{err: errors.New("unused")}, logger.NewNop())(identityEcho(t, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCronSecret(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	tests := []struct {
		name       string
		secret     string
		header     string
		wantStatus int
	}{
		{name: "matching secret", secret: "s3cret", header: "s3cret", wantStatus: http.StatusNoContent},
		{name: "wrong secret", secret: "s3cret", header: "guess", wantStatus: http.StatusUnauthorized},
		{name: "no secret configured", secret: "", header: "", wantStatus: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set(CronSecretHeader, tt.header)
			rec := httptest.NewRecorder()
			CronSecret(tt.secret, logger.NewNop())(ok).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"https://league.example"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/matches/m-1/votes", nil)
	req.Header.Set("Origin", "https://league.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://league.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/api/v1/matches/m-1/votes", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
