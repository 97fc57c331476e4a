package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"leaguevote/internal/domain"
	"leaguevote/internal/service"
	"leaguevote/pkg/errors"
	"leaguevote/pkg/logger"

	"github.com/google/uuid"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// IdentityContextKey is the key for the caller's identity in context
	IdentityContextKey ContextKey = "identity"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"

	// CronSecretHeader carries the shared secret of the scheduler
	CronSecretHeader = "X-Cron-Secret"
)

// IdentityFromContext returns the authenticated caller, or nil
func IdentityFromContext(ctx context.Context) *domain.Identity {
	identity, _ := ctx.Value(IdentityContextKey).(*domain.Identity)
	return identity
}

// RequestIDFromContext returns the request id assigned by RequestID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDContextKey).(string)
	return id
}

// WithIdentity stores identity in ctx
func WithIdentity(ctx context.Context, identity *domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

func bearerToken(r *http.Request) (string, *errors.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.NewAuthenticationError("Authorization header is required")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", errors.NewAuthenticationError("Invalid authorization header format")
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", errors.NewAuthenticationError("Token is required")
	}
	return token, nil
}

func authenticate(authService service.AuthService, log *logger.Logger, w http.ResponseWriter, r *http.Request) (*http.Request, bool) {
	token, appErr := bearerToken(r)
	if appErr != nil {
		writeErrorResponse(w, r, appErr, log)
		return r, false
	}

	identity, err := authService.Authenticate(r.Context(), token)
	if err != nil {
		log.WithError(err).Debug("Token validation failed")
		writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid or expired token"), log)
		return r, false
	}

	log.WithField("user_id", identity.Subject).Debug("User authenticated successfully")
	return r.WithContext(WithIdentity(r.Context(), identity)), true
}

// Auth rejects requests without a valid bearer token
func Auth(authService service.AuthService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, ok := authenticate(authService, log, w, r)
			if !ok {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// OptionalAuth validates the token when one is sent and otherwise continues anonymously
func OptionalAuth(authService service.AuthService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			r, ok := authenticate(authService, log, w, r)
			if !ok {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CronSecret protects internal endpoints called by the scheduler.
// An empty secret disables the endpoints entirely.
func CronSecret(secret string, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				writeErrorResponse(w, r, errors.NewAuthorizationError("Internal endpoints are disabled"), log)
				return
			}
			got := r.Header.Get(CronSecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				writeErrorResponse(w, r, errors.NewAuthenticationError("Invalid cron secret"), log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID assigns a request id, reusing an incoming X-Request-ID
func RequestID(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" || len(requestID) > 64 {
				requestID = uuid.NewString()
			}

			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeErrorResponse writes an error response to the client
func writeErrorResponse(w http.ResponseWriter, r *http.Request, appErr *errors.AppError, log *logger.Logger) {
	log.WithError(appErr).Debug("Request rejected")
	if err := errors.Write(w, appErr, RequestIDFromContext(r.Context())); err != nil {
		log.WithError(err).Error("Failed to write error response")
	}
}
