package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"leaguevote/internal/domain"
	"leaguevote/internal/service"
	"leaguevote/pkg/errors"
	"leaguevote/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	oauth2api "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

const (
	ProviderSupabase = "supabase"
	ProviderGoogle   = "google"
)

// Service implements the AuthService interface
type Service struct {
	jwtSecret []byte
	clientID  string
	google    *oauth2api.Service
	logger    *logger.Logger
}

// NewService creates a new auth service. opts are passed to the Google API client.
func NewService(ctx context.Context, jwtSecret, clientID string, log *logger.Logger, opts ...option.ClientOption) (service.AuthService, error) {
	if log == nil {
		log = logger.NewNop()
	}

	clientOpts := []option.ClientOption{
		option.WithoutAuthentication(),
		option.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	clientOpts = append(clientOpts, opts...)

	google, err := oauth2api.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google oauth2 client: %w", err)
	}

	return &Service{
		jwtSecret: []byte(jwtSecret),
		clientID:  clientID,
		google:    google,
		logger:    log,
	}, nil
}

func unauthenticated(message string) *errors.AppError {
	appErr := errors.NewAuthenticationError(message)
	appErr.Internal = domain.ErrUnauthenticated
	return appErr
}

// Authenticate validates a Supabase JWT or a Google access token
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.Identity, error) {
	token = strings.TrimSpace(token)

	if isGoogleAccessToken(token) {
		s.logger.Debug("Token identified as Google access token")
		return s.validateGoogleAccessToken(ctx, token)
	}

	if isJWTToken(token) {
		s.logger.Debug("Token identified as JWT, trying Supabase validation")
		return s.validateSupabaseJWT(token)
	}

	s.logger.Debug("Unrecognized token format")
	return nil, unauthenticated("Unrecognized token format")
}

// validateGoogleAccessToken introspects the token with Google's tokeninfo endpoint
func (s *Service) validateGoogleAccessToken(ctx context.Context, token string) (*domain.Identity, error) {
	info, err := s.google.Tokeninfo().AccessToken(token).Context(ctx).Do()
	if err != nil {
		s.logger.WithError(err).Warn("Google tokeninfo rejected access token")
		return nil, unauthenticated("Invalid or expired Google token")
	}

	// access tokens may omit the audience
	if info.Audience != "" && s.clientID != "" && info.Audience != s.clientID {
		s.logger.WithFields(map[string]interface{}{
			"expected_audience": s.clientID,
			"actual_audience":   info.Audience,
		}).Warn("Token audience mismatch")
		return nil, unauthenticated("Token not intended for this application")
	}

	identity := &domain.Identity{
		Subject:       info.UserId,
		Email:         info.Email,
		EmailVerified: info.VerifiedEmail,
		Provider:      ProviderGoogle,
	}
	if identity.Subject == "" {
		identity.Subject = info.Email
	}
	if identity.Subject == "" {
		s.logger.Warn("No user identifier found in token response")
		return nil, unauthenticated("Invalid token: no user identifier")
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":        identity.Subject,
		"email_verified": identity.EmailVerified,
	}).Debug("Google access token validated")
	return identity, nil
}

// validateSupabaseJWT verifies the HMAC signature and expiry of a Supabase session token
func (s *Service) validateSupabaseJWT(tokenString string) (*domain.Identity, error) {
	if len(s.jwtSecret) == 0 {
		s.logger.Error("SUPABASE_JWT_SECRET not configured")
		return nil, unauthenticated("JWT validation not configured")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		s.logger.WithError(err).Debug("Failed to parse/validate JWT token")
		return nil, unauthenticated("Invalid JWT token")
	}

	identity := &domain.Identity{
		Subject:       getStringValue(claims, "sub"),
		Email:         getStringValue(claims, "email"),
		EmailVerified: getBoolValue(claims, "email_verified") || getStringValue(claims, "email_confirmed_at") != "",
		Provider:      ProviderSupabase,
	}

	if userMeta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		identity.Name = getStringValue(userMeta, "name")
		if identity.Name == "" {
			identity.Name = getStringValue(userMeta, "full_name")
		}
		if getBoolValue(userMeta, "email_verified") {
			identity.EmailVerified = true
		}
	}

	if identity.Subject == "" {
		s.logger.Warn("No user identifier found in JWT token")
		return nil, unauthenticated("Invalid JWT token: no user identifier")
	}

	s.logger.WithField("user_id", identity.Subject).Debug("Supabase JWT token validated")
	return identity, nil
}

// Helper functions for token format detection
func isGoogleAccessToken(token string) bool {
	return strings.HasPrefix(token, "ya29.") && len(token) > len("ya29.")
}

func isJWTToken(token string) bool {
	return token != "" && strings.Count(token, ".") == 2
}

func getStringValue(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}

func getBoolValue(m map[string]interface{}, key string) bool {
	if val, ok := m[key].(bool); ok {
		return val
	}
	return false
}
