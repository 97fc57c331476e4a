package handler

import (
	"net/http"

	"leaguevote/internal/domain"
	"leaguevote/internal/middleware"
	"leaguevote/pkg/logger"
)

// AuthHandler exposes the identity resolved from the caller's token
type AuthHandler struct {
	logger *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(log *logger.Logger) *AuthHandler {
	return &AuthHandler{logger: log.Named("auth_handler")}
}

// ProfileResponse represents the caller's profile
type ProfileResponse struct {
	User    *domain.Identity `json:"user"`
	CanVote bool             `json:"can_vote"`
	Success bool             `json:"success"`
	Message string           `json:"message"`
}

// GetProfile handles GET /api/v1/me
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		respondError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	h.logger.WithField("user_id", identity.Subject).Debug("Getting user profile")

	respondJSON(w, h.logger, http.StatusOK, ProfileResponse{
		User:    identity,
		CanVote: identity.EmailVerified,
		Success: true,
		Message: "User profile retrieved successfully",
	})
}
