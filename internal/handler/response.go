package handler

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"leaguevote/internal/domain"
	"leaguevote/internal/middleware"
	apperrors "leaguevote/pkg/errors"
	"leaguevote/pkg/logger"
)

// toAppError maps domain failures onto the HTTP error envelope
func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return apperrors.New(apperrors.ErrorTypeAuthentication, http.StatusUnauthorized, "Authentication required", err)
	case errors.Is(err, domain.ErrUnverifiedIdentity):
		return apperrors.New(apperrors.ErrorTypeUnverified, http.StatusForbidden, "Verify your email address before voting", err)
	case errors.Is(err, domain.ErrVotingClosed):
		return apperrors.New(apperrors.ErrorTypeVotingClosed, http.StatusConflict, "Voting is closed for this match", err)
	case errors.Is(err, domain.ErrInvalidPlayer):
		return apperrors.New(apperrors.ErrorTypeInvalidPlayer, http.StatusUnprocessableEntity, "Player is not part of this match", err)
	case errors.Is(err, domain.ErrDuplicateVote):
		return apperrors.New(apperrors.ErrorTypeDuplicateVote, http.StatusConflict, "You have already voted in this match", err)
	case errors.Is(err, domain.ErrResultsHidden):
		return apperrors.New(apperrors.ErrorTypeResultsHidden, http.StatusForbidden, "Results are visible after you vote", err)
	case errors.Is(err, domain.ErrMatchNotFound):
		return apperrors.NewNotFoundError("Match not found")
	case errors.Is(err, domain.ErrAwardNotFound):
		return apperrors.NewNotFoundError("Award not found")
	case errors.Is(err, domain.ErrStorageFailure):
		return apperrors.New(apperrors.ErrorTypeStorage, http.StatusInternalServerError, "Storage is temporarily unavailable", err)
	default:
		return apperrors.NewInternalError("Internal server error", err)
	}
}

func respondJSON(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := toAppError(err)
	entry := log.WithError(err).WithField("path", r.URL.Path)
	if appErr.StatusCode >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}
	if writeErr := apperrors.Write(w, appErr, middleware.RequestIDFromContext(r.Context())); writeErr != nil {
		log.WithError(writeErr).Error("Failed to write error response")
	}
}

// respondCached writes data with an ETag and answers 304 when the client already has it
func respondCached(w http.ResponseWriter, r *http.Request, log *logger.Logger, data interface{}, cacheControl string) {
	etag := generateETag(data)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)
	respondJSON(w, log, http.StatusOK, data)
}

func generateETag(data interface{}) string {
	jsonData, _ := json.Marshal(data)
	hash := md5.Sum(jsonData)
	return fmt.Sprintf(`"%x"`, hash)
}
