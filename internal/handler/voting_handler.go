package handler

import (
	"encoding/json"
	"net/http"

	"leaguevote/internal/domain"
	"leaguevote/internal/middleware"
	"leaguevote/internal/service"
	apperrors "leaguevote/pkg/errors"
	"leaguevote/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type VotingHandler struct {
	votingService *service.VotingService
	logger        *logger.Logger
}

func NewVotingHandler(votingService *service.VotingService, log *logger.Logger) *VotingHandler {
	return &VotingHandler{
		votingService: votingService,
		logger:        log.Named("voting_handler"),
	}
}

type castVoteBody struct {
	PlayerID string `json:"player_id"`
}

// GetVotingStatus handles GET /api/v1/matches/{matchID}/voting (polling endpoint)
func (h *VotingHandler) GetVotingStatus(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	status, err := h.votingService.GetVotingStatus(r.Context(), identity, chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	// user_has_voted differs per caller
	respondCached(w, r, h.logger, status, "private, max-age=5")
}

// CastVote handles POST /api/v1/matches/{matchID}/votes
func (h *VotingHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		respondError(w, r, h.logger, domain.ErrUnauthenticated)
		return
	}

	var body castVoteBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, r, h.logger, apperrors.NewValidationError("Invalid request body", nil))
		return
	}

	result, err := h.votingService.CastVote(r.Context(), identity, domain.CastVoteRequest{
		MatchID:  chi.URLParam(r, "matchID"),
		PlayerID: body.PlayerID,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusCreated, result)
}

// GetMyVote handles GET /api/v1/matches/{matchID}/votes/me
func (h *VotingHandler) GetMyVote(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	vote, err := h.votingService.GetMyVote(r.Context(), identity, chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if vote == nil {
		respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
			"has_voted": false,
		})
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"has_voted": true,
		"vote_id":   vote.ID,
		"player_id": vote.PlayerID,
		"voted_at":  vote.CreatedAt,
	})
}

// GetResults handles GET /api/v1/matches/{matchID}/results
func (h *VotingHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	results, err := h.votingService.GetResults(r.Context(), identity, chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondCached(w, r, h.logger, results, "private, max-age=30")
}
