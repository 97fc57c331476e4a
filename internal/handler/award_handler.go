package handler

import (
	"net/http"

	"leaguevote/internal/domain"
	"leaguevote/internal/service"
	"leaguevote/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type AwardHandler struct {
	awardService *service.AwardService
	logger       *logger.Logger
}

func NewAwardHandler(awardService *service.AwardService, log *logger.Logger) *AwardHandler {
	return &AwardHandler{
		awardService: awardService,
		logger:       log.Named("award_handler"),
	}
}

// GetAward handles GET /api/v1/matches/{matchID}/award
func (h *AwardHandler) GetAward(w http.ResponseWriter, r *http.Request) {
	award, err := h.awardService.GetAward(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if award == nil {
		respondError(w, r, h.logger, domain.ErrAwardNotFound)
		return
	}

	respondCached(w, r, h.logger, award, "public, max-age=60")
}

// Run handles POST /api/v1/internal/awards/run
func (h *AwardHandler) Run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.awardService.Run(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, summary)
}

// Revoke handles DELETE /api/v1/internal/awards/{matchID}
func (h *AwardHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	award, err := h.awardService.RevokeAward(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"revoked": award,
	})
}
