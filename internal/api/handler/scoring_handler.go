package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lending-engine/internal/api/handler/dto"
	"lending-engine/internal/domain/client"
	"lending-engine/internal/domain/scoring"
	"lending-engine/internal/pkg/apperrors"
)

type ScoringHandler struct {
	service scoring.Service
	logger  *slog.Logger
}

func NewScoringHandler(s scoring.Service, l *slog.Logger) *ScoringHandler {
	return &ScoringHandler{
		service: s,
		logger:  l.With("component", "ScoringHandler"),
	}
}

// ScoreApplication scores a loan application.
//
// @Summary Score a loan application
// @Description Combines the client's stored base score with document, amount-risk, collateral and guarantor adjustments into a clamped score, band and recommended ceiling.
// @Tags Scoring
// @Accept json
// @Produce json
// @Param request body dto.ScoreApplicationRequest true "Application scoring payload"
// @Success 200 {object} dto.ScoreResponse "Application successfully scored"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Client not found"
// @Router /scores [post]
// @Security BearerAuth
func (h *ScoringHandler) ScoreApplication(w http.ResponseWriter, r *http.Request) {
	var req dto.ScoreApplicationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	result, err := h.service.ScoreApplication(r.Context(), req.ToApplication())
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respondError(w, apperrors.ErrNotFound)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewScoreResponse(result))
}

// LatestScore returns the most recent score for a client.
//
// @Summary Retrieve a client's latest credit score
// @Tags Scoring
// @Produce json
// @Param clientID path int true "Client ID"
// @Success 200 {object} dto.ScoreResponse "Latest score retrieved"
// @Failure 404 {object} dto.ErrorResponse "Client or score not found"
// @Router /clients/{clientID}/score/latest [get]
// @Security BearerAuth
func (h *ScoringHandler) LatestScore(w http.ResponseWriter, r *http.Request) {
	clientID, err := idFromURL(r, "clientID")
	if err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	result, err := h.service.LatestScore(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, client.ErrNotFound) {
			respondError(w, apperrors.ErrNotFound)
			return
		}
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewScoreResponse(result))
}
