package rating

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/auth"
	httperrors "github.com/codeduelhq/duel-platform/pkg/http/errors"
)

// HTTPHandlers exposes rating lookups and competition finalization.
type HTTPHandlers struct {
	ratings   *Service
	finalizer *Finalizer
	logger    zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for rating endpoints.
func NewHTTPHandlers(ratings *Service, finalizer *Finalizer, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		ratings:   ratings,
		finalizer: finalizer,
		logger:    logger.With().Str("component", "rating_http").Logger(),
	}
}

type ratingView struct {
	UserID                string `json:"user_id"`
	Username              string `json:"username"`
	Rating                int    `json:"rating"`
	Tier                  string `json:"tier"`
	PeakRating            int    `json:"peak_rating"`
	DuelsCompleted        int    `json:"duels_completed"`
	CompetitionsCompleted int    `json:"competitions_completed"`
	WinCount              int    `json:"win_count"`
	Top3Count             int    `json:"top3_count"`
	Top10Count            int    `json:"top10_count"`
	CurrentStreak         int    `json:"current_streak"`
	BestStreak            int    `json:"best_streak"`
}

// Me handles GET /v1/ratings/me. Unrated users read as the default row.
func (h *HTTPHandlers) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	current, err := h.ratings.Current(r.Context(), claims.UserID, claims.Username)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("rating lookup failed")
		httperrors.RespondInternalError(w, "Could not load rating")
		return
	}

	respondJSON(w, http.StatusOK, ratingView{
		UserID:                current.UserID.String(),
		Username:              current.Username,
		Rating:                current.Rating,
		Tier:                  current.Tier,
		PeakRating:            current.PeakRating,
		DuelsCompleted:        current.DuelsCompleted,
		CompetitionsCompleted: current.CompetitionsCompleted,
		WinCount:              current.WinCount,
		Top3Count:             current.Top3Count,
		Top10Count:            current.Top10Count,
		CurrentStreak:         current.CurrentStreak,
		BestStreak:            current.BestStreak,
	})
}

type finalizeResponse struct {
	ParticipantsUpdated int `json:"participants_updated"`
	TotalParticipants   int `json:"total_participants"`
}

// FinalizeCompetition handles POST /v1/competitions/{id}/finalize-ratings.
func (h *HTTPHandlers) FinalizeCompetition(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	competitionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid competition id")
		return
	}

	privileged := claims.Plan == "admin"
	result, err := h.finalizer.FinalizeCompetition(r.Context(), competitionID, claims.UserID, privileged)
	if err != nil {
		switch {
		case errors.Is(err, ErrCompetitionNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeCompetitionNotFound, "Competition not found")
		case errors.Is(err, ErrCompetitionNotCompleted):
			httperrors.RespondConflict(w, httperrors.ErrCodeCompetitionNotCompleted, "Competition has not completed yet")
		case errors.Is(err, ErrRatingsFinalized):
			httperrors.RespondConflict(w, httperrors.ErrCodeRatingsFinalized, "Ratings were already finalized")
		case errors.Is(err, ErrNotCompetitionOwner):
			httperrors.RespondForbidden(w, httperrors.ErrCodeForbidden, "Only the competition creator may finalize ratings")
		default:
			h.logger.Error().Err(err).Str("competition_id", competitionID.String()).Msg("competition finalize failed")
			httperrors.RespondInternalError(w, "Could not finalize competition ratings")
		}
		return
	}

	respondJSON(w, http.StatusOK, finalizeResponse{
		ParticipantsUpdated: result.ParticipantsUpdated,
		TotalParticipants:   result.TotalParticipants,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
