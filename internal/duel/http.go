package duel

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/auth"
	"github.com/codeduelhq/duel-platform/internal/judge"
	httperrors "github.com/codeduelhq/duel-platform/pkg/http/errors"
)

// HTTPHandlers exposes duel lifecycle endpoints.
type HTTPHandlers struct {
	service *Service
	logger  zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for duel endpoints.
func NewHTTPHandlers(service *Service, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		service: service,
		logger:  logger.With().Str("component", "duel_http").Logger(),
	}
}

type playerView struct {
	UserID      string `json:"user_id,omitempty"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	IsBot       bool   `json:"is_bot"`
	Submitted   bool   `json:"submitted"`
	Score       int    `json:"score"`
	TestsPassed int    `json:"tests_passed"`
	TestsTotal  int    `json:"tests_total"`
}

type duelView struct {
	ID               string        `json:"id"`
	ChallengeID      string        `json:"challenge_id"`
	Language         string        `json:"language"`
	Status           string        `json:"status"`
	Players          [2]playerView `json:"players"`
	Outcome          string        `json:"outcome,omitempty"`
	WinnerID         string        `json:"winner_id,omitempty"`
	WinnerUsername   string        `json:"winner_username,omitempty"`
	TimeLimitSeconds int           `json:"time_limit_seconds"`
	DeadlineAt       time.Time     `json:"deadline_at"`
	StartedAt        time.Time     `json:"started_at"`
	EndedAt          *time.Time    `json:"ended_at,omitempty"`
}

func toView(d *Duel) duelView {
	view := duelView{
		ID:               d.ID.String(),
		ChallengeID:      d.ChallengeID.String(),
		Language:         d.Language,
		Status:           d.Status,
		TimeLimitSeconds: d.TimeLimitSeconds,
		DeadlineAt:       d.Deadline(),
		StartedAt:        d.StartedAt,
		EndedAt:          d.EndedAt,
	}
	if d.WinnerID != nil {
		view.WinnerID = d.WinnerID.String()
	}
	// A bot win persists winner_id NULL, so the outcome is reported
	// separately and the winner named by username.
	view.Outcome = d.Outcome()
	if slot := d.WinningSlot(); slot >= 0 {
		view.WinnerUsername = d.Players[slot].Username
	}
	for i, p := range d.Players {
		view.Players[i] = playerView{
			Username:    p.Username,
			Rating:      p.RatingAtStart,
			IsBot:       p.IsBot(),
			Submitted:   p.Submitted,
			Score:       p.Score,
			TestsPassed: p.TestsPassed,
			TestsTotal:  p.TestsTotal,
		}
		if !p.IsBot() {
			view.Players[i].UserID = p.UserID.String()
		}
	}
	return view
}

// Get handles GET /v1/duels/{id}.
func (h *HTTPHandlers) Get(w http.ResponseWriter, r *http.Request) {
	duelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid duel id")
		return
	}

	d, err := h.service.Get(r.Context(), duelID)
	if err != nil {
		if errors.Is(err, ErrDuelNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeDuelNotFound, "Duel not found")
			return
		}
		h.logger.Error().Err(err).Str("duel_id", duelID.String()).Msg("duel lookup failed")
		httperrors.RespondInternalError(w, "Could not load duel")
		return
	}

	respondJSON(w, http.StatusOK, toView(d))
}

type submitRequest struct {
	Code    string `json:"code"`
	IsFinal bool   `json:"is_final"`
}

type submitResponse struct {
	Score       int                `json:"score"`
	TestsPassed int                `json:"tests_passed"`
	TestsTotal  int                `json:"tests_total"`
	Cases       []judge.CaseResult `json:"cases"`
	DuelStatus  string             `json:"duel_status"`
}

// Submit handles POST /v1/duels/{id}/submissions. Premium sessions get
// priority judging.
func (h *HTTPHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	duelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid duel id")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Code == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "code is required", "code")
		return
	}

	result, err := h.service.Submit(r.Context(), duelID, claims.UserID, req.Code, req.IsFinal, claims.Premium())
	if err != nil {
		switch {
		case errors.Is(err, ErrDuelNotFound):
			httperrors.RespondNotFound(w, httperrors.ErrCodeDuelNotFound, "Duel not found")
		case errors.Is(err, ErrDuelCompleted):
			httperrors.RespondConflict(w, httperrors.ErrCodeDuelCompleted, "Duel is already completed")
		case errors.Is(err, ErrNotParticipant):
			httperrors.RespondForbidden(w, httperrors.ErrCodeNotParticipant, "You are not part of this duel")
		case errors.Is(err, ErrScoreFrozen):
			httperrors.RespondConflict(w, httperrors.ErrCodeDuelCompleted, "Your final submission is already recorded")
		default:
			h.logger.Error().Err(err).
				Str("duel_id", duelID.String()).
				Str("user_id", claims.UserID.String()).
				Msg("submission failed")
			httperrors.RespondError(w, http.StatusBadGateway, httperrors.ErrCodeJudgeUnavailable, "Could not judge the submission")
		}
		return
	}

	respondJSON(w, http.StatusOK, submitResponse{
		Score:       result.Score,
		TestsPassed: result.TestsPassed,
		TestsTotal:  result.TestsTotal,
		Cases:       result.Cases,
		DuelStatus:  result.DuelStatus,
	})
}

// Finalize handles POST /v1/duels/{id}/finalize. Clients call it after the
// deadline so an abandoned duel still settles.
func (h *HTTPHandlers) Finalize(w http.ResponseWriter, r *http.Request) {
	duelID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid duel id")
		return
	}

	d, err := h.service.Finalize(r.Context(), duelID)
	if err != nil {
		if errors.Is(err, ErrDuelNotFound) {
			httperrors.RespondNotFound(w, httperrors.ErrCodeDuelNotFound, "Duel not found")
			return
		}
		h.logger.Error().Err(err).Str("duel_id", duelID.String()).Msg("finalize failed")
		httperrors.RespondInternalError(w, "Could not finalize duel")
		return
	}

	respondJSON(w, http.StatusOK, toView(d))
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
