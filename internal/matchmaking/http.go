package matchmaking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/auth"
	"github.com/codeduelhq/duel-platform/internal/challenge"
	httperrors "github.com/codeduelhq/duel-platform/pkg/http/errors"
)

// HTTPHandlers exposes the matchmaking queue over REST.
type HTTPHandlers struct {
	matchmaker *Matchmaker
	logger     zerolog.Logger
}

// NewHTTPHandlers creates HTTP handlers for queue endpoints.
func NewHTTPHandlers(matchmaker *Matchmaker, logger zerolog.Logger) *HTTPHandlers {
	return &HTTPHandlers{
		matchmaker: matchmaker,
		logger:     logger.With().Str("component", "matchmaking_http").Logger(),
	}
}

type joinRequest struct {
	Language   string `json:"language"`
	Difficulty string `json:"difficulty"`
}

// Join handles POST /v1/queue/join.
func (h *HTTPHandlers) Join(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Language == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingLanguage, "language is required", "language")
		return
	}
	if req.Difficulty != "" && !challenge.ValidDifficulty(req.Difficulty) {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "unknown difficulty", "difficulty")
		return
	}

	ticket, err := h.matchmaker.Enqueue(r.Context(), claims.UserID, claims.Username, req.Language, req.Difficulty)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInDuel):
			httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyInDuel, "Finish your active duel before queueing")
		case errors.Is(err, challenge.ErrNoChallenge):
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeNoChallengePool, "No challenge available for that difficulty")
		default:
			h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("enqueue failed")
			httperrors.RespondInternalError(w, "Could not join the queue")
		}
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

// Poll handles GET /v1/queue/status.
func (h *HTTPHandlers) Poll(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	ticket, err := h.matchmaker.Poll(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, challenge.ErrNoChallenge) {
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeNoChallengePool, "No challenge available for that difficulty")
			return
		}
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("queue poll failed")
		httperrors.RespondInternalError(w, "Could not poll the queue")
		return
	}

	respondJSON(w, http.StatusOK, ticket)
}

// Leave handles DELETE /v1/queue.
func (h *HTTPHandlers) Leave(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	if err := h.matchmaker.Leave(r.Context(), claims.UserID); err != nil {
		h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("dequeue failed")
		httperrors.RespondInternalError(w, "Could not leave the queue")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"left": true})
}

type botDuelRequest struct {
	Language   string `json:"language"`
	Difficulty string `json:"difficulty"`
}

type botDuelResponse struct {
	DuelID           string    `json:"duel_id"`
	Opponent         *Opponent `json:"opponent"`
	ChallengeID      string    `json:"challenge_id"`
	TimeLimitSeconds int       `json:"time_limit_seconds"`
}

// BotDuel handles POST /v1/duels/bot: skip the queue and face the bot now.
func (h *HTTPHandlers) BotDuel(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	var req botDuelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httperrors.RespondBadRequest(w, httperrors.ErrCodeInvalidRequest, "Invalid JSON payload")
		return
	}
	if req.Language == "" {
		httperrors.RespondValidationError(w, httperrors.ErrCodeMissingLanguage, "language is required", "language")
		return
	}
	if req.Difficulty != "" && !challenge.ValidDifficulty(req.Difficulty) {
		httperrors.RespondValidationError(w, httperrors.ErrCodeValidationFailed, "unknown difficulty", "difficulty")
		return
	}

	created, opponent, err := h.matchmaker.StartBotDuel(r.Context(), claims.UserID, claims.Username, req.Language, req.Difficulty)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyInDuel):
			httperrors.RespondConflict(w, httperrors.ErrCodeAlreadyInDuel, "Finish your active duel first")
		case errors.Is(err, challenge.ErrNoChallenge):
			httperrors.RespondServiceUnavailable(w, httperrors.ErrCodeNoChallengePool, "No challenge available for that difficulty")
		default:
			h.logger.Error().Err(err).Str("user_id", claims.UserID.String()).Msg("bot duel failed")
			httperrors.RespondInternalError(w, "Could not start a bot duel")
		}
		return
	}

	respondJSON(w, http.StatusCreated, botDuelResponse{
		DuelID:           created.ID.String(),
		Opponent:         opponent,
		ChallengeID:      created.ChallengeID.String(),
		TimeLimitSeconds: created.TimeLimitSeconds,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
