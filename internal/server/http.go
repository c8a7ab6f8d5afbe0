package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/auth"
	authjwt "github.com/codeduelhq/duel-platform/internal/auth/jwt"
	"github.com/codeduelhq/duel-platform/internal/config"
	"github.com/codeduelhq/duel-platform/internal/duel"
	"github.com/codeduelhq/duel-platform/internal/matchmaking"
	"github.com/codeduelhq/duel-platform/internal/rating"
)

// Handlers groups the per-domain HTTP handler sets the server mounts.
type Handlers struct {
	Queue   *matchmaking.HTTPHandlers
	Duels   *duel.HTTPHandlers
	Ratings *rating.HTTPHandlers
}

// NewHTTPServer wires base routes (health, metrics) and the versioned API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, validator *authjwt.Validator, handlers Handlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := pingDependencies(r.Context(), pool, redis); err != nil {
			logger.Warn().Err(err).Msg("dependency ping failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"degraded"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("GET /metrics", promhttp.Handler())

	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}

	mux.Handle("POST /v1/queue/join", protected(handlers.Queue.Join))
	mux.Handle("GET /v1/queue/status", protected(handlers.Queue.Poll))
	mux.Handle("DELETE /v1/queue", protected(handlers.Queue.Leave))

	mux.Handle("POST /v1/duels/bot", protected(handlers.Queue.BotDuel))
	mux.Handle("GET /v1/duels/{id}", protected(handlers.Duels.Get))
	mux.Handle("POST /v1/duels/{id}/submissions", protected(handlers.Duels.Submit))
	mux.Handle("POST /v1/duels/{id}/finalize", protected(handlers.Duels.Finalize))

	mux.Handle("GET /v1/ratings/me", protected(handlers.Ratings.Me))
	mux.Handle("POST /v1/competitions/{id}/finalize-ratings", protected(handlers.Ratings.FinalizeCompetition))

	handler := auth.Middleware(validator, logger)(mux)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	return redis.Ping(ctx).Err()
}
