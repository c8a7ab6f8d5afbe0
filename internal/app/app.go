package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	authjwt "github.com/codeduelhq/duel-platform/internal/auth/jwt"
	"github.com/codeduelhq/duel-platform/internal/challenge"
	"github.com/codeduelhq/duel-platform/internal/config"
	"github.com/codeduelhq/duel-platform/internal/db/repository"
	"github.com/codeduelhq/duel-platform/internal/duel"
	"github.com/codeduelhq/duel-platform/internal/judge"
	"github.com/codeduelhq/duel-platform/internal/judge/sandbox"
	"github.com/codeduelhq/duel-platform/internal/logging"
	"github.com/codeduelhq/duel-platform/internal/matchmaking"
	"github.com/codeduelhq/duel-platform/internal/metrics"
	"github.com/codeduelhq/duel-platform/internal/queue"
	"github.com/codeduelhq/duel-platform/internal/rating"
	"github.com/codeduelhq/duel-platform/internal/server"
)

// Application aggregates shared infrastructure (DB, cache, HTTP server).
type Application struct {
	cfg    *config.App
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client
	http  *http.Server

	judgeEngine *judge.Engine
	sweeper     *matchmaking.Sweeper
	bgCancels   []context.CancelFunc
}

// New bootstraps config, logger, Postgres, Redis and the HTTP server.
func New(ctx context.Context, cfg *config.App) (*Application, error) {
	logger := logging.New(cfg.Name, cfg.Env)
	logger.Info().Msg("starting application bootstrap")

	connString := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=10",
		cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database, cfg.Postgres.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})

	metricsReg := metrics.New()

	validator := authjwt.NewValidator(authjwt.ValidatorConfig{
		Secret: []byte(cfg.Security.JWTSecret),
		Issuer: cfg.Name,
	})

	// Persistence
	queueStore := queue.NewStore(pool, logger)
	challengeRepo := repository.NewChallengeRepository(pool)
	duelRepo := repository.NewDuelRepository(pool)
	ratingRepo := repository.NewRatingRepository(pool)
	competitionRepo := repository.NewCompetitionRepository(pool)

	// Core gameplay services
	challengeSvc := challenge.NewService(challengeRepo, challenge.NewCache(redisClient, 0), logger)

	ratingEngine := rating.NewEngine(rating.Config{
		KProvisional:     cfg.Rating.KProvisional,
		KStandard:        cfg.Rating.KStandard,
		ProvisionalDuels: cfg.Rating.ProvisionalDuels,
		Floor:            cfg.Rating.Floor,
		CompetitionBase:  cfg.Rating.CompetitionBase,
	})
	ratingSvc := rating.NewService(ratingRepo, rating.NewRedisLocker(redisClient), ratingEngine, metricsReg, logger)
	finalizer := rating.NewFinalizer(competitionRepo, ratingSvc, logger)

	sandboxClient := sandbox.NewClient(cfg.Judge.SandboxURL, cfg.Judge.SandboxAPIKey,
		&http.Client{Timeout: cfg.Judge.HTTPTimeout})
	judgePool := judge.NewPool(judge.PoolOptions{
		Workers:       cfg.Judge.Workers,
		PriorityBurst: cfg.Judge.PriorityBurst,
		QueueDepth:    cfg.Judge.QueueDepth,
	}, logger)
	judgeEngine := judge.NewEngine(sandboxClient, judgePool, metricsReg, logger)

	duelSvc := duel.NewService(duelRepo, challengeSvc, judgeEngine, ratingSvc,
		duel.ServiceOptions{CaseTimeout: cfg.Judge.CaseTimeout}, metricsReg, logger)

	matchmaker := matchmaking.New(queueStore, duelSvc, challengeSvc, ratingSvc,
		matchmaking.Options{
			QueueTTL: cfg.Matchmaking.QueueTTL,
			Tolerance: matchmaking.ToleranceSchedule{
				Base:     cfg.Matchmaking.BaseTolerance,
				Step:     cfg.Matchmaking.ToleranceStep,
				Max:      cfg.Matchmaking.MaxTolerance,
				Interval: cfg.Matchmaking.ToleranceInterval,
			},
		}, metricsReg, logger)

	sweeper := matchmaking.NewSweeper(queueStore, cfg.Matchmaking.SweepInterval, metricsReg, logger)

	apiServer := server.NewHTTPServer(cfg, logger, pool, redisClient, validator, server.Handlers{
		Queue:   matchmaking.NewHTTPHandlers(matchmaker, logger),
		Duels:   duel.NewHTTPHandlers(duelSvc, logger),
		Ratings: rating.NewHTTPHandlers(ratingSvc, finalizer, logger),
	})

	return &Application{
		cfg:         cfg,
		logger:      logger,
		pool:        pool,
		redis:       redisClient,
		http:        apiServer,
		judgeEngine: judgeEngine,
		sweeper:     sweeper,
		bgCancels:   make([]context.CancelFunc, 0, 2),
	}, nil
}

// Run starts the HTTP server and waits for termination signals.
func (a *Application) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	a.startBackgroundWorkers(ctx)

	go func() {
		a.logger.Info().Str("addr", a.cfg.HTTPAddr).Msg("http server listening")
		if err := a.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		a.logger.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("http server error: %w", err)
	case <-ctx.Done():
		a.logger.Warn().Msg("context canceled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.GracefulShutdownTimeout)
	defer cancel()

	if err := a.http.Shutdown(shutdownCtx); err != nil {
		a.logger.Error().Err(err).Msg("http shutdown error")
	}

	for _, cancel := range a.bgCancels {
		cancel()
	}
	a.judgeEngine.Stop()

	a.pool.Close()
	if err := a.redis.Close(); err != nil {
		a.logger.Error().Err(err).Msg("redis shutdown error")
	}

	a.logger.Info().Msg("shutdown complete")
	return nil
}

func (a *Application) startBackgroundWorkers(ctx context.Context) {
	judgeCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	a.judgeEngine.Start(judgeCtx)

	sweepCtx, cancel := context.WithCancel(ctx)
	a.bgCancels = append(a.bgCancels, cancel)
	go func() {
		if err := a.sweeper.Run(sweepCtx); err != nil && err != context.Canceled {
			a.logger.Warn().Err(err).Msg("queue sweeper stopped")
		}
	}()
}
