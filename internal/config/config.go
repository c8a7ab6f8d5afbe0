package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"duel-platform"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	Security    Security
	Matchmaking Matchmaking
	Judge       Judge
	Rating      Rating
}

// Postgres captures connection info for the SQL database.
type Postgres struct {
	Host     string `env:"PG_HOST,notEmpty"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER,notEmpty"`
	Password string `env:"PG_PASSWORD,notEmpty"`
	Database string `env:"PG_DATABASE,notEmpty"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
}

// Redis holds cache + lock configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for session validation.
type Security struct {
	JWTSecret string `env:"JWT_SECRET,notEmpty"`
}

// Matchmaking groups queue and pairing tunables.
//
// The tolerance schedule is deterministic: a caller who has waited w accepts
// opponents within BaseTolerance + ToleranceStep*floor(w/ToleranceInterval)
// rating points, capped at MaxTolerance.
type Matchmaking struct {
	QueueTTL          time.Duration `env:"MM_QUEUE_TTL" envDefault:"120s"`
	BaseTolerance     int           `env:"MM_BASE_TOLERANCE" envDefault:"300"`
	ToleranceStep     int           `env:"MM_TOLERANCE_STEP" envDefault:"100"`
	ToleranceInterval time.Duration `env:"MM_TOLERANCE_INTERVAL" envDefault:"15s"`
	MaxTolerance      int           `env:"MM_MAX_TOLERANCE" envDefault:"1000"`
	SweepInterval     time.Duration `env:"MM_SWEEP_INTERVAL" envDefault:"30s"`
}

// Judge configures the code-execution engine.
type Judge struct {
	SandboxURL    string        `env:"JUDGE_SANDBOX_URL,notEmpty"`
	SandboxAPIKey string        `env:"JUDGE_SANDBOX_API_KEY"`
	CaseTimeout   time.Duration `env:"JUDGE_CASE_TIMEOUT" envDefault:"5s"`
	Workers       int           `env:"JUDGE_WORKERS" envDefault:"4"`
	PriorityBurst int           `env:"JUDGE_PRIORITY_BURST" envDefault:"8"`
	QueueDepth    int           `env:"JUDGE_QUEUE_DEPTH" envDefault:"64"`
	HTTPTimeout   time.Duration `env:"JUDGE_HTTP_TIMEOUT" envDefault:"30s"`
}

// Rating groups skill-rating engine tunables.
type Rating struct {
	KProvisional     int `env:"RATING_K_PROVISIONAL" envDefault:"40"`
	KStandard        int `env:"RATING_K_STANDARD" envDefault:"24"`
	ProvisionalDuels int `env:"RATING_PROVISIONAL_DUELS" envDefault:"10"`
	Floor            int `env:"RATING_FLOOR" envDefault:"100"`
	CompetitionBase  int `env:"RATING_COMPETITION_BASE" envDefault:"32"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
