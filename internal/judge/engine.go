package judge

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/codeduelhq/duel-platform/internal/challenge"
	"github.com/codeduelhq/duel-platform/internal/metrics"
)

// Request describes one submission to judge against a challenge's test suite.
type Request struct {
	Code        string
	Language    string
	Cases       []challenge.TestCase
	CaseTimeout time.Duration
	// Priority asks for preferential scheduling over free-tier executions.
	// It is a quality-of-service hint, not a correctness requirement.
	Priority bool
}

// CaseResult is the judged outcome of one test case.
type CaseResult struct {
	Index    int           `json:"index"`
	Passed   bool          `json:"passed"`
	Hidden   bool          `json:"hidden"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// Result aggregates a judged submission.
type Result struct {
	Score       int          `json:"score"`
	TestsPassed int          `json:"tests_passed"`
	TestsTotal  int          `json:"tests_total"`
	Cases       []CaseResult `json:"cases"`
}

// RunSpec is one execution of candidate code against a single input.
type RunSpec struct {
	Code     string
	Language string
	Stdin    string
	Timeout  time.Duration
}

// RunOutput is what the sandbox reports for one execution.
type RunOutput struct {
	Stdout       string
	Stderr       string
	CompileError string
	TimedOut     bool
	ExitCode     int
}

// Runner executes candidate code in an external sandbox.
type Runner interface {
	Run(ctx context.Context, spec RunSpec) (RunOutput, error)
}

// Engine judges submissions: execution is delegated to the Runner, scoring
// policy lives here.
type Engine struct {
	runner  Runner
	pool    *Pool
	metrics *metrics.Registry
	logger  zerolog.Logger
}

// NewEngine creates a judging engine. pool may be nil, in which case
// submissions run inline on the caller's goroutine.
func NewEngine(runner Runner, pool *Pool, m *metrics.Registry, logger zerolog.Logger) *Engine {
	return &Engine{
		runner:  runner,
		pool:    pool,
		metrics: m,
		logger:  logger.With().Str("component", "judge").Logger(),
	}
}

// Start launches the scheduling pool, if one is configured.
func (e *Engine) Start(ctx context.Context) {
	if e.pool != nil {
		e.pool.Start(ctx, e.judge)
	}
}

// Stop drains the scheduling pool.
func (e *Engine) Stop() {
	if e.pool != nil {
		e.pool.Stop()
	}
}

// Execute judges a submission, scheduling it through the priority pool.
func (e *Engine) Execute(ctx context.Context, req Request) (Result, error) {
	if e.metrics != nil {
		class := "standard"
		if req.Priority {
			class = "priority"
		}
		e.metrics.JudgeJobs.WithLabelValues(class).Inc()
	}

	if e.pool == nil {
		return e.judge(ctx, req), nil
	}
	return e.pool.Submit(ctx, req, e.judge)
}

// judge runs every case under the per-case timeout. A compile error, runtime
// error or timeout fails that case and is reported, but never aborts the
// remaining cases.
func (e *Engine) judge(ctx context.Context, req Request) Result {
	result := Result{
		TestsTotal: len(req.Cases),
		Cases:      make([]CaseResult, 0, len(req.Cases)),
	}

	earned, totalPoints := 0, 0
	for i, tc := range req.Cases {
		totalPoints += tc.Points

		caseResult := e.judgeCase(ctx, req, i, tc)
		result.Cases = append(result.Cases, caseResult)
		if caseResult.Passed {
			result.TestsPassed++
			earned += tc.Points
		}
	}

	result.Score = aggregateScore(result.TestsPassed, result.TestsTotal, earned, totalPoints)
	return result
}

func (e *Engine) judgeCase(ctx context.Context, req Request, index int, tc challenge.TestCase) CaseResult {
	start := time.Now()
	out, err := e.runner.Run(ctx, RunSpec{
		Code:     req.Code,
		Language: req.Language,
		Stdin:    tc.Input,
		Timeout:  req.CaseTimeout,
	})
	elapsed := time.Since(start)
	if e.metrics != nil {
		e.metrics.JudgeCaseTime.Observe(elapsed.Seconds())
	}

	caseResult := CaseResult{Index: index, Hidden: tc.Hidden, Duration: elapsed}
	switch {
	case err != nil:
		caseResult.Error = err.Error()
	case out.CompileError != "":
		caseResult.Error = out.CompileError
	case out.TimedOut:
		caseResult.Error = "time limit exceeded"
	case out.ExitCode != 0:
		caseResult.Error = firstLine(out.Stderr)
	default:
		caseResult.Passed = strings.TrimSpace(out.Stdout) == strings.TrimSpace(tc.Expected)
		if !tc.Hidden {
			caseResult.Output = out.Stdout
		}
	}
	return caseResult
}

// aggregateScore is floor(100*passed/total), or the points-weighted variant
// when any case carries explicit point values.
func aggregateScore(passed, total, earned, totalPoints int) int {
	if total == 0 {
		return 0
	}
	if totalPoints > 0 {
		return 100 * earned / totalPoints
	}
	return 100 * passed / total
}

func firstLine(s string) string {
	if s == "" {
		return "runtime error"
	}
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
