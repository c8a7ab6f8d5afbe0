package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeduelhq/duel-platform/internal/challenge"
)

// echoRunner answers each stdin with a canned output.
type echoRunner struct {
	outputs map[string]RunOutput
	errs    map[string]error
	calls   int
}

func (r *echoRunner) Run(_ context.Context, spec RunSpec) (RunOutput, error) {
	r.calls++
	if err, ok := r.errs[spec.Stdin]; ok {
		return RunOutput{}, err
	}
	if out, ok := r.outputs[spec.Stdin]; ok {
		return out, nil
	}
	return RunOutput{Stdout: ""}, nil
}

func newEngineWith(runner Runner) *Engine {
	return NewEngine(runner, nil, nil, zerolog.Nop())
}

func cases(pairs ...[2]string) []challenge.TestCase {
	out := make([]challenge.TestCase, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, challenge.TestCase{Input: p[0], Expected: p[1]})
	}
	return out
}

func TestScoreIsPassedFraction(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {Stdout: "1"},
		"b": {Stdout: "2"},
		"c": {Stdout: "wrong"},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code:     "code",
		Language: "go",
		Cases:    cases([2]string{"a", "1"}, [2]string{"b", "2"}, [2]string{"c", "3"}),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.TestsPassed)
	assert.Equal(t, 3, res.TestsTotal)
	assert.Equal(t, 66, res.Score)
}

func TestPointsWeightedScoring(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {Stdout: "1"},
		"b": {Stdout: "wrong"},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code:     "code",
		Language: "go",
		Cases: []challenge.TestCase{
			{Input: "a", Expected: "1", Points: 30},
			{Input: "b", Expected: "2", Points: 70},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.TestsPassed)
	assert.Equal(t, 30, res.Score)
}

func TestOutputComparisonTrimsWhitespace(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {Stdout: "  42\n"},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code: "code", Language: "go",
		Cases: cases([2]string{"a", "42"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 100, res.Score)
}

func TestCaseErrorDoesNotAbortRemaining(t *testing.T) {
	runner := &echoRunner{
		outputs: map[string]RunOutput{"b": {Stdout: "2"}},
		errs:    map[string]error{"a": errors.New("sandbox hiccup")},
	}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code: "code", Language: "go",
		Cases: cases([2]string{"a", "1"}, [2]string{"b", "2"}),
	})
	require.NoError(t, err)

	require.Len(t, res.Cases, 2)
	assert.False(t, res.Cases[0].Passed)
	assert.Equal(t, "sandbox hiccup", res.Cases[0].Error)
	assert.True(t, res.Cases[1].Passed)
	assert.Equal(t, 2, runner.calls)
	assert.Equal(t, 50, res.Score)
}

func TestCompileErrorFailsCase(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {CompileError: "syntax error on line 3"},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code: "code", Language: "go",
		Cases: cases([2]string{"a", "1"}),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
	assert.Equal(t, "syntax error on line 3", res.Cases[0].Error)
}

func TestTimeoutFailsCase(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {TimedOut: true},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code: "code", Language: "go",
		Cases:       cases([2]string{"a", "1"}),
		CaseTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "time limit exceeded", res.Cases[0].Error)
}

func TestNonZeroExitReportsFirstStderrLine(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {ExitCode: 1, Stderr: "panic: index out of range\ngoroutine 1:\n..."},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code: "code", Language: "go",
		Cases: cases([2]string{"a", "1"}),
	})
	require.NoError(t, err)
	assert.Equal(t, "panic: index out of range", res.Cases[0].Error)
}

func TestHiddenCaseOmitsOutput(t *testing.T) {
	runner := &echoRunner{outputs: map[string]RunOutput{
		"a": {Stdout: "secret"},
	}}
	engine := newEngineWith(runner)

	res, err := engine.Execute(context.Background(), Request{
		Code: "code", Language: "go",
		Cases: []challenge.TestCase{{Input: "a", Expected: "secret", Hidden: true}},
	})
	require.NoError(t, err)
	assert.True(t, res.Cases[0].Passed)
	assert.True(t, res.Cases[0].Hidden)
	assert.Empty(t, res.Cases[0].Output)
}

func TestEmptySuiteScoresZero(t *testing.T) {
	engine := newEngineWith(&echoRunner{})

	res, err := engine.Execute(context.Background(), Request{Code: "code", Language: "go"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Score)
}
