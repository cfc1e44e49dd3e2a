package application

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-dev/crucible/infrastructure/scorers"
	"github.com/crucible-dev/crucible/infrastructure/sources"
	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
	"github.com/crucible-dev/crucible/internal/tracectx"
)

// stubScorer lets tests control score outcomes and inject failures.
type stubScorer struct {
	name string
	fn   func(ctx context.Context, expected, output any) (domain.Score, error)
}

func (s *stubScorer) Name() string { return s.name }

func (s *stubScorer) Score(ctx context.Context, expected, output any) (domain.Score, error) {
	return s.fn(ctx, expected, output)
}

func passingScorer(name string) *stubScorer {
	return &stubScorer{
		name: name,
		fn: func(_ context.Context, _, _ any) (domain.Score, error) {
			return domain.Score{Name: name, Value: 1.0, Passed: true}, nil
		},
	}
}

// failingSource errors on load to exercise the fail-fast path.
type failingSource struct{ err error }

func (s failingSource) Load(context.Context) ([]domain.Case, error) { return nil, s.err }

func echoTask() ports.Task {
	return ports.TaskFunc(func(_ context.Context, input any) (any, error) {
		return input, nil
	})
}

func makeCases(n int) []domain.Case {
	cases := make([]domain.Case, n)
	for i := range cases {
		cases[i] = domain.NewCaseWithID(
			fmt.Sprintf("case-%03d", i),
			fmt.Sprintf("input-%d", i),
			fmt.Sprintf("input-%d", i),
		)
	}
	return cases
}

func TestNewEvaluationValidation(t *testing.T) {
	source := sources.NewMemorySource(nil)
	task := echoTask()

	tests := []struct {
		name    string
		source  ports.CaseSource
		task    ports.Task
		scorers []ports.Scorer
		config  EvalConfig
		wantErr string
	}{
		{
			name:    "nil source",
			task:    task,
			config:  DefaultEvalConfig(),
			wantErr: "case source",
		},
		{
			name:    "nil task",
			source:  source,
			config:  DefaultEvalConfig(),
			wantErr: "task",
		},
		{
			name:    "nil scorer entry",
			source:  source,
			task:    task,
			scorers: []ports.Scorer{nil},
			config:  DefaultEvalConfig(),
			wantErr: "scorer 0",
		},
		{
			name:    "zero concurrency",
			source:  source,
			task:    task,
			config:  EvalConfig{Concurrency: 0},
			wantErr: "validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluation(tt.source, tt.task, tt.scorers, tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid", func(t *testing.T) {
		eval, err := NewEvaluation(source, task, nil, DefaultEvalConfig())
		require.NoError(t, err)
		assert.NotNil(t, eval)
	})
}

func TestRunFailsFastOnLoadError(t *testing.T) {
	loadErr := errors.New("dataset unreachable")
	eval, err := NewEvaluation(failingSource{err: loadErr}, echoTask(), nil, DefaultEvalConfig())
	require.NoError(t, err)

	_, err = eval.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, loadErr)
}

func TestRunEmptySource(t *testing.T) {
	eval, err := NewEvaluation(
		sources.NewMemorySource(nil),
		echoTask(),
		[]ports.Scorer{passingScorer("stub")},
		DefaultEvalConfig(),
	)
	require.NoError(t, err)

	result, err := eval.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result.Cases)
	assert.Equal(t, domain.EvalSummary{}, result.Summary)
}

func TestRunPreservesSourceOrder(t *testing.T) {
	cases := makeCases(40)

	// Random per-case latency makes completion order diverge from
	// submission order under concurrency.
	jitterTask := ports.TaskFunc(func(_ context.Context, input any) (any, error) {
		time.Sleep(time.Duration(rand.Intn(5)) * time.Millisecond)
		return input, nil
	})

	run := func(concurrency int) domain.EvalResult {
		eval, err := NewEvaluation(
			sources.NewMemorySource(cases),
			jitterTask,
			[]ports.Scorer{scorers.NewExactMatchScorer()},
			EvalConfig{Concurrency: concurrency},
		)
		require.NoError(t, err)
		result, err := eval.Run(context.Background())
		require.NoError(t, err)
		return result
	}

	sequential := run(1)
	concurrent := run(8)

	require.Len(t, concurrent.Cases, len(cases))
	for i, cr := range concurrent.Cases {
		assert.Equal(t, cases[i].ID, cr.Case.ID, "result %d out of order", i)
	}
	assert.Equal(t, sequential.Cases, concurrent.Cases)
	assert.Equal(t, sequential.Summary, concurrent.Summary)
}

func TestRunTaskErrorBecomesFailedCase(t *testing.T) {
	cases := makeCases(3)
	task := ports.TaskFunc(func(_ context.Context, input any) (any, error) {
		if input == "input-1" {
			return nil, errors.New("upstream timeout")
		}
		return input, nil
	})

	eval, err := NewEvaluation(
		sources.NewMemorySource(cases),
		task,
		[]ports.Scorer{scorers.NewExactMatchScorer()},
		DefaultEvalConfig(),
	)
	require.NoError(t, err)

	result, err := eval.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Cases, 3)

	failed := result.Cases[1]
	assert.Equal(t, "upstream timeout", failed.Error)
	assert.Nil(t, failed.Output)
	assert.Empty(t, failed.Scores)
	assert.False(t, failed.Passed())

	// Sibling cases are unaffected.
	assert.True(t, result.Cases[0].Passed())
	assert.True(t, result.Cases[2].Passed())
	assert.Equal(t, 2, result.Summary.Passed)
	assert.Equal(t, 3, result.Summary.Total)
}

func TestRunScorerFailureDiscardsEarlierScores(t *testing.T) {
	broken := &stubScorer{
		name: "broken",
		fn: func(_ context.Context, _, _ any) (domain.Score, error) {
			return domain.Score{}, errors.New("embedding service down")
		},
	}

	eval, err := NewEvaluation(
		sources.NewMemorySource(makeCases(1)),
		echoTask(),
		[]ports.Scorer{passingScorer("first"), broken},
		DefaultEvalConfig(),
	)
	require.NoError(t, err)

	result, err := eval.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Cases, 1)

	cr := result.Cases[0]
	assert.Equal(t, "scorer broken: embedding service down", cr.Error)
	assert.Empty(t, cr.Scores, "scores computed before the failure must be discarded")
	assert.False(t, cr.Passed())
}

func TestRunZeroScorersNeverPasses(t *testing.T) {
	eval, err := NewEvaluation(
		sources.NewMemorySource(makeCases(2)),
		echoTask(),
		nil,
		DefaultEvalConfig(),
	)
	require.NoError(t, err)

	result, err := eval.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Summary.Passed)
	assert.Zero(t, result.Summary.PassRate)
	for _, cr := range result.Cases {
		assert.Empty(t, cr.Error)
		assert.False(t, cr.Passed())
	}
}

func TestRunAttributesTracesToOwningCase(t *testing.T) {
	cases := makeCases(16)

	// The task reports a trace carrying its own input, so cross-case
	// leakage is detectable as a mismatched trace ID.
	tracingTask := ports.TaskFunc(func(ctx context.Context, input any) (any, error) {
		time.Sleep(time.Duration(rand.Intn(3)) * time.Millisecond)
		tracectx.Report(ctx, domain.StartTrace().ID(input.(string)).Finish(input, input, nil))
		return input, nil
	})

	eval, err := NewEvaluation(
		sources.NewMemorySource(cases),
		tracingTask,
		[]ports.Scorer{scorers.NewExactMatchScorer()},
		EvalConfig{Concurrency: 8},
	)
	require.NoError(t, err)

	result, err := eval.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Cases, len(cases))

	for _, cr := range result.Cases {
		require.Len(t, cr.Traces, 1)
		assert.Equal(t, cr.Case.Input, cr.Traces[0].ID)
	}
}

func TestRunEndToEnd(t *testing.T) {
	greeter := ports.TaskFunc(func(_ context.Context, input any) (any, error) {
		return fmt.Sprintf("%v World!", input), nil
	})

	exact := scorers.NewExactMatchScorer()
	lev, err := scorers.NewLevenshteinScorer(scorers.LevenshteinConfig{MinSimilarity: 0.8})
	require.NoError(t, err)

	eval, err := NewEvaluation(
		sources.NewMemorySource([]domain.Case{
			domain.NewCase("Hi", "Hi World!"),
			domain.NewCase("Hello", "Hello World"),
		}),
		greeter,
		[]ports.Scorer{exact, lev},
		DefaultEvalConfig(),
	)
	require.NoError(t, err)

	result, err := eval.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Cases, 2)

	// "Hi World!" matches exactly and at full similarity.
	first := result.Cases[0]
	assert.True(t, first.Passed())
	require.Len(t, first.Scores, 2)
	assert.Equal(t, "exact_match", first.Scores[0].Name)
	assert.Equal(t, "levenshtein", first.Scores[1].Name)
	assert.InDelta(t, 1.0, first.Scores[1].Value, 1e-9)

	// "Hello World!" vs "Hello World" is one edit over twelve runes.
	second := result.Cases[1]
	assert.False(t, second.Scores[0].Passed)
	assert.InDelta(t, 11.0/12.0, second.Scores[1].Value, 1e-9)
	assert.True(t, second.Scores[1].Passed)
	assert.False(t, second.Passed())

	assert.Equal(t, 2, result.Summary.Total)
	assert.Equal(t, 1, result.Summary.Passed)
	assert.InDelta(t, 0.5, result.Summary.PassRate, 1e-9)
}
