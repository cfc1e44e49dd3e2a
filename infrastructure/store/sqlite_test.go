package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-dev/crucible/internal/domain"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.db")

	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	// Reopening an existing database must not fail on schema application.
	second, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestCreateRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.CreateRun(ctx, map[string]any{"task_url": "http://localhost"})
	require.NoError(t, err)
	second, err := store.CreateRun(ctx, nil)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSaveResultRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	runID, err := store.CreateRun(ctx, nil)
	require.NoError(t, err)

	result := domain.EvalResult{
		Cases: []domain.CaseResult{
			{
				Case:   domain.NewCaseWithID("greet", "Hi", "Hi World!"),
				Output: "Hi World!",
				Scores: []domain.Score{
					{Name: "exact_match", Value: 1.0, Passed: true},
					{Name: "contains", Value: 1.0, Passed: true, Details: map[string]any{"found": true}},
				},
				Traces: []domain.Trace{
					{
						ID:         "t1",
						Model:      "gpt-4o",
						DurationMS: 120,
						Input:      "Hi",
						Output:     "Hi World!",
						Usage:      &domain.TokenUsage{Input: 3, Output: 5, Total: 8},
					},
				},
			},
			{
				Case:   domain.NewCase("Bye", "Bye World!"),
				Error:  "upstream timeout",
				Scores: []domain.Score{},
			},
		},
	}
	result.Summary = domain.Summarize(result.Cases)

	require.NoError(t, store.SaveResult(ctx, runID, "greeting-eval", result))

	var evalCount, resultCount, scoreCount, traceCount int
	row := store.db.QueryRow(`SELECT COUNT(*) FROM evals WHERE run_id = ? AND name = ?`, runID, "greeting-eval")
	require.NoError(t, row.Scan(&evalCount))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&resultCount))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM scores`).Scan(&scoreCount))
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM traces`).Scan(&traceCount))

	assert.Equal(t, 1, evalCount)
	assert.Equal(t, 2, resultCount)
	assert.Equal(t, 2, scoreCount)
	assert.Equal(t, 1, traceCount)

	var input, output, errText string
	row = store.db.QueryRow(`SELECT input, output, COALESCE(error, '') FROM results WHERE case_id IS NULL`)
	require.NoError(t, row.Scan(&input, &output, &errText))
	assert.Equal(t, `"Bye"`, input)
	assert.Equal(t, "null", output)
	assert.Equal(t, "upstream timeout", errText)
}
