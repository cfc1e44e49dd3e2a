package ports

import (
	"context"
	"time"

	"github.com/crucible-dev/crucible/internal/domain"
)

// EmbedFunc maps a string to a float vector, typically by calling an
// embedding model. It is supplied by the caller of the embedding scorer;
// the harness places no constraint on vector dimensionality beyond
// requiring that vectors compared against each other have equal length.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// MetricsCollector receives execution metrics from the orchestrator.
// Implementations could use Prometheus, StatsD, or in-memory counters.
// A nil collector disables metrics without changing engine behavior.
type MetricsCollector interface {
	// RecordCase records the outcome of a single evaluated case.
	// status is one of "passed", "failed", or "error".
	RecordCase(status string, duration time.Duration)

	// RecordScorerFailure records a scorer that returned an error rather
	// than a score.
	RecordScorerFailure(scorer string)

	// RecordRun records the completion of a whole evaluation run.
	RecordRun(summary domain.EvalSummary, duration time.Duration)
}

// ResultStore persists completed evaluation runs for later inspection.
// Implementations could use SQLite, Postgres, or a document store.
type ResultStore interface {
	// CreateRun registers a new run and returns its storage identifier.
	// metadata is an optional JSON-like value describing the run.
	CreateRun(ctx context.Context, metadata any) (int64, error)

	// SaveResult persists a named evaluation result under a run.
	SaveResult(ctx context.Context, runID int64, name string, result domain.EvalResult) error

	// Close releases any underlying resources.
	Close() error
}
