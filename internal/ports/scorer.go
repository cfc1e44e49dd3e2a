package ports

import (
	"context"

	"github.com/crucible-dev/crucible/internal/domain"
)

// Scorer compares a task's output against a case's expected value and
// produces a named Score. A scorer failure (returned error) is distinct
// from a failing score (Passed=false): the orchestrator marks the whole
// case failed on a scorer error, while a failing score merely counts
// against the pass/fail aggregate.
//
// Scorers are immutable after construction (compiled patterns, compiled
// schemas) and safe to share read-only across concurrent workers. Scorers
// that call injected side-effecting dependencies, such as an embedding
// function, may suspend on I/O and must respect context cancellation.
type Scorer interface {
	// Name returns the identifier stamped on every Score this scorer
	// produces. It is used for reporting and persistence.
	Name() string

	// Score judges output against expected.
	Score(ctx context.Context, expected, output any) (domain.Score, error)
}
