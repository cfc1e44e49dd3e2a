// Package ports defines the core interfaces that form the contract between
// the domain/application layers and the infrastructure layer.
// These interfaces enable dependency inversion and make the harness testable.
package ports

import (
	"context"

	"github.com/crucible-dev/crucible/internal/domain"
)

// CaseSource produces the ordered, finite sequence of cases for one
// evaluation run. A source is restartable per construction: Load may be
// called once per run, and each call must yield the same cases in the same
// order. Loading is fail-fast; a source that cannot produce its full
// sequence returns an error and no partial result.
//
// Implementations must be safe for read-only sharing once Load returns.
type CaseSource interface {
	// Load materializes every case in emission order.
	// The context allows cancellation of slow sources (e.g. file reads).
	Load(ctx context.Context) ([]domain.Case, error)
}
