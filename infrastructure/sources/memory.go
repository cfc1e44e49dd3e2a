// Package sources provides the built-in case source implementations for
// the evaluation harness: an in-memory slice and a JSONL file reader.
package sources

import (
	"context"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.CaseSource = (*MemorySource)(nil)

// MemorySource serves cases from a pre-built in-memory slice.
// It is the natural source for programmatic use and for tests.
type MemorySource struct {
	cases []domain.Case
}

// NewMemorySource creates a MemorySource over the given cases.
// The slice is copied, so the caller may reuse or mutate its own copy.
func NewMemorySource(cases []domain.Case) *MemorySource {
	return &MemorySource{cases: append([]domain.Case(nil), cases...)}
}

// Load returns the cases in construction order.
func (s *MemorySource) Load(_ context.Context) ([]domain.Case, error) {
	return append([]domain.Case(nil), s.cases...), nil
}
