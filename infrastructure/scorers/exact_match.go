package scorers

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.Scorer = (*ExactMatchScorer)(nil)

// ExactMatchScorer passes iff expected and output are equal under deep
// structural JSON equality: object key order is irrelevant and numbers are
// compared by value, so an integer 1 matches a float 1.0.
// Value is 1.0 on a match and 0.0 otherwise.
type ExactMatchScorer struct {
	tracer trace.Tracer
}

// NewExactMatchScorer creates an ExactMatchScorer.
// It has no configuration and cannot fail to construct.
func NewExactMatchScorer() *ExactMatchScorer {
	return &ExactMatchScorer{tracer: otel.Tracer("exact-match-scorer")}
}

// Name returns "exact_match".
func (s *ExactMatchScorer) Name() string { return "exact_match" }

// Score compares expected and output for deep JSON equality.
func (s *ExactMatchScorer) Score(ctx context.Context, expected, output any) (domain.Score, error) {
	_, span := s.tracer.Start(ctx, "ExactMatchScorer.Score",
		trace.WithAttributes(attribute.String("scorer.type", "exact_match")),
	)
	defer span.End()

	passed := domain.JSONEqual(expected, output)
	value := 0.0
	if passed {
		value = 1.0
	}

	span.SetAttributes(attribute.Bool("score.passed", passed))
	return domain.Score{Name: s.Name(), Value: value, Passed: passed}, nil
}
