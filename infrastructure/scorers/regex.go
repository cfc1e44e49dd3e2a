package scorers

import (
	"context"
	"fmt"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.Scorer = (*RegexScorer)(nil)

// RegexScorer passes iff the stringified output matches a pattern compiled
// once at construction; the expected value is ignored. Value mirrors the
// match (1.0 or 0.0). Details include the pattern, whether it matched,
// and any captured groups.
type RegexScorer struct {
	pattern *regexp.Regexp
	tracer  trace.Tracer
}

// NewRegexScorer creates a RegexScorer for the given pattern.
// An uncompilable pattern is a configuration error, fatal before any
// case runs.
func NewRegexScorer(pattern string) (*RegexScorer, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid regex pattern: %v", domain.ErrInvalidConfiguration, err)
	}
	return &RegexScorer{
		pattern: re,
		tracer:  otel.Tracer("regex-scorer"),
	}, nil
}

// Name returns "regex".
func (s *RegexScorer) Name() string { return "regex" }

// Score matches the stringified output against the compiled pattern.
func (s *RegexScorer) Score(ctx context.Context, _, output any) (domain.Score, error) {
	_, span := s.tracer.Start(ctx, "RegexScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.type", "regex"),
			attribute.String("config.pattern", s.pattern.String()),
		),
	)
	defer span.End()

	text, err := domain.Stringify(output)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}

	details := map[string]any{
		"pattern": s.pattern.String(),
	}

	captures := s.pattern.FindStringSubmatch(text)
	matched := captures != nil
	details["matched"] = matched
	if matched {
		details["captures"] = captures
	}

	value := 0.0
	if matched {
		value = 1.0
	}

	span.SetAttributes(attribute.Bool("score.passed", matched))
	return domain.Score{Name: s.Name(), Value: value, Passed: matched, Details: details}, nil
}
