package scorers

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.Scorer = (*LevenshteinScorer)(nil)

// LevenshteinConfig defines the parameters for edit-distance scoring.
type LevenshteinConfig struct {
	// MinSimilarity is the similarity threshold (0.0-1.0) at or above
	// which the score passes.
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity" validate:"min=0,max=1"`
}

// DefaultLevenshteinConfig returns a LevenshteinConfig requiring 80%
// similarity to pass.
func DefaultLevenshteinConfig() LevenshteinConfig {
	return LevenshteinConfig{MinSimilarity: 0.8}
}

// LevenshteinScorer measures string similarity as
// 1 - distance/max(len(a), len(b)) using the Levenshtein edit distance
// over Unicode code points. Non-string values are compared by their
// canonical JSON text. Two empty strings are identical (similarity 1.0).
// Value is the similarity in [0,1]; the score passes at or above the
// configured threshold.
type LevenshteinScorer struct {
	config LevenshteinConfig
	tracer trace.Tracer
}

// NewLevenshteinScorer creates a LevenshteinScorer with the given
// configuration. Returns an error if the threshold is outside [0,1].
func NewLevenshteinScorer(config LevenshteinConfig) (*LevenshteinScorer, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &LevenshteinScorer{
		config: config,
		tracer: otel.Tracer("levenshtein-scorer"),
	}, nil
}

// Name returns "levenshtein".
func (s *LevenshteinScorer) Name() string { return "levenshtein" }

// Score stringifies both values and computes their edit-distance
// similarity. The computation is symmetric in its two arguments.
func (s *LevenshteinScorer) Score(ctx context.Context, expected, output any) (domain.Score, error) {
	_, span := s.tracer.Start(ctx, "LevenshteinScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.type", "levenshtein"),
			attribute.Float64("config.min_similarity", s.config.MinSimilarity),
		),
	)
	defer span.End()

	e, err := domain.Stringify(expected)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}
	o, err := domain.Stringify(output)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}

	similarity := similarity(e, o)
	passed := similarity >= s.config.MinSimilarity

	span.SetAttributes(
		attribute.Float64("score.value", similarity),
		attribute.Bool("score.passed", passed),
	)
	return domain.Score{Name: s.Name(), Value: similarity, Passed: passed}, nil
}

// similarity normalizes the Levenshtein distance between two strings into
// [0,1], where 1.0 means identical. The distance operates on runes, so the
// normalizing length is the larger rune count, not byte count.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}

	distance := levenshtein.ComputeDistance(a, b)

	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0
	}

	sim := 1.0 - float64(distance)/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
