package scorers

import (
	"context"
	"fmt"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.Scorer = (*EmbeddingScorer)(nil)

// EmbeddingConfig defines the parameters for embedding similarity scoring.
type EmbeddingConfig struct {
	// MinSimilarity is the cosine similarity threshold (0.0-1.0) at or
	// above which the score passes.
	MinSimilarity float64 `yaml:"min_similarity" json:"min_similarity" validate:"min=0,max=1"`
}

// DefaultEmbeddingConfig returns an EmbeddingConfig requiring 0.8 cosine
// similarity to pass.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{MinSimilarity: 0.8}
}

// EmbeddingScorer measures semantic similarity by embedding the
// stringified expected and output values with an injected embedding
// function and computing their cosine similarity, clamped to [0,1]: the
// intended domain assumes non-negative-cosine embeddings, so a negative
// raw cosine is floored to 0 rather than propagated. A failure of the
// embedding function, or a dimensionality mismatch between the two
// vectors, is a scorer failure rather than a zero score.
type EmbeddingScorer struct {
	embed  ports.EmbedFunc
	config EmbeddingConfig
	tracer trace.Tracer
}

// NewEmbeddingScorer creates an EmbeddingScorer around the given embedding
// function. A nil function or an out-of-range threshold is a configuration
// error.
func NewEmbeddingScorer(embed ports.EmbedFunc, config EmbeddingConfig) (*EmbeddingScorer, error) {
	if embed == nil {
		return nil, fmt.Errorf("%w: embedding function must be set", domain.ErrInvalidConfiguration)
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &EmbeddingScorer{
		embed:  embed,
		config: config,
		tracer: otel.Tracer("embedding-scorer"),
	}, nil
}

// Name returns "embedding_cosine".
func (s *EmbeddingScorer) Name() string { return "embedding_cosine" }

// Score embeds both values and compares them by clamped cosine similarity.
func (s *EmbeddingScorer) Score(ctx context.Context, expected, output any) (domain.Score, error) {
	ctx, span := s.tracer.Start(ctx, "EmbeddingScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.type", "embedding_cosine"),
			attribute.Float64("config.min_similarity", s.config.MinSimilarity),
		),
	)
	defer span.End()

	expectedText, err := domain.Stringify(expected)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}
	outputText, err := domain.Stringify(output)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}

	expectedVec, err := s.embed(ctx, expectedText)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, fmt.Errorf("embedding expected value: %w", err)
	}
	outputVec, err := s.embed(ctx, outputText)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, fmt.Errorf("embedding output value: %w", err)
	}

	if len(expectedVec) != len(outputVec) {
		err := fmt.Errorf("embedding dimensionality mismatch: %d vs %d", len(expectedVec), len(outputVec))
		span.RecordError(err)
		return domain.Score{}, err
	}

	similarity := cosineSimilarity(expectedVec, outputVec)
	passed := similarity >= s.config.MinSimilarity

	span.SetAttributes(
		attribute.Float64("score.value", similarity),
		attribute.Bool("score.passed", passed),
	)
	return domain.Score{Name: s.Name(), Value: similarity, Passed: passed}, nil
}

// cosineSimilarity computes (u·v)/(‖u‖‖v‖) in float64 and clamps the
// result into [0,1]. A zero-magnitude vector yields 0.
func cosineSimilarity(u, v []float32) float64 {
	var dot, normU, normV float64
	for i := range u {
		x := float64(u[i])
		y := float64(v[i])
		dot += x * y
		normU += x * x
		normV += y * y
	}

	if normU == 0 || normV == 0 {
		return 0
	}

	similarity := dot / (math.Sqrt(normU) * math.Sqrt(normV))
	if similarity < 0 {
		return 0
	}
	if similarity > 1 {
		return 1
	}
	return similarity
}
