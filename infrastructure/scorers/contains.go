package scorers

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/cases"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var (
	_ ports.Scorer = (*ContainsScorer)(nil)

	// foldCaser is a package-level Unicode case folder shared by the
	// case-insensitive scorers.
	foldCaser = cases.Fold()
)

// ContainsConfig defines the parameters for substring matching.
type ContainsConfig struct {
	// Substring is the text that must occur in the stringified output.
	Substring string `yaml:"substring" json:"substring" validate:"required"`

	// CaseSensitive controls case sensitivity. When false, both sides
	// are Unicode case-folded before matching.
	CaseSensitive bool `yaml:"case_sensitive" json:"case_sensitive"`
}

// ContainsScorer passes iff the configured substring occurs in the
// stringified output; the expected value is ignored. Value is 1.0 when
// found and 0.0 otherwise. Details record the substring, the sensitivity
// flag, and whether it was found.
type ContainsScorer struct {
	config ContainsConfig
	tracer trace.Tracer
}

// NewContainsScorer creates a ContainsScorer with the given configuration.
// Returns an error if the substring is empty.
func NewContainsScorer(config ContainsConfig) (*ContainsScorer, error) {
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &ContainsScorer{
		config: config,
		tracer: otel.Tracer("contains-scorer"),
	}, nil
}

// Name returns "contains".
func (s *ContainsScorer) Name() string { return "contains" }

// Score checks the stringified output for the configured substring.
func (s *ContainsScorer) Score(ctx context.Context, _, output any) (domain.Score, error) {
	_, span := s.tracer.Start(ctx, "ContainsScorer.Score",
		trace.WithAttributes(
			attribute.String("scorer.type", "contains"),
			attribute.Bool("config.case_sensitive", s.config.CaseSensitive),
		),
	)
	defer span.End()

	text, err := domain.Stringify(output)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}

	needle := s.config.Substring
	if !s.config.CaseSensitive {
		text = foldCaser.String(text)
		needle = foldCaser.String(needle)
	}
	found := strings.Contains(text, needle)

	value := 0.0
	if found {
		value = 1.0
	}

	span.SetAttributes(attribute.Bool("score.passed", found))
	return domain.Score{
		Name:   s.Name(),
		Value:  value,
		Passed: found,
		Details: map[string]any{
			"substring":      s.config.Substring,
			"case_sensitive": s.config.CaseSensitive,
			"found":          found,
		},
	}, nil
}
