package scorers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
)

var _ ports.Scorer = (*JSONScorer)(nil)

// jsonMode selects one of the scorer's three behaviors.
type jsonMode int

const (
	// jsonModeBare passes whenever the output is representable as JSON.
	jsonModeBare jsonMode = iota
	// jsonModeSchema validates the output against a compiled JSON Schema.
	jsonModeSchema
	// jsonModeStrict compares expected and output structures, ignoring
	// leaf values.
	jsonModeStrict
)

// JSONScorer validates the shape of the task output. It has three modes:
// bare validity (always passes for JSON-representable output; exists for
// uniformity with CLI flag wiring), schema validation against a JSON
// Schema compiled once at construction, and strict structural comparison
// against the expected value (identical key sets and JSON types at every
// path, leaf values ignored).
type JSONScorer struct {
	mode   jsonMode
	schema *jsonschema.Schema
	tracer trace.Tracer
}

// NewJSONScorer creates a scorer that only checks the output is valid JSON.
func NewJSONScorer() *JSONScorer {
	return &JSONScorer{mode: jsonModeBare, tracer: otel.Tracer("json-scorer")}
}

// NewJSONSchemaScorer creates a scorer that validates output against the
// given JSON Schema document (any JSON-representable value). An invalid
// schema is a configuration error, fatal before any case runs.
func NewJSONSchemaScorer(schema any) (*JSONScorer, error) {
	doc, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: schema is not JSON-representable: %v", domain.ErrInvalidConfiguration, err)
	}
	compiled, err := jsonschema.CompileString("schema.json", string(doc))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON schema: %v", domain.ErrInvalidConfiguration, err)
	}
	return &JSONScorer{
		mode:   jsonModeSchema,
		schema: compiled,
		tracer: otel.Tracer("json-scorer"),
	}, nil
}

// NewStrictJSONScorer creates a scorer requiring an exact structural match
// with the expected value.
func NewStrictJSONScorer() *JSONScorer {
	return &JSONScorer{mode: jsonModeStrict, tracer: otel.Tracer("json-scorer")}
}

// Name returns "json".
func (s *JSONScorer) Name() string { return "json" }

// Score validates the output according to the configured mode.
func (s *JSONScorer) Score(ctx context.Context, expected, output any) (domain.Score, error) {
	_, span := s.tracer.Start(ctx, "JSONScorer.Score",
		trace.WithAttributes(attribute.String("scorer.type", "json")),
	)
	defer span.End()

	// All modes need the output in canonical JSON form; a value that
	// cannot be represented as JSON is a scorer failure.
	canonical, err := domain.Canonicalize(output)
	if err != nil {
		span.RecordError(err)
		return domain.Score{}, err
	}

	switch s.mode {
	case jsonModeSchema:
		return s.scoreSchema(span, canonical), nil

	case jsonModeStrict:
		canonicalExpected, err := domain.Canonicalize(expected)
		if err != nil {
			span.RecordError(err)
			return domain.Score{}, err
		}
		match := structuresMatch(canonicalExpected, canonical)
		value := 0.0
		if match {
			value = 1.0
		}
		span.SetAttributes(attribute.Bool("score.passed", match))
		return domain.Score{
			Name:   s.Name(),
			Value:  value,
			Passed: match,
			Details: map[string]any{
				"strict":           true,
				"structures_match": match,
			},
		}, nil

	default:
		span.SetAttributes(attribute.Bool("score.passed", true))
		return domain.Score{
			Name:   s.Name(),
			Value:  1.0,
			Passed: true,
			Details: map[string]any{
				"valid":   true,
				"message": "valid JSON",
			},
		}, nil
	}
}

// scoreSchema validates the canonical output against the compiled schema.
func (s *JSONScorer) scoreSchema(span trace.Span, output any) domain.Score {
	err := s.schema.Validate(output)
	if err == nil {
		span.SetAttributes(attribute.Bool("score.passed", true))
		return domain.Score{
			Name:   s.Name(),
			Value:  1.0,
			Passed: true,
			Details: map[string]any{
				"valid":   true,
				"message": "output matches JSON schema",
			},
		}
	}

	var msgs []string
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		msgs = flattenValidationErrors(verr)
	} else {
		msgs = []string{err.Error()}
	}

	span.SetAttributes(attribute.Bool("score.passed", false))
	return domain.Score{
		Name:   s.Name(),
		Value:  0.0,
		Passed: false,
		Details: map[string]any{
			"valid":  false,
			"errors": msgs,
		},
	}
}

// flattenValidationErrors walks the validation error tree and returns the
// leaf messages, each prefixed with its instance location.
func flattenValidationErrors(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		return []string{fmt.Sprintf("%s: %s", verr.InstanceLocation, verr.Message)}
	}
	var msgs []string
	for _, cause := range verr.Causes {
		msgs = append(msgs, flattenValidationErrors(cause)...)
	}
	return msgs
}

// structuresMatch recursively compares JSON structure: identical key sets
// for objects, identical lengths and elementwise structure for arrays,
// and identical JSON type for leaves. Leaf values are ignored.
func structuresMatch(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok || len(e) != len(a) {
			return false
		}
		for key, ev := range e {
			av, ok := a[key]
			if !ok || !structuresMatch(ev, av) {
				return false
			}
		}
		return true

	case []any:
		a, ok := actual.([]any)
		if !ok || len(e) != len(a) {
			return false
		}
		for i := range e {
			if !structuresMatch(e[i], a[i]) {
				return false
			}
		}
		return true

	case string:
		_, ok := actual.(string)
		return ok
	case float64:
		_, ok := actual.(float64)
		return ok
	case bool:
		_, ok := actual.(bool)
		return ok
	case nil:
		return actual == nil
	default:
		return false
	}
}
