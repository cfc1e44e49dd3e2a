// Package application contains the evaluation orchestrator: the component
// that loads cases, fans them out over a bounded worker pool, correlates
// traces back to their originating case, applies scorers, and aggregates
// results deterministically regardless of concurrency level.
package application

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/ports"
	"github.com/crucible-dev/crucible/internal/tracectx"
)

// Package-level validator instance for configuration validation.
var validate = validator.New()

// EvalConfig defines the tunable parameters of an evaluation run.
type EvalConfig struct {
	// Concurrency bounds the number of cases executing at once.
	// It affects wall-clock time and completion order only; the content
	// of the result is identical for any value.
	Concurrency int `yaml:"concurrency" json:"concurrency" validate:"min=1"`
}

// DefaultEvalConfig returns an EvalConfig with production defaults.
func DefaultEvalConfig() EvalConfig {
	return EvalConfig{Concurrency: 8}
}

// Evaluation drives the pipeline: case source, bounded-concurrency task
// execution, trace collection, scorer application, and aggregation.
// An Evaluation is immutable after construction and safe to run from
// multiple goroutines, though each run re-loads the case source.
type Evaluation struct {
	source  ports.CaseSource
	task    ports.Task
	scorers []ports.Scorer
	config  EvalConfig
	metrics ports.MetricsCollector
	tracer  trace.Tracer
}

// NewEvaluation creates an Evaluation over a case source, a task, and an
// ordered list of scorers. Scorer order determines score order on each
// case result. Construction fails on a nil source or task, a nil scorer
// entry, or an invalid config; nothing executes until Run is called.
func NewEvaluation(source ports.CaseSource, task ports.Task, scorers []ports.Scorer, config EvalConfig) (*Evaluation, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: case source must be set", domain.ErrInvalidConfiguration)
	}
	if task == nil {
		return nil, fmt.Errorf("%w: task must be set", domain.ErrInvalidConfiguration)
	}
	for i, s := range scorers {
		if s == nil {
			return nil, fmt.Errorf("%w: scorer %d is nil", domain.ErrInvalidConfiguration, i)
		}
	}
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &Evaluation{
		source:  source,
		task:    task,
		scorers: append([]ports.Scorer(nil), scorers...),
		config:  config,
		tracer:  otel.Tracer("evaluation"),
	}, nil
}

// WithMetrics attaches a metrics collector and returns the evaluation for
// chaining. A nil collector leaves metrics disabled.
func (e *Evaluation) WithMetrics(mc ports.MetricsCollector) *Evaluation {
	e.metrics = mc
	return e
}

// Run executes the full evaluation and returns its immutable result.
//
// Loading is fail-fast: if the case source errors, nothing executes and
// the run fails. After loading, failure is never silently dropped and
// never fatal; a case that errors at the task or scorer layer is recorded
// as a failed CaseResult while sibling cases continue. Results are
// assembled in case-source emission order, not completion order.
func (e *Evaluation) Run(ctx context.Context) (domain.EvalResult, error) {
	runID := uuid.NewString()
	ctx, span := e.tracer.Start(ctx, "Evaluation.Run",
		trace.WithAttributes(
			attribute.String("eval.run_id", runID),
			attribute.Int("eval.concurrency", e.config.Concurrency),
			attribute.Int("eval.scorer_count", len(e.scorers)),
		),
	)
	defer span.End()

	start := time.Now()

	cases, err := e.source.Load(ctx)
	if err != nil {
		span.RecordError(err)
		return domain.EvalResult{}, fmt.Errorf("loading cases: %w", err)
	}
	span.SetAttributes(attribute.Int("eval.case_count", len(cases)))

	// One slot per case, filled by index, keeps source order without a
	// shared lock on the hot path.
	results := make([]domain.CaseResult, len(cases))

	g := new(errgroup.Group)
	g.SetLimit(e.config.Concurrency)
	for i, c := range cases {
		g.Go(func() error {
			results[i] = e.runCase(ctx, c)
			return nil
		})
	}
	// Workers never return errors; per-case failures become data.
	_ = g.Wait()

	summary := domain.Summarize(results)
	duration := time.Since(start)

	span.SetAttributes(
		attribute.Float64("eval.pass_rate", summary.PassRate),
		attribute.Float64("eval.avg_score", summary.AvgScore),
		attribute.Int64("eval.duration_ms", duration.Milliseconds()),
	)
	if e.metrics != nil {
		e.metrics.RecordRun(summary, duration)
	}

	return domain.EvalResult{Cases: results, Summary: summary}, nil
}

// runCase executes one case inside its own trace scope. The scope spans
// the task invocation and all scorer calls, so traces reported by either
// attach to this case and no other.
func (e *Evaluation) runCase(ctx context.Context, c domain.Case) domain.CaseResult {
	ctx, span := e.tracer.Start(ctx, "Evaluation.Case",
		trace.WithAttributes(attribute.String("case.id", c.ID)),
	)
	defer span.End()

	start := time.Now()
	caseCtx, collector := tracectx.WithCollector(ctx)

	output, err := e.task.Run(caseCtx, c.Input)
	if err != nil {
		span.RecordError(err)
		e.recordCase("error", start)
		return domain.CaseResult{
			Case:   c,
			Error:  err.Error(),
			Scores: []domain.Score{},
			Traces: collector.Traces(),
		}
	}

	scores := make([]domain.Score, 0, len(e.scorers))
	for _, s := range e.scorers {
		score, err := s.Score(caseCtx, c.Expected, output)
		if err != nil {
			// A scorer failure fails the whole case; scores computed
			// before it are discarded so a case is either fully scored
			// or failed, never partially scored.
			span.RecordError(err)
			if e.metrics != nil {
				e.metrics.RecordScorerFailure(s.Name())
			}
			e.recordCase("error", start)
			return domain.CaseResult{
				Case:   c,
				Error:  fmt.Sprintf("scorer %s: %v", s.Name(), err),
				Scores: []domain.Score{},
				Traces: collector.Traces(),
			}
		}
		scores = append(scores, score)
	}

	result := domain.CaseResult{
		Case:   c,
		Output: output,
		Scores: scores,
		Traces: collector.Traces(),
	}

	status := "failed"
	if result.Passed() {
		status = "passed"
	}
	span.SetAttributes(
		attribute.Bool("case.passed", result.Passed()),
		attribute.Int("case.trace_count", len(result.Traces)),
	)
	e.recordCase(status, start)
	return result
}

func (e *Evaluation) recordCase(status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordCase(status, time.Since(start))
	}
}
