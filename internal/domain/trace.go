package domain

import "time"

// TokenUsage records token consumption for a single traced call.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// Trace is a diagnostic record of one sub-call (typically a model or API
// invocation) made while a case was executing. Traces are attached to
// exactly one case's result via the trace context. EndedAt is never before
// StartedAt; both are captured by the builder.
type Trace struct {
	// ID optionally identifies this trace.
	ID string `json:"id,omitempty"`

	// Model names the model that served the call, when applicable.
	Model string `json:"model,omitempty"`

	// StartedAt is when the call began.
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the call completed.
	EndedAt time.Time `json:"ended_at"`

	// DurationMS is the call latency in milliseconds, derived from
	// StartedAt and EndedAt.
	DurationMS int64 `json:"duration_ms"`

	// Input is the payload sent on the traced call.
	Input any `json:"input_payload"`

	// Output is the payload received from the traced call.
	Output any `json:"output_payload"`

	// Usage optionally records token consumption.
	Usage *TokenUsage `json:"token_usage,omitempty"`

	// Metadata optionally carries caller-defined context such as the
	// provider or sampling temperature.
	Metadata any `json:"metadata,omitempty"`

	// Error is set when the traced call failed.
	Error string `json:"error,omitempty"`
}

// TraceBuilder accumulates trace fields between the start and end of a
// sub-call. StartTrace captures the start time; Finish (or FinishWithError)
// captures the end time and freezes the record, so callers never track
// timestamps manually.
type TraceBuilder struct {
	start    time.Time
	id       string
	model    string
	metadata any
}

// StartTrace begins building a Trace, capturing the current time as the
// call's start.
func StartTrace() *TraceBuilder {
	return &TraceBuilder{start: time.Now()}
}

// ID sets the trace identifier.
func (b *TraceBuilder) ID(id string) *TraceBuilder {
	b.id = id
	return b
}

// Model sets the model name.
func (b *TraceBuilder) Model(model string) *TraceBuilder {
	b.model = model
	return b
}

// Metadata attaches caller-defined context to the trace.
func (b *TraceBuilder) Metadata(metadata any) *TraceBuilder {
	b.metadata = metadata
	return b
}

// Finish captures the end time and returns the completed Trace.
// usage may be nil when token counts are unknown.
func (b *TraceBuilder) Finish(input, output any, usage *TokenUsage) Trace {
	end := time.Now()
	return Trace{
		ID:         b.id,
		Model:      b.model,
		StartedAt:  b.start,
		EndedAt:    end,
		DurationMS: end.Sub(b.start).Milliseconds(),
		Input:      input,
		Output:     output,
		Usage:      usage,
		Metadata:   b.metadata,
	}
}

// FinishWithError captures the end time and returns a Trace recording a
// failed call. The output payload is left nil.
func (b *TraceBuilder) FinishWithError(input any, err error) Trace {
	end := time.Now()
	tr := Trace{
		ID:         b.id,
		Model:      b.model,
		StartedAt:  b.start,
		EndedAt:    end,
		DurationMS: end.Sub(b.start).Milliseconds(),
		Input:      input,
		Metadata:   b.metadata,
	}
	if err != nil {
		tr.Error = err.Error()
	}
	return tr
}
