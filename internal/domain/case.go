// Package domain contains pure, dependency-free domain models and types
// for the evaluation harness.
package domain

// Case is a single labeled evaluation input: the value handed to the task
// under test and the value the task is expected to produce.
// Both values are opaque JSON-like values (the result of decoding JSON into
// `any`). A Case is immutable once constructed and is shared read-only
// across concurrent workers.
type Case struct {
	// ID optionally identifies the case in reports and persistence.
	// An empty ID is rendered as "-" in tabular output.
	ID string `json:"id,omitempty"`

	// Input is the value passed to the task under test.
	Input any `json:"input"`

	// Expected is the reference value scorers compare task output against.
	Expected any `json:"expected"`
}

// NewCase creates an anonymous Case from an input and expected value.
func NewCase(input, expected any) Case {
	return Case{Input: input, Expected: expected}
}

// NewCaseWithID creates a Case carrying an explicit identifier.
func NewCaseWithID(id string, input, expected any) Case {
	return Case{ID: id, Input: input, Expected: expected}
}
