package domain

// Score is a single named judgment produced by a scorer for one case.
// Value is a scorer-defined numeric result; each scorer documents its own
// range. Passed is the binary verdict used by pass/fail aggregation.
// A Score is immutable once produced.
type Score struct {
	// Name identifies the scorer that produced this score (e.g. "exact_match").
	// It is never empty.
	Name string `json:"name"`

	// Value is the numeric result of the comparison.
	Value float64 `json:"value"`

	// Passed reports whether the scorer judged the output acceptable.
	Passed bool `json:"passed"`

	// Details optionally carries structured scorer-specific context,
	// such as the matched pattern or validation errors.
	Details any `json:"details,omitempty"`
}
