package domain

// CaseResult is the complete outcome of evaluating one case.
// Exactly one of Output or Error is meaningful: a case that failed at the
// task or scorer layer carries an Error, no Output, and no Scores.
type CaseResult struct {
	// Case is the input record this result was produced for.
	Case Case `json:"case"`

	// Output is the task's output, absent when the case failed.
	Output any `json:"output,omitempty"`

	// Error is the task or scorer failure message, empty on success.
	Error string `json:"error,omitempty"`

	// Scores holds one Score per configured scorer, in scorer order.
	// It is empty when the case failed.
	Scores []Score `json:"scores"`

	// Traces holds the diagnostic traces reported during this case's
	// execution scope, in report order.
	Traces []Trace `json:"traces,omitempty"`
}

// Passed reports whether this case counts as passed: it produced output,
// at least one score exists, and every score passed. A successful task
// with zero configured scorers does not count as passed.
func (cr CaseResult) Passed() bool {
	if cr.Error != "" || len(cr.Scores) == 0 {
		return false
	}
	for _, s := range cr.Scores {
		if !s.Passed {
			return false
		}
	}
	return true
}

// AvgScore returns the arithmetic mean of this case's score values,
// or 0 when the case has no scores.
func (cr CaseResult) AvgScore() float64 {
	if len(cr.Scores) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range cr.Scores {
		sum += s.Value
	}
	return sum / float64(len(cr.Scores))
}

// EvalSummary aggregates pass/fail and score statistics across all cases
// of a run. It is derived once by Summarize and never mutated.
type EvalSummary struct {
	// Total is the number of cases evaluated.
	Total int `json:"total"`

	// Passed is the number of cases whose every score passed.
	Passed int `json:"passed"`

	// PassRate is Passed/Total, in [0,1]; 0 for an empty run.
	PassRate float64 `json:"pass_rate"`

	// AvgScore is the mean of every score value across every case.
	// Scoreless cases contribute no terms.
	AvgScore float64 `json:"avg_score"`
}

// EvalResult is the terminal output of an evaluation run: per-case results
// in case-source emission order plus the aggregate summary.
type EvalResult struct {
	Cases   []CaseResult `json:"cases"`
	Summary EvalSummary  `json:"summary"`
}

// Summarize computes the aggregate summary for a set of case results.
// A case counts as passed only when it has a non-empty score list and every
// score passed; the average is taken over individual score values, so a
// failed case (zero scores) contributes nothing rather than a zero term.
func Summarize(cases []CaseResult) EvalSummary {
	total := len(cases)
	passed := 0
	scoreSum := 0.0
	scoreCount := 0

	for _, cr := range cases {
		if cr.Passed() {
			passed++
		}
		for _, s := range cr.Scores {
			scoreSum += s.Value
			scoreCount++
		}
	}

	summary := EvalSummary{Total: total, Passed: passed}
	if total > 0 {
		summary.PassRate = float64(passed) / float64(total)
	}
	if scoreCount > 0 {
		summary.AvgScore = scoreSum / float64(scoreCount)
	}
	return summary
}
