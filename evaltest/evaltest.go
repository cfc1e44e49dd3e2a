// Package evaltest provides assertion helpers for using evaluation results
// in Go tests. Failures include a rendered summary table so the offending
// cases are visible directly in test output.
package evaltest

import (
	"testing"

	"github.com/crucible-dev/crucible/internal/domain"
	"github.com/crucible-dev/crucible/internal/report"
)

// AssertPassRate fails the test when the run's pass rate is below min.
func AssertPassRate(tb testing.TB, result domain.EvalResult, min float64) {
	tb.Helper()
	if result.Summary.PassRate < min {
		tb.Fatalf("pass rate %.4f below required %.4f\n%s",
			result.Summary.PassRate, min, report.SummaryTable(result))
	}
}

// AssertAvgScore fails the test when the run's average score is below min.
func AssertAvgScore(tb testing.TB, result domain.EvalResult, min float64) {
	tb.Helper()
	if result.Summary.AvgScore < min {
		tb.Fatalf("average score %.4f below required %.4f\n%s",
			result.Summary.AvgScore, min, report.SummaryTable(result))
	}
}

// AssertAllPassed fails the test unless every case passed.
func AssertAllPassed(tb testing.TB, result domain.EvalResult) {
	tb.Helper()
	if result.Summary.Passed != result.Summary.Total {
		tb.Fatalf("%d of %d cases failed\n%s",
			result.Summary.Total-result.Summary.Passed, result.Summary.Total,
			report.SummaryTable(result))
	}
}
