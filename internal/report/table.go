// Package report renders evaluation results for humans and machines:
// a terminal summary table, a JSON document, and a static HTML page.
// Rendering is purely a presentation function over the domain model.
package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/crucible-dev/crucible/internal/domain"
)

// previewLimit caps value previews in tabular output, in runes.
const previewLimit = 64

// SummaryTable renders a textual table of per-case outcomes (id, passed,
// avg score, input, output, expected) followed by a totals footer.
func SummaryTable(result domain.EvalResult) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Passed", "Avg Score", "Input", "Output", "Expected"})

	for _, cr := range result.Cases {
		id := cr.Case.ID
		if id == "" {
			id = "-"
		}
		passed := " "
		if cr.Passed() {
			passed = "✓"
		}
		t.AppendRow(table.Row{
			id,
			passed,
			fmt.Sprintf("%.3f", cr.AvgScore()),
			preview(cr.Case.Input),
			preview(cr.Output),
			preview(cr.Case.Expected),
		})
	}

	summary := result.Summary
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("%d/%d", summary.Passed, summary.Total),
		fmt.Sprintf("%.3f", summary.AvgScore),
		fmt.Sprintf("pass rate %.1f%%", summary.PassRate*100),
		"", "",
	})

	return t.Render() + "\n"
}

// preview renders a value as a short single-line string. Strings are used
// as-is; other values use their JSON text. Long previews are truncated at
// a rune boundary with an ellipsis.
func preview(v any) string {
	s, err := domain.Stringify(v)
	if err != nil {
		s = fmt.Sprintf("%v", v)
	}
	s = strings.ReplaceAll(s, "\n", " ")

	if utf8.RuneCountInString(s) <= previewLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:previewLimit-1]) + "…"
}
