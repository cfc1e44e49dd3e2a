package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"

	"github.com/crucible-dev/crucible/internal/domain"
)

// htmlPage is the static report template. Values are pre-rendered into
// strings by buildHTMLData; html/template handles escaping.
const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Evaluation Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #1f2328; }
h1 { font-size: 1.4rem; }
.summary { margin: 1rem 0; padding: 1rem; background: #f6f8fa; border-radius: 6px; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #d0d7de; padding: 0.5rem; text-align: left; vertical-align: top; }
tr.pass td.status { color: #1a7f37; }
tr.fail td.status { color: #cf222e; }
.badge { display: inline-block; margin: 0 0.25rem 0.25rem 0; padding: 0.1rem 0.5rem; border-radius: 1rem; font-size: 0.8rem; }
.badge.pass { background: #dafbe1; color: #1a7f37; }
.badge.fail { background: #ffebe9; color: #cf222e; }
pre { margin: 0; white-space: pre-wrap; word-break: break-word; font-size: 0.8rem; }
.trace { margin-top: 0.5rem; padding: 0.5rem; background: #f6f8fa; border-radius: 6px; font-size: 0.8rem; }
.error { color: #cf222e; }
</style>
</head>
<body>
<h1>Evaluation Report</h1>
<div class="summary">
Total: {{.Summary.Total}} &nbsp; Passed: {{.Summary.Passed}} &nbsp;
Pass rate: {{printf "%.1f" .PassRatePercent}}% &nbsp;
Avg score: {{printf "%.3f" .Summary.AvgScore}}
</div>
<table>
<tr><th>ID</th><th>Status</th><th>Input</th><th>Output</th><th>Expected</th><th>Scores</th></tr>
{{range .Cases}}
<tr class="{{.RowClass}}">
<td>{{.ID}}</td>
<td class="status">{{.StatusIcon}}</td>
<td><pre>{{.Input}}</pre></td>
<td><pre>{{.Output}}</pre>{{if .Error}}<div class="error">{{.Error}}</div>{{end}}</td>
<td><pre>{{.Expected}}</pre></td>
<td>
{{range .Scores}}<span class="badge {{.Class}}">{{.Label}}</span>{{end}}
{{range .Traces}}<div class="trace">{{.}}</div>{{end}}
</td>
</tr>
{{end}}
</table>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Parse(htmlPage))

type htmlScore struct {
	Class string
	Label string
}

type htmlCase struct {
	ID         string
	RowClass   string
	StatusIcon string
	Input      string
	Output     string
	Expected   string
	Error      string
	Scores     []htmlScore
	Traces     []string
}

type htmlData struct {
	Summary         domain.EvalSummary
	PassRatePercent float64
	Cases           []htmlCase
}

// HTML renders the result as a self-contained HTML page.
func HTML(result domain.EvalResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, buildHTMLData(result)); err != nil {
		return nil, fmt.Errorf("rendering HTML report: %w", err)
	}
	return buf.Bytes(), nil
}

func buildHTMLData(result domain.EvalResult) htmlData {
	data := htmlData{
		Summary:         result.Summary,
		PassRatePercent: result.Summary.PassRate * 100,
	}

	for _, cr := range result.Cases {
		id := cr.Case.ID
		if id == "" {
			id = "-"
		}
		hc := htmlCase{
			ID:       id,
			RowClass: "fail",
			Input:    prettyJSON(cr.Case.Input),
			Output:   prettyJSON(cr.Output),
			Expected: prettyJSON(cr.Case.Expected),
			Error:    cr.Error,
		}
		hc.StatusIcon = "✗"
		if cr.Passed() {
			hc.RowClass = "pass"
			hc.StatusIcon = "✓"
		}

		for _, score := range cr.Scores {
			class := "fail"
			if score.Passed {
				class = "pass"
			}
			hc.Scores = append(hc.Scores, htmlScore{
				Class: class,
				Label: fmt.Sprintf("%s: %.3f", score.Name, score.Value),
			})
		}

		for _, tr := range cr.Traces {
			model := tr.Model
			if model == "" {
				model = "unknown"
			}
			hc.Traces = append(hc.Traces, fmt.Sprintf("%s, %dms", model, tr.DurationMS))
		}

		data.Cases = append(data.Cases, hc)
	}
	return data
}

// prettyJSON renders a value as indented JSON for display blocks.
func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
