package sink

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/hazyhaar/paritycheck/parity/feature"
	"github.com/hazyhaar/paritycheck/parity/internal/recommend"
)

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"result": describeResult,
	"clean":  plain,
	"mark": func(equal bool) string {
		if equal {
			return "same"
		}
		return "DIFFERENT"
	},
}).Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Parity run {{.ID}}</title></head>
<body>
<h1>Parity run {{.ID}}</h1>
<p>Started {{.StartedAt.Format "2006-01-02 15:04:05 MST"}}, took {{.Duration}}.</p>
<h2>Targets</h2>
<table>
<thead><tr><th>Target</th><th>URL</th><th>Accessible</th><th>Title</th><th>Console errors</th></tr></thead>
<tbody>
{{- range .Snapshots}}
<tr><td>{{.Target.Name}}</td><td>{{.Target.URL}}</td><td>{{if .Accessible}}yes{{else}}no: {{clean .Error}}{{end}}</td><td>{{.PageTitle}}</td><td>{{len .ConsoleErrors}}</td></tr>
{{- end}}
</tbody>
</table>
<p>Both accessible: {{.Report.BothAccessible}}. Titles match: {{.Report.TitleMatch}}.</p>
<h2>Features</h2>
<table>
<thead><tr><th>Feature</th><th>{{(index .Report.Targets 0).Name}}</th><th>{{(index .Report.Targets 1).Name}}</th><th>Parity</th></tr></thead>
<tbody>
{{- range .Report.Diffs}}
<tr><td>{{.Feature}}</td><td>{{result .Left}}</td><td>{{result .Right}}</td><td>{{mark .Equal}}</td></tr>
{{- end}}
</tbody>
</table>
<h2>Recommendations</h2>
{{- if .Recommendations}}
<ol>
{{- range .Recommendations}}
<li><strong>{{.Priority}}</strong> {{clean .Issue}}. {{.Remedy}}</li>
{{- end}}
</ol>
{{- else}}
<p>No issues found.</p>
{{- end}}
{{- range .Snapshots}}{{if .ConsoleErrors}}
<h2>Console errors on {{.Target.Name}}</h2>
<ul>
{{- range .ConsoleErrors}}
<li>{{.Level}}: {{clean .Message}}</li>
{{- end}}
</ul>
{{- end}}{{end}}
</body></html>
`))

type reportView struct {
	*feature.Run
	Snapshots []feature.Snapshot
}

// RenderHTML renders run as a standalone HTML page. Console and error
// text is stripped of markup before html/template escapes it.
func RenderHTML(run *feature.Run) ([]byte, error) {
	var buf bytes.Buffer
	view := reportView{Run: run, Snapshots: []feature.Snapshot{run.Left, run.Right}}
	if err := reportTmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("sink: render html: %w", err)
	}
	return buf.Bytes(), nil
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// RenderMarkdown converts the HTML report to Markdown.
func RenderMarkdown(page []byte) ([]byte, error) {
	md, err := mdConverter.ConvertString(string(page))
	if err != nil {
		return nil, fmt.Errorf("sink: render markdown: %w", err)
	}
	return []byte(md), nil
}

// plain strips markup and leaves unescaped text for the template to escape.
func plain(s string) string {
	return strings.TrimSpace(recommend.Plain(s))
}

func describeResult(r feature.Result) string {
	switch r.Status {
	case feature.StatusError:
		return "error: " + plain(r.Message)
	case feature.StatusNotFound:
		return "not found"
	}
	switch p := r.Payload.(type) {
	case feature.Element:
		return fmt.Sprintf("<%s> %q", p.Tag, p.Text)
	case feature.TextGradient:
		if p.IsTextGradient {
			return fmt.Sprintf("gradient text (animated: %v)", p.HasAnimation)
		}
		return "no text gradient"
	case feature.Count:
		return fmt.Sprintf("%d: %s", p.Count, strings.Join(p.Items, ", "))
	case feature.Indicators:
		return strings.Join(p.Matched, ", ")
	case feature.Controls:
		return fmt.Sprintf("%d controls, %d glassmorphic", p.Count, p.Glassmorphic)
	}
	return "found"
}
