package report

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io"
	"strings"
	texttemplate "text/template"
	"time"
)

const (
	htmlTemplatePath     = "templates/report.html"
	markdownTemplatePath = "templates/report.md"
)

//go:embed templates/report.html templates/report.md
var reportTemplateFS embed.FS

var (
	htmlTemplateFuncs = htmltemplate.FuncMap{
		"cells":        cells,
		"verdictClass": verdictClass,
		"formatTime":   formatTimestamp,
		"add":          addInts,
	}

	markdownTemplateFuncs = texttemplate.FuncMap{
		"cells":      cells,
		"mdCell":     markdownCell,
		"mdRow":      markdownRow,
		"mdRule":     markdownRule,
		"formatTime": formatTimestamp,
	}

	htmlReportTemplate = htmltemplate.Must(
		htmltemplate.New("report.html").Funcs(htmlTemplateFuncs).ParseFS(reportTemplateFS, htmlTemplatePath),
	)
	markdownReportTemplate = texttemplate.Must(
		texttemplate.New("report.md").Funcs(markdownTemplateFuncs).ParseFS(reportTemplateFS, markdownTemplatePath),
	)
)

type templateExecutor interface {
	Execute(w io.Writer, data any) error
	Name() string
}

func executeTemplate(tmpl templateExecutor, doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to execute %s template: %w", tmpl.Name(), err)
	}
	return buf.Bytes(), nil
}

type htmlRenderer struct{}

func (htmlRenderer) Extension() string { return "html" }

func (htmlRenderer) Render(doc Document) ([]byte, error) {
	return executeTemplate(htmlReportTemplate, doc)
}

type markdownRenderer struct{}

func (markdownRenderer) Extension() string { return "md" }

func (markdownRenderer) Render(doc Document) ([]byte, error) {
	return executeTemplate(markdownReportTemplate, doc)
}

func addInts(a, b int) int {
	return a + b
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC1123)
}

// markdownCell escapes a value for a GitHub-flavoured table cell.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func markdownRow(values []string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = markdownCell(v)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

func markdownRule(headers []string) string {
	return "|" + strings.Repeat(" --- |", len(headers))
}
