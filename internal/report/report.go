// Package report assembles check sections into a report document and
// renders it as JSON, HTML, Markdown or PDF.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
	"github.com/khanhnv2901/hapi-cli/internal/compliance"
)

// Format identifies an output format.
type Format string

const (
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "md"
	FormatPDF      Format = "pdf"
)

// Document is everything a renderer needs. Modules keep the order in which
// the checks ran.
type Document struct {
	APITitle    string            `json:"api_title"`
	Target      string            `json:"target"`
	GeneratedAt time.Time         `json:"generated_at"`
	ToolVersion string            `json:"tool_version"`
	Seed        uint64            `json:"seed"`
	Modules     []checker.Section `json:"modules"`
	// Compliance maps the checks that ran to framework requirements.
	Compliance []compliance.Mapping `json:"compliance,omitempty"`
}

// ComplianceTable lays out Compliance with one column per framework.
func (d Document) ComplianceTable() checker.Table {
	frameworks := compliance.SupportedFrameworks()
	headers := []string{"Check", "Priority"}
	for _, f := range frameworks {
		headers = append(headers, f.Name)
	}

	rows := make([]checker.Row, 0, len(d.Compliance))
	for _, m := range d.Compliance {
		row := checker.Row{m.CheckName, m.Priority}
		for _, f := range frameworks {
			row = append(row, strings.Join(m.Frameworks[f.ID], ", "))
		}
		rows = append(rows, row)
	}
	return checker.Table{Headers: headers, Rows: rows}
}

// Renderer turns a Document into file content.
type Renderer interface {
	Render(doc Document) ([]byte, error)
	Extension() string
}

var renderers = map[Format]Renderer{
	FormatHTML:     htmlRenderer{},
	FormatJSON:     jsonRenderer{},
	FormatMarkdown: markdownRenderer{},
	FormatPDF:      pdfRenderer{},
}

// Formats lists the supported output formats.
func Formats() []string {
	out := make([]string, 0, len(renderers))
	for f := range renderers {
		out = append(out, string(f))
	}
	sort.Strings(out)
	return out
}

// ParseFormat accepts a format name case-insensitively; "markdown" is an
// alias of "md".
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	if f == "markdown" {
		f = FormatMarkdown
	}
	if _, ok := renderers[f]; !ok {
		return "", fmt.Errorf("unsupported report format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
	return f, nil
}

// NewRenderer returns the renderer for f.
func NewRenderer(f Format) (Renderer, error) {
	r, ok := renderers[f]
	if !ok {
		return nil, fmt.Errorf("unsupported report format %q", f)
	}
	return r, nil
}

// Cell renders one table value as text. Headers[i] labels Rows[*][i]; rows
// shorter than the header are padded by the renderers, never reshaped.
func Cell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// cells pads or keeps a row so it can be rendered under width columns.
func cells(row checker.Row, width int) []string {
	n := len(row)
	if width > n {
		n = width
	}
	out := make([]string, n)
	for i, v := range row {
		out[i] = Cell(v)
	}
	return out
}

func verdictClass(value string) string {
	v := strings.ToLower(value)
	switch {
	case v == "pass" || strings.HasPrefix(v, "no obvious") || strings.HasPrefix(v, "no basic auth"):
		return "pass"
	case v == "fail" || v == "error" || strings.Contains(v, "high risk"):
		return "fail"
	case strings.Contains(v, "risk") || strings.Contains(v, "possible") || strings.Contains(v, "bad config") || strings.HasPrefix(v, "supports basic auth"):
		return "warn"
	default:
		return ""
	}
}
