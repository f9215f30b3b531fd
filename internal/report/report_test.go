package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanhnv2901/hapi-cli/internal/checker"
	"github.com/khanhnv2901/hapi-cli/internal/compliance"
	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
)

func sampleDocument() Document {
	return Document{
		APITitle:    "Swagger Petstore",
		Target:      "https://petstore.example.com/v2",
		GeneratedAt: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
		ToolVersion: "1.0.0",
		Seed:        42,
		Modules: []checker.Section{
			{
				Module:                "CORS Security",
				DescriptionParagraphs: []string{"Checks <script> origins & credentials."},
				References:            []checker.Reference{{Title: "PortSwigger: CORS", URL: "https://portswigger.net/web-security/cors"}},
				RemediationParagraphs: []string{"Allow trusted origins only."},
				VerificationCommands:  []string{"curl -k -I -H 'Origin: https://evil.com' https://host/api"},
				Table: checker.Table{
					Headers: []string{"Endpoint", "Tested Origin", "Test Result"},
					Rows: []checker.Row{
						{"/pet", "https://evil.com", "ACAO reflects Origin and ACAC: true (High Risk)"},
						{"/pet|x", "null"},
					},
				},
				Status: checker.StatusCompleted,
			},
			{
				Module: "HTTP Basic Authentication",
				Table: checker.Table{
					Headers: []string{"Endpoint", "Response Code without Basic Auth", "Test Result"},
					Rows:    []checker.Row{{"/admin", 401, "Supports Basic Auth"}},
				},
			},
			checker.FailedSection("Rate Limiting", errors.New(`endpoint "/logn" not found in schema, did you mean "/login"?`)),
		},
		Compliance: compliance.ForChecks([]string{"cors", "basic_auth", "rate_limiting"}),
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range []string{"html", "HTML", " json ", "md", "markdown", "pdf"} {
		_, err := ParseFormat(name)
		assert.NoError(t, err, name)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
	assert.Equal(t, []string{"html", "json", "md", "pdf"}, Formats())
}

func TestJSONRendererContract(t *testing.T) {
	r, err := NewRenderer(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "json", r.Extension())

	out, err := r.Render(sampleDocument())
	require.NoError(t, err)

	var decoded struct {
		APITitle string `json:"api_title"`
		Target   string `json:"target"`
		Seed     uint64 `json:"seed"`
		Modules  []struct {
			Module                string   `json:"module"`
			DescriptionParagraphs []string `json:"description_paragraphs"`
			References            []struct {
				Title string `json:"title"`
				URL   string `json:"url"`
			} `json:"references"`
			RemediationParagraphs []string `json:"remediation_paragraphs"`
			VerificationCommands  []string `json:"verification_commands"`
			Table                 struct {
				Headers []string `json:"headers"`
				Rows    [][]any  `json:"rows"`
			} `json:"table"`
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"modules"`
	}
	require.NoError(t, json.Unmarshal(out, &decoded))

	assert.Equal(t, "Swagger Petstore", decoded.APITitle)
	assert.Equal(t, uint64(42), decoded.Seed)
	require.Len(t, decoded.Modules, 3)
	assert.Equal(t, "CORS Security", decoded.Modules[0].Module)
	assert.Equal(t, []any{"/pet", "https://evil.com", "ACAO reflects Origin and ACAC: true (High Risk)"}, decoded.Modules[0].Table.Rows[0])
	assert.Equal(t, []any{"/admin", float64(401), "Supports Basic Auth"}, decoded.Modules[1].Table.Rows[0])
	assert.Equal(t, "failed", decoded.Modules[2].Status)
	assert.Contains(t, decoded.Modules[2].Error, "did you mean")

	var withCompliance struct {
		Compliance []struct {
			Check      string              `json:"check"`
			Frameworks map[string][]string `json:"frameworks"`
			Priority   string              `json:"priority"`
		} `json:"compliance"`
	}
	require.NoError(t, json.Unmarshal(out, &withCompliance))
	require.Len(t, withCompliance.Compliance, 3)
	assert.Equal(t, "cors", withCompliance.Compliance[0].Check)
	assert.Equal(t, []string{"API4:2023"}, withCompliance.Compliance[2].Frameworks[compliance.FrameworkOWASPAPI])
}

func TestComplianceTable(t *testing.T) {
	table := sampleDocument().ComplianceTable()
	assert.Equal(t, []string{"Check", "Priority", "OWASP API Security Top 10 (2023)", "OWASP ASVS 4.0.3", "MITRE CWE"}, table.Headers)
	require.Len(t, table.Rows, 3)
	assert.Equal(t, checker.Row{"basic_auth", "High", "API2:2023", "V2.5.4", "CWE-522, CWE-1392"}, table.Rows[1])

	assert.Empty(t, Document{}.ComplianceTable().Rows)
}

func TestJSONRendererEmptyModules(t *testing.T) {
	out, err := jsonRenderer{}.Render(Document{APITitle: "API"})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"modules": []`)
	assert.NotContains(t, string(out), `"compliance"`)
}

func TestHTMLRendererEscapesAndRendersPositionally(t *testing.T) {
	out, err := htmlRenderer{}.Render(sampleDocument())
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<title>Swagger Petstore - hAPI Security Report</title>")
	assert.Contains(t, html, "Checks &lt;script&gt; origins &amp; credentials.")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `<th>Tested Origin</th>`)
	assert.Contains(t, html, `<td class="fail">ACAO reflects Origin and ACAC: true (High Risk)</td>`)
	assert.Contains(t, html, `<td class="">401</td>`)
	assert.Contains(t, html, "This module failed:")

	// Short rows are padded rather than shifted.
	assert.Contains(t, html, `<td class="">null</td><td class=""></td>`)
	assert.Contains(t, html, "<h2>Compliance Mapping</h2>")
	assert.Contains(t, html, "<td>API4:2023</td>")
}

func TestMarkdownRenderer(t *testing.T) {
	out, err := markdownRenderer{}.Render(sampleDocument())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Swagger Petstore - Security Assessment"))
	assert.Contains(t, md, "## CORS Security")
	assert.Contains(t, md, "| Endpoint | Tested Origin | Test Result |")
	assert.Contains(t, md, "| --- | --- | --- |")
	assert.Contains(t, md, `| /pet\|x | null |  |`)
	assert.Contains(t, md, "- [PortSwigger: CORS](https://portswigger.net/web-security/cors)")
	assert.Contains(t, md, "> **Failed:**")
	assert.Contains(t, md, "## Compliance Mapping")
	assert.Contains(t, md, "| cors | High | API8:2023 | V14.5.3 | CWE-942 |")
}

func TestPDFRenderer(t *testing.T) {
	out, err := pdfRenderer{}.Render(sampleDocument())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "%PDF-"))

	out, err = pdfRenderer{}.Render(Document{APITitle: "Empty"})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", Cell(nil))
	assert.Equal(t, "a, b", Cell([]string{"a", "b"}))
	assert.Equal(t, "401", Cell(401))
	assert.Equal(t, "1.5", Cell(1.5))
	assert.Equal(t, 3, len(cells(checker.Row{"x"}, 3)))
	assert.Equal(t, 2, len(cells(checker.Row{"x", "y"}, 1)))
}

func TestSaveVersionsInsteadOfOverwriting(t *testing.T) {
	dir := t.TempDir()

	first, err := Save(dir, "Swagger Petstore", "html", []byte("one"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Swagger_Petstore_hAPI_report.html"), first)

	second, err := Save(dir, "Swagger Petstore", "html", []byte("two"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Swagger_Petstore_hAPI_report(1).html"), second)

	third, err := Save(dir, "Swagger Petstore", "html", []byte("three"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Swagger_Petstore_hAPI_report(2).html"), third)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestSaveSanitizesTitle(t *testing.T) {
	dir := t.TempDir()

	path, err := Save(dir, "../../etc/passwd", "json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Equal(t, "etcpasswd_hAPI_report.json", filepath.Base(path))

	path, err = Save(dir, "   ", "json", []byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, "API_hAPI_report.json", filepath.Base(path))
}

func TestSaveFailureIsOutputWriteError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := Save(filepath.Join(blocker, "sub"), "API", "json", []byte("{}"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrOutputWrite))
	var werr *WriteError
	assert.True(t, errors.As(err, &werr))
}
