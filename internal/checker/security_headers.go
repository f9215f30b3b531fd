package checker

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// SecurityHeadersName is the registry key of the common security headers check.
const SecurityHeadersName = "common_security_headers"

// HeaderExpectation states whether a header should be present.
type HeaderExpectation struct {
	Header  string
	Present bool
}

// ExpectedHeaders is the fixed expectation table, in report order.
var ExpectedHeaders = []HeaderExpectation{
	{Header: "Strict-Transport-Security", Present: true},
	{Header: "X-Content-Type-Options", Present: true},
	{Header: "Server", Present: false},
	{Header: "X-Powered-By", Present: false},
}

// SecurityHeadersConfig configures the common security headers check.
type SecurityHeadersConfig struct {
	Endpoints []string `option:"endpoints"`
}

func (SecurityHeadersConfig) CheckName() string { return SecurityHeadersName }

func init() {
	MustRegister(Descriptor{
		Name:       SecurityHeadersName,
		Title:      "Common Security Headers",
		Summary:    "Check one random endpoint for required and information-leaking response headers",
		FlagPrefix: "csh",
		Options: []OptionSpec{
			{Name: "endpoints", Type: OptionStringSlice, Help: "Comma-separated list of endpoints to pick from (default: all schema paths)"},
		},
		Decode: decodeOptions[SecurityHeadersConfig],
		New:    newFactory(newSecurityHeaders),
	})
}

type securityHeaders struct {
	env      Env
	cfg      SecurityHeadersConfig
	warnings []string
	cache    *CachePolicy
}

func newSecurityHeaders(env Env, cfg SecurityHeadersConfig) (Check, error) {
	return &securityHeaders{env: env, cfg: cfg}, nil
}

// EvaluateHeaders grades headers against ExpectedHeaders. Each row is
// endpoint, header, presence, value, verdict and notes.
func EvaluateHeaders(endpoint string, headers http.Header) Result {
	result := make(Result, 0, len(ExpectedHeaders))
	for _, exp := range ExpectedHeaders {
		values := headers.Values(exp.Header)
		present := len(values) > 0
		value := "N/A"
		if present {
			value = strings.Join(values, ", ")
		}
		v := VerdictFail
		if present == exp.Present {
			v = VerdictPass
		}
		result = append(result, Row{endpoint, exp.Header, yesNo(present), value, v, headerNotes(exp, present, value)})
	}
	return result
}

func headerNotes(exp HeaderExpectation, present bool, value string) string {
	switch {
	case !present && exp.Present:
		return "Header missing"
	case !present:
		return ""
	case !exp.Present:
		return fmt.Sprintf("%s header exposes server information. Consider removing or obfuscating it.", exp.Header)
	}

	var issues []string
	switch exp.Header {
	case "Strict-Transport-Security":
		issues = hstsIssues(value)
	case "X-Content-Type-Options":
		issues = contentTypeOptionsIssues(value)
	}
	return strings.Join(issues, "; ")
}

// hstsIssues validates the Strict-Transport-Security directives.
func hstsIssues(value string) []string {
	var issues []string
	value = strings.ToLower(value)

	if !strings.Contains(value, "max-age=") {
		issues = append(issues, "Missing 'max-age' directive")
	} else if strings.Contains(value, "max-age=0") {
		issues = append(issues, "max-age is set to 0 (HSTS disabled)")
	} else if !strings.Contains(value, "max-age=31536000") && !strings.Contains(value, "max-age=63072000") {
		issues = append(issues, "Consider increasing max-age to at least 31536000 (1 year)")
	}

	if !strings.Contains(value, "includesubdomains") {
		issues = append(issues, "Missing 'includeSubDomains' directive")
	}
	return issues
}

func contentTypeOptionsIssues(value string) []string {
	if strings.EqualFold(strings.TrimSpace(value), "nosniff") {
		return nil
	}
	return []string{"Invalid value, should be 'nosniff'"}
}

func (c *securityHeaders) Run(ctx context.Context) (Result, error) {
	candidates := cleanEndpoints(c.cfg.Endpoints)
	if len(candidates) == 0 {
		candidates = c.env.Index.Paths()
	}
	if len(candidates) == 0 {
		c.warnings = append(c.warnings, noEndpointsWarning)
		return Result{}, nil
	}

	endpoint := candidates[c.env.Rand.IntN(len(candidates))]
	resp, err := send(ctx, c.env.Sender, transport.Request{Method: http.MethodGet, Path: endpoint})
	if err != nil {
		return nil, fmt.Errorf("endpoint %s: %w", endpoint, err)
	}
	c.cache = AnalyzeCachePolicy(endpoint, resp.Header)
	return EvaluateHeaders(endpoint, resp.Header), nil
}

func (c *securityHeaders) Format(result Result) Section {
	s := newSection("Common Security Headers",
		[]string{"Endpoint", "Header", "Is Present?", "Header Value", "Test Result", "Notes"}, result)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs,
		"This module checks for common HTTP security headers used in REST APIs.",
		"HTTP Strict Transport Security (HSTS) makes browsers communicate with the site over HTTPS only, preventing protocol downgrade and man-in-the-middle attacks.",
		"X-Content-Type-Options prevents MIME-type sniffing by forcing the browser to respect the declared Content-Type, mitigating some cross-site scripting and content injection attacks.",
		"Server and X-Powered-By reveal the web server software and backend technology, which attackers can use to fingerprint the system and target known vulnerabilities.",
	)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs, c.warnings...)
	if summary := c.cache.Summary(); summary != "" {
		s.DescriptionParagraphs = append(s.DescriptionParagraphs, summary)
	}
	s.References = []Reference{
		{Title: "Mozilla Security Headers Guide", URL: "https://developer.mozilla.org/en-US/docs/Web/HTTP/Headers"},
		{Title: "HTTP security headers: An easy way to harden your web applications", URL: "https://www.invicti.com/blog/web-security/http-security-headers/"},
	}
	s.RemediationParagraphs = []string{
		"Ensure that security headers like 'Strict-Transport-Security' and 'X-Content-Type-Options' are present to enhance protection.",
		"Remove 'Server' and 'X-Powered-By' headers to prevent unnecessary exposure of technology stack information.",
	}
	s.VerificationCommands = []string{
		"curl -k -I https://<DOMAIN NAME/IP ADDRESS>/api/v1/example",
	}
	return s
}
