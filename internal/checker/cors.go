package checker

import (
	"context"
	"net/http"
	"strings"

	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// CORSName is the registry key of the CORS check.
const CORSName = "cors"

// CORS classifications, from most to least severe within each branch.
const (
	CORSReflectedWithCredentials = "ACAO reflects Origin and ACAC: true (High Risk)"
	CORSReflected                = "ACAO reflects Origin (Potential Risk)"
	CORSWildcardWithCredentials  = "ACAC: true with wildcard ACAO (Blocked by Browsers, but Bad Config)"
	CORSWildcard                 = "ACAO accepts wildcard (Potential Risk)"
	CORSNullWithCredentials      = "ACAO: null and ACAC: true (High Risk)"
	CORSNull                     = "ACAO: null (Potential Risk)"
	CORSNoMisconfiguration       = "No obvious misconfiguration"
)

const (
	headerNotPresent = "Not Present"
	corsSampleSize   = 3
)

var defaultCORSOrigins = []string{"null", "https://evil.com"}

// CORSConfig configures the CORS check.
type CORSConfig struct {
	Endpoints    []string `option:"endpoints"`
	CustomOrigin string   `option:"custom-origin"`
}

func (CORSConfig) CheckName() string { return CORSName }

// Origins returns the origins to test: the defaults plus the custom origin.
func (c CORSConfig) Origins() []string {
	origins := append([]string(nil), defaultCORSOrigins...)
	if custom := strings.TrimSpace(c.CustomOrigin); custom != "" {
		origins = append(origins, custom)
	}
	return origins
}

func init() {
	MustRegister(Descriptor{
		Name:       CORSName,
		Title:      "CORS Security",
		Summary:    "Probe endpoints with hostile Origin headers and classify the CORS response",
		FlagPrefix: "cors",
		Options: []OptionSpec{
			{Name: "endpoints", Type: OptionStringSlice, Help: "Comma-separated list of target endpoints (default: 3 random schema paths)"},
			{Name: "custom-origin", Type: OptionString, Help: "Additional origin to test against the target API"},
		},
		Decode: decodeOptions[CORSConfig],
		New:    newFactory(newCORS),
	})
}

type corsCheck struct {
	env      Env
	cfg      CORSConfig
	warnings []string
}

func newCORS(env Env, cfg CORSConfig) (Check, error) {
	return &corsCheck{env: env, cfg: cfg}, nil
}

// ClassifyCORS maps the ACAO/ACAC response headers for a tested origin to a
// risk classification. Missing headers are passed as "Not Present".
func ClassifyCORS(origin, acao, acac string) string {
	credentials := acac == "true"
	switch {
	case acao == origin:
		if credentials {
			return CORSReflectedWithCredentials
		}
		return CORSReflected
	case acao == "*":
		if credentials {
			return CORSWildcardWithCredentials
		}
		return CORSWildcard
	case acao == "null":
		if credentials {
			return CORSNullWithCredentials
		}
		return CORSNull
	default:
		return CORSNoMisconfiguration
	}
}

func headerOrNotPresent(h http.Header, name string) string {
	if values := h.Values(name); len(values) > 0 {
		return strings.Join(values, ", ")
	}
	return headerNotPresent
}

func varyIncludesOrigin(values []string) bool {
	for _, value := range values {
		for _, token := range strings.Split(value, ",") {
			if strings.EqualFold(strings.TrimSpace(token), "origin") {
				return true
			}
		}
	}
	return false
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (c *corsCheck) Run(ctx context.Context) (Result, error) {
	endpoints := selectEndpoints(c.env, c.cfg.Endpoints, corsSampleSize)
	if len(endpoints) == 0 {
		c.warnings = append(c.warnings, noEndpointsWarning)
		return Result{}, nil
	}

	origins := c.cfg.Origins()
	var result Result
	for _, endpoint := range endpoints {
		for _, origin := range origins {
			header := http.Header{}
			header.Set("Origin", origin)
			resp, err := send(ctx, c.env.Sender, transport.Request{Method: http.MethodGet, Path: endpoint, Header: header})
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				c.env.Logger.Debugw("cors request failed", "endpoint", endpoint, "origin", origin, "error", err)
				result = append(result, Row{endpoint, origin, "Request Failed", "Request Failed", "N/A", VerdictError})
				continue
			}

			acao := headerOrNotPresent(resp.Header, "Access-Control-Allow-Origin")
			acac := headerOrNotPresent(resp.Header, "Access-Control-Allow-Credentials")
			vary := yesNo(varyIncludesOrigin(resp.Header.Values("Vary")))
			result = append(result, Row{endpoint, origin, acao, acac, vary, ClassifyCORS(origin, acao, acac)})
		}
	}
	return result, nil
}

func (c *corsCheck) Format(result Result) Section {
	s := newSection("CORS Security",
		[]string{"Endpoint", "Tested Origin", "Response ACAO", "Response ACAC", "Vary: Origin", "Test Result"}, result)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs,
		"Cross-Origin Resource Sharing (CORS) controls how web applications from different origins interact with an API. A misconfigured CORS policy can allow unauthorized websites to access sensitive data on behalf of authenticated users.",
		"This module sends requests with different Origin values to check whether they are allowed. Use --cors-custom-origin to test a particular origin.",
		"ACAO is the Access-Control-Allow-Origin header and ACAC is the Access-Control-Allow-Credentials header. Responses whose ACAO varies by origin should also send Vary: Origin so caches do not serve them to other origins.",
	)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs, c.warnings...)
	s.References = []Reference{
		{Title: "Exploiting CORS - How to Pentest Cross-Origin Resource Sharing Vulnerabilities", URL: "https://www.freecodecamp.org/news/exploiting-cors-guide-to-pentesting"},
		{Title: "Tenable: Understanding Cross-Origin Resource Sharing Vulnerabilities", URL: "https://www.tenable.com/blog/understanding-cross-origin-resource-sharing-vulnerabilities"},
		{Title: "PortSwigger: CORS", URL: "https://portswigger.net/web-security/cors"},
	}
	s.RemediationParagraphs = []string{
		"Implement proper CORS headers: allow cross-origin requests only from an explicit list of trusted origins.",
		"Restrict access to sensitive data to trusted domains and protect it with authentication and authorization.",
	}
	s.VerificationCommands = []string{
		"curl -k -I -H 'Origin: https://evil.com' https://<DOMAIN NAME/IP ADDRESS>/api/v1/example",
	}
	return s
}
