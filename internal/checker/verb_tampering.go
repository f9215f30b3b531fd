package checker

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// VerbTamperingName is the registry key of the verb tampering check.
const VerbTamperingName = "verb_tampering"

const unsupportedVerbStatus = "405"

// DefaultVerbWordlist is sent to every schema path when no wordlist file is
// configured.
var DefaultVerbWordlist = []string{
	"OPTIONS", "GET", "HEAD", "POST", "PUT", "DELETE", "TRACE", "TRACK", "DEBUG", "PURGE",
	"CONNECT", "PROPFIND", "PROPPATCH", "MKCOL", "COPY", "MOVE", "LOCK", "UNLOCK", "PATCH",
	"SEARCH", "BIND", "LINK", "MKCALENDAR", "REBIND", "UNBIND", "UNLINK", "QUERY",
}

// Verdicts shared by the pass/fail style checks.
const (
	VerdictPass  = "PASS"
	VerdictFail  = "FAIL"
	VerdictError = "ERROR"
)

// VerbTamperingConfig configures the verb tampering check.
type VerbTamperingConfig struct {
	Wordlist string `option:"wordlist"`
}

func (VerbTamperingConfig) CheckName() string { return VerbTamperingName }

func init() {
	MustRegister(Descriptor{
		Name:       VerbTamperingName,
		Title:      "HTTP Verb Tampering",
		Summary:    "Send every verb of a wordlist to every schema path and compare against declared responses",
		FlagPrefix: "vt",
		Options: []OptionSpec{
			{Name: "wordlist", Type: OptionString, Help: "Path to a custom wordlist of HTTP verbs, one per line"},
		},
		Decode: decodeOptions[VerbTamperingConfig],
		New:    newFactory(newVerbTampering),
	})
}

type verbTampering struct {
	env      Env
	verbs    []string
	warnings []string
}

func newVerbTampering(env Env, cfg VerbTamperingConfig) (Check, error) {
	c := &verbTampering{env: env, verbs: DefaultVerbWordlist}
	if cfg.Wordlist == "" {
		return c, nil
	}

	verbs, err := LoadVerbWordlist(cfg.Wordlist)
	switch {
	case err != nil:
		c.warn(fmt.Sprintf("Wordlist file %q could not be read (%v). The default verbs were used.", cfg.Wordlist, err))
	case len(verbs) == 0:
		c.warn(fmt.Sprintf("Wordlist file %q contains no verbs. The default verbs were used.", cfg.Wordlist))
	default:
		c.verbs = verbs
	}
	return c, nil
}

func (c *verbTampering) warn(msg string) {
	c.env.Logger.Warnw("verb tampering wordlist ignored", "reason", msg)
	c.warnings = append(c.warnings, msg)
}

// LoadVerbWordlist reads one verb per line, upper-casing each and skipping
// blank lines.
func LoadVerbWordlist(path string) ([]string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied wordlist
	if err != nil {
		return nil, err
	}
	var verbs []string
	for _, line := range strings.Split(string(data), "\n") {
		if verb := strings.ToUpper(strings.TrimSpace(line)); verb != "" {
			verbs = append(verbs, verb)
		}
	}
	return verbs, nil
}

// ExpectedStatusCodes returns the codes the schema declares for (path, verb),
// or 405 when the verb is not declared for the path.
func ExpectedStatusCodes(env Env, path, verb string) []string {
	if codes, ok := env.Index.ResponseCodes(path, verb); ok {
		return codes
	}
	return []string{unsupportedVerbStatus}
}

func verdict(actual int, expected []string) string {
	code := strconv.Itoa(actual)
	for _, want := range expected {
		if want == code {
			return VerdictPass
		}
	}
	return VerdictFail
}

func (c *verbTampering) Run(ctx context.Context) (Result, error) {
	paths := c.env.Index.Paths()
	if len(paths) == 0 {
		c.warnings = append(c.warnings, noEndpointsWarning)
		return Result{}, nil
	}

	result := make(Result, 0, len(paths)*len(c.verbs))
	for _, path := range paths {
		for _, verb := range c.verbs {
			expected := ExpectedStatusCodes(c.env, path, verb)
			row := Row{path, verb, strings.Join(expected, ", ")}

			resp, err := send(ctx, c.env.Sender, transport.Request{Method: verb, Path: path})
			if err != nil {
				if ctx.Err() != nil {
					return result, ctx.Err()
				}
				c.env.Logger.Debugw("verb tampering request failed", "path", path, "verb", verb, "error", err)
				result = append(result, append(row, "Request Failed", VerdictError))
				continue
			}
			result = append(result, append(row, strconv.Itoa(resp.StatusCode), verdict(resp.StatusCode, expected)))
		}
	}
	return result, nil
}

func (c *verbTampering) Format(result Result) Section {
	s := newSection("HTTP Verb Tampering",
		[]string{"Path", "Verb", "Expected Response Code", "Actual Response Code", "Test Result"}, result)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs,
		"Checks how the API responds to different HTTP verbs. Each verb of the wordlist is sent to every path declared in the OpenAPI schema.",
		"A verb the schema declares for a path is expected to return one of its documented response codes. Any other verb is expected to be rejected with 405 Method Not Allowed.",
	)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs, c.warnings...)
	s.References = []Reference{
		{Title: "OWASP WSTG: Test HTTP Methods", URL: "https://owasp.org/www-project-web-security-testing-guide/latest/4-Web_Application_Security_Testing/02-Configuration_and_Deployment_Management_Testing/06-Test_HTTP_Methods"},
		{Title: "MDN Web Docs: HTTP request methods", URL: "https://developer.mozilla.org/en-US/docs/Web/HTTP/Methods"},
	}
	s.RemediationParagraphs = []string{
		"Only enable the HTTP methods each endpoint needs and answer every other method with 405 Method Not Allowed.",
		"Disable debugging and WebDAV methods such as TRACE, TRACK, DEBUG and PROPFIND on production servers and proxies.",
	}
	s.VerificationCommands = []string{
		"curl -k -i -X TRACE https://<DOMAIN NAME/IP ADDRESS>/api/v1/example",
	}
	return s
}
