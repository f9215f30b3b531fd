package checker

import (
	"context"
	"net/http"

	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// BasicAuthName is the registry key of the basic authentication check.
const BasicAuthName = "basic_auth"

// Basic auth classifications.
const (
	BasicAuthSupported    = "Supports Basic Auth"
	BasicAuthNotDetected  = "No Basic Auth Detected"
	basicAuthNotTested    = "Not Tested"
	basicAuthSampleSize   = 5
	basicAuthTestUsername = "testuser"
	basicAuthTestPassword = "testpass"
)

// BasicAuthConfig configures the basic authentication check.
type BasicAuthConfig struct {
	Endpoints []string `option:"endpoints"`
	Username  string   `option:"username"`
	Password  string   `option:"password"`
}

func (BasicAuthConfig) CheckName() string { return BasicAuthName }

// HasCredentials reports whether real credentials were supplied.
func (c BasicAuthConfig) HasCredentials() bool {
	return c.Username != "" && c.Password != ""
}

func init() {
	MustRegister(Descriptor{
		Name:       BasicAuthName,
		Title:      "HTTP Basic Authentication",
		Summary:    "Detect HTTP Basic authentication and weak default credentials",
		FlagPrefix: "ba",
		Options: []OptionSpec{
			{Name: "endpoints", Type: OptionStringSlice, Help: "Comma-separated list of target endpoints (default: 5 random schema paths)"},
			{Name: "username", Type: OptionString, Help: "Valid username for basic authentication testing"},
			{Name: "password", Type: OptionString, Help: "Valid password for basic authentication testing"},
		},
		Decode: decodeOptions[BasicAuthConfig],
		New:    newFactory(newBasicAuth),
	})
}

type basicAuth struct {
	env             Env
	cfg             BasicAuthConfig
	weakCredentials bool
	warnings        []string
}

func newBasicAuth(env Env, cfg BasicAuthConfig) (Check, error) {
	return &basicAuth{env: env, cfg: cfg}, nil
}

// ClassifyBasicAuth decides whether an endpoint supports basic auth from
// the unauthenticated and test-credential responses.
func ClassifyBasicAuth(noAuthStatus, testStatus int, challenge string) string {
	if challenge != "" && challenge != headerNotPresent {
		return BasicAuthSupported
	}
	if noAuthStatus != testStatus {
		return BasicAuthSupported
	}
	return BasicAuthNotDetected
}

// WeakCredentials reports whether the test credentials were accepted while
// the real credentials were rejected.
func WeakCredentials(testStatus, realStatus int) bool {
	return testStatus < 400 && realStatus >= 400
}

func (c *basicAuth) get(ctx context.Context, endpoint string, auth *transport.BasicAuth) (*transport.Response, error) {
	return send(ctx, c.env.Sender, transport.Request{Method: http.MethodGet, Path: endpoint, Auth: auth})
}

func (c *basicAuth) Run(ctx context.Context) (Result, error) {
	endpoints := selectEndpoints(c.env, c.cfg.Endpoints, basicAuthSampleSize)
	if len(endpoints) == 0 {
		c.warnings = append(c.warnings, noEndpointsWarning)
		return Result{}, nil
	}

	var result Result
	for _, endpoint := range endpoints {
		row, err := c.probe(ctx, endpoint)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			c.env.Logger.Debugw("basic auth request failed", "endpoint", endpoint, "error", err)
			row = Row{endpoint, "Request Failed", "Request Failed", basicAuthNotTested, headerNotPresent, VerdictError}
		}
		result = append(result, row)
	}
	return result, nil
}

func (c *basicAuth) probe(ctx context.Context, endpoint string) (Row, error) {
	noAuth, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	challenge := headerOrNotPresent(noAuth.Header, "WWW-Authenticate")

	test, err := c.get(ctx, endpoint, &transport.BasicAuth{Username: basicAuthTestUsername, Password: basicAuthTestPassword})
	if err != nil {
		return nil, err
	}

	var realStatus any = basicAuthNotTested
	if c.cfg.HasCredentials() {
		resp, err := c.get(ctx, endpoint, &transport.BasicAuth{Username: c.cfg.Username, Password: c.cfg.Password})
		if err != nil {
			return nil, err
		}
		realStatus = resp.StatusCode
		if WeakCredentials(test.StatusCode, resp.StatusCode) {
			c.weakCredentials = true
		}
	}

	return Row{
		endpoint,
		noAuth.StatusCode,
		test.StatusCode,
		realStatus,
		challenge,
		ClassifyBasicAuth(noAuth.StatusCode, test.StatusCode, challenge),
	}, nil
}

func (c *basicAuth) Format(result Result) Section {
	s := newSection("HTTP Basic Authentication", []string{
		"Endpoint",
		"Response Code without Basic Auth",
		"Response Code with Test Credentials",
		"Response Code with Real Credentials",
		"WWW-Authenticate Header",
		"Test Result",
	}, result)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs,
		"HTTP Basic Authentication transmits the username and password in the Authorization header as a Base64-encoded string, which exposes it to several attacks.",
		"Over plain HTTP the credentials can be captured by anyone on the network path. There is no challenge-response mechanism, so a captured request can be replayed. Browsers and clients may also store the credentials persistently.",
		"This authentication method is outdated and should be replaced with more secure alternatives.",
	)
	if !c.cfg.HasCredentials() {
		s.DescriptionParagraphs = append(s.DescriptionParagraphs,
			"If your API supports password-based authentication, rerun this test with --ba-username and --ba-password for more accurate results. If it uses keys instead, you can disregard this message.")
	}
	if c.weakCredentials {
		s.DescriptionParagraphs = append(s.DescriptionParagraphs,
			"Warning: the API accepted the default test credentials (testuser:testpass) but rejected the provided valid credentials. This may indicate weak default credentials or a misconfiguration.")
	}
	s.DescriptionParagraphs = append(s.DescriptionParagraphs, c.warnings...)
	s.References = []Reference{
		{Title: "PortSwigger: Basic Authentication", URL: "https://portswigger.net/web-security/authentication/password-based#http-basic-authentication"},
		{Title: "MDN Web Docs: HTTP authentication", URL: "https://developer.mozilla.org/en-US/docs/Web/HTTP/Authentication"},
	}
	s.RemediationParagraphs = []string{
		"Migrate to more secure authentication methods such as OAuth 2.0, API tokens, JWTs or mutual TLS. If password-based authentication is required, use a modern mechanism such as OpenID Connect.",
		"Enforce HTTPS: if Basic Auth must be used, never transmit credentials over plain HTTP.",
	}
	s.VerificationCommands = []string{
		"curl -k -u username:password https://<DOMAIN NAME/IP ADDRESS>/api/v1/example",
	}
	return s
}
