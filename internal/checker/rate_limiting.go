package checker

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/khanhnv2901/hapi-cli/internal/shared/errors"
	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

// RateLimitingName is the registry key of the rate limiting check.
const RateLimitingName = "rate_limiting"

// Rate limiting conclusions.
const (
	RateLimitHeadersDetected  = "Rate limiting detected (rate limit headers present)"
	RateLimitStatusDetected   = "Rate limiting detected (throttling status codes observed)"
	RateLimitStrongThrottling = "Possible throttling (>50% response time increase between batches)"
	RateLimitWeakThrottling   = "Possible throttling (small response time increase, possible false positive)"
	RateLimitNoSignal         = "No clear rate limiting signal"
	RateLimitInsufficientData = "Insufficient data"
)

const (
	defaultRateLimitThreshold = 100
	minRateLimitThreshold     = 3
	rateLimitBatches          = 3
	throttlingFactor          = 1.5
)

var (
	sensitiveMarkers = []string{"/auth", "/login", "/token", "/access-token"}
	rateLimitHeaders = []string{"Retry-After", "X-RateLimit-Remaining"}
	throttlingCodes  = map[int]struct{}{
		http.StatusTooManyRequests:    {},
		http.StatusForbidden:          {},
		http.StatusServiceUnavailable: {},
	}
)

// RateLimitingConfig configures the rate limiting check.
type RateLimitingConfig struct {
	Endpoints []string `option:"endpoints"`
	Threshold int      `option:"threshold"`
}

func (RateLimitingConfig) CheckName() string { return RateLimitingName }

// Validate rejects thresholds too small to split into batches.
func (c RateLimitingConfig) Validate() error {
	if c.Threshold < minRateLimitThreshold {
		return fmt.Errorf("%w: threshold must be at least %d, got %d", apperrors.ErrInvalidOption, minRateLimitThreshold, c.Threshold)
	}
	return nil
}

func init() {
	MustRegister(Descriptor{
		Name:       RateLimitingName,
		Title:      "Rate Limiting",
		Summary:    "Send bursts of sequential requests to sensitive endpoints and look for rate limiting signals",
		FlagPrefix: "rl",
		Options: []OptionSpec{
			{Name: "endpoints", Type: OptionStringSlice, Help: "Comma-separated list of schema endpoints (default: sensitive paths plus one baseline)"},
			{Name: "threshold", Type: OptionInt, Default: defaultRateLimitThreshold, Help: "Number of requests to send to each endpoint"},
		},
		Decode: decodeOptions[RateLimitingConfig],
		New:    newFactory(newRateLimiting),
	})
}

type rateLimiting struct {
	env      Env
	cfg      RateLimitingConfig
	warnings []string
}

func newRateLimiting(env Env, cfg RateLimitingConfig) (Check, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &rateLimiting{env: env, cfg: cfg}, nil
}

// IsSensitiveEndpoint reports whether path looks like an authentication or
// token endpoint.
func IsSensitiveEndpoint(path string) bool {
	lower := strings.ToLower(path)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// BatchAverages splits timings into three equal sequential batches and
// averages each. Trailing samples that do not fill a batch are ignored.
func BatchAverages(timings []float64) []float64 {
	size := len(timings) / rateLimitBatches
	if size == 0 {
		return nil
	}
	averages := make([]float64, 0, rateLimitBatches)
	for b := 0; b < rateLimitBatches; b++ {
		var sum float64
		for _, t := range timings[b*size : (b+1)*size] {
			sum += t
		}
		averages = append(averages, sum/float64(size))
	}
	return averages
}

// ClassifyRateLimiting turns the observed signals into a heuristic verdict.
func ClassifyRateLimiting(headers []string, codes []int, averages []float64) string {
	switch {
	case len(headers) > 0:
		return RateLimitHeadersDetected
	case len(codes) > 0:
		return RateLimitStatusDetected
	case len(averages) < rateLimitBatches:
		return RateLimitInsufficientData
	}

	b1, b2, b3 := averages[0], averages[1], averages[2]
	switch {
	case b2 > b1*throttlingFactor && b3 > b2*throttlingFactor:
		return RateLimitStrongThrottling
	case b2 > b1 && b3 > b2:
		return RateLimitWeakThrottling
	default:
		return RateLimitNoSignal
	}
}

type rateLimitTarget struct {
	path string
	role string
}

// targets resolves explicit endpoints against the schema, or picks the
// sensitive paths plus one random baseline.
func (c *rateLimiting) targets() ([]rateLimitTarget, error) {
	if explicit := cleanEndpoints(c.cfg.Endpoints); len(explicit) > 0 {
		out := make([]rateLimitTarget, 0, len(explicit))
		for _, endpoint := range explicit {
			path, err := resolveSchemaEndpoint(c.env.Index, endpoint)
			if err != nil {
				return nil, err
			}
			out = append(out, rateLimitTarget{path: path, role: "Requested"})
		}
		return out, nil
	}

	var out []rateLimitTarget
	var baseline []string
	for _, path := range c.env.Index.Paths() {
		if IsSensitiveEndpoint(path) {
			out = append(out, rateLimitTarget{path: path, role: "Sensitive"})
		} else {
			baseline = append(baseline, path)
		}
	}
	if len(baseline) > 0 {
		out = append(out, rateLimitTarget{path: baseline[c.env.Rand.IntN(len(baseline))], role: "Baseline"})
	}
	return out, nil
}

func (c *rateLimiting) verb(path string) string {
	if verbs := c.env.Index.Verbs(path); len(verbs) > 0 {
		return strings.ToUpper(verbs[0])
	}
	return http.MethodGet
}

func (c *rateLimiting) Run(ctx context.Context) (Result, error) {
	targets, err := c.targets()
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		c.warnings = append(c.warnings, noEndpointsWarning)
		return Result{}, nil
	}

	var result Result
	for _, target := range targets {
		row, err := c.measure(ctx, target)
		if err != nil {
			return result, err
		}
		result = append(result, row)
	}
	return result, nil
}

func (c *rateLimiting) measure(ctx context.Context, target rateLimitTarget) (Row, error) {
	verb := c.verb(target.path)
	timings := make([]float64, 0, c.cfg.Threshold)
	seenHeaders := map[string]struct{}{}
	seenCodes := map[int]struct{}{}
	failed := 0

	c.env.Logger.Debugw("rate limiting burst", "endpoint", target.path, "verb", verb, "requests", c.cfg.Threshold)
	for i := 0; i < c.cfg.Threshold; i++ {
		resp, err := send(ctx, c.env.Sender, transport.Request{Method: verb, Path: target.path})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			continue
		}
		timings = append(timings, float64(resp.Elapsed)/float64(time.Millisecond))
		for _, h := range rateLimitHeaders {
			if resp.Header.Get(h) != "" {
				seenHeaders[h] = struct{}{}
			}
		}
		if _, ok := throttlingCodes[resp.StatusCode]; ok {
			seenCodes[resp.StatusCode] = struct{}{}
		}
	}
	if failed > 0 {
		c.warnings = append(c.warnings, fmt.Sprintf("%d of %d requests to %s failed and were excluded from the timing batches.", failed, c.cfg.Threshold, target.path))
	}

	headers := sortedKeys(seenHeaders)
	codes := make([]int, 0, len(seenCodes))
	for code := range seenCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	averages := BatchAverages(timings)

	return Row{
		target.path,
		verb,
		target.role,
		len(timings),
		formatAverages(averages),
		joinOrNone(headers),
		joinOrNone(intsToStrings(codes)),
		ClassifyRateLimiting(headers, codes, averages),
	}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func intsToStrings(values []int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strconv.Itoa(v))
	}
	return out
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

func formatAverages(averages []float64) string {
	if len(averages) == 0 {
		return "N/A"
	}
	parts := make([]string, 0, len(averages))
	for _, avg := range averages {
		parts = append(parts, strconv.FormatFloat(avg, 'f', 1, 64))
	}
	return strings.Join(parts, " / ")
}

func (c *rateLimiting) Format(result Result) Section {
	s := newSection("Rate Limiting", []string{
		"Endpoint",
		"Verb",
		"Role",
		"Responses Received",
		"Batch Average Response Time (ms)",
		"Rate Limit Headers",
		"Throttling Status Codes",
		"Conclusion",
	}, result)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs,
		"Tests whether the API applies rate limiting. Authentication and token endpoints are targeted first, together with one ordinary endpoint as a baseline.",
		fmt.Sprintf("Each endpoint receives %d sequential requests. Rate limit headers (Retry-After, X-RateLimit-Remaining) and throttling status codes (429, 403, 503) are recorded, and response times are averaged over three equal batches.", c.cfg.Threshold),
		"A steady rise in response times between batches suggests throttling. This is a heuristic and may be caused by ordinary server load.",
	)
	s.DescriptionParagraphs = append(s.DescriptionParagraphs, c.warnings...)
	s.References = []Reference{
		{Title: "OWASP API4:2023 Unrestricted Resource Consumption", URL: "https://owasp.org/API-Security/editions/2023/en/0xa4-unrestricted-resource-consumption/"},
		{Title: "MDN Web Docs: 429 Too Many Requests", URL: "https://developer.mozilla.org/en-US/docs/Web/HTTP/Status/429"},
	}
	s.RemediationParagraphs = []string{
		"Apply rate limits per client and per endpoint, with stricter limits on authentication and token endpoints.",
		"Answer throttled requests with 429 Too Many Requests and a Retry-After header so well-behaved clients can back off.",
	}
	s.VerificationCommands = []string{
		"for i in $(seq 1 100); do curl -k -s -o /dev/null -w '%{http_code}\\n' https://<DOMAIN NAME/IP ADDRESS>/api/v1/login; done",
	}
	return s
}
