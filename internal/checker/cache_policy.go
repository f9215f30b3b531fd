package checker

import (
	"fmt"
	"net/http"
	"strings"
)

// CachePolicy summarizes the caching headers of an API response.
type CachePolicy struct {
	Endpoint     string
	CacheControl string
	Expires      string
	Pragma       string
	Issues       []string
}

// AnalyzeCachePolicy extracts cache headers and flags responses that shared
// caches or browsers may store.
func AnalyzeCachePolicy(endpoint string, h http.Header) *CachePolicy {
	if h == nil {
		return nil
	}

	policy := &CachePolicy{
		Endpoint:     endpoint,
		CacheControl: h.Get("Cache-Control"),
		Expires:      h.Get("Expires"),
		Pragma:       h.Get("Pragma"),
	}

	cc := strings.ToLower(policy.CacheControl)
	switch {
	case policy.CacheControl == "" && policy.Expires == "":
		policy.Issues = append(policy.Issues, "No caching headers (Cache-Control/Expires) present")
	case policy.CacheControl == "":
		policy.Issues = append(policy.Issues, "Cache-Control header missing")
	case !strings.Contains(cc, "no-store") && !strings.Contains(cc, "private"):
		if strings.Contains(cc, "public") {
			policy.Issues = append(policy.Issues, "Cache-Control allows shared caches to store the response (public)")
		} else if !strings.Contains(cc, "max-age") && !strings.Contains(cc, "no-cache") {
			policy.Issues = append(policy.Issues, "Cache-Control lacks explicit no-store/no-cache/max-age directives")
		}
	}

	if strings.EqualFold(policy.Pragma, "no-cache") && policy.CacheControl == "" {
		policy.Issues = append(policy.Issues, "Only the legacy Pragma: no-cache directive is set")
	}
	return policy
}

// Summary renders the policy as a report paragraph, or "" when there is
// nothing to report.
func (p *CachePolicy) Summary() string {
	if p == nil || len(p.Issues) == 0 {
		return ""
	}
	return fmt.Sprintf("Caching policy of %s: %s. Responses carrying user data should send 'Cache-Control: no-store'.",
		p.Endpoint, strings.Join(p.Issues, "; "))
}
