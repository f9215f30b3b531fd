package checker

import (
	"net/http"
	"strings"
	"testing"

	"github.com/khanhnv2901/hapi-cli/internal/openapi"
	"github.com/khanhnv2901/hapi-cli/internal/transport"
)

func TestAnalyzeCachePolicy(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		issue   string
	}{
		{name: "no headers", headers: nil, issue: "No caching headers"},
		{name: "expires only", headers: map[string]string{"Expires": "0"}, issue: "Cache-Control header missing"},
		{name: "public", headers: map[string]string{"Cache-Control": "public, max-age=600"}, issue: "shared caches"},
		{name: "no directives", headers: map[string]string{"Cache-Control": "must-revalidate"}, issue: "lacks explicit"},
		{name: "pragma only", headers: map[string]string{"Pragma": "no-cache"}, issue: "legacy Pragma"},
		{name: "no-store", headers: map[string]string{"Cache-Control": "no-store"}, issue: ""},
		{name: "private max-age", headers: map[string]string{"Cache-Control": "private, max-age=60"}, issue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			policy := AnalyzeCachePolicy("/pets", h)
			joined := strings.Join(policy.Issues, "; ")
			if tt.issue == "" {
				if len(policy.Issues) != 0 {
					t.Fatalf("expected no issues, got %q", joined)
				}
				if policy.Summary() != "" {
					t.Fatalf("expected empty summary, got %q", policy.Summary())
				}
				return
			}
			if !strings.Contains(joined, tt.issue) {
				t.Fatalf("expected issue containing %q, got %q", tt.issue, joined)
			}
			if !strings.HasPrefix(policy.Summary(), "Caching policy of /pets:") {
				t.Fatalf("unexpected summary %q", policy.Summary())
			}
		})
	}

	if AnalyzeCachePolicy("/pets", nil) != nil {
		t.Fatal("expected nil policy for nil headers")
	}
	var nilPolicy *CachePolicy
	if nilPolicy.Summary() != "" {
		t.Fatal("nil policy should summarize to empty string")
	}
}

func TestSecurityHeadersReportsCachePolicy(t *testing.T) {
	sender := &fakeSender{handler: func(transport.Request) (*transport.Response, error) {
		return statusResponse(http.StatusOK, http.Header{"Cache-Control": {"public"}}), nil
	}}
	index := mustIndex(t, openapi.PathItem{Path: "/account"})

	c := newCheck(t, SecurityHeadersName, testEnv(t, sender, index), nil)
	_, section := runCheck(t, c)

	found := false
	for _, p := range section.DescriptionParagraphs {
		if strings.Contains(p, "Caching policy of /account") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected caching paragraph, got %v", section.DescriptionParagraphs)
	}
}
