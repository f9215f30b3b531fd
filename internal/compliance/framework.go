// Package compliance maps assessment checks to the requirements of the
// security standards their findings relate to.
package compliance

// Framework represents a security standard findings are mapped to.
type Framework struct {
	ID   string `json:"id"`   // Unique identifier (e.g., "owasp-api-2023")
	Name string `json:"name"` // Display name (e.g., "OWASP API Security Top 10 (2023)")
	URL  string `json:"url"`
}

// Framework identifiers.
const (
	FrameworkOWASPAPI = "owasp-api-2023"
	FrameworkASVS     = "asvs-4.0.3"
	FrameworkCWE      = "cwe"
)

// Mapping maps one check to framework requirements.
type Mapping struct {
	CheckName  string              `json:"check"`
	Frameworks map[string][]string `json:"frameworks"` // Framework ID -> Requirement IDs
	Priority   string              `json:"priority"`   // Critical, High, Medium, Low
}

// SupportedFrameworks returns the frameworks, in display order.
func SupportedFrameworks() []Framework {
	return []Framework{
		{
			ID:   FrameworkOWASPAPI,
			Name: "OWASP API Security Top 10 (2023)",
			URL:  "https://owasp.org/API-Security/editions/2023/en/0x11-t10/",
		},
		{
			ID:   FrameworkASVS,
			Name: "OWASP ASVS 4.0.3",
			URL:  "https://owasp.org/www-project-application-security-verification-standard/",
		},
		{
			ID:   FrameworkCWE,
			Name: "MITRE CWE",
			URL:  "https://cwe.mitre.org/",
		},
	}
}

// GetFramework returns the framework with the given ID.
func GetFramework(id string) (Framework, bool) {
	for _, f := range SupportedFrameworks() {
		if f.ID == id {
			return f, true
		}
	}
	return Framework{}, false
}
