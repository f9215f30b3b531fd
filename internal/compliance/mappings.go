package compliance

import "sort"

// GetComplianceMappings returns the mapping of assessment checks to framework requirements
func GetComplianceMappings() map[string]Mapping {
	return map[string]Mapping{
		"verb_tampering": {
			CheckName: "verb_tampering",
			Frameworks: map[string][]string{
				FrameworkOWASPAPI: {"API5:2023", "API8:2023"},
				FrameworkASVS:     {"V14.5.1"},
				FrameworkCWE:      {"CWE-650"},
			},
			Priority: "Medium",
		},
		"cors": {
			CheckName: "cors",
			Frameworks: map[string][]string{
				FrameworkOWASPAPI: {"API8:2023"},
				FrameworkASVS:     {"V14.5.3"},
				FrameworkCWE:      {"CWE-942"},
			},
			Priority: "High",
		},
		"basic_auth": {
			CheckName: "basic_auth",
			Frameworks: map[string][]string{
				FrameworkOWASPAPI: {"API2:2023"},
				FrameworkASVS:     {"V2.5.4"},
				FrameworkCWE:      {"CWE-522", "CWE-1392"},
			},
			Priority: "High",
		},
		"common_security_headers": {
			CheckName: "common_security_headers",
			Frameworks: map[string][]string{
				FrameworkOWASPAPI: {"API8:2023"},
				FrameworkASVS:     {"V14.4.4", "V14.4.5", "V14.3.3"},
				FrameworkCWE:      {"CWE-693", "CWE-200"},
			},
			Priority: "Medium",
		},
		"rate_limiting": {
			CheckName: "rate_limiting",
			Frameworks: map[string][]string{
				FrameworkOWASPAPI: {"API4:2023"},
				FrameworkASVS:     {"V11.1.4"},
				FrameworkCWE:      {"CWE-770", "CWE-307"},
			},
			Priority: "High",
		},
	}
}

// GetMappingForCheck returns the compliance mapping for a check
func GetMappingForCheck(checkName string) *Mapping {
	mappings := GetComplianceMappings()
	if mapping, ok := mappings[checkName]; ok {
		return &mapping
	}
	return nil
}

// ForChecks returns the mappings of the given checks in the given order.
// Checks without a mapping are skipped.
func ForChecks(names []string) []Mapping {
	mappings := GetComplianceMappings()
	out := make([]Mapping, 0, len(names))
	for _, name := range names {
		if mapping, ok := mappings[name]; ok {
			out = append(out, mapping)
		}
	}
	return out
}

// GetChecksForFramework returns all checks relevant to a framework, sorted by name
func GetChecksForFramework(frameworkID string) []string {
	var checks []string
	for checkName, mapping := range GetComplianceMappings() {
		if _, ok := mapping.Frameworks[frameworkID]; ok {
			checks = append(checks, checkName)
		}
	}
	sort.Strings(checks)
	return checks
}
