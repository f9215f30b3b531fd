package checker

// Section status values.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Reference is a titled link printed under a section.
type Reference struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// Table holds a section's findings. Headers[i] labels Rows[*][i]; row
// length is not uniform across checks.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Section is the structured output of Check.Format and the only shape the
// report renderers consume.
type Section struct {
	Module                string      `json:"module"`
	DescriptionParagraphs []string    `json:"description_paragraphs"`
	References            []Reference `json:"references"`
	RemediationParagraphs []string    `json:"remediation_paragraphs"`
	VerificationCommands  []string    `json:"verification_commands,omitempty"`
	Table                 Table       `json:"table"`
	Status                string      `json:"status,omitempty"`
	Error                 string      `json:"error,omitempty"`
}

// Failed reports whether the section describes a check that did not complete.
func (s Section) Failed() bool {
	return s.Status == StatusFailed
}

// newSection builds a section whose slices are never nil, so JSON output
// always carries arrays.
func newSection(module string, headers []string, result Result) Section {
	rows := make([]Row, 0, len(result))
	rows = append(rows, result...)
	return Section{
		Module:                module,
		DescriptionParagraphs: []string{},
		References:            []Reference{},
		RemediationParagraphs: []string{},
		Table: Table{
			Headers: append([]string(nil), headers...),
			Rows:    rows,
		},
		Status: StatusCompleted,
	}
}

// FailedSection describes a check that could not run to completion.
func FailedSection(title string, err error) Section {
	s := newSection(title, nil, nil)
	s.Table.Headers = []string{}
	s.Status = StatusFailed
	if err != nil {
		s.Error = err.Error()
		s.DescriptionParagraphs = append(s.DescriptionParagraphs, "This check did not complete: "+err.Error())
	}
	return s
}
