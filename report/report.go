package report

import "fmt"

// Severity classifies a finding
type Severity string

// Severity levels
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity validates a severity name from a rule document
func ParseSeverity(s string) (Severity, error) {
	switch Severity(s) {
	case SeverityError, SeverityWarning, SeverityInfo:
		return Severity(s), nil
	default:
		return "", fmt.Errorf("unknown severity: %q, must be one of 'error', 'warning', 'info'", s)
	}
}

// Finding is a single issue located in the analysed source
type Finding struct {
	Line     int      `json:"lineNumber"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Column   *int     `json:"column"`
}

// Report is the outcome of one analysis request
type Report struct {
	Success  bool      `json:"success"`
	Analysis string    `json:"analysis"`
	Model    string    `json:"model"`
	Findings []Finding `json:"issues,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Counts returns the number of findings per severity
func (r Report) Counts() (errors, warnings, infos int) {
	for _, f := range r.Findings {
		switch f.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		case SeverityInfo:
			infos++
		}
	}
	return errors, warnings, infos
}
