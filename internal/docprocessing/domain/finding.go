package domain

// Severity of a validation finding. Fixed at creation.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Finding is a single validation observation about an extracted record.
type Finding struct {
	Code         string   `json:"code"`
	Severity     Severity `json:"severity"`
	Field        string   `json:"field,omitempty"`
	Message      string   `json:"message"`
	Evidence     string   `json:"evidence,omitempty"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
}

// Findings accumulates the two ordered finding lists of a validation run.
// Routing between alerts and errors is decided by the validator, not by
// severity alone.
type Findings struct {
	Alerts []Finding
	Errors []Finding
}

// NewFindings returns empty, non-nil finding lists.
func NewFindings() *Findings {
	return &Findings{Alerts: []Finding{}, Errors: []Finding{}}
}

// Alert appends to the alerts list.
func (f *Findings) Alert(item Finding) { f.Alerts = append(f.Alerts, item) }

// Error appends to the errors list.
func (f *Findings) Error(item Finding) { f.Errors = append(f.Errors, item) }

// HasCritical reports whether any finding in either list is critical.
func (f *Findings) HasCritical() bool {
	for _, list := range [][]Finding{f.Alerts, f.Errors} {
		for _, item := range list {
			if item.Severity == SeverityCritical {
				return true
			}
		}
	}
	return false
}

// Codes lists the finding codes of both lists, alerts first.
func (f *Findings) Codes() []string {
	codes := make([]string, 0, len(f.Alerts)+len(f.Errors))
	for _, item := range f.Alerts {
		codes = append(codes, item.Code)
	}
	for _, item := range f.Errors {
		codes = append(codes, item.Code)
	}
	return codes
}
