// Package plan defines the transient Plan/Slice model submitted for linting
// and the lint engine that checks it. Plans are validated as a batch and
// never persisted.
package plan

// Plan is an ordered, prioritized collection of slices.
type Plan struct {
	Version string  `json:"version"`
	Slices  []Slice `json:"slices"`
}

// SlicePriority mirrors the requirement priority pair. Rank is kept as a
// float so the lint engine, not the decoder, can flag non-integer ranks.
type SlicePriority struct {
	Tier string  `json:"tier"`
	Rank float64 `json:"rank"`
}

// Slice is one unit of a plan: a requirement-to-be with acceptance criteria
// and dependencies on other slices in the same plan.
type Slice struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Priority           SlicePriority `json:"priority"`
	Direction          string        `json:"direction"`
	AcceptanceCriteria []string      `json:"acceptance_criteria"`
	OutOfScope         []string      `json:"out_of_scope"`
	Dependencies       []string      `json:"dependencies"`
	Notes              string        `json:"notes,omitempty"`
}

// Severity classifies a finding as blocking or advisory.
type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warn"
)

// Finding is one lint result with a stable code and a JSON-pointer style path.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
	ReqID    string   `json:"req_id,omitempty"`
}

// Result separates blocking errors from advisory warnings.
type Result struct {
	Errors   []Finding
	Warnings []Finding
}

// OK reports whether the plan passed every blocking check.
func (r Result) OK() bool {
	return len(r.Errors) == 0
}
