// Package requirement defines the Requirement entity shared by all agent
// roles, together with the normalizer that upgrades persisted records from
// older schema generations.
package requirement

import "regexp"

// Role identifies one of the workflow actors.
type Role string

const (
	RolePM        Role = "pm"
	RoleArchitect Role = "architect"
	RoleCoder     Role = "coder"
	RoleTester    Role = "tester"
	RoleSystem    Role = "system"
)

// Roles lists every role accepted by the identity layer.
var Roles = []Role{RolePM, RoleArchitect, RoleCoder, RoleTester, RoleSystem}

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// Actor is the identity attached to every mutating request.
type Actor struct {
	Role Role   `json:"role"`
	ID   string `json:"id"`
}

// OverallStatus is the requirement-level lifecycle status, owned by the PM role.
type OverallStatus string

const (
	StatusNotStarted OverallStatus = "not_started"
	StatusInProgress OverallStatus = "in_progress"
	StatusBlocked    OverallStatus = "blocked"
	StatusInReview   OverallStatus = "in_review"
	StatusCompleted  OverallStatus = "completed"
)

// OverallStatuses lists every valid overall status.
var OverallStatuses = []OverallStatus{
	StatusNotStarted, StatusInProgress, StatusBlocked, StatusInReview, StatusCompleted,
}

// SectionStatus is the per-role section progress status.
type SectionStatus string

const (
	SectionUnaddressed SectionStatus = "unaddressed"
	SectionInProgress  SectionStatus = "in_progress"
	SectionComplete    SectionStatus = "complete"
	SectionBlocked     SectionStatus = "blocked"
)

// Priority orders requirements: tier is the coarse bucket (p0 before p1
// before p2), rank breaks ties within a tier. The (tier, rank) pair is
// unique across all requirements.
type Priority struct {
	Tier string `json:"tier"`
	Rank int    `json:"rank"`
}

// TierOrder maps a tier to its sort position. Unknown tiers sort last.
func TierOrder(tier string) int {
	switch tier {
	case "p0":
		return 0
	case "p1":
		return 1
	case "p2":
		return 2
	default:
		return 99
	}
}

// PMSection is the product-manager owned section.
type PMSection struct {
	Status    SectionStatus `json:"status"`
	Direction string        `json:"direction"`
	Feedback  string        `json:"feedback"`
	Decision  string        `json:"decision"`
}

// ArchitectSection is the architect owned section.
type ArchitectSection struct {
	Status     SectionStatus `json:"status"`
	DesignSpec string        `json:"design_spec"`
}

// PullRequest references the implementation PR recorded by the coder.
type PullRequest struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Commit string `json:"commit"`
}

// CoderSection is the coder owned section.
type CoderSection struct {
	Status              SectionStatus `json:"status"`
	ImplementationNotes string        `json:"implementation_notes"`
	PR                  *PullRequest  `json:"pr"`
}

// TestCase is one entry of the tester's test plan.
type TestCase struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Steps    string `json:"steps"`
	Expected string `json:"expected"`
	Status   string `json:"status"`
	Notes    string `json:"notes"`
}

// TestResults summarizes the tester's latest run.
type TestResults struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// TesterSection is the tester owned section.
type TesterSection struct {
	Status      SectionStatus `json:"status"`
	TestPlan    string        `json:"test_plan"`
	TestCases   []TestCase    `json:"test_cases"`
	TestResults TestResults   `json:"test_results"`
}

// Sections groups the four role-owned sub-records. Each section is written
// wholesale by its owning role and never cross-written.
type Sections struct {
	PM        PMSection        `json:"pm"`
	Architect ArchitectSection `json:"architect"`
	Coder     CoderSection     `json:"coder"`
	Tester    TesterSection    `json:"tester"`
}

// Requirement is the system of record for one unit of deliverable work.
type Requirement struct {
	ReqID         string        `json:"req_id"`
	Title         string        `json:"title"`
	Priority      Priority      `json:"priority"`
	OverallStatus OverallStatus `json:"overall_status"`
	Sections      Sections      `json:"sections"`
}

// idPattern is the canonical requirement id form.
var idPattern = regexp.MustCompile(`^REQ-\d+$`)

// ValidID reports whether id matches the canonical REQ-<n> form.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// New returns a fresh requirement with every section unaddressed and the
// overall status not started.
func New(id, title string) *Requirement {
	return &Requirement{
		ReqID:         id,
		Title:         title,
		Priority:      Priority{Tier: "", Rank: 0},
		OverallStatus: StatusNotStarted,
		Sections:      defaultSections(),
	}
}

func defaultSections() Sections {
	return Sections{
		PM:        PMSection{Status: SectionUnaddressed, Decision: "pending"},
		Architect: ArchitectSection{Status: SectionUnaddressed},
		Coder:     CoderSection{Status: SectionUnaddressed},
		Tester: TesterSection{
			Status:    SectionUnaddressed,
			TestCases: []TestCase{},
		},
	}
}
