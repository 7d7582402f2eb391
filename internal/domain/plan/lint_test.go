package plan_test

import (
	"testing"

	"github.com/batonworks/baton/internal/domain/plan"
)

func basePlan() *plan.Plan {
	return &plan.Plan{
		Version: "1.0",
		Slices: []plan.Slice{
			{
				ID:                 "REQ-1",
				Title:              "First slice",
				Priority:           plan.SlicePriority{Tier: "p0", Rank: 1},
				Direction:          "Build the first slice",
				AcceptanceCriteria: []string{"a", "b", "c"},
				OutOfScope:         []string{"none"},
				Dependencies:       []string{},
			},
			{
				ID:                 "REQ-2",
				Title:              "Second slice",
				Priority:           plan.SlicePriority{Tier: "p1", Rank: 1},
				Direction:          "Build the second slice",
				AcceptanceCriteria: []string{"a", "b", "c"},
				OutOfScope:         []string{"none"},
				Dependencies:       []string{"REQ-1"},
			},
		},
	}
}

func hasCode(findings []plan.Finding, code string) bool {
	for _, f := range findings {
		if f.Code == code {
			return true
		}
	}
	return false
}

func TestLint_ValidPlan(t *testing.T) {
	res := plan.Lint(basePlan())
	if len(res.Errors) != 0 {
		t.Errorf("expected no errors, got %v", res.Errors)
	}
	if len(res.Warnings) != 0 {
		t.Errorf("expected no warnings, got %v", res.Warnings)
	}
	if !res.OK() {
		t.Error("expected OK")
	}
}

func TestLint_WrongVersion(t *testing.T) {
	p := basePlan()
	p.Version = "2.0"
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-001") {
		t.Errorf("expected P-001, got %v", res.Errors)
	}
}

func TestLint_EmptySlicesAbortsFurtherChecks(t *testing.T) {
	res := plan.Lint(&plan.Plan{Version: "0.9", Slices: nil})
	if !hasCode(res.Errors, "P-001") || !hasCode(res.Errors, "P-002") {
		t.Fatalf("expected P-001 and P-002, got %v", res.Errors)
	}
	if len(res.Errors) != 2 || len(res.Warnings) != 0 {
		t.Errorf("expected no further findings after P-002, got errors=%v warnings=%v",
			res.Errors, res.Warnings)
	}
}

func TestLint_DuplicateTierRank(t *testing.T) {
	p := basePlan()
	p.Slices[1].Priority = plan.SlicePriority{Tier: "p0", Rank: 1}
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-011") {
		t.Errorf("expected P-011, got %v", res.Errors)
	}
}

func TestLint_TooFewAcceptanceCriteria(t *testing.T) {
	p := basePlan()
	p.Slices[0].AcceptanceCriteria = []string{"a", "  "}
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-007") {
		t.Errorf("expected P-007, got %v", res.Errors)
	}
}

func TestLint_BadIDFormat(t *testing.T) {
	p := basePlan()
	p.Slices[0].ID = "REQ-ABC"
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-003") {
		t.Errorf("expected P-003, got %v", res.Errors)
	}
}

func TestLint_DuplicateID(t *testing.T) {
	p := basePlan()
	p.Slices[1].ID = "REQ-1"
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-004") {
		t.Errorf("expected P-004, got %v", res.Errors)
	}
}

func TestLint_BlankTitleAndDirection(t *testing.T) {
	p := basePlan()
	p.Slices[0].Title = "   "
	p.Slices[0].Direction = ""
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-005") || !hasCode(res.Errors, "P-006") {
		t.Errorf("expected P-005 and P-006, got %v", res.Errors)
	}
}

func TestLint_OutOfScope(t *testing.T) {
	cases := []struct {
		name    string
		entries []string
		valid   bool
	}{
		{"none literal", []string{"none"}, true},
		{"none trimmed and cased", []string{"  NONE "}, true},
		{"real exclusions", []string{"auth", "billing"}, true},
		{"empty list", []string{}, false},
		{"all blank", []string{" ", ""}, false},
		{"none mixed with others", []string{"none", "auth"}, false},
	}
	for _, tc := range cases {
		p := basePlan()
		p.Slices[0].OutOfScope = tc.entries
		res := plan.Lint(p)
		if got := !hasCode(res.Errors, "P-008"); got != tc.valid {
			t.Errorf("%s: valid=%v, want %v", tc.name, got, tc.valid)
		}
	}
}

func TestLint_BadTier(t *testing.T) {
	p := basePlan()
	p.Slices[0].Priority.Tier = "p3"
	res := plan.Lint(p)
	if !hasCode(res.Errors, "P-009") {
		t.Errorf("expected P-009, got %v", res.Errors)
	}
}

func TestLint_BadRank(t *testing.T) {
	for _, rank := range []float64{0, -1, 1.5} {
		p := basePlan()
		p.Slices[0].Priority.Rank = rank
		res := plan.Lint(p)
		if !hasCode(res.Errors, "P-010") {
			t.Errorf("rank %v: expected P-010, got %v", rank, res.Errors)
		}
	}
}

func TestLint_UnknownDependencyWarns(t *testing.T) {
	p := basePlan()
	p.Slices[1].Dependencies = []string{"REQ-999"}
	res := plan.Lint(p)
	if !hasCode(res.Warnings, "P-012") {
		t.Errorf("expected P-012 warning, got %v", res.Warnings)
	}
	if hasCode(res.Errors, "P-012") || len(res.Errors) != 0 {
		t.Errorf("P-012 must not be an error: %v", res.Errors)
	}
}

func TestLint_UnsortedSlicesWarn(t *testing.T) {
	p := basePlan()
	p.Slices[0], p.Slices[1] = p.Slices[1], p.Slices[0]
	res := plan.Lint(p)
	if !hasCode(res.Warnings, "P-013") {
		t.Errorf("expected P-013 warning, got %v", res.Warnings)
	}
	if len(res.Errors) != 0 {
		t.Errorf("reordering must not produce errors: %v", res.Errors)
	}
}

func TestLint_ChecksDoNotShortCircuit(t *testing.T) {
	p := basePlan()
	p.Slices[0].ID = "bad"
	p.Slices[0].Title = ""
	p.Slices[0].AcceptanceCriteria = nil
	res := plan.Lint(p)
	for _, code := range []string{"P-003", "P-005", "P-007"} {
		if !hasCode(res.Errors, code) {
			t.Errorf("expected %s among %v", code, res.Errors)
		}
	}
}
