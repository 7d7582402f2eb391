package requirement

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestNormalize_LegacyFlatRecord(t *testing.T) {
	raw := []byte(`{
		"id": "REQ-1",
		"title": "Legacy requirement",
		"priority": {"tier": "p0", "rank": 1},
		"status": "done",
		"pm": {"direction": "d", "feedback": "", "decision": "approved"},
		"architecture": {"design_spec": "s"},
		"engineering": {"implementation_notes": "n", "pr": null},
		"qa": {"test_plan": "p", "test_cases": [], "test_results": {"status": "", "notes": ""}}
	}`)

	req, err := Normalize("REQ-1", raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if req.ReqID != "REQ-1" {
		t.Errorf("ReqID = %q, want REQ-1", req.ReqID)
	}
	if req.OverallStatus != StatusCompleted {
		t.Errorf("OverallStatus = %q, want completed", req.OverallStatus)
	}
	if req.Sections.PM.Direction != "d" {
		t.Errorf("pm.direction = %q, want d", req.Sections.PM.Direction)
	}
	if req.Sections.Architect.DesignSpec != "s" {
		t.Errorf("architect.design_spec = %q, want s", req.Sections.Architect.DesignSpec)
	}
	if req.Sections.Coder.ImplementationNotes != "n" {
		t.Errorf("coder.implementation_notes = %q, want n", req.Sections.Coder.ImplementationNotes)
	}
	if req.Sections.Tester.TestPlan != "p" {
		t.Errorf("tester.test_plan = %q, want p", req.Sections.Tester.TestPlan)
	}
	// Generation 0 sections lack a status; the normalizer synthesizes it.
	if req.Sections.PM.Status != SectionUnaddressed {
		t.Errorf("pm.status = %q, want unaddressed", req.Sections.PM.Status)
	}
}

func TestNormalize_LegacySectionedRecord(t *testing.T) {
	raw := []byte(`{
		"id": "REQ-3",
		"title": "Gen1 requirement",
		"priority": {"tier": "p1", "rank": 2},
		"status": "ready_for_pm_review",
		"pm": {"status": "complete", "direction": "dir", "feedback": "fb", "decision": "approved"},
		"architecture": {"status": "in_progress", "design_spec": "spec"},
		"engineering": {"status": "unaddressed", "implementation_notes": "", "pr": null},
		"qa": {"status": "unaddressed", "test_plan": "", "test_cases": [], "test_results": {"status": "", "notes": ""}}
	}`)

	req, err := Normalize("REQ-3", raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if req.OverallStatus != StatusInReview {
		t.Errorf("OverallStatus = %q, want in_review", req.OverallStatus)
	}
	if req.Sections.PM.Status != SectionComplete {
		t.Errorf("pm.status = %q, want complete", req.Sections.PM.Status)
	}
	if req.Sections.Architect.Status != SectionInProgress {
		t.Errorf("architect.status = %q, want in_progress", req.Sections.Architect.Status)
	}
}

func TestNormalize_MissingSectionsSynthesized(t *testing.T) {
	req, err := Normalize("REQ-9", []byte(`{"title": "bare", "status": "open"}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}

	if req.ReqID != "REQ-9" {
		t.Errorf("ReqID = %q, want fallback to key", req.ReqID)
	}
	if req.OverallStatus != StatusNotStarted {
		t.Errorf("OverallStatus = %q, want not_started", req.OverallStatus)
	}
	if req.Sections.PM.Status != SectionUnaddressed || req.Sections.PM.Decision != "pending" {
		t.Errorf("pm section not defaulted: %+v", req.Sections.PM)
	}
	if req.Sections.Tester.TestCases == nil || len(req.Sections.Tester.TestCases) != 0 {
		t.Errorf("tester.test_cases = %v, want empty list", req.Sections.Tester.TestCases)
	}
}

func TestNormalize_LegacyStatusTable(t *testing.T) {
	cases := map[string]OverallStatus{
		"ready_for_pm_review": StatusInReview,
		"done":                StatusCompleted,
		"blocked":             StatusBlocked,
		"open":                StatusNotStarted,
		"in_progress":         StatusInProgress,
		"future":              StatusNotStarted,
		"":                    StatusNotStarted,
	}
	for legacy, want := range cases {
		req, err := Normalize("REQ-1", []byte(`{"status": "`+legacy+`"}`))
		if err != nil {
			t.Fatalf("Normalize(%q): %v", legacy, err)
		}
		if req.OverallStatus != want {
			t.Errorf("status %q normalized to %q, want %q", legacy, req.OverallStatus, want)
		}
	}
}

func TestNormalize_CurrentShapePassesThrough(t *testing.T) {
	current := New("REQ-4", "Current requirement")
	current.Priority = Priority{Tier: "p2", Rank: 7}
	current.OverallStatus = StatusInProgress
	current.Sections.Coder = CoderSection{
		Status:              SectionInProgress,
		ImplementationNotes: "wip",
		PR:                  &PullRequest{Number: 12, Title: "t", URL: "https://example.com/pr/12", Commit: "abc"},
	}

	raw, err := json.Marshal(current)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := Normalize("REQ-4", raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !reflect.DeepEqual(got, current) {
		t.Errorf("current-shape record changed by normalization:\ngot  %+v\nwant %+v", got, current)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	raw := []byte(`{
		"id": "REQ-2",
		"title": "Legacy",
		"status": "blocked",
		"pm": {"direction": "go", "feedback": "", "decision": "pending"}
	}`)

	once, err := Normalize("REQ-2", raw)
	if err != nil {
		t.Fatalf("first Normalize: %v", err)
	}
	reRaw, err := json.Marshal(once)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	twice, err := Normalize("REQ-2", reRaw)
	if err != nil {
		t.Fatalf("second Normalize: %v", err)
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("normalization not idempotent:\nonce  %+v\ntwice %+v", once, twice)
	}
}

func TestNormalize_RejectsMalformedJSON(t *testing.T) {
	if _, err := Normalize("REQ-1", []byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed record")
	}
}
