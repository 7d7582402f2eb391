package http

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/batonworks/baton/internal/config"
)

func lintFindingCodes(t *testing.T, raw any) []string {
	t.Helper()
	findings, ok := raw.([]any)
	if !ok {
		t.Fatalf("findings = %v", raw)
	}
	codes := make([]string, 0, len(findings))
	for _, f := range findings {
		codes = append(codes, f.(map[string]any)["code"].(string))
	}
	return codes
}

func TestLintPlan_CleanPlan(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{})

	body := `{"plan": {
		"version": "1.0",
		"slices": [{
			"id": "REQ-1",
			"title": "First",
			"direction": "build it",
			"acceptance_criteria": ["a", "b", "c"],
			"out_of_scope": ["none"],
			"priority": {"tier": "p0", "rank": 1},
			"dependencies": []
		}]
	}}`
	resp, decoded := doRequest(t, srv, http.MethodPost, "/v1/plan/lint", "architect", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if decoded["ok"] != true {
		t.Errorf("ok = %v, body = %v", decoded["ok"], decoded)
	}
	if codes := lintFindingCodes(t, decoded["errors"]); len(codes) != 0 {
		t.Errorf("errors = %v", codes)
	}
	meta := decoded["meta"].(map[string]any)
	if meta["requirements_found"] != float64(1) {
		t.Errorf("meta = %v", meta)
	}
}

func TestLintPlan_RuleViolationsAlways200(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{})

	// Duplicate priority pair and a short criteria list.
	body := `{"plan": {
		"version": "1.0",
		"slices": [
			{"id": "REQ-1", "title": "A", "direction": "d", "acceptance_criteria": ["a","b","c"], "out_of_scope": ["none"], "priority": {"tier": "p0", "rank": 1}, "dependencies": []},
			{"id": "REQ-2", "title": "B", "direction": "d", "acceptance_criteria": ["a"], "out_of_scope": ["none"], "priority": {"tier": "p0", "rank": 1}, "dependencies": []}
		]
	}}`
	resp, decoded := doRequest(t, srv, http.MethodPost, "/v1/plan/lint", "pm", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lint must always answer 200, got %d", resp.StatusCode)
	}
	if decoded["ok"] != false {
		t.Errorf("ok = %v", decoded["ok"])
	}
	codes := strings.Join(lintFindingCodes(t, decoded["errors"]), ",")
	if !strings.Contains(codes, "P-011") || !strings.Contains(codes, "P-007") {
		t.Errorf("error codes = %s", codes)
	}
}

func TestLintPlan_ShapeFailureShortCircuits(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{})

	resp, decoded := doRequest(t, srv, http.MethodPost, "/v1/plan/lint", "pm", `{"plan": {"version": 2}}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if decoded["ok"] != false {
		t.Errorf("ok = %v", decoded["ok"])
	}
	for _, code := range lintFindingCodes(t, decoded["errors"]) {
		if code != "P-SHAPE" {
			t.Errorf("unexpected code %s, shape failures must not reach rule linting", code)
		}
	}
	meta := decoded["meta"].(map[string]any)
	if meta["requirements_found"] != float64(0) {
		t.Errorf("meta = %v", meta)
	}
}

func TestLintPlan_BodyWithoutPlanWrapperIsShapeFailure(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{})

	// A bare plan sent without the wrapper member.
	resp, decoded := doRequest(t, srv, http.MethodPost, "/v1/plan/lint", "pm", `{"version": "1.0", "slices": []}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if decoded["ok"] != false {
		t.Errorf("ok = %v", decoded["ok"])
	}
	codes := lintFindingCodes(t, decoded["errors"])
	if len(codes) == 0 || codes[0] != "P-SHAPE" {
		t.Errorf("codes = %v, want P-SHAPE", codes)
	}
}

func TestLintPlan_WarningsDoNotBlock(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{})

	// Reverse priority order triggers the ordering warning only.
	body := `{"plan": {
		"version": "1.0",
		"slices": [
			{"id": "REQ-2", "title": "B", "direction": "d", "acceptance_criteria": ["a","b","c"], "out_of_scope": ["none"], "priority": {"tier": "p1", "rank": 1}, "dependencies": []},
			{"id": "REQ-1", "title": "A", "direction": "d", "acceptance_criteria": ["a","b","c"], "out_of_scope": ["none"], "priority": {"tier": "p0", "rank": 1}, "dependencies": []}
		]
	}}`
	resp, decoded := doRequest(t, srv, http.MethodPost, "/v1/plan/lint", "pm", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if decoded["ok"] != true {
		t.Errorf("ok = %v, warnings must not block", decoded["ok"])
	}
	codes := strings.Join(lintFindingCodes(t, decoded["warnings"]), ",")
	if !strings.Contains(codes, "P-013") {
		t.Errorf("warning codes = %s", codes)
	}
}

func TestGetOrchestrationSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ORCHESTRATION_SPEC.md")
	if err := os.WriteFile(path, []byte("# Orchestration\n"), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}

	srv := newTestServer(t, newMockStore(), config.Files{OrchestrationSpec: path})

	resp, err := srv.Client().Get(srv.URL + "/ORCHESTRATION_SPEC.md")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
}

func TestGetOrchestrationSpec_Missing(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{
		OrchestrationSpec: filepath.Join(t.TempDir(), "absent.md"),
	})

	resp, body := doRequest(t, srv, http.MethodGet, "/ORCHESTRATION_SPEC.md", "", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body["error"] != "spec_not_found" {
		t.Errorf("body = %v", body)
	}
}

func TestGetPrompt(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "architect.txt"), []byte("design things"), 0o644); err != nil {
		t.Fatalf("write prompt: %v", err)
	}

	srv := newTestServer(t, newMockStore(), config.Files{PromptsDir: dir})

	resp, err := srv.Client().Get(srv.URL + "/prompt/architect")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestGetPrompt_Errors(t *testing.T) {
	srv := newTestServer(t, newMockStore(), config.Files{PromptsDir: t.TempDir()})

	tests := []struct {
		path string
		want string
		code int
	}{
		{"/prompt/no-such-prompt", "prompt_not_found", http.StatusNotFound},
		{"/prompt/bad.name", "invalid_prompt_name", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, err := srv.Client().Get(srv.URL + tt.path)
		if err != nil {
			t.Fatalf("get %s: %v", tt.path, err)
		}
		var body map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&body)
		_ = resp.Body.Close()

		if resp.StatusCode != tt.code {
			t.Errorf("%s: status = %d, want %d", tt.path, resp.StatusCode, tt.code)
		}
		if body["error"] != tt.want {
			t.Errorf("%s: body = %v", tt.path, body)
		}
	}
}
