package http

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/batonworks/baton/internal/adapter/otel"
	"github.com/batonworks/baton/internal/config"
	"github.com/batonworks/baton/internal/domain/plan"
	"github.com/batonworks/baton/internal/domain/requirement"
	"github.com/batonworks/baton/internal/middleware"
	"github.com/batonworks/baton/internal/schema"
	"github.com/batonworks/baton/internal/service"
)

const defaultTopLimit = 5

// Handlers bundles the dependencies shared by all HTTP handlers.
type Handlers struct {
	Requirements *service.RequirementService
	Files        config.Files
	Metrics      *otel.Metrics
}

// Health reports liveness. It deliberately does not ping the store, so a
// slow migration cannot flap the health check.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetOrchestrationSpec serves the orchestration spec markdown verbatim.
func (h *Handlers) GetOrchestrationSpec(w http.ResponseWriter, _ *http.Request) {
	content, err := os.ReadFile(h.Files.OrchestrationSpec)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "spec_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "spec_read_failed")
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

var promptNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// GetPrompt serves one named prompt file from the prompts directory.
func (h *Handlers) GetPrompt(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !promptNamePattern.MatchString(name) {
		writeError(w, http.StatusBadRequest, "invalid_prompt_name")
		return
	}

	content, err := os.ReadFile(filepath.Join(h.Files.PromptsDir, name+".txt"))
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, http.StatusNotFound, "prompt_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "prompt_read_failed")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// ListRequirements returns every requirement keyed by id.
func (h *Handlers) ListRequirements(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Requirements.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"requirements": reqs})
}

// TopRequirements returns the n highest-priority requirements. The limit
// comes from the {n} path segment or the ?n= query, defaulting to 5.
func (h *Handlers) TopRequirements(w http.ResponseWriter, r *http.Request) {
	n := defaultTopLimit
	raw := chi.URLParam(r, "n")
	if raw == "" {
		raw = r.URL.Query().Get("n")
	}
	if raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid_limit")
			return
		}
		n = parsed
	}

	reqs, err := h.Requirements.Top(r.Context(), n)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if reqs == nil {
		reqs = []*requirement.Requirement{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"requirements": reqs})
}

// GetRequirement returns one requirement by id.
func (h *Handlers) GetRequirement(w http.ResponseWriter, r *http.Request) {
	req, err := h.Requirements.Get(r.Context(), reqID(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// mutate funnels every section write through the same decode-apply-respond
// sequence and keeps the mutation counters honest.
func (h *Handlers) mutate(w http.ResponseWriter, r *http.Request, apply func(actor requirement.Actor) (*requirement.Requirement, error)) {
	actor := middleware.ActorFromContext(r.Context())

	req, err := apply(actor)
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.MutationsRejected.Add(r.Context(), 1)
		}
		writeDomainError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.MutationsApplied.Add(r.Context(), 1)
	}
	writeJSON(w, http.StatusOK, req)
}

// UpdatePM replaces the PM section, optionally moving the priority.
func (h *Handlers) UpdatePM(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	upd, violations := schema.PMUpdate(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}
	h.mutate(w, r, func(actor requirement.Actor) (*requirement.Requirement, error) {
		return h.Requirements.UpdatePM(r.Context(), reqID(r), actor, *upd)
	})
}

// UpdatePMDecision sets only the PM decision field.
func (h *Handlers) UpdatePMDecision(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	upd, violations := schema.PMDecision(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}
	h.mutate(w, r, func(actor requirement.Actor) (*requirement.Requirement, error) {
		return h.Requirements.UpdateDecision(r.Context(), reqID(r), actor, upd.Decision)
	})
}

// UpdateArchitecture replaces the architect section.
func (h *Handlers) UpdateArchitecture(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	upd, violations := schema.ArchitectUpdate(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}
	h.mutate(w, r, func(actor requirement.Actor) (*requirement.Requirement, error) {
		return h.Requirements.UpdateArchitect(r.Context(), reqID(r), actor, *upd)
	})
}

// UpdateEngineering replaces the coder section.
func (h *Handlers) UpdateEngineering(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	upd, violations := schema.CoderUpdate(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}
	h.mutate(w, r, func(actor requirement.Actor) (*requirement.Requirement, error) {
		return h.Requirements.UpdateCoder(r.Context(), reqID(r), actor, *upd)
	})
}

// UpdateQA replaces the tester section.
func (h *Handlers) UpdateQA(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	upd, violations := schema.TesterUpdate(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}
	h.mutate(w, r, func(actor requirement.Actor) (*requirement.Requirement, error) {
		return h.Requirements.UpdateTester(r.Context(), reqID(r), actor, *upd)
	})
}

// UpdateStatus changes the overall status.
func (h *Handlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	upd, violations := schema.StatusUpdate(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}
	h.mutate(w, r, func(actor requirement.Actor) (*requirement.Requirement, error) {
		return h.Requirements.UpdateStatus(r.Context(), reqID(r), actor, upd.OverallStatus)
	})
}

// BulkCreateRequirements creates or updates a batch of requirements.
func (h *Handlers) BulkCreateRequirements(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	batch, violations := schema.BulkCreate(body)
	if violations != nil {
		writeInvalidBody(w, violations)
		return
	}

	actor := middleware.ActorFromContext(r.Context())
	result, err := h.Requirements.BulkCreate(r.Context(), actor, *batch)
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.MutationsRejected.Add(r.Context(), 1)
		}
		writeDomainError(w, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.MutationsApplied.Add(r.Context(), 1)
	}
	writeJSON(w, http.StatusOK, result)
}

// SyncRequirements reconciles the store against the requirements file.
func (h *Handlers) SyncRequirements(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	result, err := h.Requirements.SyncFromFile(r.Context(), actor, h.Files.RequirementsFile)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// lintResponse is the plan lint envelope. Lint never fails the request:
// findings travel in the body and the status is always 200.
type lintResponse struct {
	OK       bool           `json:"ok"`
	Errors   []plan.Finding `json:"errors"`
	Warnings []plan.Finding `json:"warnings"`
	Meta     lintMeta       `json:"meta"`
}

type lintMeta struct {
	CheckedAt         time.Time `json:"checked_at"`
	RequirementsFound int       `json:"requirements_found"`
}

// LintPlan validates a delivery plan. Shape failures short-circuit semantic
// linting: a body that does not parse into a plan never reaches the rules.
func (h *Handlers) LintPlan(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}

	if h.Metrics != nil {
		h.Metrics.LintChecks.Add(r.Context(), 1)
	}

	p, violations := schema.PlanShape(body)
	if violations != nil {
		shapeFindings := make([]plan.Finding, len(violations))
		for i, v := range violations {
			shapeFindings[i] = plan.Finding{
				Severity: plan.SeverityError,
				Code:     "P-SHAPE",
				Message:  v.Message,
				Path:     v.Path,
			}
		}
		writeJSON(w, http.StatusOK, lintResponse{
			OK:       false,
			Errors:   shapeFindings,
			Warnings: []plan.Finding{},
			Meta:     lintMeta{CheckedAt: time.Now().UTC(), RequirementsFound: 0},
		})
		return
	}

	result := plan.Lint(p)
	if h.Metrics != nil {
		h.Metrics.LintFindings.Add(r.Context(), int64(len(result.Errors)+len(result.Warnings)))
	}
	if result.Errors == nil {
		result.Errors = []plan.Finding{}
	}
	if result.Warnings == nil {
		result.Warnings = []plan.Finding{}
	}

	writeJSON(w, http.StatusOK, lintResponse{
		OK:       len(result.Errors) == 0,
		Errors:   result.Errors,
		Warnings: result.Warnings,
		Meta:     lintMeta{CheckedAt: time.Now().UTC(), RequirementsFound: len(p.Slices)},
	})
}
