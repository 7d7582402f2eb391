package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/batonworks/baton/internal/domain/requirement"
	"github.com/batonworks/baton/internal/middleware"
)

// MountRoutes registers the API surface. Artifact endpoints (health, spec,
// prompts, websocket) stay public; everything under /v1 requires an agent
// identity, and mutations are additionally gated per role.
func MountRoutes(r chi.Router, h *Handlers, handleWS http.HandlerFunc) {
	r.Get("/health", h.Health)
	r.Get("/ORCHESTRATION_SPEC.md", h.GetOrchestrationSpec)
	r.Get("/prompt/{name}", h.GetPrompt)
	r.Get("/ws", handleWS)

	r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Get("/requirements", h.ListRequirements)
		r.Get("/requirements/top", h.TopRequirements)
		r.Get("/requirements/top/{n}", h.TopRequirements)
		r.Get("/requirements/{id}", h.GetRequirement)

		r.With(middleware.RequireRole(requirement.RolePM)).
			Put("/requirements/{id}/pm", h.UpdatePM)
		r.With(middleware.RequireRole(requirement.RolePM)).
			Put("/requirements/{id}/pm-decision", h.UpdatePMDecision)
		r.With(middleware.RequireRole(requirement.RoleArchitect)).
			Put("/requirements/{id}/architecture", h.UpdateArchitecture)
		r.With(middleware.RequireRole(requirement.RoleCoder)).
			Put("/requirements/{id}/engineering", h.UpdateEngineering)
		r.With(middleware.RequireRole(requirement.RoleTester)).
			Put("/requirements/{id}/qa", h.UpdateQA)
		r.With(middleware.RequireRole(requirement.RolePM)).
			Put("/requirements/{id}/status", h.UpdateStatus)

		r.With(middleware.RequireRole(requirement.RolePM)).
			Post("/requirements/bulk", h.BulkCreateRequirements)
		r.With(middleware.RequireRole(requirement.RoleSystem)).
			Post("/requirements/sync", h.SyncRequirements)

		r.Post("/plan/lint", h.LintPlan)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})
}
