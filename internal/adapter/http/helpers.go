package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/batonworks/baton/internal/domain"
	"github.com/batonworks/baton/internal/schema"
	"github.com/batonworks/baton/internal/service"
)

const maxRequestBodySize = 1 << 20 // 1 MB

// readBody reads a request body up to the size limit. The raw bytes go to
// the schema layer, which produces path-addressed violations.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		if err.Error() == "http: request body too large" {
			writeError(w, http.StatusRequestEntityTooLarge, "body_too_large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid_body")
		}
		return nil, false
	}
	return data, true
}

// reqID extracts the {id} path parameter in canonical upper-case form.
func reqID(r *http.Request) string {
	return strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "id")))
}

type errorResponse struct {
	Error string `json:"error"`
}

type invalidBodyResponse struct {
	Error   string             `json:"error"`
	Details []schema.Violation `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

// writeError writes an error payload whose code is a stable machine-readable
// string, never free text.
func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}

func writeInvalidBody(w http.ResponseWriter, violations []schema.Violation) {
	writeJSON(w, http.StatusBadRequest, invalidBodyResponse{Error: "invalid_body", Details: violations})
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "requirement_not_found")
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, "priority_conflict")
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, "invalid_requirement_id")
	case errors.Is(err, domain.ErrDuplicateID):
		writeError(w, http.StatusBadRequest, "duplicate_requirement_id")
	case errors.Is(err, service.ErrRequirementsFileMissing):
		writeError(w, http.StatusBadRequest, "requirements_file_missing")
	case errors.Is(err, service.ErrNoRequirementsFound):
		writeError(w, http.StatusBadRequest, "no_requirements_found")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
	}
}
