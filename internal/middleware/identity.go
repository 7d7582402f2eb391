// Package middleware provides HTTP middleware for actor identity and
// role-based access control.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/batonworks/baton/internal/domain/requirement"
)

const (
	headerAgentRole = "X-Agent-Role"
	headerAgentID   = "X-Agent-Id"
)

// anyRole is advertised in rejections when the gate accepts any known role.
const anyRole = "pm|architect|coder|tester|system"

type actorCtxKey struct{}

// unauthorizedBody is the rejection payload. provided_role echoes whatever
// the caller sent, so a misconfigured client can see its own mistake.
type unauthorizedBody struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	RequiredRole string `json:"required_role"`
	ProvidedRole string `json:"provided_role"`
}

func writeUnauthorized(w http.ResponseWriter, message, required, provided string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Error:        "unauthorized",
		Message:      message,
		RequiredRole: required,
		ProvidedRole: provided,
	})
}

// Identity extracts the acting agent from the X-Agent-Role and X-Agent-Id
// headers and stores it in the request context. Both headers are mandatory:
// a request missing either one is rejected before reaching any handler.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		provided := r.Header.Get(headerAgentRole)
		role := requirement.Role(strings.ToLower(strings.TrimSpace(provided)))
		agentID := strings.TrimSpace(r.Header.Get(headerAgentID))

		if provided == "" || agentID == "" {
			writeUnauthorized(w, "missing required headers", anyRole, string(role))
			return
		}
		if !requirement.ValidRole(role) {
			writeUnauthorized(w, "unknown agent role", anyRole, provided)
			return
		}

		actor := requirement.Actor{Role: role, ID: agentID}
		ctx := context.WithValue(r.Context(), actorCtxKey{}, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFromContext returns the actor stored by Identity. The zero Actor is
// returned on routes mounted outside the identity gate.
func ActorFromContext(ctx context.Context) requirement.Actor {
	if actor, ok := ctx.Value(actorCtxKey{}).(requirement.Actor); ok {
		return actor
	}
	return requirement.Actor{}
}

// RequireRole returns middleware that restricts access to exactly the given
// roles. There is no blanket override role; an operation open to more than
// one role lists each explicitly.
func RequireRole(roles ...requirement.Role) func(http.Handler) http.Handler {
	allowed := make(map[requirement.Role]bool, len(roles))
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		allowed[r] = true
		names = append(names, string(r))
	}
	required := strings.Join(names, "|")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := ActorFromContext(r.Context())
			if actor.Role == "" {
				writeUnauthorized(w, "authorization required", required, "")
				return
			}

			if !allowed[actor.Role] {
				writeUnauthorized(w, "role not permitted for this operation", required, string(actor.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
