package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventRequirementCreated = "requirement.created"
	EventRequirementUpdated = "requirement.updated"
)

// RequirementEvent is broadcast when a requirement is created or mutated.
type RequirementEvent struct {
	ReqID         string `json:"req_id"`
	Action        string `json:"action"`
	ActorRole     string `json:"actor_role"`
	ActorID       string `json:"actor_id"`
	OverallStatus string `json:"overall_status"`
}

// BroadcastEvent marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
