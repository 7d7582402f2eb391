// Package broadcast defines the port for pushing live events to connected
// clients.
package broadcast

import "context"

// Broadcaster fans a typed event out to every connected client. Delivery is
// best-effort; a slow or gone client never fails the caller.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
