// Package messagequeue defines the port interface for event publishing.
package messagequeue

import "context"

// Publisher delivers audit and requirement-change events to interested
// consumers. Publishing is best-effort from the caller's point of view: a
// failed publish never rolls back the store write it follows.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
	Close() error
}
