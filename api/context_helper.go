package api

import (
	"context"
	"time"
)

// QueryTimeout bounds a single mongo round trip. Handler-level work that
// queues on a conversation room is covered by the subrouter timeout
// middleware instead.
const QueryTimeout = 10 * time.Second

// WithQueryTimeout derives a context for one store call against the
// conversation, message or user collections.
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}
