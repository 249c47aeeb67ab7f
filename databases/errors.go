package databases

import "errors"

// Store error taxonomy. Reads that miss map to ErrNotFound so callers can
// degrade to an empty room state; failed writes of user messages surface
// ErrWriteFailed and are fatal to that request.
var (
	ErrNotFound    = errors.New("store: document not found")
	ErrWriteFailed = errors.New("store: write failed")
)
