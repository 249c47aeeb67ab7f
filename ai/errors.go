package ai

import "fmt"

// Kind classifies orchestrator failures
type Kind string

// Orchestrator failure kinds. Unavailable and Timeout mean the model call
// itself failed and the user should be offered a retry; BadFunctionCall means
// the model emitted a malformed tool call, which is recovered by skipping it.
const (
	KindUnavailable     Kind = "unavailable"
	KindTimeout         Kind = "timeout"
	KindBadFunctionCall Kind = "bad_function_call"
)

// Error is the orchestrator error type
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ai %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether resubmitting the same user message is worthwhile
func (e *Error) Retryable() bool {
	return e.Kind == KindUnavailable || e.Kind == KindTimeout
}
