package chat

import (
	"fmt"

	"github.com/juridibot/legal-chat-api/models"
)

// StateError reports a rejected conversation status transition. Callers log
// it and leave the conversation unchanged, it never becomes a user-visible
// failure.
type StateError struct {
	From models.ConversationStatus
	To   models.ConversationStatus
}

func (e *StateError) Error() string {
	return fmt.Sprintf("illegal conversation transition %s -> %s", e.From, e.To)
}

// legalTransitions is the full status lifecycle. Active is initial, completed
// is terminal, active -> active is the implicit no-op on ordinary message
// exchange.
var legalTransitions = map[models.ConversationStatus][]models.ConversationStatus{
	models.StatusActive:           {models.StatusActive, models.StatusResolvedByAI, models.StatusAssignedToLawyer},
	models.StatusResolvedByAI:     {models.StatusCompleted},
	models.StatusAssignedToLawyer: {models.StatusCompleted},
	models.StatusCompleted:        {},
}

// CanTransition reports whether from -> to is a legal lifecycle edge
func CanTransition(from, to models.ConversationStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition validates from -> to and returns the new status, or a
// *StateError leaving the caller's status untouched
func Transition(from, to models.ConversationStatus) (models.ConversationStatus, error) {
	if !CanTransition(from, to) {
		return from, &StateError{From: from, To: to}
	}
	return to, nil
}
