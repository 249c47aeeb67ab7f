package ai

import (
	"encoding/json"
	"fmt"

	"github.com/juridibot/legal-chat-api/models"
)

// FunctionCall is a structured action emitted by the model in lieu of free
// text. The concrete types below are the only recognized calls; anything else
// coming off the wire is a recoverable *Error, never a crash.
type FunctionCall interface {
	functionCall()
}

// RegisterUser asks the platform to create a user record for the person the
// model just collected contact details from. It never alters conversation
// status.
type RegisterUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

func (RegisterUser) functionCall() {}

// UpdateConversationStatus requests a lifecycle transition. The session
// manager validates it against the state machine; illegal targets become a
// logged no-op.
type UpdateConversationStatus struct {
	ConversationID string                    `json:"conversationId"`
	Status         models.ConversationStatus `json:"status"`
}

func (UpdateConversationStatus) functionCall() {}

// DetectConversationCompletion signals the conversation looks finished and
// whether the feedback prompt should be shown. The at-most-once guard lives
// server-side in the store, retried AI turns cannot re-trigger the modal.
type DetectConversationCompletion struct {
	ShouldShowFeedback bool   `json:"should_show_feedback"`
	CompletionReason   string `json:"completion_reason"`
	FeedbackContext    string `json:"feedback_context,omitempty"`
}

func (DetectConversationCompletion) functionCall() {}

// Tool names as they appear on the wire
const (
	fnRegisterUser                 = "register_user"
	fnUpdateConversationStatus     = "update_conversation_status"
	fnDetectConversationCompletion = "detect_conversation_completion"
)

// parseFunctionCall validates a raw tool call into the tagged union
func parseFunctionCall(name string, arguments string) (FunctionCall, error) {
	raw := json.RawMessage(arguments)
	switch name {
	case fnRegisterUser:
		var call RegisterUser
		if err := json.Unmarshal(raw, &call); err != nil {
			return nil, &Error{Kind: KindBadFunctionCall, Err: fmt.Errorf("register_user: %w", err)}
		}
		if call.Name == "" || call.Email == "" {
			return nil, &Error{Kind: KindBadFunctionCall, Err: fmt.Errorf("register_user: name and email are required")}
		}
		return call, nil

	case fnUpdateConversationStatus:
		var call UpdateConversationStatus
		if err := json.Unmarshal(raw, &call); err != nil {
			return nil, &Error{Kind: KindBadFunctionCall, Err: fmt.Errorf("update_conversation_status: %w", err)}
		}
		switch call.Status {
		case models.StatusActive, models.StatusResolvedByAI, models.StatusAssignedToLawyer, models.StatusCompleted:
		default:
			return nil, &Error{Kind: KindBadFunctionCall, Err: fmt.Errorf("update_conversation_status: unknown status %q", call.Status)}
		}
		return call, nil

	case fnDetectConversationCompletion:
		var call DetectConversationCompletion
		if err := json.Unmarshal(raw, &call); err != nil {
			return nil, &Error{Kind: KindBadFunctionCall, Err: fmt.Errorf("detect_conversation_completion: %w", err)}
		}
		return call, nil
	}

	return nil, &Error{Kind: KindBadFunctionCall, Err: fmt.Errorf("unknown function call %q", name)}
}
