package models

import "time"

// Gateway event names, client to server
const (
	EventJoinRoom              = "join-room"
	EventCreateNewConversation = "create-new-conversation"
	EventSwitchConversation    = "switch-conversation"
	EventSendMessage           = "send-message"
)

// Gateway event names, server to client
const (
	EventConversationsLoaded     = "conversations-loaded"
	EventNewConversationCreated  = "new-conversation-created"
	EventConversationSwitched    = "conversation-switched"
	EventReceiveMessage          = "receive-message"
	EventCaseUpdated             = "case-updated"
	EventShowFeedbackModal       = "show-feedback-modal"
)

// ConversationsLoadedPayload is emitted once per connection right after the
// handshake, carrying everything the client needs to render its sidebar
type ConversationsLoadedPayload struct {
	Conversations []Conversation `json:"conversations"`
	ActiveRooms   []string       `json:"activeRooms"`
}

// ConversationSwitchedPayload replays the full history of the newly active room
type ConversationSwitchedPayload struct {
	ConversationID string    `json:"conversationId"`
	RoomID         string    `json:"roomId"`
	Messages       []Message `json:"messages"`
}

// ReceiveMessagePayload is the broadcast shape for every chat bubble,
// including AI failure bubbles (IsError + ShouldRetry set)
type ReceiveMessagePayload struct {
	Text           string    `json:"text"`
	Sender         Sender    `json:"sender"`
	MessageID      string    `json:"messageId"`
	CreatedAt      time.Time `json:"createdAt"`
	ConversationID string    `json:"conversationId"`
	IsError        bool      `json:"isError,omitempty"`
	ShouldRetry    bool      `json:"shouldRetry,omitempty"`
}

// CaseUpdatedPayload is broadcast on every status transition so all open tabs
// stay consistent
type CaseUpdatedPayload struct {
	ConversationID string             `json:"conversationId"`
	Status         ConversationStatus `json:"status"`
	AssignedTo     string             `json:"assignedTo,omitempty"`
	LawyerName     string             `json:"lawyerName,omitempty"`
}

// ShowFeedbackModalPayload prompts the end user to rate a resolved
// conversation; emitted at most once per conversation
type ShowFeedbackModalPayload struct {
	ConversationID string `json:"conversationId"`
	Reason         string `json:"reason"`
	Context        string `json:"context,omitempty"`
}
