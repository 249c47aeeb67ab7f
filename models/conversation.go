package models

import "time"

// ConversationStatus is the lifecycle status of a conversation
type ConversationStatus string

// Conversation lifecycle statuses. Active is the initial status, Completed is terminal.
const (
	StatusActive           ConversationStatus = "active"
	StatusResolvedByAI     ConversationStatus = "resolved_by_ai"
	StatusAssignedToLawyer ConversationStatus = "assigned_to_lawyer"
	StatusCompleted        ConversationStatus = "completed"
)

// Conversation holds the structure for the conversation collection in mongo.
// RoomID is always equal to ID, one broadcast room per conversation.
// AssignedLawyerID may be empty while Status is assigned_to_lawyer: an
// AI-escalated case sits unassigned until a lawyer claims it through the
// assign endpoint.
type Conversation struct {
	ID                string             `json:"_id" bson:"_id"`
	OwnerUserID       string             `json:"ownerUserId" bson:"ownerUserId"`
	RoomID            string             `json:"roomId" bson:"roomId"`
	Status            ConversationStatus `json:"status" bson:"status"`
	AssignedLawyerID  string             `json:"assignedLawyerId,omitempty" bson:"assignedLawyerId,omitempty"`
	FeedbackRequested bool               `json:"feedbackRequested" bson:"feedbackRequested"`
	CreatedAt         time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time          `json:"updatedAt" bson:"updatedAt"`
	LastMessageAt     time.Time          `json:"lastMessageAt" bson:"lastMessageAt"`
}
