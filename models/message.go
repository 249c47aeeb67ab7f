package models

import "time"

// Sender identifies who produced a message
type Sender string

// Message senders
const (
	SenderUser   Sender = "user"
	SenderAI     Sender = "ai"
	SenderLawyer Sender = "lawyer"
	SenderSystem Sender = "system"
)

// FileRef points at an upload held by the file-upload service; messages only
// carry the reference, never the bytes
type FileRef struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	URL  string `json:"url" bson:"url"`
}

// Message holds the structure for the message collection in mongo. Messages are
// append-only and immutable once created; Seq breaks createdAt ties so replay
// order always matches insertion order.
type Message struct {
	ID             string    `json:"_id" bson:"_id"`
	ConversationID string    `json:"conversationId" bson:"conversationId"`
	Text           string    `json:"text" bson:"text"`
	Sender         Sender    `json:"sender" bson:"sender"`
	Attachments    []FileRef `json:"attachments,omitempty" bson:"attachments,omitempty"`
	Seq            int64     `json:"seq" bson:"seq"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}
