package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juridibot/legal-chat-api/models"
)

const messageName = "messages"

// MessageDatabase contains the methods to use with the message database.
// Messages are append-only; ListByConversation always returns creation order
// so AI context replay never sees a reordering.
type MessageDatabase interface {
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	InsertOne(ctx context.Context, message models.Message) error
	CountByConversation(ctx context.Context, conversationID string) (int64, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the
// provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}})

	curr, err := m.db.Collection(messageName).Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var messages []models.Message
	if err := curr.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (m *messageDatabase) InsertOne(ctx context.Context, message models.Message) error {
	if _, err := m.db.Collection(messageName).InsertOne(ctx, message); err != nil {
		return ErrWriteFailed
	}
	return nil
}

func (m *messageDatabase) CountByConversation(ctx context.Context, conversationID string) (int64, error) {
	return m.db.Collection(messageName).CountDocuments(ctx, bson.M{"conversationId": conversationID})
}
