package databases

// go generate: mockery --name ConversationDatabase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/juridibot/legal-chat-api/models"
)

const conversationName = "conversations"

// ConversationDatabase contains the methods to use with the conversation database
type ConversationDatabase interface {
	ListByOwner(ctx context.Context, ownerUserID string) ([]models.Conversation, error)
	ListByAssignedLawyer(ctx context.Context, lawyerID string) ([]models.Conversation, error)
	FindOne(ctx context.Context, conversationID string) (*models.Conversation, error)
	Create(ctx context.Context, ownerUserID string) (*models.Conversation, error)
	UpdateStatus(ctx context.Context, conversationID string, status models.ConversationStatus, assignedLawyerID string) error
	TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error
	MarkFeedbackRequested(ctx context.Context, conversationID string) (bool, error)
	CompleteIdleResolved(ctx context.Context, idleSince time.Time) (int64, error)
}

type conversationDatabase struct {
	db DatabaseHelper
}

// NewConversationDatabase initializes a new instance of conversation database
// with the provided db connection
func NewConversationDatabase(db DatabaseHelper) ConversationDatabase {
	return &conversationDatabase{
		db: db,
	}
}

func (c *conversationDatabase) ListByOwner(ctx context.Context, ownerUserID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"lastMessageAt": -1})

	curr, err := c.db.Collection(conversationName).Find(ctx, bson.M{"ownerUserId": ownerUserID}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var conversations []models.Conversation
	if err := curr.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *conversationDatabase) ListByAssignedLawyer(ctx context.Context, lawyerID string) ([]models.Conversation, error) {
	opts := options.Find().SetSort(bson.M{"lastMessageAt": -1})

	curr, err := c.db.Collection(conversationName).Find(ctx,
		bson.M{"assignedLawyerId": lawyerID, "status": models.StatusAssignedToLawyer}, opts)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)

	var conversations []models.Conversation
	if err := curr.All(ctx, &conversations); err != nil {
		return nil, err
	}
	return conversations, nil
}

func (c *conversationDatabase) FindOne(ctx context.Context, conversationID string) (*models.Conversation, error) {
	conversation := &models.Conversation{}
	err := c.db.Collection(conversationName).FindOne(ctx, bson.M{"_id": conversationID}).Decode(conversation)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return conversation, nil
}

func (c *conversationDatabase) Create(ctx context.Context, ownerUserID string) (*models.Conversation, error) {
	now := time.Now()
	conversation := models.Conversation{
		ID:            uuid.New().String(),
		OwnerUserID:   ownerUserID,
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}
	conversation.RoomID = conversation.ID

	if _, err := c.db.Collection(conversationName).InsertOne(ctx, conversation); err != nil {
		return nil, ErrWriteFailed
	}
	return &conversation, nil
}

func (c *conversationDatabase) UpdateStatus(ctx context.Context, conversationID string, status models.ConversationStatus, assignedLawyerID string) error {
	set := bson.M{
		"status":    status,
		"updatedAt": time.Now(),
	}
	if assignedLawyerID != "" {
		set["assignedLawyerId"] = assignedLawyerID
	}

	_, err := c.db.Collection(conversationName).UpdateOne(ctx, bson.M{"_id": conversationID}, bson.M{"$set": set})
	return err
}

func (c *conversationDatabase) TouchLastMessage(ctx context.Context, conversationID string, at time.Time) error {
	_, err := c.db.Collection(conversationName).UpdateOne(ctx,
		bson.M{"_id": conversationID},
		bson.M{"$set": bson.M{"lastMessageAt": at, "updatedAt": at}})
	return err
}

// MarkFeedbackRequested flips the per-conversation feedback flag and reports
// whether this call won the flip. The filter makes the check-and-set atomic
// inside mongo, concurrent AI turns cannot both win.
func (c *conversationDatabase) MarkFeedbackRequested(ctx context.Context, conversationID string) (bool, error) {
	res, err := c.db.Collection(conversationName).UpdateOne(ctx,
		bson.M{"_id": conversationID, "feedbackRequested": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"feedbackRequested": true, "updatedAt": time.Now()}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func (c *conversationDatabase) CompleteIdleResolved(ctx context.Context, idleSince time.Time) (int64, error) {
	res, err := c.db.Collection(conversationName).UpdateMany(ctx,
		bson.M{"status": models.StatusResolvedByAI, "lastMessageAt": bson.M{"$lt": idleSince}},
		bson.M{"$set": bson.M{"status": models.StatusCompleted, "updatedAt": time.Now()}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
