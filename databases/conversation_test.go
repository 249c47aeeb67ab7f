package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/juridibot/legal-chat-api/databases"
	"github.com/juridibot/legal-chat-api/databases/mocks"
	"github.com/juridibot/legal-chat-api/models"
)

func TestConversationDatabase_FindOne(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(mongo.ErrNoDocuments)

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.Conversation)
		arg.ID = "conv-1"
		arg.RoomID = "conv-1"
		arg.Status = models.StatusActive
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", mock.Anything, mock.MatchedBy(func(filter interface{}) bool {
			m, ok := filter.(bson.M)
			if !ok {
				return false
			}
			return m["_id"] == "missing"
		})).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", mock.Anything, mock.Anything).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "conversations").Return(collectionHelper)

	conversationDba := databases.NewConversationDatabase(dbHelper)

	// misses map to the store's not-found sentinel
	conversation, err := conversationDba.FindOne(context.Background(), "missing")
	assert.Nil(t, conversation)
	assert.ErrorIs(t, err, databases.ErrNotFound)

	conversation, err = conversationDba.FindOne(context.Background(), "conv-1")
	assert.NoError(t, err)
	assert.Equal(t, "conv-1", conversation.ID)
	assert.Equal(t, models.StatusActive, conversation.Status)
}

func TestConversationDatabase_CreateSetsRoomEqualToID(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var iorHelper databases.InsertOneResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	iorHelper = &mocks.InsertOneResultHelper{}

	var inserted models.Conversation
	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", mock.Anything, mock.Anything).
		Return(iorHelper, nil).Run(func(args mock.Arguments) {
		inserted = args.Get(1).(models.Conversation)
	})

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "conversations").Return(collectionHelper)

	conversationDba := databases.NewConversationDatabase(dbHelper)

	conversation, err := conversationDba.Create(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NotEmpty(t, conversation.ID)
	assert.Equal(t, conversation.ID, conversation.RoomID)
	assert.Equal(t, models.StatusActive, conversation.Status)
	assert.Equal(t, "user-1", conversation.OwnerUserID)
	assert.Equal(t, *conversation, inserted)
}

func TestConversationDatabase_CreateWriteFailure(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", mock.Anything, mock.Anything).
		Return(nil, errors.New("mocked-error"))

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "conversations").Return(collectionHelper)

	conversationDba := databases.NewConversationDatabase(dbHelper)

	conversation, err := conversationDba.Create(context.Background(), "user-1")
	assert.Nil(t, conversation)
	assert.ErrorIs(t, err, databases.ErrWriteFailed)
}

func TestConversationDatabase_MarkFeedbackRequested(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	// first call flips the flag, second call's filter matches nothing
	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 1}, nil).Once()
	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 0}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "conversations").Return(collectionHelper)

	conversationDba := databases.NewConversationDatabase(dbHelper)

	won, err := conversationDba.MarkFeedbackRequested(context.Background(), "conv-1")
	assert.NoError(t, err)
	assert.True(t, won)

	won, err = conversationDba.MarkFeedbackRequested(context.Background(), "conv-1")
	assert.NoError(t, err)
	assert.False(t, won)
}

func TestConversationDatabase_CompleteIdleResolved(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	collectionHelper.(*mocks.CollectionHelper).
		On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{ModifiedCount: 4}, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "conversations").Return(collectionHelper)

	conversationDba := databases.NewConversationDatabase(dbHelper)

	count, err := conversationDba.CompleteIdleResolved(context.Background(), time.Now().Add(-72*time.Hour))
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestConversationDatabase_ListByOwner(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	cursorHelper.(*mocks.CursorHelper).
		On("All", mock.Anything, mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Conversation)
		*arg = []models.Conversation{
			{ID: "conv-recent", RoomID: "conv-recent", OwnerUserID: "user-1"},
			{ID: "conv-older", RoomID: "conv-older", OwnerUserID: "user-1"},
		}
	})
	cursorHelper.(*mocks.CursorHelper).
		On("Close", mock.Anything).Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", mock.Anything, mock.Anything, mock.Anything).
		Return(cursorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "conversations").Return(collectionHelper)

	conversationDba := databases.NewConversationDatabase(dbHelper)

	conversations, err := conversationDba.ListByOwner(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.Len(t, conversations, 2)
	assert.Equal(t, "conv-recent", conversations[0].ID)
}
