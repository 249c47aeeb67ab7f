package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/api"
	"github.com/juridibot/legal-chat-api/chat"
	"github.com/juridibot/legal-chat-api/config"
	"github.com/juridibot/legal-chat-api/databases"
	"github.com/juridibot/legal-chat-api/models"
)

// Conversation exported for testing purposes
type Conversation struct {
	DB      databases.ConversationDatabase
	MDB     databases.MessageDatabase
	UDB     databases.UserDatabase
	Manager *chat.Manager
}

// AssignedConversationsHandler returns the authenticated lawyer's open queue
func (c Conversation) AssignedConversationsHandler(w http.ResponseWriter, r *http.Request) {
	user := api.UserFromContext(r.Context())
	if user == nil {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no identity in context"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	dbResp, err := c.DB.ListByAssignedLawyer(ctx, user.ID())
	if err != nil {
		config.ErrorStatus("failed to get conversations", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Conversation{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// ConversationHistoryHandler returns the full ordered history of a conversation
func (c Conversation) ConversationHistoryHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]

	zap.S().Debugf("conversation_id: %v", conversationID)

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := c.DB.FindOne(ctx, conversationID); err != nil {
		config.ErrorStatus("failed to get conversation by ID", http.StatusNotFound, w, err)
		return
	}

	dbResp, err := c.MDB.ListByConversation(ctx, conversationID)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusNotFound, w, err)
		return
	}

	if len(dbResp) == 0 {
		dbResp = []models.Message{}
	}
	b, err := json.Marshal(dbResp)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

type assignRequest struct {
	LawyerID string `json:"lawyerId"`
}

// AssignConversationHandler moves a conversation to assigned_to_lawyer. With
// no explicit lawyerId in the body the caller claims the case. The transition
// is serialized through the conversation's room, so it cannot interleave with
// an in-flight AI turn.
func (c Conversation) AssignConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]

	user := api.UserFromContext(r.Context())
	if user == nil {
		config.ErrorStatus("missing authenticated user", http.StatusUnauthorized, w, errors.New("no identity in context"))
		return
	}

	var req assignRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	lawyerID := req.LawyerID
	if lawyerID == "" {
		lawyerID = user.ID()
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	lawyerName := ""
	if lawyer, err := c.UDB.FindOne(ctx, bson.M{"_id": lawyerID}); err == nil {
		lawyerName = lawyer.Name
	}

	if err := c.Manager.ApplyTransition(ctx, conversationID, models.StatusAssignedToLawyer, lawyerID, lawyerName); err != nil {
		var stateErr *chat.StateError
		if errors.As(err, &stateErr) {
			config.ErrorStatus("conversation cannot be assigned in its current status", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to assign conversation", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": string(models.StatusAssignedToLawyer), "assignedTo": lawyerID})
}

// CloseConversationHandler completes an assigned conversation after the
// lawyer wraps up
func (c Conversation) CloseConversationHandler(w http.ResponseWriter, r *http.Request) {
	conversationID := mux.Vars(r)["conversation_id"]

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if err := c.Manager.ApplyTransition(ctx, conversationID, models.StatusCompleted, "", ""); err != nil {
		var stateErr *chat.StateError
		if errors.As(err, &stateErr) {
			config.ErrorStatus("conversation cannot be completed in its current status", http.StatusConflict, w, err)
			return
		}
		config.ErrorStatus("failed to close conversation", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": string(models.StatusCompleted)})
}
