package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/auth"
	"github.com/juridibot/legal-chat-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// NotificationHub keeps one websocket per connected staff member for case
// alerts. It is independent of the chat gateway: a lawyer gets assignment
// alerts without having any conversation room open.
type NotificationHub struct {
	Authenticator *auth.Authenticator

	clients map[string]*websocket.Conn
	mutex   sync.Mutex
}

// NewNotificationHub creates an empty hub
func NewNotificationHub(authenticator *auth.Authenticator) *NotificationHub {
	return &NotificationHub{
		Authenticator: authenticator,
		clients:       make(map[string]*websocket.Conn),
	}
}

// HandleAlertsWebSocket upgrades /ws/alerts. Staff identify with their
// session token via Authorization header or token query param; clients and
// anonymous identities are rejected, this is a privileged room.
func (h *NotificationHub) HandleAlertsWebSocket(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" || token == r.Header.Get("Authorization") {
		token = r.URL.Query().Get("token")
	}

	identity, err := h.Authenticator.Authenticate(auth.Credentials{SessionToken: token})
	if err != nil || identity.Role == models.RoleClient {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": "unauthorized"}`))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().Errorw("websocket upgrade error", "error", err)
		return
	}

	userID := identity.UserID
	h.mutex.Lock()
	h.clients[userID] = conn
	h.mutex.Unlock()
	zap.S().Infow("staff connected to /ws/alerts", "userId", userID)

	conn.SetCloseHandler(func(code int, text string) error {
		h.mutex.Lock()
		delete(h.clients, userID)
		h.mutex.Unlock()
		zap.S().Infow("staff disconnected from /ws/alerts", "userId", userID)
		return nil
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			conn.Close()
			break
		}
	}
}

// ConversationAssigned implements chat.Alerter. A case with a concrete lawyer
// alerts that lawyer only; an unassigned escalation goes to everyone
// connected so the pool can claim it.
func (h *NotificationHub) ConversationAssigned(conversation *models.Conversation, lawyerName string) {
	payload := map[string]interface{}{
		"event": "case_assigned",
		"data": models.CaseUpdatedPayload{
			ConversationID: conversation.ID,
			Status:         conversation.Status,
			AssignedTo:     conversation.AssignedLawyerID,
			LawyerName:     lawyerName,
		},
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conversation.AssignedLawyerID != "" {
		if conn, ok := h.clients[conversation.AssignedLawyerID]; ok {
			h.writeOrDrop(conversation.AssignedLawyerID, conn, payload)
		}
		return
	}

	for userID, conn := range h.clients {
		h.writeOrDrop(userID, conn, payload)
	}
}

// writeOrDrop must be called with the mutex held
func (h *NotificationHub) writeOrDrop(userID string, conn *websocket.Conn, payload interface{}) {
	if err := conn.WriteJSON(payload); err != nil {
		zap.S().Warnw("dropping dead alert socket", "userId", userID, "error", err)
		delete(h.clients, userID)
		conn.Close()
	}
}
