package handlers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/juridibot/legal-chat-api/api/handlers"
	"github.com/juridibot/legal-chat-api/auth"
	"github.com/juridibot/legal-chat-api/models"
)

func lawyerToken(t *testing.T, a *auth.Authenticator, userID string) string {
	t.Helper()
	token, err := a.IssueSessionToken(&models.User{ID: userID, Role: models.RoleLawyer}, nil, time.Hour)
	assert.NoError(t, err)
	return token
}

func TestNotificationHub_RejectsUnauthenticated(t *testing.T) {
	hub := handlers.NewNotificationHub(auth.New("test-secret"))

	req, _ := http.NewRequest("GET", "/ws/alerts", nil)
	rr := httptest.NewRecorder()
	hub.HandleAlertsWebSocket(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestNotificationHub_RejectsClientRole(t *testing.T) {
	authenticator := auth.New("test-secret")
	hub := handlers.NewNotificationHub(authenticator)

	token := authenticator.MintBootstrapToken("random-half")
	sessionToken, err := authenticator.IssueSessionToken(&models.User{ID: "client-1", Role: models.RoleClient}, nil, time.Hour)
	assert.NoError(t, err)

	for _, tok := range []string{token, sessionToken} {
		req, _ := http.NewRequest("GET", "/ws/alerts?token="+tok, nil)
		rr := httptest.NewRecorder()
		hub.HandleAlertsWebSocket(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	}
}

func TestNotificationHub_DeliversAssignmentAlert(t *testing.T) {
	authenticator := auth.New("test-secret")
	hub := handlers.NewNotificationHub(authenticator)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleAlertsWebSocket))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?token=" + lawyerToken(t, authenticator, "lawyer-1")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	defer conn.Close()

	// give the hub a beat to register the socket
	time.Sleep(50 * time.Millisecond)

	hub.ConversationAssigned(&models.Conversation{
		ID:               "conv-1",
		RoomID:           "conv-1",
		Status:           models.StatusAssignedToLawyer,
		AssignedLawyerID: "lawyer-1",
	}, "Dra. Ana")

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	assert.NoError(t, err)

	var alert struct {
		Event string                   `json:"event"`
		Data  models.CaseUpdatedPayload `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(raw, &alert))
	assert.Equal(t, "case_assigned", alert.Event)
	assert.Equal(t, "conv-1", alert.Data.ConversationID)
	assert.Equal(t, models.StatusAssignedToLawyer, alert.Data.Status)
	assert.Equal(t, "Dra. Ana", alert.Data.LawyerName)
}

func TestNotificationHub_UnassignedAlertGoesToThePool(t *testing.T) {
	authenticator := auth.New("test-secret")
	hub := handlers.NewNotificationHub(authenticator)

	server := httptest.NewServer(http.HandlerFunc(hub.HandleAlertsWebSocket))
	defer server.Close()

	base := "ws" + strings.TrimPrefix(server.URL, "http")
	connA, _, err := websocket.DefaultDialer.Dial(base+"?token="+lawyerToken(t, authenticator, "lawyer-a"), nil)
	assert.NoError(t, err)
	defer connA.Close()
	connB, _, err := websocket.DefaultDialer.Dial(base+"?token="+lawyerToken(t, authenticator, "lawyer-b"), nil)
	assert.NoError(t, err)
	defer connB.Close()

	time.Sleep(50 * time.Millisecond)

	hub.ConversationAssigned(&models.Conversation{
		ID:     "conv-1",
		RoomID: "conv-1",
		Status: models.StatusAssignedToLawyer,
	}, "")

	for _, conn := range []*websocket.Conn{connA, connB} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		assert.NoError(t, err)
		assert.Contains(t, string(raw), "conv-1")
	}
}
