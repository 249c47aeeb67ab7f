package handlers

import (
	"context"
	"net/http"
	"strings"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/auth"
	"github.com/juridibot/legal-chat-api/chat"
	"github.com/juridibot/legal-chat-api/models"
)

// Gateway owns the Socket.IO server and translates wire events into chat
// manager calls. It is also the chat.Broadcaster the manager fans events
// out through.
type Gateway struct {
	server        *socketio.Server
	authenticator *auth.Authenticator
	manager       *chat.Manager
}

// NewGateway creates the Socket.IO server. Bind must be called with the chat
// manager before the server is served; the two-step construction exists
// because the manager broadcasts through the gateway it is driven by.
func NewGateway(authenticator *auth.Authenticator) *Gateway {
	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			polling.Default,
			websocket.Default,
		},
	})
	return &Gateway{
		server:        server,
		authenticator: authenticator,
	}
}

// BroadcastToRoom implements chat.Broadcaster
func (g *Gateway) BroadcastToRoom(roomID, event string, payload interface{}) {
	g.server.BroadcastToRoom("/", roomID, event, payload)
}

// Server exposes the underlying Socket.IO handler for mounting on the router
func (g *Gateway) Server() *socketio.Server {
	return g.server
}

// Bind registers all event handlers against the manager and starts serving
func (g *Gateway) Bind(manager *chat.Manager) {
	g.manager = manager

	g.server.OnConnect("/", func(s socketio.Conn) error {
		identity := g.resolveIdentity(s)
		s.SetContext(identity)
		zap.S().Infow("client connected",
			"connectionId", s.ID(), "userId", identity.UserID, "role", identity.Role)
		g.manager.OnConnect(context.Background(), &socketEmitter{conn: s}, identity)
		return nil
	})

	g.server.OnEvent("/", models.EventJoinRoom, func(s socketio.Conn) {
		g.manager.JoinRooms(context.Background(), &socketEmitter{conn: s})
	})

	g.server.OnEvent("/", models.EventCreateNewConversation, func(s socketio.Conn) {
		g.manager.CreateConversation(context.Background(), &socketEmitter{conn: s})
	})

	g.server.OnEvent("/", models.EventSwitchConversation, func(s socketio.Conn, msg map[string]interface{}) {
		conversationID, _ := msg["conversationId"].(string)
		g.manager.SwitchConversation(context.Background(), &socketEmitter{conn: s}, conversationID)
	})

	g.server.OnEvent("/", models.EventSendMessage, func(s socketio.Conn, msg map[string]interface{}) {
		conversationID, _ := msg["conversationId"].(string)
		text, _ := msg["text"].(string)
		g.manager.SendMessage(&socketEmitter{conn: s}, conversationID, strings.TrimSpace(text))
	})

	g.server.OnError("/", func(s socketio.Conn, e error) {
		zap.S().Errorw("socket error", "error", e)
	})

	g.server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		zap.S().Infow("client disconnected", "connectionId", s.ID(), "reason", reason)
		g.manager.OnDisconnect(s.ID())
	})

	go func() {
		if err := g.server.Serve(); err != nil {
			zap.S().Fatalw("socket server error", "error", err)
		}
	}()
}

// resolveIdentity authenticates the handshake. A connection with no usable
// credential is kept open as ephemeral-unauthenticated (empty UserID) rather
// than dropped, so the client can fetch a credential and re-join.
func (g *Gateway) resolveIdentity(s socketio.Conn) *models.UserIdentity {
	creds := extractCredentials(s)
	identity, err := g.authenticator.Authenticate(creds)
	if err != nil {
		if err == auth.ErrInvalidSignature {
			zap.S().Warnw("rejected forged bootstrap credential", "connectionId", s.ID())
		}
		return &models.UserIdentity{Role: models.RoleClient}
	}
	return identity
}

func extractCredentials(s socketio.Conn) auth.Credentials {
	var creds auth.Credentials

	header := s.RemoteHeader()
	if bearer := header.Get("Authorization"); strings.HasPrefix(bearer, "Bearer ") {
		creds.SessionToken = strings.TrimPrefix(bearer, "Bearer ")
	}
	if creds.SessionToken == "" {
		req := http.Request{Header: header}
		if cookie, err := req.Cookie("session"); err == nil {
			creds.SessionToken = cookie.Value
		}
	}

	creds.BootstrapToken = header.Get("X-Anon-Token")
	if creds.BootstrapToken == "" {
		u := s.URL()
		creds.BootstrapToken = u.Query().Get("anonToken")
	}

	return creds
}

// socketEmitter adapts a socketio.Conn to the chat.Emitter interface
type socketEmitter struct {
	conn socketio.Conn
}

func (e *socketEmitter) ID() string                             { return e.conn.ID() }
func (e *socketEmitter) Join(roomID string)                     { e.conn.Join(roomID) }
func (e *socketEmitter) Emit(event string, payload interface{}) { e.conn.Emit(event, payload) }
