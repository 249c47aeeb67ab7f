package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/ai"
	"github.com/juridibot/legal-chat-api/databases"
	"github.com/juridibot/legal-chat-api/models"
)

const retryableAIReply = "Desculpe, estou com dificuldades técnicas no momento. " +
	"Por favor, tente enviar sua mensagem novamente."

// Converser runs one AI turn over the full conversation history
type Converser interface {
	Converse(ctx context.Context, conversationID string, history []models.Message, newUserText string) (*ai.Result, error)
}

// Broadcaster fans an event out to every connection subscribed to a room
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload interface{})
}

// Emitter is one physical client connection
type Emitter interface {
	ID() string
	Join(roomID string)
	Emit(event string, payload interface{})
}

// Notifier delivers the registration side effect for register_user calls
type Notifier interface {
	SendWelcomeEmail(ctx context.Context, name, email string) error
}

// Alerter pushes case-assignment alerts to the lawyer side
type Alerter interface {
	ConversationAssigned(conversation *models.Conversation, lawyerName string)
}

// ConnectionSession is the ephemeral per-connection state. It is destroyed on
// disconnect and never outlives the socket.
type ConnectionSession struct {
	ConnectionID         string
	UserID               string
	Identity             *models.UserIdentity
	ActiveConversationID string
	JoinedRoomIDs        map[string]struct{}
}

// room serializes all mutating work for one conversation. One goroutine
// drains the queue, so message append, broadcast, AI turn and status effects
// for a conversation happen strictly in arrival order while unrelated
// conversations proceed in parallel.
type room struct {
	conversationID string
	queue          chan func()
	seqReady       bool
	nextSeq        int64
}

// Manager multiplexes physical connections across logical conversation rooms
// and drives the conversation lifecycle.
type Manager struct {
	conversations databases.ConversationDatabase
	messages      databases.MessageDatabase
	users         databases.UserDatabase
	ai            Converser
	broadcaster   Broadcaster
	notifier      Notifier
	alerter       Alerter

	mu       sync.RWMutex
	sessions map[string]*ConnectionSession
	rooms    map[string]*room

	done chan struct{}
	wg   sync.WaitGroup
}

// ManagerOption mutates a Manager at construction
type ManagerOption func(*Manager)

// WithNotifier wires the registration email side effect
func WithNotifier(n Notifier) ManagerOption {
	return func(m *Manager) { m.notifier = n }
}

// WithAlerter wires the lawyer alert channel
func WithAlerter(a Alerter) ManagerOption {
	return func(m *Manager) { m.alerter = a }
}

// NewManager creates a new session/room manager
func NewManager(
	conversations databases.ConversationDatabase,
	messages databases.MessageDatabase,
	users databases.UserDatabase,
	converser Converser,
	broadcaster Broadcaster,
	opts ...ManagerOption,
) *Manager {
	m := &Manager{
		conversations: conversations,
		messages:      messages,
		users:         users,
		ai:            converser,
		broadcaster:   broadcaster,
		sessions:      make(map[string]*ConnectionSession),
		rooms:         make(map[string]*room),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Close stops all room workers. In-flight work finishes, queued work is dropped.
func (m *Manager) Close() {
	close(m.done)
	m.wg.Wait()
}

// OnConnect registers the connection, loads the user's conversations, joins
// every owned room and replays the most recently active conversation. Store
// read failures degrade to an empty room state instead of dropping the
// connection.
func (m *Manager) OnConnect(ctx context.Context, conn Emitter, identity *models.UserIdentity) {
	session := &ConnectionSession{
		ConnectionID:  conn.ID(),
		UserID:        identity.UserID,
		Identity:      identity,
		JoinedRoomIDs: make(map[string]struct{}),
	}
	m.mu.Lock()
	m.sessions[conn.ID()] = session
	m.mu.Unlock()

	m.loadAndJoin(ctx, conn, session)
}

// JoinRooms re-runs the owned-room join for an already connected session,
// serving the explicit join-room event
func (m *Manager) JoinRooms(ctx context.Context, conn Emitter) {
	session := m.session(conn.ID())
	if session == nil {
		return
	}
	m.loadAndJoin(ctx, conn, session)
}

func (m *Manager) loadAndJoin(ctx context.Context, conn Emitter, session *ConnectionSession) {
	if session.UserID == "" {
		// ephemeral-unauthenticated: connection stays up with no history
		conn.Emit(models.EventConversationsLoaded, models.ConversationsLoadedPayload{
			Conversations: []models.Conversation{},
			ActiveRooms:   []string{},
		})
		return
	}

	conversations, err := m.conversations.ListByOwner(ctx, session.UserID)
	if err != nil {
		zap.S().Errorw("failed to list conversations, degrading to empty state",
			"userId", session.UserID, "error", err)
		conversations = nil
	}
	if conversations == nil {
		conversations = []models.Conversation{}
	}

	activeRooms := make([]string, 0, len(conversations))
	m.mu.Lock()
	for _, c := range conversations {
		conn.Join(c.RoomID)
		session.JoinedRoomIDs[c.RoomID] = struct{}{}
		activeRooms = append(activeRooms, c.RoomID)
	}
	m.mu.Unlock()

	conn.Emit(models.EventConversationsLoaded, models.ConversationsLoadedPayload{
		Conversations: conversations,
		ActiveRooms:   activeRooms,
	})

	// ListByOwner sorts most-recently-active first
	if session.ActiveConversationID == "" && len(conversations) > 0 {
		m.replayHistory(ctx, conn, session, conversations[0].ID)
	}
}

// CreateConversation allocates a new conversation and room, joins the
// requesting connection and makes it active
func (m *Manager) CreateConversation(ctx context.Context, conn Emitter) {
	session := m.session(conn.ID())
	if session == nil || session.UserID == "" {
		conn.Emit(models.EventReceiveMessage, errorBubble("", "Faça login ou aceite a sessão anônima para iniciar um atendimento.", false))
		return
	}

	conversation, err := m.conversations.Create(ctx, session.UserID)
	if err != nil {
		zap.S().Errorw("failed to create conversation", "userId", session.UserID, "error", err)
		conn.Emit(models.EventReceiveMessage, errorBubble("", "Não foi possível criar a conversa. Tente novamente.", true))
		return
	}

	m.mu.Lock()
	conn.Join(conversation.RoomID)
	session.JoinedRoomIDs[conversation.RoomID] = struct{}{}
	session.ActiveConversationID = conversation.ID
	m.mu.Unlock()

	conn.Emit(models.EventNewConversationCreated, conversation)
}

// SwitchConversation makes another joined room the active one for this
// connection and replays its full history to the requester only. A switch to
// the already active conversation is a no-op; other joined rooms keep
// receiving background broadcasts.
func (m *Manager) SwitchConversation(ctx context.Context, conn Emitter, conversationID string) {
	session := m.session(conn.ID())
	if session == nil || session.UserID == "" || conversationID == "" {
		return
	}
	if session.ActiveConversationID == conversationID {
		return
	}

	conversation, err := m.conversations.FindOne(ctx, conversationID)
	if err != nil {
		zap.S().Warnw("switch to unknown conversation", "conversationId", conversationID, "error", err)
		return
	}
	assignedHere := conversation.AssignedLawyerID != "" && conversation.AssignedLawyerID == session.UserID
	if conversation.OwnerUserID != session.UserID && !assignedHere {
		zap.S().Warnw("switch denied, connection does not own conversation",
			"conversationId", conversationID, "userId", session.UserID)
		return
	}

	m.replayHistory(ctx, conn, session, conversationID)
}

func (m *Manager) replayHistory(ctx context.Context, conn Emitter, session *ConnectionSession, conversationID string) {
	messages, err := m.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		zap.S().Errorw("failed to load history, replaying empty room",
			"conversationId", conversationID, "error", err)
		messages = nil
	}
	if messages == nil {
		messages = []models.Message{}
	}

	m.mu.Lock()
	session.ActiveConversationID = conversationID
	m.mu.Unlock()

	conn.Emit(models.EventConversationSwitched, models.ConversationSwitchedPayload{
		ConversationID: conversationID,
		RoomID:         conversationID,
		Messages:       messages,
	})
}

// SendMessage appends the user's message, echoes it to the room, runs the AI
// turn and applies any function-call effects. All of it is queued on the
// conversation's room so concurrent sends into one conversation process in
// strict arrival order. The work belongs to the conversation, not the
// connection: a disconnect mid-turn does not cancel it.
func (m *Manager) SendMessage(conn Emitter, conversationID, text string) {
	session := m.session(conn.ID())
	if session == nil {
		return
	}
	if text == "" {
		conn.Emit(models.EventReceiveMessage, errorBubble(conversationID, "A mensagem não pode ser vazia.", false))
		return
	}
	if session.UserID == "" {
		conn.Emit(models.EventReceiveMessage, errorBubble(conversationID, "Sessão não autenticada. Recarregue a página para obter uma credencial.", false))
		return
	}

	ctx := context.Background()

	if conversationID == "" {
		conversationID = session.ActiveConversationID
	}
	if conversationID == "" {
		// lazily create on first message when no conversation exists yet
		conversation, err := m.conversations.Create(ctx, session.UserID)
		if err != nil {
			zap.S().Errorw("failed to lazily create conversation", "userId", session.UserID, "error", err)
			conn.Emit(models.EventReceiveMessage, errorBubble("", "Não foi possível iniciar a conversa. Tente novamente.", true))
			return
		}
		m.mu.Lock()
		conn.Join(conversation.RoomID)
		session.JoinedRoomIDs[conversation.RoomID] = struct{}{}
		session.ActiveConversationID = conversation.ID
		m.mu.Unlock()
		conn.Emit(models.EventNewConversationCreated, conversation)
		conversationID = conversation.ID
	}

	r := m.room(conversationID)
	r.queue <- func() {
		m.processUserMessage(ctx, r, conn, conversationID, text)
	}
}

// processUserMessage runs inside the room worker goroutine
func (m *Manager) processUserMessage(ctx context.Context, r *room, conn Emitter, conversationID, text string) {
	if !r.seqReady {
		count, err := m.messages.CountByConversation(ctx, conversationID)
		if err == nil {
			r.nextSeq = count
			r.seqReady = true
		}
	}

	history, err := m.messages.ListByConversation(ctx, conversationID)
	if err != nil {
		zap.S().Errorw("failed to load history before AI turn", "conversationId", conversationID, "error", err)
		history = nil
	}

	now := time.Now()
	userMessage := models.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Text:           text,
		Sender:         models.SenderUser,
		Seq:            r.nextSeq,
		CreatedAt:      now,
	}

	// durable append comes first: a failed AI call can then replay the exact
	// same history on retry
	if err := m.messages.InsertOne(ctx, userMessage); err != nil {
		zap.S().Errorw("failed to append user message", "conversationId", conversationID, "error", err)
		conn.Emit(models.EventReceiveMessage, errorBubble(conversationID, "Sua mensagem não pôde ser salva. Envie novamente.", true))
		return
	}
	r.nextSeq++

	if err := m.conversations.TouchLastMessage(ctx, conversationID, now); err != nil {
		zap.S().Warnw("failed to touch lastMessageAt", "conversationId", conversationID, "error", err)
	}

	m.broadcaster.BroadcastToRoom(conversationID, models.EventReceiveMessage, messageBubble(userMessage))

	result, err := m.ai.Converse(ctx, conversationID, history, text)
	if err != nil {
		retry := true
		var aiErr *ai.Error
		if errors.As(err, &aiErr) {
			retry = aiErr.Retryable()
		}
		zap.S().Errorw("AI turn failed", "conversationId", conversationID, "error", err)
		m.broadcaster.BroadcastToRoom(conversationID, models.EventReceiveMessage, models.ReceiveMessagePayload{
			Text:           retryableAIReply,
			Sender:         models.SenderAI,
			MessageID:      uuid.New().String(),
			CreatedAt:      time.Now(),
			ConversationID: conversationID,
			IsError:        true,
			ShouldRetry:    retry,
		})
		return
	}

	if result.Reply != "" {
		aiMessage := models.Message{
			ID:             uuid.New().String(),
			ConversationID: conversationID,
			Text:           result.Reply,
			Sender:         models.SenderAI,
			Seq:            r.nextSeq,
			CreatedAt:      time.Now(),
		}
		if err := m.messages.InsertOne(ctx, aiMessage); err != nil {
			zap.S().Errorw("failed to append AI reply", "conversationId", conversationID, "error", err)
		} else {
			r.nextSeq++
		}
		if err := m.conversations.TouchLastMessage(ctx, conversationID, aiMessage.CreatedAt); err != nil {
			zap.S().Warnw("failed to touch lastMessageAt", "conversationId", conversationID, "error", err)
		}
		m.broadcaster.BroadcastToRoom(conversationID, models.EventReceiveMessage, messageBubble(aiMessage))
	}

	m.applyFunctionCalls(ctx, conversationID, result.FunctionCalls)
}

// applyFunctionCalls interprets the AI's structured calls as state-machine
// events. Runs inside the room worker, so status effects keep broadcast order.
func (m *Manager) applyFunctionCalls(ctx context.Context, conversationID string, calls []ai.FunctionCall) {
	if len(calls) == 0 {
		return
	}

	conversation, err := m.conversations.FindOne(ctx, conversationID)
	if err != nil {
		zap.S().Errorw("cannot apply function calls, conversation not found",
			"conversationId", conversationID, "error", err)
		return
	}

	for _, raw := range calls {
		switch call := raw.(type) {
		case ai.RegisterUser:
			m.registerUser(ctx, call)

		case ai.UpdateConversationStatus:
			if call.ConversationID != "" && call.ConversationID != conversationID {
				zap.S().Warnw("status call targets another conversation, ignoring",
					"conversationId", conversationID, "target", call.ConversationID)
				continue
			}
			if err := m.transition(ctx, conversation, call.Status, "", ""); err != nil {
				// StateError: recovered locally, surfaced as a no-op
				zap.S().Warnw("rejected status transition",
					"conversationId", conversationID, "error", err)
			}

		case ai.DetectConversationCompletion:
			if !call.ShouldShowFeedback {
				continue
			}
			won, err := m.conversations.MarkFeedbackRequested(ctx, conversationID)
			if err != nil {
				zap.S().Errorw("feedback check-and-set failed", "conversationId", conversationID, "error", err)
				continue
			}
			if !won {
				continue
			}
			m.broadcaster.BroadcastToRoom(conversationID, models.EventShowFeedbackModal, models.ShowFeedbackModalPayload{
				ConversationID: conversationID,
				Reason:         call.CompletionReason,
				Context:        call.FeedbackContext,
			})
		}
	}
}

func (m *Manager) registerUser(ctx context.Context, call ai.RegisterUser) {
	now := time.Now()
	user := models.User{
		ID:        uuid.New().String(),
		Name:      call.Name,
		Email:     call.Email,
		Phone:     call.Phone,
		Role:      models.RoleClient,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := m.users.InsertOne(ctx, user); err != nil {
		zap.S().Errorw("failed to register user from AI call", "email", call.Email, "error", err)
		return
	}
	if m.notifier != nil {
		if err := m.notifier.SendWelcomeEmail(ctx, call.Name, call.Email); err != nil {
			zap.S().Warnw("failed to send welcome email", "email", call.Email, "error", err)
		}
	}
}

// transition applies one validated lifecycle edge, persists it and broadcasts
// case-updated. Mutates conversation.Status in place on success.
func (m *Manager) transition(ctx context.Context, conversation *models.Conversation, to models.ConversationStatus, lawyerID, lawyerName string) error {
	next, err := Transition(conversation.Status, to)
	if err != nil {
		return err
	}
	if next == conversation.Status {
		return nil
	}

	if err := m.conversations.UpdateStatus(ctx, conversation.ID, next, lawyerID); err != nil {
		return err
	}
	conversation.Status = next
	if lawyerID != "" {
		conversation.AssignedLawyerID = lawyerID
	}

	m.broadcaster.BroadcastToRoom(conversation.RoomID, models.EventCaseUpdated, models.CaseUpdatedPayload{
		ConversationID: conversation.ID,
		Status:         next,
		AssignedTo:     conversation.AssignedLawyerID,
		LawyerName:     lawyerName,
	})

	if next == models.StatusAssignedToLawyer && m.alerter != nil {
		m.alerter.ConversationAssigned(conversation, lawyerName)
	}
	return nil
}

// ApplyTransition serializes an externally requested transition (explicit
// lawyer assignment, lawyer-side closure) through the conversation's room so
// it cannot interleave with an in-flight AI turn.
func (m *Manager) ApplyTransition(ctx context.Context, conversationID string, to models.ConversationStatus, lawyerID, lawyerName string) error {
	errc := make(chan error, 1)
	r := m.room(conversationID)
	r.queue <- func() {
		conversation, err := m.conversations.FindOne(ctx, conversationID)
		if err != nil {
			errc <- err
			return
		}
		errc <- m.transition(ctx, conversation, to, lawyerID, lawyerName)
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnDisconnect drops the connection session. Conversations and messages are
// durable and untouched; queued room work keeps running.
func (m *Manager) OnDisconnect(connectionID string) {
	m.mu.Lock()
	delete(m.sessions, connectionID)
	m.mu.Unlock()
}

func (m *Manager) session(connectionID string) *ConnectionSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[connectionID]
}

// room returns the per-conversation actor, starting its worker on first use
func (m *Manager) room(conversationID string) *room {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.rooms[conversationID]; ok {
		return r
	}
	r := &room{
		conversationID: conversationID,
		queue:          make(chan func(), 32),
	}
	m.rooms[conversationID] = r
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		for {
			select {
			case fn := <-r.queue:
				fn()
			case <-m.done:
				return
			}
		}
	}()
	return r
}

func messageBubble(msg models.Message) models.ReceiveMessagePayload {
	return models.ReceiveMessagePayload{
		Text:           msg.Text,
		Sender:         msg.Sender,
		MessageID:      msg.ID,
		CreatedAt:      msg.CreatedAt,
		ConversationID: msg.ConversationID,
	}
}

func errorBubble(conversationID, text string, shouldRetry bool) models.ReceiveMessagePayload {
	return models.ReceiveMessagePayload{
		Text:           text,
		Sender:         models.SenderSystem,
		MessageID:      uuid.New().String(),
		CreatedAt:      time.Now(),
		ConversationID: conversationID,
		IsError:        true,
		ShouldRetry:    shouldRetry,
	}
}
