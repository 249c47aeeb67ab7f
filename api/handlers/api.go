package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/ai"
	"github.com/juridibot/legal-chat-api/api"
	"github.com/juridibot/legal-chat-api/api/scheduler"
	"github.com/juridibot/legal-chat-api/auth"
	"github.com/juridibot/legal-chat-api/chat"
	"github.com/juridibot/legal-chat-api/config"
	"github.com/juridibot/legal-chat-api/databases"
	"github.com/juridibot/legal-chat-api/models"
	"github.com/juridibot/legal-chat-api/notifications"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router        *mux.Router
	Config        config.Config
	Authenticator *auth.Authenticator
	Gateway       *Gateway
	Manager       *chat.Manager
	Hub           *NotificationHub
	Scheduler     *scheduler.Scheduler
	dbHelper      databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareAuth{Auth: a.Authenticator}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	authHandler := Auth{UDB: databases.NewUserDatabase(a.dbHelper), Authenticator: a.Authenticator}
	conv := Conversation{
		DB:      databases.NewConversationDatabase(a.dbHelper),
		MDB:     databases.NewMessageDatabase(a.dbHelper),
		UDB:     databases.NewUserDatabase(a.dbHelper),
		Manager: a.Manager,
	}
	attachment := Attachment{CloudinaryURL: a.Config.CloudinaryURL}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	// assign/close wait on the conversation's work queue, bound the wait
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/login", http.HandlerFunc(authHandler.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/anonymous", http.HandlerFunc(authHandler.AnonymousTokenHandler)).Methods("POST")

	staff := func(h http.HandlerFunc) http.Handler {
		return api.Middleware(api.RequireRoles(h, models.RoleLawyer, models.RoleModerator, models.RoleSuperAdmin))
	}
	apiCreate.Handle("/conversations", staff(conv.AssignedConversationsHandler)).Methods("GET")
	apiCreate.Handle("/conversation/{conversation_id}/messages", staff(conv.ConversationHistoryHandler)).Methods("GET")
	apiCreate.Handle("/conversation/{conversation_id}/assign", staff(conv.AssignConversationHandler)).Methods("POST")
	apiCreate.Handle("/conversation/{conversation_id}/close", staff(conv.CloseConversationHandler)).Methods("POST")

	apiCreate.Handle("/attachments", api.Middleware(http.HandlerFunc(attachment.UploadHandler))).Methods("POST")

	// staff alert channel, authenticates inside the upgrade handshake
	r.HandleFunc("/ws/alerts", a.Hub.HandleAlertsWebSocket)

	// conversation gateway
	r.Handle("/socket.io/", a.Gateway.Server())

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("legal-chat-api has connected to the database")

	a.Authenticator = auth.New(a.Config.SessionSecret)

	orchestrator, err := ai.New(a.Config.OpenAIKey, a.Config.OpenAIModel)
	if err != nil {
		// the AI side is the core of the product, refuse to start without it
		zap.S().With(err).Error("failed to create AI orchestrator")
		return err
	}

	conversationDB := databases.NewConversationDatabase(a.dbHelper)
	messageDB := databases.NewMessageDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)

	a.Gateway = NewGateway(a.Authenticator)
	a.Hub = NewNotificationHub(a.Authenticator)
	notifier := notifications.NewEmailNotifier(a.Config.SendgridToken)

	a.Manager = chat.NewManager(conversationDB, messageDB, userDB, orchestrator, a.Gateway,
		chat.WithNotifier(notifier),
		chat.WithAlerter(a.Hub),
	)
	a.Gateway.Bind(a.Manager)

	a.Scheduler = scheduler.NewScheduler(conversationDB, scheduler.DefaultIdleWindow)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
