package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"github.com/juridibot/legal-chat-api/auth"
	"github.com/juridibot/legal-chat-api/databases"
	"github.com/juridibot/legal-chat-api/models"
)

const sessionTokenTTL = 24 * time.Hour

// Auth handles credential issuance for the REST surface and the gateway
type Auth struct {
	UDB           databases.UserDatabase
	Authenticator *auth.Authenticator
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string      `json:"id"`
		Name  string      `json:"name"`
		Email string      `json:"email"`
		Role  models.Role `json:"role"`
	} `json:"user"`
}

// rolePermissions maps staff roles to the permissions embedded in their
// session tokens
var rolePermissions = map[models.Role][]string{
	models.RoleLawyer:     {"conversations:read", "conversations:close"},
	models.RoleModerator:  {"conversations:read", "conversations:assign", "conversations:close"},
	models.RoleSuperAdmin: {"conversations:read", "conversations:assign", "conversations:close", "users:manage"},
}

// LoginHandler handles staff login via email/password and returns a session JWT
func (h Auth) LoginHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid request"})
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "email and password required"})
		return
	}

	user, err := h.UDB.FindOne(r.Context(), bson.M{"email": email, "active": true})
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
		return
	}

	token, err := h.Authenticator.IssueSessionToken(user, rolePermissions[user.Role], sessionTokenTTL)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "failed to issue token"})
		return
	}

	resp := loginResponse{Token: token}
	resp.User.ID = user.ID
	resp.User.Name = user.Name
	resp.User.Email = user.Email
	resp.User.Role = user.Role
	_ = json.NewEncoder(w).Encode(resp)
}

// AnonymousTokenHandler mints a bootstrap credential for anonymous visitors.
// The random half stays stable client-side, so the derived identity survives
// reconnects.
func (h Auth) AnonymousTokenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	randomToken := uuid.New().String()
	_ = json.NewEncoder(w).Encode(map[string]string{
		"token":  h.Authenticator.MintBootstrapToken(randomToken),
		"userId": auth.AnonymousUserID(randomToken),
	})
}
