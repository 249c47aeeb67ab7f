package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/juridibot/legal-chat-api/api/handlers"
	"github.com/juridibot/legal-chat-api/auth"
	mocksdb "github.com/juridibot/legal-chat-api/databases/mocks"
	"github.com/juridibot/legal-chat-api/models"
)

func TestAuth_LoginHandler(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	assert.NoError(t, err)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:       "lawyer-1",
		Name:     "Dra. Ana",
		Email:    "ana@juridibot.com.br",
		Password: string(hash),
		Role:     models.RoleLawyer,
		Active:   true,
	}, nil)

	authenticator := auth.New("test-secret")
	h := handlers.Auth{UDB: udb, Authenticator: authenticator}

	body := strings.NewReader(`{"email":"Ana@juridibot.com.br","password":"s3cret"}`)
	req, err := http.NewRequest("POST", "/api/v1/auth/login", body)
	assert.NoError(t, err)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token string `json:"token"`
		User  struct {
			ID   string      `json:"id"`
			Role models.Role `json:"role"`
		} `json:"user"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "lawyer-1", resp.User.ID)
	assert.Equal(t, models.RoleLawyer, resp.User.Role)

	// the issued token round-trips through the authenticator
	identity, err := authenticator.Authenticate(auth.Credentials{SessionToken: resp.Token})
	assert.NoError(t, err)
	assert.Equal(t, "lawyer-1", identity.UserID)
	assert.Equal(t, models.RoleLawyer, identity.Role)
	assert.Contains(t, identity.Permissions, "conversations:close")
}

func TestAuth_LoginHandlerWrongPassword(t *testing.T) {
	hash, _ := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)

	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(&models.User{
		ID:       "lawyer-1",
		Password: string(hash),
		Role:     models.RoleLawyer,
		Active:   true,
	}, nil)

	h := handlers.Auth{UDB: udb, Authenticator: auth.New("test-secret")}

	body := strings.NewReader(`{"email":"ana@juridibot.com.br","password":"wrong"}`)
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", body)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_LoginHandlerUnknownUser(t *testing.T) {
	udb := &mocksdb.UserDatabase{}
	udb.On("FindOne", mock.Anything, mock.Anything).Return(nil, errors.New("mongo: no documents in result"))

	h := handlers.Auth{UDB: udb, Authenticator: auth.New("test-secret")}

	body := strings.NewReader(`{"email":"nobody@example.com","password":"s3cret"}`)
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", body)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAuth_LoginHandlerMissingFields(t *testing.T) {
	h := handlers.Auth{UDB: &mocksdb.UserDatabase{}, Authenticator: auth.New("test-secret")}

	body := strings.NewReader(`{"email":"","password":""}`)
	req, _ := http.NewRequest("POST", "/api/v1/auth/login", body)

	rr := httptest.NewRecorder()
	http.HandlerFunc(h.LoginHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAuth_AnonymousTokenHandler(t *testing.T) {
	authenticator := auth.New("test-secret")
	h := handlers.Auth{Authenticator: authenticator}

	req, _ := http.NewRequest("POST", "/api/v1/auth/anonymous", nil)
	rr := httptest.NewRecorder()
	http.HandlerFunc(h.AnonymousTokenHandler).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// the minted credential authenticates to the advertised user id
	identity, err := authenticator.Authenticate(auth.Credentials{BootstrapToken: resp.Token})
	assert.NoError(t, err)
	assert.True(t, identity.IsAnonymous)
	assert.Equal(t, resp.UserID, identity.UserID)
}
