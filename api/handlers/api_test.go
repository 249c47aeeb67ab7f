package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/juridibot/legal-chat-api/auth"
)

var a App

func executeRequest(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int) {
	if expected != actual {
		t.Errorf("Expected response code %d. Got %d\n", expected, actual)
	}
}

func setupRouter() {
	a.Authenticator = auth.New("test-secret")
	a.Gateway = NewGateway(a.Authenticator)
	a.Hub = NewNotificationHub(a.Authenticator)
	a.Router = a.New()
}

func TestUnknownRoute(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/asdf", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusNotFound, response.Code)
}

func TestHealthCheckRoute(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/health", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)

	if !strings.Contains(response.Body.String(), "alive") {
		t.Errorf("Expected 'alive' in the response. Got '%s'", response.Body.String())
	}
}

func TestApp_ConversationsRouteUnauthorized(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/api/v1/conversations", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_ConversationsRouteInvalidToken(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("GET", "/api/v1/conversations", nil)
	req.Header.Add("Authorization", "Bearer asdfasdf")
	response := executeRequest(req)

	checkResponseCode(t, http.StatusUnauthorized, response.Code)
}

func TestApp_ConversationsRouteForbiddenForClients(t *testing.T) {
	setupRouter()

	token := a.Authenticator.MintBootstrapToken("random-half")
	req, _ := http.NewRequest("GET", "/api/v1/conversations", nil)
	req.Header.Add("Authorization", "Bearer "+token)
	response := executeRequest(req)

	// anonymous clients authenticate but lack a staff role
	checkResponseCode(t, http.StatusForbidden, response.Code)
}

func TestApp_AnonymousTokenRoute(t *testing.T) {
	setupRouter()
	req, _ := http.NewRequest("POST", "/api/v1/auth/anonymous", nil)
	response := executeRequest(req)

	checkResponseCode(t, http.StatusOK, response.Code)
	if !strings.Contains(response.Body.String(), "token") {
		t.Errorf("Expected a token in the response. Got '%s'", response.Body.String())
	}
}
