package api

import (
	"context"
	"net/http"
	"time"

	gauth "github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/auth"
	"github.com/juridibot/legal-chat-api/models"
)

// MiddlewareAuth holds the token authenticator backing the REST middleware
type MiddlewareAuth struct {
	Auth *auth.Authenticator
}

var authenticator gauth.Authenticator
var cache store.Cache

type contextKey string

const identityContextKey contextKey = "identity"

// SetupGoGuardian sets up the go-guardian middleware. Session JWTs are
// verified on first sight and cached so repeated requests skip the signature
// check.
func (m MiddlewareAuth) SetupGoGuardian() {
	authenticator = gauth.New()
	cache = store.NewFIFO(context.Background(), time.Hour*24)
	tokenStrategy := bearer.New(m.verifyToken, cache)
	authenticator.EnableStrategy(bearer.CachedStrategyKey, tokenStrategy)
}

func (m MiddlewareAuth) verifyToken(_ context.Context, _ *http.Request, token string) (gauth.Info, error) {
	// the bearer token may be either credential kind; session wins as usual
	identity, err := m.Auth.Authenticate(auth.Credentials{SessionToken: token, BootstrapToken: token})
	if err != nil {
		return nil, err
	}
	return gauth.NewDefaultUser(identity.UserID, identity.UserID, []string{string(identity.Role)}, nil), nil
}

// Middleware adds bearer token authentication around accessing the routes
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		user, err := authenticator.Authenticate(r)
		if err != nil {
			zap.S().Errorw("unauthorized",
				"url", r.URL)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugf("User %s Authenticated\n", user.UserName())
		ctx := context.WithValue(r.Context(), identityContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles authenticates the bearer token and additionally requires one
// of the given roles; everything else gets a 403
func RequireRoles(next http.Handler, roles ...models.Role) http.Handler {
	return Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user != nil {
			for _, group := range user.Groups() {
				for _, role := range roles {
					if group == string(role) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}
		}
		zap.S().Warnw("forbidden", "url", r.URL)
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error": "forbidden"}`))
	}))
}

// UserFromContext returns the authenticated user injected by Middleware
func UserFromContext(ctx context.Context) gauth.Info {
	user, _ := ctx.Value(identityContextKey).(gauth.Info)
	return user
}
