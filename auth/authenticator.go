package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/juridibot/legal-chat-api/models"
)

// Authentication failures. ErrUnauthenticated means no usable credential was
// presented; ErrInvalidSignature means a bootstrap credential was presented
// but its integrity tag did not verify.
var (
	ErrUnauthenticated  = errors.New("no valid credential presented")
	ErrInvalidSignature = errors.New("credential signature mismatch")
)

// Credentials carries the raw credential material extracted from the
// handshake. Either field may be empty.
type Credentials struct {
	// SessionToken is the signed session JWT from the secure cookie or
	// bearer header.
	SessionToken string
	// BootstrapToken is the anonymous pairing token, "randomToken|integrityTag".
	BootstrapToken string
}

// Authenticator validates connection credentials against the shared server
// secret and derives a stable identity. It is a pure function of its inputs,
// no store access.
type Authenticator struct {
	secret []byte
}

// New returns an Authenticator bound to the shared secret
func New(secret string) *Authenticator {
	return &Authenticator{secret: []byte(secret)}
}

// Authenticate tries the session credential first and the bootstrap
// credential second. A bad session token is never fatal by itself, it falls
// through to the bootstrap path; the two paths are never merged for one
// connection. With no usable credential the caller keeps the connection but
// must treat the identity as ephemeral-unauthenticated, this layer never
// invents a random anonymous id.
func (a *Authenticator) Authenticate(creds Credentials) (*models.UserIdentity, error) {
	if creds.SessionToken != "" {
		identity, err := a.verifySession(creds.SessionToken)
		if err == nil {
			return identity, nil
		}
		zap.S().Debugw("session token rejected, trying bootstrap credential", "error", err)
	}

	if creds.BootstrapToken != "" {
		return a.verifyBootstrap(creds.BootstrapToken)
	}

	return nil, ErrUnauthenticated
}

func (a *Authenticator) verifySession(token string) (*models.UserIdentity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims shape")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("session token missing subject")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		role = string(models.RoleClient)
	}

	var permissions []string
	if raw, ok := claims["permissions"].([]interface{}); ok {
		for _, p := range raw {
			if s, ok := p.(string); ok {
				permissions = append(permissions, s)
			}
		}
	}

	anon, _ := claims["anon"].(bool)

	return &models.UserIdentity{
		UserID:          sub,
		IsAuthenticated: true,
		Role:            models.Role(role),
		Permissions:     permissions,
		IsAnonymous:     anon,
	}, nil
}

func (a *Authenticator) verifyBootstrap(token string) (*models.UserIdentity, error) {
	randomToken, tag, found := strings.Cut(token, "|")
	if !found || randomToken == "" {
		return nil, ErrInvalidSignature
	}

	expected := a.bootstrapTag(randomToken)
	if subtle.ConstantTimeCompare([]byte(tag), []byte(expected)) != 1 {
		return nil, ErrInvalidSignature
	}

	return &models.UserIdentity{
		UserID:          AnonymousUserID(randomToken),
		IsAuthenticated: true,
		Role:            models.RoleClient,
		IsAnonymous:     true,
	}, nil
}

func (a *Authenticator) bootstrapTag(randomToken string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(randomToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// MintBootstrapToken signs a random token into the "randomToken|integrityTag"
// wire format handed to anonymous clients
func (a *Authenticator) MintBootstrapToken(randomToken string) string {
	return randomToken + "|" + a.bootstrapTag(randomToken)
}

// IssueSessionToken signs a session JWT for a registered user
func (a *Authenticator) IssueSessionToken(user *models.User, permissions []string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":         user.ID,
		"role":        string(user.Role),
		"permissions": permissions,
		"anon":        false,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// AnonymousUserID derives the stable anonymous user id from the random half
// of a bootstrap credential. Deterministic so the same browser reattaches to
// its history across reconnects and token regeneration.
func AnonymousUserID(randomToken string) string {
	sum := sha256.Sum256([]byte(randomToken))
	return hex.EncodeToString(sum[:])[:16]
}
