package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/clearpathhq/clearpath/internal/config"
	"github.com/clearpathhq/clearpath/internal/domain"
)

const sessionCookieName = "clearpath_session"

// SessionData represents an authenticated user's session.
type SessionData struct {
	UserID    string
	Role      domain.Role
	LoginTime time.Time
	ExpiresAt time.Time
}

// SessionManager handles session management with HMAC-signed cookies.
type SessionManager struct {
	secret []byte
	cfg    config.Config
}

// NewSessionManager creates a new session manager.
func NewSessionManager(cfg config.Config) *SessionManager {
	return &SessionManager{secret: []byte(cfg.SessionSecret), cfg: cfg}
}

// CreateSession returns a signed session cookie value for the user.
func (sm *SessionManager) CreateSession(userID string, role domain.Role) (string, error) {
	if strings.ContainsRune(userID, ':') {
		return "", fmt.Errorf("invalid user id")
	}
	now := time.Now()
	ttl := sm.cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	expiresAt := now.Add(ttl)

	// Payload: userID:role:loginTime:expiresAt
	payload := fmt.Sprintf("%s:%s:%d:%d", userID, role, now.Unix(), expiresAt.Unix())

	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(payload))
	signature := base64.URLEncoding.EncodeToString(mac.Sum(nil))

	return payload + "." + signature, nil
}

// ValidateSession verifies a session cookie value and returns the session data.
func (sm *SessionManager) ValidateSession(sessionValue string) (*SessionData, error) {
	if sessionValue == "" {
		return nil, fmt.Errorf("empty session value")
	}
	parts := strings.Split(sessionValue, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid session format")
	}
	payload, signatureB64 := parts[0], parts[1]

	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(payload))
	expectedSignature := mac.Sum(nil)

	actualSignature, err := base64.URLEncoding.DecodeString(signatureB64)
	if err != nil {
		return nil, fmt.Errorf("invalid signature encoding")
	}
	if !hmac.Equal(expectedSignature, actualSignature) {
		return nil, fmt.Errorf("invalid session signature")
	}

	payloadParts := strings.Split(payload, ":")
	if len(payloadParts) != 4 {
		return nil, fmt.Errorf("invalid payload format")
	}
	data := &SessionData{
		UserID:    payloadParts[0],
		Role:      domain.Role(payloadParts[1]),
		LoginTime: time.Unix(parseInt64(payloadParts[2]), 0),
		ExpiresAt: time.Unix(parseInt64(payloadParts[3]), 0),
	}
	if time.Now().After(data.ExpiresAt) {
		return nil, fmt.Errorf("session expired")
	}
	return data, nil
}

func (sm *SessionManager) sameSite() http.SameSite {
	switch strings.ToLower(sm.cfg.SessionSameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteStrictMode
	}
}

// SetSessionCookie sets the session cookie on the response.
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, sessionValue string) {
	ttl := sm.cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionValue,
		Path:     "/",
		HttpOnly: true,
		Secure:   !sm.cfg.IsDev(),
		SameSite: sm.sameSite(),
		MaxAge:   int(ttl.Seconds()),
	})
}

// ClearSessionCookie clears the session cookie.
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   !sm.cfg.IsDev(),
		SameSite: sm.sameSite(),
		MaxAge:   -1,
	})
}

// sessionKey is an unexported context key type for session data.
type sessionKey struct{}

// AuthRequired rejects requests without a valid session.
func (sm *SessionManager) AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil || cookie.Value == "" {
			writeError(w, r, domain.ErrInvalidCredentials, nil)
			return
		}
		data, err := sm.ValidateSession(cookie.Value)
		if err != nil {
			sm.ClearSessionCookie(w)
			writeError(w, r, domain.ErrInvalidCredentials, nil)
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey{}, data)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RoleRequired rejects authenticated requests whose session lacks the role.
// Must be mounted after AuthRequired.
func (sm *SessionManager) RoleRequired(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data := SessionFrom(r)
			if data == nil || data.Role != role {
				writeError(w, r, fmt.Errorf("%w: %s role required", domain.ErrInvalidCredentials, role), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionFrom extracts the session data from the request context, if any.
func SessionFrom(r *http.Request) *SessionData {
	if v := r.Context().Value(sessionKey{}); v != nil {
		if data, ok := v.(*SessionData); ok {
			return data
		}
	}
	return nil
}

// parseInt64 safely parses string to int64, returns 0 on error.
func parseInt64(s string) int64 {
	x, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return x
}
