package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// SessionCookieName is the cookie carrying the opaque session token.
const SessionCookieName = "session_token"

// SessionLifetime is how long a session stays valid after creation.
const SessionLifetime = 7 * 24 * time.Hour

// Session binds an opaque token to an authenticated user.
type Session struct {
	UserID    uint
	Phone     string
	ExpiresAt time.Time
}

var (
	sessions  = make(map[string]*Session)
	sessionMu sync.RWMutex
)

// CreateSession creates a new session and returns its token.
func CreateSession(userID uint, phone string) string {
	sessionMu.Lock()
	defer sessionMu.Unlock()

	token := uuid.NewString()
	sessions[token] = &Session{
		UserID:    userID,
		Phone:     phone,
		ExpiresAt: time.Now().Add(SessionLifetime),
	}
	return token
}

// GetSession retrieves a live session by token.
func GetSession(token string) (*Session, bool) {
	sessionMu.RLock()
	defer sessionMu.RUnlock()

	session, exists := sessions[token]
	if !exists || time.Now().After(session.ExpiresAt) {
		return nil, false
	}
	return session, true
}

// DeleteSession removes a session.
func DeleteSession(token string) {
	sessionMu.Lock()
	defer sessionMu.Unlock()
	delete(sessions, token)
}

// SessionCookie builds the session cookie for a token. Secure is set for
// production deployments served over TLS.
func SessionCookie(token string, secure bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HTTPOnly: true,
		Secure:   secure,
		MaxAge:   int(SessionLifetime.Seconds()),
	}
}

// RequireAuth gates protected routes. It resolves the session cookie and
// stores the caller's identity in c.Locals, or responds 401.
func RequireAuth(c *fiber.Ctx) error {
	token := c.Cookies(SessionCookieName)
	if token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	session, ok := GetSession(token)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authentication required"})
	}

	c.Locals("userID", session.UserID)
	c.Locals("phone", session.Phone)
	return c.Next()
}

// UserID returns the authenticated user id set by RequireAuth.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}
