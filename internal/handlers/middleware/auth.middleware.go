package middleware

import (
	"context"
	"strings"

	. "fieldvisit/internal/models"

	"github.com/gofiber/fiber/v2"
)

type AuthContextKey string

const (
	UserKey      AuthContextKey = "user"
	UserKeyFiber string         = "User"

	SessionIDKeyFiber = "SessionID"

	// AuthCookieName carries the session token for browser clients that
	// cannot set an Authorization header
	AuthCookieName = "fieldvisit_token"
)

// RequireAuth resolves the session token, validates it against the
// session store, and loads the acting user. Token resolution order:
// Authorization bearer header first, cookie second.
func (m *Middleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		log := m.log.TraceFromContext(c.UserContext()).Function("RequireAuth")

		token := resolveToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authentication required",
			})
		}

		userID, sessionID, err := m.session.Validate(c.UserContext(), token)
		if err != nil {
			log.Info("session validation failed", "error", err.Error())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		user, err := m.userRepo.GetByID(c.UserContext(), userID)
		if err != nil {
			log.Info("session user not found", "userID", userID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired session",
			})
		}

		if !user.IsActive {
			log.Info("session user deactivated", "userID", userID)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Account is deactivated",
			})
		}

		c.Locals(UserKeyFiber, user)
		c.Locals(SessionIDKeyFiber, sessionID)

		ctx := context.WithValue(c.UserContext(), UserKey, user)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

func resolveToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1]
		}
		return ""
	}

	return c.Cookies(AuthCookieName)
}

// GetUser extracts the authenticated user placed by RequireAuth
func GetUser(c *fiber.Ctx) *User {
	user, ok := c.Locals(UserKeyFiber).(*User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionID extracts the validated session id placed by RequireAuth
func GetSessionID(c *fiber.Ctx) string {
	sessionID, ok := c.Locals(SessionIDKeyFiber).(string)
	if !ok {
		return ""
	}
	return sessionID
}
