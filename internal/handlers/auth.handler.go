package handlers

import (
	"time"

	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/models"

	userController "fieldvisit/internal/controllers/users"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	Handler
	userController userController.UserControllerInterface
	sessionTTL     time.Duration
}

func NewAuthHandler(app app.App, router fiber.Router) *AuthHandler {
	return &AuthHandler{
		userController: app.Controllers.User,
		sessionTTL:     app.Services.Session.TTL(),
		Handler: Handler{
			log:        logger.New("handlers").File("auth_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuthHandler) Register() {
	auth := h.router.Group("/auth")
	auth.Post("/login", h.login)
	auth.Post("/logout", h.middleware.RequireAuth(), h.logout)
}

func (h *AuthHandler) login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	response, err := h.userController.Login(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}

	// Cookie for browser clients; API clients use the token directly
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    response.Token,
		Expires:  time.Now().Add(h.sessionTTL),
		HTTPOnly: true,
		SameSite: "Strict",
	})

	return c.JSON(response)
}

func (h *AuthHandler) logout(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	if sessionID != "" {
		if err := h.userController.Logout(c.UserContext(), sessionID); err != nil {
			return respondError(c, err)
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookieName,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Strict",
	})

	return c.JSON(fiber.Map{
		"message": "Logout successful",
	})
}
