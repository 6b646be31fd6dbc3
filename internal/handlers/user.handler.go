package handlers

import (
	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/models"

	userController "fieldvisit/internal/controllers/users"

	"github.com/gofiber/fiber/v2"
)

type UserHandler struct {
	Handler
	userController userController.UserControllerInterface
}

func NewUserHandler(app app.App, router fiber.Router) *UserHandler {
	return &UserHandler{
		userController: app.Controllers.User,
		Handler: Handler{
			log:        logger.New("handlers").File("user_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *UserHandler) Register() {
	users := h.router.Group("/users", h.middleware.RequireAuth())
	users.Get("/me", h.getCurrentUser)
	users.Get(
		"/technicians",
		h.middleware.RequireRoles(models.RoleAdmin, models.RoleAuditor),
		h.listTechnicians,
	)
}

func (h *UserHandler) getCurrentUser(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	return c.JSON(fiber.Map{
		"user": user.ToProfile(),
	})
}

func (h *UserHandler) listTechnicians(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("activeOnly", true)

	technicians, err := h.userController.ListTechnicians(c.UserContext(), activeOnly)
	if err != nil {
		return respondError(c, err)
	}

	profiles := make([]models.UserProfile, 0, len(technicians))
	for _, technician := range technicians {
		profiles = append(profiles, technician.ToProfile())
	}

	return c.JSON(fiber.Map{
		"technicians": profiles,
	})
}
