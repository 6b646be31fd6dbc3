package handlers

import (
	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/models"

	userController "fieldvisit/internal/controllers/users"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AdminHandler struct {
	Handler
	userController userController.UserControllerInterface
	policy         middleware.AccessPolicy
}

func NewAdminHandler(app app.App, router fiber.Router) *AdminHandler {
	return &AdminHandler{
		userController: app.Controllers.User,
		policy:         app.AccessPolicy,
		Handler: Handler{
			log:        logger.New("handlers").File("admin_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AdminHandler) Register() {
	admin := h.router.Group(
		"/admin",
		h.middleware.RequireAuth(),
		h.middleware.EnforcePolicy(h.policy),
	)
	admin.Post("/users", h.createUser)
	admin.Patch("/users/:id/role", h.updateRole)
	admin.Patch("/users/:id/active", h.setActive)
}

func (h *AdminHandler) createUser(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	var req models.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.userController.CreateUser(c.UserContext(), req, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"user": user.ToProfile(),
	})
}

func (h *AdminHandler) updateRole(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var req models.UpdateUserRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.userController.UpdateRole(c.UserContext(), userID, req, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": user.ToProfile(),
	})
}

func (h *AdminHandler) setActive(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid user id",
		})
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Body must contain an active flag",
		})
	}

	user, err := h.userController.SetActive(c.UserContext(), userID, *req.Active, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"user": user.ToProfile(),
	})
}
