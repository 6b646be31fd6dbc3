package handlers

import (
	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"

	importController "fieldvisit/internal/controllers/imports"

	"github.com/gofiber/fiber/v2"
)

type ImportHandler struct {
	Handler
	importController importController.ImportControllerInterface
	policy           middleware.AccessPolicy
}

func NewImportHandler(app app.App, router fiber.Router) *ImportHandler {
	return &ImportHandler{
		importController: app.Controllers.Import,
		policy:           app.AccessPolicy,
		Handler: Handler{
			log:        logger.New("handlers").File("import_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ImportHandler) Register() {
	imports := h.router.Group(
		"/imports",
		h.middleware.RequireAuth(),
		h.middleware.EnforcePolicy(h.policy),
	)

	imports.Post("/assignments", h.importAssignments)
}

func (h *ImportHandler) importAssignments(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Multipart field 'file' is required",
		})
	}

	reader, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Could not read uploaded file",
		})
	}
	defer reader.Close()

	result, err := h.importController.ImportCSV(c.UserContext(), reader, actor)
	if err != nil {
		return respondError(c, err)
	}

	// Row errors mean nothing was written; the client gets the full list
	if len(result.RowErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(result)
	}

	return c.Status(fiber.StatusCreated).JSON(result)
}
