package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/models"

	auditController "fieldvisit/internal/controllers/audits"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuditHandler struct {
	Handler
	auditController auditController.AuditControllerInterface
	policy          middleware.AccessPolicy
}

func NewAuditHandler(app app.App, router fiber.Router) *AuditHandler {
	return &AuditHandler{
		auditController: app.Controllers.Audit,
		policy:          app.AccessPolicy,
		Handler: Handler{
			log:        logger.New("handlers").File("audit_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AuditHandler) Register() {
	audits := h.router.Group(
		"/audits",
		h.middleware.RequireAuth(),
		h.middleware.EnforcePolicy(h.policy),
	)

	audits.Post("/assignments/:id", h.submit)
	audits.Get("/assignments/:id/latest", h.getLatest)
	audits.Get("/:id", h.get)
	audits.Post("/:id/photos", h.attachPhotos)
}

func (h *AuditHandler) submit(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	// Plain JSON submits the questionnaire alone; multipart carries the
	// questionnaire in a "payload" field with photos alongside
	var req models.SubmitAuditRequest
	var uploads []auditController.PhotoUpload

	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		form, err := c.MultipartForm()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Expected multipart form data"})
		}

		payload := form.Value["payload"]
		if len(payload) == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Multipart field 'payload' is required"})
		}
		if err := json.Unmarshal([]byte(payload[0]), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		for _, file := range form.File["photos"] {
			uploads = append(uploads, photoUpload(c, file))
		}
	} else if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	audit, err := h.auditController.Submit(c.UserContext(), id, req, uploads, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"audit": audit})
}

func (h *AuditHandler) get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid audit id"})
	}

	audit, err := h.auditController.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"audit": audit})
}

func (h *AuditHandler) getLatest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	audit, err := h.auditController.GetLatestForAssignment(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"audit": audit})
}

func (h *AuditHandler) attachPhotos(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid audit id"})
	}

	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Expected multipart form data"})
	}

	files := form.File["photos"]
	uploads := make([]auditController.PhotoUpload, 0, len(files))
	for _, file := range files {
		uploads = append(uploads, photoUpload(c, file))
	}

	audit, err := h.auditController.AttachPhotos(c.UserContext(), id, uploads, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"audit": audit})
}

func photoUpload(c *fiber.Ctx, file *multipart.FileHeader) auditController.PhotoUpload {
	return auditController.PhotoUpload{
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Size:        file.Size,
		Save: func(path string) error {
			return c.SaveFile(file, path)
		},
	}
}
