package handlers

import (
	"strings"

	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/models"
	"fieldvisit/internal/repositories"

	assignmentController "fieldvisit/internal/controllers/assignments"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AssignmentHandler struct {
	Handler
	assignmentController assignmentController.AssignmentControllerInterface
	policy               middleware.AccessPolicy
}

func NewAssignmentHandler(app app.App, router fiber.Router) *AssignmentHandler {
	return &AssignmentHandler{
		assignmentController: app.Controllers.Assignment,
		policy:               app.AccessPolicy,
		Handler: Handler{
			log:        logger.New("handlers").File("assignment_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *AssignmentHandler) Register() {
	assignments := h.router.Group(
		"/assignments",
		h.middleware.RequireAuth(),
		h.middleware.EnforcePolicy(h.policy),
	)

	assignments.Get("/", h.list)
	assignments.Post("/", h.create)
	assignments.Get("/available", h.listAvailable)
	assignments.Get("/mine", h.listMine)
	assignments.Get("/dashboard", h.dashboard)
	assignments.Get("/:id", h.getDetail)
	assignments.Get("/:id/claim", h.checkClaim)
	assignments.Post("/:id/claim", h.claim)
	assignments.Post("/:id/assign", h.assignTo)
	assignments.Post("/:id/unassign", h.unassign)
	assignments.Post("/:id/reschedule", h.reschedule)
	assignments.Post("/:id/disposition", h.recordDisposition)
	assignments.Post("/:id/cancel", h.cancel)
}

// parseListQuery reads the shared listing filters off the query string
func parseListQuery(c *fiber.Ctx) repositories.AssignmentQuery {
	query := repositories.AssignmentQuery{
		Zone:     c.Query("zone"),
		Comuna:   c.Query("comuna"),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		PageSize: c.QueryInt("pageSize", repositories.DefaultPageSize),
	}

	if states := c.Query("states"); states != "" {
		for _, raw := range strings.Split(states, ",") {
			state := models.AssignmentState(strings.TrimSpace(raw))
			if state.Valid() {
				query.States = append(query.States, state)
			}
		}
	}

	return query
}

func assignmentID(c *fiber.Ctx) (uuid.UUID, error) {
	return uuid.Parse(c.Params("id"))
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	viewer := middleware.GetUser(c)

	page, err := h.assignmentController.List(c.UserContext(), parseListQuery(c), viewer)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AssignmentHandler) listAvailable(c *fiber.Ctx) error {
	page, err := h.assignmentController.ListAvailable(c.UserContext(), parseListQuery(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AssignmentHandler) listMine(c *fiber.Ctx) error {
	viewer := middleware.GetUser(c)

	page, err := h.assignmentController.ListMine(c.UserContext(), viewer, parseListQuery(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(page)
}

func (h *AssignmentHandler) getDetail(c *fiber.Ctx) error {
	viewer := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	detail, err := h.assignmentController.GetDetail(c.UserContext(), id, viewer)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(detail)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	var req assignmentController.CreateAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignment, err := h.assignmentController.Create(c.UserContext(), req, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) dashboard(c *fiber.Ctx) error {
	technician := middleware.GetUser(c)

	dashboard, err := h.assignmentController.GetDashboard(c.UserContext(), technician, parseListQuery(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dashboard)
}

func (h *AssignmentHandler) checkClaim(c *fiber.Ctx) error {
	technician := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	check, err := h.assignmentController.CheckClaim(c.UserContext(), id, technician)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(check)
}

func (h *AssignmentHandler) claim(c *fiber.Ctx) error {
	technician := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	assignment, err := h.assignmentController.Claim(c.UserContext(), id, technician)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) assignTo(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	var req struct {
		TechnicianID string `json:"technicianId"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	technicianID, err := uuid.Parse(req.TechnicianID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid technician id"})
	}

	assignment, err := h.assignmentController.AssignTo(c.UserContext(), id, technicianID, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) unassign(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	assignment, err := h.assignmentController.Unassign(c.UserContext(), id, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) reschedule(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	var req assignmentController.RescheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignment, err := h.assignmentController.Reschedule(c.UserContext(), id, req, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) recordDisposition(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	var req assignmentController.DispositionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignment, err := h.assignmentController.RecordDisposition(c.UserContext(), id, req, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}

func (h *AssignmentHandler) cancel(c *fiber.Ctx) error {
	actor := middleware.GetUser(c)

	id, err := assignmentID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid assignment id"})
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	assignment, err := h.assignmentController.Cancel(c.UserContext(), id, req.Reason, actor)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"assignment": assignment})
}
