package handlers

import (
	"time"

	"fieldvisit/internal/app"
	"fieldvisit/internal/handlers/middleware"
	"fieldvisit/internal/logger"
	"fieldvisit/internal/repositories"
	"fieldvisit/internal/services"
	"fieldvisit/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type ReportHandler struct {
	Handler
	reportService *services.ReportService
	policy        middleware.AccessPolicy
}

func NewReportHandler(app app.App, router fiber.Router) *ReportHandler {
	return &ReportHandler{
		reportService: app.Services.Report,
		policy:        app.AccessPolicy,
		Handler: Handler{
			log:        logger.New("handlers").File("report_handler"),
			router:     router,
			middleware: app.Middleware,
		},
	}
}

func (h *ReportHandler) Register() {
	reports := h.router.Group(
		"/reports",
		h.middleware.RequireAuth(),
		h.middleware.EnforcePolicy(h.policy),
	)

	reports.Get("/audits/summary", h.summary)
	reports.Get("/audits/export", h.export)
}

// parseReportQuery reads the shared from/to/zone filters. The to date is
// exclusive at the next midnight so a whole day is covered.
func parseReportQuery(c *fiber.Ctx) (repositories.AuditReportQuery, error) {
	query := repositories.AuditReportQuery{
		Zone: c.Query("zone"),
	}

	if from := c.Query("from"); from != "" {
		date, err := utils.ParseISODate(from)
		if err != nil {
			return query, err
		}
		query.From = &date
	}

	if to := c.Query("to"); to != "" {
		date, err := utils.ParseISODate(to)
		if err != nil {
			return query, err
		}
		end := date.Add(24 * time.Hour)
		query.To = &end
	}

	return query, nil
}

func (h *ReportHandler) summary(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	summary, err := h.reportService.Summary(c.UserContext(), query)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(summary)
}

func (h *ReportHandler) export(c *fiber.Ctx) error {
	query, err := parseReportQuery(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	workbook, err := h.reportService.ExportXLSX(c.UserContext(), query)
	if err != nil {
		return respondError(c, err)
	}

	filename := "audits_" + time.Now().Format("20060102") + ".xlsx"
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return c.Send(workbook)
}
