package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"searchabull-keyword-engine/internal/service"
	"searchabull-keyword-engine/pkg/api"
	"searchabull-keyword-engine/pkg/logger"
	"searchabull-keyword-engine/pkg/pipeline"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ControllerConfig bounds request handling.
type ControllerConfig struct {
	// RunTimeout caps one volume or translation run. Zero means no cap.
	RunTimeout time.Duration
}

// Controller serves the keyword engine over HTTP.
type Controller struct {
	service service.KeywordService
	config  ControllerConfig
	log     *logger.Logger
	started time.Time
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	RunID   string `json:"run_id,omitempty"`
}

type StatusResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

type BalanceResponse struct {
	Provider string  `json:"provider"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

func NewController(svc service.KeywordService, config ControllerConfig) *Controller {
	return &Controller{
		service: svc,
		config:  config,
		log:     logger.GetLogger().WithField("component", "http"),
		started: time.Now(),
	}
}

// RegisterRoutes mounts every endpoint on app.
func (c *Controller) RegisterRoutes(app *fiber.App, metrics *MetricsHandler) {
	app.Get("/health", c.Health)
	if metrics != nil {
		app.Get("/metrics", metrics.GetMetrics)
	}

	group := app.Group("/api")
	group.Get("/balance", c.Balance)
	group.Post("/volumes", c.Volumes)
	group.Post("/translations", c.Translations)
}

func (c *Controller) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(StatusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(c.started).Round(time.Second).String(),
	})
}

func (c *Controller) Balance(ctx *fiber.Ctx) error {
	balance, err := c.service.Balance(ctx.UserContext())
	if err != nil {
		return c.fail(ctx, err, "")
	}
	return ctx.JSON(BalanceResponse{Provider: "dataforseo", Balance: balance, Currency: "USD"})
}

// Volumes runs a volume job and returns the workbook as an attachment.
func (c *Controller) Volumes(ctx *fiber.Ctx) error {
	var req service.VolumeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}

	runCtx, cancel := c.runContext(ctx)
	defer cancel()

	result, err := c.service.RunVolumes(runCtx, req)
	if err != nil {
		runID := ""
		if result != nil && result.Report != nil {
			runID = result.Report.RunID
		}
		return c.fail(ctx, err, runID)
	}

	report := result.Report
	ctx.Set("X-Run-ID", report.RunID)
	ctx.Set("X-Failed-Terms", strconv.Itoa(len(report.Failed)))
	return c.attach(ctx, result.Workbook)
}

// Translations runs a DeepL job and returns the workbook as an attachment.
func (c *Controller) Translations(ctx *fiber.Ctx) error {
	var req service.TranslationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to parse request body",
		})
	}

	runCtx, cancel := c.runContext(ctx)
	defer cancel()

	result, err := c.service.Translate(runCtx, req)
	if err != nil {
		runID := ""
		if result != nil && result.Report != nil {
			runID = result.Report.RunID
		}
		return c.fail(ctx, err, runID)
	}

	ctx.Set("X-Run-ID", result.Report.RunID)
	ctx.Set("X-Failed-Batches", strconv.Itoa(len(result.Report.FailedBatches)))
	return c.attach(ctx, result.Workbook)
}

func (c *Controller) attach(ctx *fiber.Ctx, w *service.Workbook) error {
	if w == nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "export_error",
			Message: "No workbook was produced",
		})
	}
	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", w.Filename))
	return ctx.Status(fiber.StatusOK).Send(w.Data)
}

func (c *Controller) runContext(ctx *fiber.Ctx) (context.Context, context.CancelFunc) {
	if c.config.RunTimeout > 0 {
		return context.WithTimeout(ctx.UserContext(), c.config.RunTimeout)
	}
	return context.WithCancel(ctx.UserContext())
}

// fail maps engine errors onto HTTP statuses.
func (c *Controller) fail(ctx *fiber.Ctx, err error, runID string) error {
	status, code := classify(err)
	log := c.log.WithError(err).WithFields(map[string]interface{}{
		"path":   ctx.Path(),
		"status": status,
	})
	if status >= fiber.StatusInternalServerError {
		log.Error("Request failed")
	} else {
		log.Warn("Request rejected")
	}
	return ctx.Status(status).JSON(ErrorResponse{Error: code, Message: err.Error(), RunID: runID})
}

func classify(err error) (int, string) {
	switch {
	case pipeline.IsInputError(err):
		return fiber.StatusBadRequest, "invalid_input"
	case errors.Is(err, service.ErrEmptyResult):
		return fiber.StatusUnprocessableEntity, "empty_result"
	case api.IsFatal(err):
		return fiber.StatusBadGateway, "provider_error"
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, "timeout"
	default:
		return fiber.StatusInternalServerError, "internal_error"
	}
}
