package controller

import (
	"errors"
	"strconv"

	"emergence-monitor-be/internal/dto"
	"emergence-monitor-be/internal/pkg/logger"
	"emergence-monitor-be/internal/pkg/serverutils"
	"emergence-monitor-be/internal/service"
	"emergence-monitor-be/pkg/channel"
	"emergence-monitor-be/pkg/mode"

	"github.com/gofiber/fiber/v2"
)

type IMonitorController interface {
	RegisterRoutes(r fiber.Router)
	GetStatus(ctx *fiber.Ctx) error
	GetMetrics(ctx *fiber.Ctx) error
	GetGraph(ctx *fiber.Ctx) error
	GetAlerts(ctx *fiber.Ctx) error
	GetInteractions(ctx *fiber.Ctx) error
	GetLogs(ctx *fiber.Ctx) error
	StartLearning(ctx *fiber.Ctx) error
	StopLearning(ctx *fiber.Ctx) error
	TogglePause(ctx *fiber.Ctx) error
	SendPrompt(ctx *fiber.Ctx) error
	AdjustParameter(ctx *fiber.Ctx) error
	SaveSession(ctx *fiber.Ctx) error
	LoadSession(ctx *fiber.Ctx) error
}

type monitorController struct {
	monitorService service.IMonitorService
	commandService service.ICommandService
	logger         logger.ILogger
}

func NewMonitorController(monitorService service.IMonitorService, commandService service.ICommandService, log logger.ILogger) IMonitorController {
	return &monitorController{
		monitorService: monitorService,
		commandService: commandService,
		logger:         log,
	}
}

func (c *monitorController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/monitor/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("status", c.GetStatus)
	h.Get("metrics", c.GetMetrics)
	h.Get("graph", c.GetGraph)
	h.Get("alerts", c.GetAlerts)
	h.Get("interactions", c.GetInteractions)
	h.Get("logs", c.GetLogs)
	h.Post("learning/start", c.StartLearning)
	h.Post("learning/stop", c.StopLearning)
	h.Post("learning/pause", c.TogglePause)
	h.Post("prompt", c.SendPrompt)
	h.Post("parameter", c.AdjustParameter)
	h.Post("sessions/save", c.SaveSession)
	h.Post("sessions/load", c.LoadSession)
}

// mapCommandError translates domain sentinels into HTTP statuses: mode
// conflicts are 409, an unreachable simulation is 503.
func mapCommandError(err error) error {
	switch {
	case errors.Is(err, mode.ErrAlreadyLearning),
		errors.Is(err, mode.ErrNotLearning),
		errors.Is(err, mode.ErrInputSuspended):
		return serverutils.NewApiError(fiber.StatusConflict, err.Error())
	case errors.Is(err, channel.ErrNotConnected),
		errors.Is(err, channel.ErrQueueFull):
		return serverutils.NewApiError(fiber.StatusServiceUnavailable, err.Error())
	}
	return err
}

// GetStatus returns the link, mode and alert overview.
// @Summary Get monitor status
// @Description Returns simulation link state, display mode, phase and counters
// @Tags Monitor
// @Produce json
// @Success 200 {object} dto.StatusResponse
// @Router /api/monitor/v1/status [get]
func (c *monitorController) GetStatus(ctx *fiber.Ctx) error {
	res := c.monitorService.Status(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Monitor status", res))
}

// GetMetrics returns the windowed metric store snapshot.
// @Summary Get metric windows
// @Description Returns raw metric windows plus derived values and phase
// @Tags Monitor
// @Produce json
// @Success 200 {object} metrics.Snapshot
// @Router /api/monitor/v1/metrics [get]
func (c *monitorController) GetMetrics(ctx *fiber.Ctx) error {
	res := c.monitorService.Metrics(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Metric snapshot", res))
}

func (c *monitorController) GetGraph(ctx *fiber.Ctx) error {
	res := c.monitorService.Graph(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Concept graph frame", res))
}

func (c *monitorController) GetAlerts(ctx *fiber.Ctx) error {
	res := c.monitorService.Alerts(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Active alerts", res))
}

func (c *monitorController) GetInteractions(ctx *fiber.Ctx) error {
	res := c.monitorService.Interactions(ctx.Context())
	return ctx.JSON(serverutils.SuccessResponse("Interaction log", res))
}

func (c *monitorController) GetLogs(ctx *fiber.Ctx) error {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", "50"))
	level := ctx.Query("level", "")
	if page < 1 {
		page = 1
	}

	logs, err := c.logger.GetLogs(level, limit, (page-1)*limit)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", logs))
}

func (c *monitorController) StartLearning(ctx *fiber.Ctx) error {
	var req dto.StartLearningRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.commandService.StartLearning(ctx.Context(), &req)
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Learning session requested", res))
}

func (c *monitorController) StopLearning(ctx *fiber.Ctx) error {
	res, err := c.commandService.StopLearning(ctx.Context())
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Learning stop requested", res))
}

func (c *monitorController) TogglePause(ctx *fiber.Ctx) error {
	res, err := c.commandService.TogglePause(ctx.Context())
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Pause toggled", res))
}

func (c *monitorController) SendPrompt(ctx *fiber.Ctx) error {
	var req dto.PromptRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.commandService.SendPrompt(ctx.Context(), &req)
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Prompt forwarded", res))
}

func (c *monitorController) AdjustParameter(ctx *fiber.Ctx) error {
	var req dto.ParameterRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.commandService.AdjustParameter(ctx.Context(), &req)
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Parameter adjustment forwarded", res))
}

func (c *monitorController) SaveSession(ctx *fiber.Ctx) error {
	res, err := c.commandService.SaveState(ctx.Context())
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Session save requested", res))
}

func (c *monitorController) LoadSession(ctx *fiber.Ctx) error {
	var req dto.LoadSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	err := serverutils.ValidateRequest(req)
	if err != nil {
		return err
	}

	res, err := c.commandService.LoadState(ctx.Context(), &req)
	if err != nil {
		return mapCommandError(err)
	}

	return ctx.JSON(serverutils.SuccessResponse("Session load requested", res))
}
