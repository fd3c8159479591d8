package api

import (
	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/service/realtime"
	"AgentDesk/internal/usecase"
	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AgentsHandler serves the feature catalog, agent submission and listing, and
// the training status stream.
type AgentsHandler struct {
	logger   *xlogger.Logger
	agents   *usecase.AgentService
	features *usecase.FeatureService
	hub      *realtime.Hub
}

func NewAgentsHandler(logger *xlogger.Logger, agents *usecase.AgentService, features *usecase.FeatureService, hub *realtime.Hub) *AgentsHandler {
	return &AgentsHandler{logger: logger, agents: agents, features: features, hub: hub}
}

func (h *AgentsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/features", h.Features)
	g.POST("/agents", h.Submit)
	g.GET("/agents", h.List)
	g.GET("/agents/events", h.Events)
	g.GET("/agents/:id/predictions", h.Predictions)
}

func (h *AgentsHandler) Features(c echo.Context) error {
	cat, err := h.features.Catalog(c.Request().Context(), c.Cookies())
	if err != nil {
		logFailure(h.logger, "features", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, cat)
}

func (h *AgentsHandler) Submit(c echo.Context) error {
	req := &models.SubmitAgentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.agents.Submit(c.Request().Context(), c.Cookies(), req)
	if err != nil {
		logFailure(h.logger, "submit agent", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, res)
}

func (h *AgentsHandler) List(c echo.Context) error {
	groups, err := h.agents.List(c.Request().Context(), c.Cookies())
	if err != nil {
		logFailure(h.logger, "list agents", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, groups)
}

func (h *AgentsHandler) Predictions(c echo.Context) error {
	req := &models.AgentIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	preds, err := h.agents.AgentPredictions(c.Request().Context(), c.Cookies(), req.ID)
	if err != nil {
		logFailure(h.logger, "agent predictions", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, preds, int64(len(preds)))
}

// Events upgrades to a websocket streaming training status changes of the
// caller's agents, or of one of them with ?agentId=.
func (h *AgentsHandler) Events(c echo.Context) error {
	req := &models.AgentEventsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()

	var sub realtime.Subscription
	if req.AgentID != 0 {
		if _, err := h.agents.Find(ctx, c.Cookies(), req.AgentID); err != nil {
			logFailure(h.logger, "subscribe agent events", err)
			return xhttp.AppErrorResponse(c, err)
		}
		sub = realtime.NewSubscription(req.AgentID)
	} else {
		groups, err := h.agents.List(ctx, c.Cookies())
		if err != nil {
			logFailure(h.logger, "subscribe agent events", err)
			return xhttp.AppErrorResponse(c, err)
		}
		ids := make([]int64, 0, len(groups.All))
		for _, a := range groups.All {
			ids = append(ids, a.ID)
		}
		sub = realtime.NewSubscription(ids...)
	}

	if err := h.hub.ServeWS(c.Response(), c.Request(), sub); err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
	}
	return nil
}
