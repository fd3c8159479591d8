package api

import (
	"AgentDesk/internal/dashboard"
	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/usecase"
	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

type PredictionsHandler struct {
	logger      *xlogger.Logger
	predictions *usecase.PredictionService
	dashboard   *usecase.DashboardService
}

func NewPredictionsHandler(logger *xlogger.Logger, predictions *usecase.PredictionService, dashboard *usecase.DashboardService) *PredictionsHandler {
	return &PredictionsHandler{logger: logger, predictions: predictions, dashboard: dashboard}
}

func (h *PredictionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/predictions", h.Predict)
	g.GET("/predictions", h.List)
	g.GET("/predictions/:id/chart", h.Chart)
	g.GET("/dashboard/calendar", h.Calendar)
}

func (h *PredictionsHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	p, err := h.predictions.Predict(c.Request().Context(), c.Cookies(), req)
	if err != nil {
		logFailure(h.logger, "predict", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, p)
}

func (h *PredictionsHandler) List(c echo.Context) error {
	req := &models.ListPredictionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	preds, err := h.predictions.List(c.Request().Context(), c.Cookies(), req.AgentID)
	if err != nil {
		logFailure(h.logger, "list predictions", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, preds, int64(len(preds)))
}

func (h *PredictionsHandler) Chart(c echo.Context) error {
	req := &models.ChartRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	var opts []dashboard.ChartOption
	if req.Scales == "separate" {
		opts = append(opts, dashboard.WithSeparateScales())
	}
	view, err := h.predictions.Chart(c.Request().Context(), c.Cookies(), req.ID, opts...)
	if err != nil {
		logFailure(h.logger, "prediction chart", err)
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, view)
}

func (h *PredictionsHandler) Calendar(c echo.Context) error {
	req := &models.CalendarRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.dashboard.Calendar(c.Request().Context(), c.Cookies(), req)
	if err != nil {
		logFailure(h.logger, "calendar", err)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, view)
}
