package api

import (
	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/timeslot"
	"AgentDesk/internal/usecase"
	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// FormHandler serves the agent-creation form: stateless lookups plus the
// session endpoints that drive the boundary fields.
type FormHandler struct {
	logger *xlogger.Logger
	forms  *usecase.FormService
}

func NewFormHandler(logger *xlogger.Logger, forms *usecase.FormService) *FormHandler {
	return &FormHandler{logger: logger, forms: forms}
}

func (h *FormHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/form")
	g.GET("/scales", h.Scales)
	g.GET("/frequencies", h.Frequencies)
	g.GET("/hierarchy", h.Hierarchy)
	g.GET("/options", h.Options)
	g.GET("/markets", h.Markets)

	s := g.Group("/sessions")
	s.POST("", h.CreateSession)
	s.GET("/:id", h.GetSession)
	s.PUT("/:id/scale", h.SetScale)
	s.PUT("/:id/frequency", h.SetFrequency)
	s.PUT("/:id/fields", h.UpdateFields)
	s.GET("/:id/slots", h.Slots)
	s.DELETE("/:id", h.DeleteSession)
}

func (h *FormHandler) Scales(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.forms.Scales())
}

func (h *FormHandler) Frequencies(c echo.Context) error {
	req := &models.FrequenciesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.forms.Frequencies(timeslot.PredictionScale(req.Scale)))
}

func (h *FormHandler) Hierarchy(c echo.Context) error {
	req := &models.HierarchyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.forms.Hierarchy(timeslot.PredictionScale(req.Scale), timeslot.Frequency(req.Frequency)))
}

func (h *FormHandler) Options(c echo.Context) error {
	req := &models.OptionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.forms.Options(timeslot.TimeUnit(req.Unit), timeslot.Frequency(req.Frequency)))
}

func (h *FormHandler) Markets(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.forms.Markets())
}

func (h *FormHandler) CreateSession(c echo.Context) error {
	req := &models.CreateSessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.forms.Create(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "create session", err)
	}
	return xhttp.CreatedResponse(c, view)
}

func (h *FormHandler) GetSession(c echo.Context) error {
	req := &models.SessionIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.forms.Get(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "get session", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *FormHandler) SetScale(c echo.Context) error {
	req := &models.SetScaleRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.forms.SetScale(c.Request().Context(), req.ID, timeslot.PredictionScale(req.Scale))
	if err != nil {
		return h.fail(c, "set scale", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *FormHandler) SetFrequency(c echo.Context) error {
	req := &models.SetFrequencyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.forms.SetFrequency(c.Request().Context(), req.ID, timeslot.Frequency(req.Frequency))
	if err != nil {
		return h.fail(c, "set frequency", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *FormHandler) UpdateFields(c echo.Context) error {
	req := &models.UpdateFieldsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	view, err := h.forms.UpdateFields(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, "update fields", err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *FormHandler) Slots(c echo.Context) error {
	req := &models.SessionIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	slots, err := h.forms.Slots(c.Request().Context(), req.ID)
	if err != nil {
		return h.fail(c, "slots", err)
	}
	return xhttp.SuccessResponse(c, slots)
}

func (h *FormHandler) DeleteSession(c echo.Context) error {
	req := &models.SessionIDRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.forms.Delete(c.Request().Context(), req.ID); err != nil {
		return h.fail(c, "delete session", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *FormHandler) fail(c echo.Context, op string, err error) error {
	logFailure(h.logger, op, err)
	return xhttp.AppErrorResponse(c, err)
}
