package api

import (
	"context"
	"net/http"
	"time"

	domrepo "AgentDesk/internal/domain/repository"
	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports whether the storage dependencies answer.
type HealthHandler struct {
	logger  *xlogger.Logger
	archive domrepo.PredictionArchive
}

func NewHealthHandler(logger *xlogger.Logger, archive domrepo.PredictionArchive) *HealthHandler {
	return &HealthHandler{logger: logger, archive: archive}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health/ready", h.Ready)
}

func (h *HealthHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.archive.Health(ctx); err != nil {
		h.logger.Warn("prediction archive unhealthy", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"archive": err.Error()})
	}
	return xhttp.SuccessResponse(c, map[string]string{"archive": "ok"})
}
