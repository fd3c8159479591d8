package api

import (
	"io"
	"net/http"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

const maxAuthBody = 64 << 10

// AuthHandler relays authentication calls to the backend. Bodies, statuses
// and cookies pass through untouched; the BFF never looks inside.
type AuthHandler struct {
	logger *xlogger.Logger
	relay  domrepo.AuthRelay
}

func NewAuthHandler(logger *xlogger.Logger, relay domrepo.AuthRelay) *AuthHandler {
	return &AuthHandler{logger: logger, relay: relay}
}

func (h *AuthHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/auth")
	g.POST("/login", h.pass(http.MethodPost, "/auth/login"))
	g.POST("/signup", h.pass(http.MethodPost, "/auth/inscription"))
	g.POST("/logout", h.pass(http.MethodPost, "/auth/logout"))
	g.GET("/me", h.pass(http.MethodGet, "/user/me"))
}

func (h *AuthHandler) pass(method, path string) echo.HandlerFunc {
	return func(c echo.Context) error {
		body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxAuthBody))
		if err != nil {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("unreadable request body").WithError(err))
		}
		resp, err := h.relay.Relay(c.Request().Context(), models.RelayRequest{
			Method:      method,
			Path:        path,
			Body:        body,
			ContentType: c.Request().Header.Get(echo.HeaderContentType),
			Cookies:     c.Cookies(),
		})
		if err != nil {
			h.logger.Error("auth relay failed", xlogger.String("path", path), xlogger.Error(err))
			return xhttp.AppErrorResponse(c, xhttp.BadGatewayError("authentication service unavailable").WithError(err))
		}
		for _, sc := range resp.SetCookies {
			c.Response().Header().Add(echo.HeaderSetCookie, sc)
		}
		if len(resp.Body) == 0 {
			return c.NoContent(resp.Status)
		}
		ct := resp.ContentType
		if ct == "" {
			ct = echo.MIMETextPlainCharsetUTF8
		}
		return c.Blob(resp.Status, ct, resp.Body)
	}
}
