package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/ping", func(c echo.Context) error {
		var req struct {
			Name string `json:"name" validate:"required"`
			Size int    `json:"size" default:"3" validate:"gte=1"`
		}
		if errs := ReadAndValidateRequest(c, &req); errs != nil {
			return BadRequestResponse(c, errs)
		}
		return SuccessResponse(c, req.Size)
	})
	e.GET("/boom", func(c echo.Context) error {
		return AppErrorResponse(c, ConflictError("busy"))
	})
}

func TestServerValidationAndCORS(t *testing.T) {
	s := NewServer([]Handler{pingHandler{}}, WithAllowOrigins([]string{"http://app.local"}), WithMetricsPath(""))

	req := httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderOrigin, "http://app.local")
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"name"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(echo.HeaderAccessControlAllowCredentials) != "true" {
		t.Fatalf("credentials not allowed for known origin")
	}

	req = httptest.NewRequest(http.MethodPost, "/ping", strings.NewReader(`{"name":"x"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":3`) {
		t.Fatalf("defaults not applied: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusConflict || !strings.Contains(rec.Body.String(), "ERR_CONFLICT") {
		t.Fatalf("unexpected app error %d %s", rec.Code, rec.Body.String())
	}
}
