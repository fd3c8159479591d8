package api

import (
	"errors"
	"net/http"

	xhttp "AgentDesk/pkg/http"
	xlogger "AgentDesk/pkg/logger"
)

// logFailure logs server-side failures at error level and caller mistakes at
// debug level.
func logFailure(l *xlogger.Logger, op string, err error) {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		l.Debug(op+" rejected", xlogger.String("code", appErr.Code), xlogger.Error(err))
		return
	}
	var up *xhttp.UpstreamError
	if errors.As(err, &up) && up.Status < http.StatusInternalServerError {
		l.Debug(op+" rejected upstream", xlogger.Int("status", up.Status))
		return
	}
	l.Error(op+" failed", xlogger.Error(err))
}
