package usecase

import (
	"errors"
	"net/http"

	"AgentDesk/internal/dashboard"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/timeslot"
	xhttp "AgentDesk/pkg/http"
)

type errorMapping struct {
	target error
	code   string
	status int
}

var errorTable = []errorMapping{
	{timeslot.ErrEmptyHierarchy, "ERR_INVALID_COMBINATION", http.StatusBadRequest},
	{timeslot.ErrIncompleteBoundary, "ERR_INCOMPLETE_BOUNDARY", http.StatusBadRequest},
	{timeslot.ErrValueOutOfRange, "ERR_VALUE_OUT_OF_RANGE", http.StatusBadRequest},
	{timeslot.ErrUnitNotActive, "ERR_UNIT_NOT_ACTIVE", http.StatusBadRequest},
	{timeslot.ErrChronology, "ERR_CHRONOLOGY", http.StatusBadRequest},
	{timeslot.ErrFrequencyNotSelectable, "ERR_FREQUENCY_NOT_SELECTABLE", http.StatusBadRequest},
	{timeslot.ErrScaleRequired, "ERR_SCALE_REQUIRED", http.StatusBadRequest},
	{timeslot.ErrUnknownScale, "ERR_UNKNOWN_SCALE", http.StatusBadRequest},
	{timeslot.ErrUnknownFrequency, "ERR_UNKNOWN_FREQUENCY", http.StatusBadRequest},
	{timeslot.ErrUnknownBoundary, "ERR_UNKNOWN_BOUNDARY", http.StatusBadRequest},
	{dashboard.ErrSelectionRequired, "ERR_SELECTION_REQUIRED", http.StatusBadRequest},
	{dashboard.ErrHourRequired, "ERR_HOUR_REQUIRED", http.StatusBadRequest},
	{dashboard.ErrInvalidHour, "ERR_INVALID_HOUR", http.StatusBadRequest},
	{dashboard.ErrAgentNotReady, "ERR_AGENT_NOT_READY", http.StatusConflict},
	{dashboard.ErrNoChartData, "ERR_NO_CHART_DATA", http.StatusNotFound},
	{domrepo.ErrNotFound, "ERR_NOT_FOUND", http.StatusNotFound},
	{domrepo.ErrSessionBusy, "ERR_SESSION_BUSY", http.StatusConflict},
}

// toAppError turns a domain error into an AppError carrying a stable code.
// Errors that are already AppErrors, upstream errors and unknown errors pass
// through unchanged.
func toAppError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return err
	}
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return xhttp.NewAppError(m.code, "", err.Error(), m.status).WithError(err)
		}
	}
	return err
}

// result labels a metric by outcome.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		return "rejected"
	}
	return "error"
}
