package models

import (
	"net/http"
	"time"

	"AgentDesk/internal/timeslot"
)

// FormSession is one agent-creation form being filled in. The slot state is
// kept as a timeslot.State and replayed on every load.
type FormSession struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	TargetMarket string                       `json:"targetMarket"`
	Form         timeslot.State               `json:"form"`
	Features     map[string]map[string]string `json:"features,omitempty"`
	CreatedAt    time.Time                    `json:"createdAt"`
	UpdatedAt    time.Time                    `json:"updatedAt"`
}

// FormView is what the form endpoints return: the stored fields plus every
// option list the client needs to render the boundary pickers.
type FormView struct {
	ID              string                       `json:"id"`
	Name            string                       `json:"name"`
	TargetMarket    string                       `json:"targetMarket"`
	PredictionScale timeslot.PredictionScale     `json:"predictionScale,omitempty"`
	Frequency       timeslot.Frequency           `json:"frequency,omitempty"`
	Frequencies     []timeslot.Frequency         `json:"frequencies"`
	Hierarchy       timeslot.Hierarchy           `json:"hierarchy"`
	Visible         bool                         `json:"visible"`
	Fields          []BoundaryView               `json:"fields"`
	Features        map[string]map[string]string `json:"features,omitempty"`
	Cleared         []timeslot.Field             `json:"cleared,omitempty"`
	UpdatedAt       time.Time                    `json:"updatedAt"`
}

// BoundaryView is one boundary row: a value and candidate list per unit.
type BoundaryView struct {
	Boundary timeslot.BoundaryKind `json:"boundary"`
	Units    []UnitView            `json:"units"`
}

type UnitView struct {
	Unit       timeslot.TimeUnit `json:"unit"`
	Value      *int              `json:"value"`
	Candidates []timeslot.Option `json:"candidates"`
}

// RelayRequest is an auth call to pass through to the backend.
type RelayRequest struct {
	Method      string
	Path        string
	Body        []byte
	ContentType string
	Cookies     []*http.Cookie
}

// RelayResponse is the backend answer, returned to the browser as is.
type RelayResponse struct {
	Status      int
	Body        []byte
	ContentType string
	SetCookies  []string
}
