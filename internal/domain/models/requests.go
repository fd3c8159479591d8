package models

import "AgentDesk/internal/timeslot"

// Requests for the AgentDesk HTTP endpoints.

type FrequenciesRequest struct {
	Scale string `query:"scale" json:"scale" validate:"required,oneof=HOURLY DAILY WEEKLY MONTHLY"`
}

type HierarchyRequest struct {
	Scale     string `query:"scale" json:"scale" validate:"required"`
	Frequency string `query:"frequency" json:"frequency" validate:"required"`
}

type OptionsRequest struct {
	Unit      string `query:"unit" json:"unit" validate:"required,oneof=WEEK DAY HOUR MINUTE"`
	Frequency string `query:"frequency" json:"frequency" default:"MIN_1" validate:"oneof=MIN_1 MIN_5 MIN_15 MIN_30 HOUR_1 DAY_1 WEEK_1"`
}

type CreateSessionRequest struct {
	Name            string `json:"name" validate:"max=120"`
	TargetMarket    string `json:"targetMarket" validate:"max=64"`
	PredictionScale string `json:"predictionScale" validate:"omitempty,oneof=HOURLY DAILY WEEKLY MONTHLY"`
	Frequency       string `json:"frequency" validate:"omitempty,oneof=MIN_1 MIN_5 MIN_15 MIN_30 HOUR_1 DAY_1 WEEK_1"`
}

type SessionIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

type SetScaleRequest struct {
	ID    string `param:"id" validate:"required,uuid"`
	Scale string `json:"predictionScale" validate:"required,oneof=HOURLY DAILY WEEKLY MONTHLY"`
}

type SetFrequencyRequest struct {
	ID        string `param:"id" validate:"required,uuid"`
	Frequency string `json:"frequency" validate:"required,oneof=MIN_1 MIN_5 MIN_15 MIN_30 HOUR_1 DAY_1 WEEK_1"`
}

// FieldChange sets (or clears, when Value is nil) one boundary cell.
type FieldChange struct {
	Boundary timeslot.BoundaryKind `json:"boundary" validate:"required,oneof=inputStart inputEnd outputStart outputEnd"`
	Unit     timeslot.TimeUnit     `json:"unit" validate:"required,oneof=WEEK DAY HOUR MINUTE"`
	Value    *int                  `json:"value"`
}

type UpdateFieldsRequest struct {
	ID           string                       `param:"id" validate:"required,uuid"`
	Name         *string                      `json:"name" validate:"omitempty,max=120"`
	TargetMarket *string                      `json:"targetMarket" validate:"omitempty,max=64"`
	Fields       []FieldChange                `json:"fields" validate:"dive"`
	Features     map[string]map[string]string `json:"features"`
}

// SubmitAgentRequest submits either a stored session or a complete inline form.
type SubmitAgentRequest struct {
	SessionID       string                                      `json:"sessionId" validate:"omitempty,uuid"`
	Name            string                                      `json:"name" validate:"required_without=SessionID,max=120"`
	TargetMarket    string                                      `json:"targetMarket" validate:"required_without=SessionID,max=64"`
	PredictionScale string                                      `json:"predictionScale" validate:"omitempty,oneof=HOURLY DAILY WEEKLY MONTHLY"`
	Frequency       string                                      `json:"frequency" validate:"omitempty,oneof=MIN_1 MIN_5 MIN_15 MIN_30 HOUR_1 DAY_1 WEEK_1"`
	Boundaries      map[timeslot.BoundaryKind]timeslot.Boundary `json:"boundaries"`
	Features        map[string]map[string]string                `json:"features"`
}

type AgentIDRequest struct {
	ID int64 `param:"id" validate:"required,gte=1"`
}

// AgentEventsRequest narrows the status stream to one of the caller's agents.
type AgentEventsRequest struct {
	AgentID int64 `query:"agentId" validate:"omitempty,gte=1"`
}

type PredictRequest struct {
	AgentID int64  `json:"agentId" validate:"required,gte=1"`
	Date    string `json:"date" validate:"required,datetime=2006-01-02"`
	Hour    *int   `json:"hour" validate:"omitempty,gte=0,lte=23"`
}

type PredictionIDRequest struct {
	ID int64 `param:"id" validate:"required,gte=1"`
}

// ChartRequest selects the prediction and whether its series share one axis.
type ChartRequest struct {
	ID     int64  `param:"id" validate:"required,gte=1"`
	Scales string `query:"scales" default:"shared" validate:"oneof=shared separate"`
}

type CalendarRequest struct {
	Year    int    `query:"year" json:"year" validate:"omitempty,gte=1970,lte=9999"`
	Month   int    `query:"month" json:"month" validate:"omitempty,gte=1,lte=12"`
	AgentID int64  `query:"agentId" json:"agentId" validate:"omitempty,gte=1"`
	Date    string `query:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Hour    string `query:"hour" json:"hour" validate:"omitempty,numeric"`
}

type ListPredictionsRequest struct {
	AgentID int64 `query:"agentId" validate:"omitempty,gte=1"`
}
