package models

import (
	"time"

	"AgentDesk/internal/timeslot"
)

// AgentStatus is the training state reported by the agent backend.
type AgentStatus string

const (
	AgentPending    AgentStatus = "PENDING"
	AgentInProgress AgentStatus = "IN_PROGRESS"
	AgentCompleted  AgentStatus = "COMPLETED"
	AgentFailed     AgentStatus = "FAILED"
	AgentCancelled  AgentStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentPending, AgentInProgress, AgentCompleted, AgentFailed, AgentCancelled:
		return true
	default:
		return false
	}
}

type FeatureParameter struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Value        string `json:"value"`
	DefaultValue string `json:"defaultValue"`
	Type         string `json:"type"`
	Required     bool   `json:"required"`
}

type AgentFeature struct {
	ID                 int64              `json:"id"`
	FeatureID          int64              `json:"featureId"`
	FeatureName        string             `json:"featureName"`
	FeatureDescription string             `json:"featureDescription"`
	Parameters         []FeatureParameter `json:"parameters"`
}

// Agent is one agent owned by the current user, as listed by the backend.
type Agent struct {
	ID              int64                    `json:"id"`
	Name            string                   `json:"name"`
	TargetMarket    string                   `json:"targetMarket"`
	InputStartTime  string                   `json:"inputStartTime"`
	InputEndTime    string                   `json:"inputEndTime"`
	InputFrequency  int                      `json:"inputFrequency"`
	OutputStartTime string                   `json:"outputStartTime"`
	OutputEndTime   string                   `json:"outputEndTime"`
	OutputFrequency int                      `json:"outputFrequency"`
	PredictionScale timeslot.PredictionScale `json:"predictionScale"`
	Frequency       string                   `json:"frequency"`
	TrainingStatus  AgentStatus              `json:"trainingStatus"`
	AgentFeatures   []AgentFeature           `json:"agentFeatures"`
}

// DisplayName falls back to the market, then to the id.
func (a Agent) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.TargetMarket != "":
		return a.TargetMarket
	default:
		return "Agent #" + itoa(a.ID)
	}
}

// AgentPayload is the body of the backend's agent creation call.
type AgentPayload struct {
	Name            string                       `json:"name"`
	TargetMarket    string                       `json:"targetMarket"`
	InputStartTime  int                          `json:"inputStartTime"`
	InputEndTime    int                          `json:"inputEndTime"`
	OutputStartTime int                          `json:"outputStartTime"`
	OutputEndTime   int                          `json:"outputEndTime"`
	Frequency       timeslot.Frequency           `json:"frequency"`
	PredictionScale timeslot.PredictionScale     `json:"predictionScale"`
	Features        map[string]map[string]string `json:"features"`
}

// AgentCreatedEvent is published once the backend accepted a new agent.
type AgentCreatedEvent struct {
	EventID         string                   `json:"eventId"`
	SessionID       string                   `json:"sessionId,omitempty"`
	Name            string                   `json:"name"`
	TargetMarket    string                   `json:"targetMarket"`
	PredictionScale timeslot.PredictionScale `json:"predictionScale"`
	Frequency       timeslot.Frequency       `json:"frequency"`
	Slots           timeslot.Slots           `json:"slots"`
	Features        []string                 `json:"features"`
	CreatedAt       time.Time                `json:"createdAt"`
}

// TrainingStatusEvent is consumed from the backend's training pipeline.
type TrainingStatusEvent struct {
	AgentID   int64       `json:"agentId" validate:"required,gte=1"`
	UserID    string      `json:"userId,omitempty"`
	Status    AgentStatus `json:"status" validate:"required,oneof=PENDING IN_PROGRESS COMPLETED FAILED CANCELLED"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
