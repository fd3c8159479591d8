package models

import (
	"strconv"
	"time"
)

// Prediction is one forecast served by the backend, with the realised market
// series when it is already known.
type Prediction struct {
	PredictionID   int64     `json:"predictionId"`
	AgentID        int64     `json:"agentId"`
	TargetMarket   string    `json:"targetMarket"`
	PredictionDate string    `json:"predictionDate"`
	Prediction     []float64 `json:"prediction"`
	ActualMarket   []float64 `json:"actualMarket"`
}

// PredictionRequest is the backend body of POST /prediction/predict.
type PredictionRequest struct {
	AgentID        int64  `json:"agentId"`
	PredictionDate string `json:"predictionDate"`
}

// ArchivedPrediction is a Prediction as stored locally for charting.
type ArchivedPrediction struct {
	Prediction
	ServedAt time.Time `json:"servedAt"`
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
