package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"AgentDesk/internal/domain/models"
	domrepo "AgentDesk/internal/domain/repository"
	"AgentDesk/internal/service/ratelimit"
	"AgentDesk/internal/timeslot"
	applogger "AgentDesk/pkg/logger"
)

func newPredictions(fx *fixture, limiter *ratelimit.Limiter) *PredictionService {
	fx.backend.agents = []models.Agent{
		{ID: 1, TargetMarket: "EURUSD", PredictionScale: timeslot.ScaleHourly, TrainingStatus: models.AgentCompleted},
		{ID: 2, TargetMarket: "BTCUSD", PredictionScale: timeslot.ScaleDaily, TrainingStatus: models.AgentCompleted},
		{ID: 3, PredictionScale: timeslot.ScaleDaily, TrainingStatus: models.AgentInProgress},
	}
	return NewPredictionService(fx.backend, fx.agents, fx.archive, limiter, domrepo.NopMetrics{}, applogger.Nop(), time.UTC)
}

func TestPredictionService_Predict(t *testing.T) {
	fx := newFixture(t)
	svc := newPredictions(fx, nil)
	ctx := context.Background()

	p, err := svc.Predict(ctx, nil, &models.PredictRequest{AgentID: 1, Date: "2024-03-06", Hour: intPtr(9)})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if got := fx.backend.predictReqs[0].PredictionDate; got != "2024-03-06T09:00:00" {
		t.Fatalf("unexpected prediction date %s", got)
	}
	if p.TargetMarket != "EURUSD" {
		t.Fatalf("market should default to the agent's")
	}
	if _, err := fx.archive.Get(ctx, p.PredictionID); err != nil {
		t.Fatalf("prediction should be archived: %v", err)
	}

	if _, err := svc.Predict(ctx, nil, &models.PredictRequest{AgentID: 2, Date: "2024-03-06", Hour: intPtr(9)}); err != nil {
		t.Fatalf("predict daily: %v", err)
	}
	if got := fx.backend.predictReqs[1].PredictionDate; got != "2024-03-06T00:00:00" {
		t.Fatalf("daily predictions ignore the hour, got %s", got)
	}
}

func TestPredictionService_PredictRejects(t *testing.T) {
	fx := newFixture(t)
	svc := newPredictions(fx, nil)
	ctx := context.Background()

	cases := []struct {
		req  models.PredictRequest
		code string
	}{
		{models.PredictRequest{AgentID: 1, Date: "2024-03-06"}, "ERR_HOUR_REQUIRED"},
		{models.PredictRequest{AgentID: 3, Date: "2024-03-06"}, "ERR_AGENT_NOT_READY"},
		{models.PredictRequest{AgentID: 2, Date: "06/03/2024"}, "ERR_INVALID_DATE"},
		{models.PredictRequest{AgentID: 9, Date: "2024-03-06"}, "ERR_NOT_FOUND"},
	}
	for _, tc := range cases {
		req := tc.req
		if _, err := svc.Predict(ctx, nil, &req); appCode(t, err) != tc.code {
			t.Fatalf("agent %d: expected %s, got %v", req.AgentID, tc.code, err)
		}
	}
	if len(fx.backend.predictReqs) != 0 {
		t.Fatalf("rejected requests reached the backend")
	}
}

func TestPredictionService_RateLimited(t *testing.T) {
	fx := newFixture(t)
	svc := newPredictions(fx, ratelimit.New(1, 0.001))
	ctx := context.Background()
	req := &models.PredictRequest{AgentID: 2, Date: "2024-03-06"}
	if _, err := svc.Predict(ctx, nil, req); err != nil {
		t.Fatalf("first predict: %v", err)
	}
	if _, err := svc.Predict(ctx, nil, req); appCode(t, err) != "ERR_RATE_LIMITED" {
		t.Fatalf("expected rate limit, got %v", err)
	}
	other := &models.PredictRequest{AgentID: 1, Date: "2024-03-06", Hour: intPtr(1)}
	if _, err := svc.Predict(ctx, nil, other); err != nil {
		t.Fatalf("limits are per agent: %v", err)
	}
}

func TestPredictionService_ListAndChart(t *testing.T) {
	fx := newFixture(t)
	svc := newPredictions(fx, nil)
	fx.backend.predictions = []models.Prediction{
		{PredictionID: 7, AgentID: 1, Prediction: []float64{1, 2}, ActualMarket: []float64{1.5}},
		{PredictionID: 8, AgentID: 2},
	}
	ctx := context.Background()

	preds, err := svc.List(ctx, nil, 2)
	if err != nil || len(preds) != 1 || preds[0].PredictionID != 8 {
		t.Fatalf("unexpected filtered list %v %v", preds, err)
	}

	view, err := svc.Chart(ctx, nil, 7)
	if err != nil {
		t.Fatalf("chart from history: %v", err)
	}
	if len(view.Chart.Series) != 2 {
		t.Fatalf("expected prediction and actual series")
	}
	if _, err := svc.Chart(ctx, nil, 8); appCode(t, err) != "ERR_NO_CHART_DATA" {
		t.Fatalf("expected no chart data, got %v", err)
	}
	if _, err := svc.Chart(ctx, nil, 99); appCode(t, err) != "ERR_NOT_FOUND" {
		t.Fatalf("expected not found, got %v", err)
	}

	p, err := svc.Predict(ctx, nil, &models.PredictRequest{AgentID: 2, Date: "2024-03-06"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if view, err := svc.Chart(ctx, nil, p.PredictionID); err != nil || view.Prediction.PredictionID != p.PredictionID {
		t.Fatalf("chart from archive: %v", err)
	}
}

func TestPredictionService_ChartOnlyForOwner(t *testing.T) {
	fx := newFixture(t)
	svc := newPredictions(fx, nil)
	alice := []*http.Cookie{{Name: "JSESSIONID", Value: "alice"}}
	bob := []*http.Cookie{{Name: "JSESSIONID", Value: "bob"}}
	fx.backend.agentsBy = map[string][]models.Agent{
		"alice": fx.backend.agents,
		"bob":   {{ID: 9, PredictionScale: timeslot.ScaleDaily, TrainingStatus: models.AgentCompleted}},
	}
	ctx := context.Background()

	p, err := svc.Predict(ctx, alice, &models.PredictRequest{AgentID: 2, Date: "2024-03-06"})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	// nothing in the backend history; only the archive knows the prediction
	fx.backend.predictions = nil

	if view, err := svc.Chart(ctx, alice, p.PredictionID); err != nil || view.Prediction.PredictionID != p.PredictionID {
		t.Fatalf("owner should see the chart: %v", err)
	}
	for name, cookies := range map[string][]*http.Cookie{"other user": bob, "anonymous": nil} {
		if _, err := svc.Chart(ctx, cookies, p.PredictionID); appCode(t, err) != "ERR_NOT_FOUND" {
			t.Fatalf("%s should not see prediction %d, got %v", name, p.PredictionID, err)
		}
	}
}
