package usecase

import (
	"context"
	"testing"
	"time"

	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/timeslot"
)

func TestDashboardService_Calendar(t *testing.T) {
	fx := newFixture(t)
	fx.backend.agents = []models.Agent{{ID: 4, PredictionScale: timeslot.ScaleWeekly, TrainingStatus: models.AgentCompleted}}
	fx.dashboards.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	v, err := fx.dashboards.Calendar(ctx, nil, &models.CalendarRequest{})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if v.Year != 2024 || v.Month != 3 || v.Period != nil || v.Label != "" {
		t.Fatalf("unexpected default calendar %+v", v.Calendar)
	}
	if v.Years[0] != 2020 || v.Years[len(v.Years)-1] != 2029 || len(v.Months) != 12 {
		t.Fatalf("unexpected pickers")
	}

	v, err = fx.dashboards.Calendar(ctx, nil, &models.CalendarRequest{Year: 2024, Month: 3, AgentID: 4, Date: "2024-03-10"})
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	if v.Period == nil || v.Period.Start.Day() != 4 || v.Period.End.Day() != 8 {
		t.Fatalf("sunday should highlight the previous trading week, got %+v", v.Period)
	}
	if v.Label != "Week 11: 2024-03-04 - 2024-03-08" || v.Status != "Ready" {
		t.Fatalf("unexpected label %q status %q", v.Label, v.Status)
	}
}
