package dashboard

import (
	"errors"
	"testing"
	"time"

	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/timeslot"
)

func TestGroupAgents(t *testing.T) {
	agents := []models.Agent{
		{ID: 1, TrainingStatus: models.AgentCompleted},
		{ID: 2, TrainingStatus: models.AgentPending},
		{ID: 3, TrainingStatus: models.AgentInProgress},
		{ID: 4, TrainingStatus: models.AgentFailed},
		{ID: 5, TrainingStatus: models.AgentCancelled},
	}
	g := GroupAgents(agents)
	if len(g.Ready) != 1 || g.Ready[0].ID != 1 {
		t.Fatalf("unexpected ready agents %v", g.Ready)
	}
	if len(g.InConstruction) != 2 || g.InConstruction[0].ID != 2 || g.InConstruction[1].ID != 3 {
		t.Fatalf("unexpected in-construction agents %v", g.InConstruction)
	}
	if len(g.All) != 5 {
		t.Fatalf("expected all agents to be kept")
	}
	if empty := GroupAgents(nil); empty.All == nil || empty.Ready == nil {
		t.Fatalf("empty groups should encode as arrays")
	}
}

func TestStatusLabel(t *testing.T) {
	if StatusLabel(models.AgentInProgress) != "Training..." || StatusLabel(models.AgentCompleted) != "Ready" {
		t.Fatalf("unexpected labels")
	}
	if StatusLabel("ARCHIVED") != "ARCHIVED" {
		t.Fatalf("unknown status should be shown raw")
	}
}

func TestAgentDisplayName(t *testing.T) {
	if n := (models.Agent{ID: 9, TargetMarket: "EURUSD"}).DisplayName(); n != "EURUSD" {
		t.Fatalf("unexpected name %s", n)
	}
	if n := (models.Agent{ID: 9}).DisplayName(); n != "Agent #9" {
		t.Fatalf("unexpected name %s", n)
	}
}

func TestFilterPredictions(t *testing.T) {
	preds := []models.Prediction{{PredictionID: 1, AgentID: 2}, {PredictionID: 2, AgentID: 3}, {PredictionID: 3, AgentID: 2}}
	got := FilterPredictions(preds, 2)
	if len(got) != 2 || got[0].PredictionID != 1 || got[1].PredictionID != 3 {
		t.Fatalf("unexpected predictions %v", got)
	}
}

func TestBuildCalendar(t *testing.T) {
	p, _ := HighlightPeriod(timeslot.ScaleWeekly, date(2024, 3, 6))
	cal := BuildCalendar(2024, time.March, time.UTC, &p)
	// March 1st 2024 is a Friday
	if len(cal.Days) != 5+31 {
		t.Fatalf("unexpected grid size %d", len(cal.Days))
	}
	for i := 0; i < 5; i++ {
		if cal.Days[i].Day != 0 {
			t.Fatalf("expected blank at %d", i)
		}
	}
	cell := func(d int) CalendarDay { return cal.Days[4+d] }
	if !cell(2).Weekend || !cell(3).Weekend || cell(4).Weekend {
		t.Fatalf("unexpected weekend flags")
	}
	for d := 4; d <= 8; d++ {
		if !cell(d).InPeriod {
			t.Fatalf("day %d should be in period", d)
		}
	}
	if cell(3).InPeriod || cell(9).InPeriod {
		t.Fatalf("period leaked outside the trading week")
	}
	if cal.Title != "March 2024" {
		t.Fatalf("unexpected title %s", cal.Title)
	}
	if n := len(Months()); n != 12 {
		t.Fatalf("expected 12 months, got %d", n)
	}
}

func TestNewChart(t *testing.T) {
	c, err := NewChart([]float64{1, 2, 3}, []float64{0, 4})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	wantTicks := []string{"4.00", "3.20", "2.40", "1.60", "0.80", "0.00"}
	if len(c.Ticks) != len(wantTicks) {
		t.Fatalf("unexpected ticks %v", c.Ticks)
	}
	for i, w := range wantTicks {
		if c.Ticks[i].Label != w {
			t.Fatalf("tick %d: got %s want %s", i, c.Ticks[i].Label, w)
		}
	}
	if c.Ticks[0].Y != 40 || c.Ticks[5].Y != 260 {
		t.Fatalf("unexpected tick positions %v", c.Ticks)
	}
	if len(c.Series) != 2 || !c.Series[1].Dashed {
		t.Fatalf("expected prediction and dashed actual series")
	}
	pts := c.Series[0].Points
	if pts[0].X != 40 || pts[1].X != 400 || pts[2].X != 760 {
		t.Fatalf("unexpected x positions %v", pts)
	}
	if pts[0].Y != 205 {
		t.Fatalf("unexpected y position %v", pts[0].Y)
	}
}

func TestNewChartFlatSeries(t *testing.T) {
	c, err := NewChart([]float64{5}, nil, WithCanvas(200, 100), WithPadding(10))
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if c.Ticks[0].Label != "6.00" || c.Ticks[5].Label != "5.00" {
		t.Fatalf("flat series should use a unit range, got %v", c.Ticks)
	}
	if p := c.Series[0].Points[0]; p.X != 10 || p.Y != 90 {
		t.Fatalf("unexpected point %v", p)
	}
	if _, err := NewChart(nil, []float64{1}); !errors.Is(err, ErrNoChartData) {
		t.Fatalf("expected ErrNoChartData, got %v", err)
	}
}

func TestNewChartSeparateScales(t *testing.T) {
	c, err := NewChart([]float64{1, 2, 3}, []float64{100, 200}, WithSeparateScales())
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if !c.Separate || len(c.Series) != 2 {
		t.Fatalf("expected two separately scaled series, got %+v", c)
	}
	pred, act := c.Series[0], c.Series[1]
	if pred.Min != "1.00" || pred.Max != "3.00" || c.Min != "1.00" || c.Max != "3.00" {
		t.Fatalf("prediction axis: series %s..%s chart %s..%s", pred.Min, pred.Max, c.Min, c.Max)
	}
	if act.Min != "100.00" || act.Max != "200.00" {
		t.Fatalf("actual axis: %s..%s", act.Min, act.Max)
	}
	if act.Ticks[0].Label != "200.00" || act.Ticks[5].Label != "100.00" {
		t.Fatalf("unexpected actual ticks %v", act.Ticks)
	}
	// both series span the full height on their own scale
	if pred.Points[0].Y != 260 || pred.Points[2].Y != 40 {
		t.Fatalf("unexpected prediction points %v", pred.Points)
	}
	if act.Points[0].Y != 260 || act.Points[1].Y != 40 {
		t.Fatalf("unexpected actual points %v", act.Points)
	}

	shared, err := NewChart([]float64{1, 2, 3}, []float64{100, 200})
	if err != nil {
		t.Fatalf("chart: %v", err)
	}
	if shared.Series[0].Min != "" || shared.Series[0].Ticks != nil {
		t.Fatalf("shared scale should not set per-series axes")
	}
	if shared.Series[0].Points[2].Y == 40 {
		t.Fatalf("prediction should be compressed on the shared scale")
	}
}

func TestSortNewestFirstDuplicateIDs(t *testing.T) {
	preds := []models.Prediction{
		{PredictionID: 0, PredictionDate: "2024-01-01"},
		{PredictionID: 0, PredictionDate: "2024-06-01"},
		{PredictionID: 7, PredictionDate: "garbage"},
		{PredictionID: 7, PredictionDate: "2024-03-01"},
	}
	SortNewestFirst(preds)
	want := []string{"2024-06-01", "2024-03-01", "2024-01-01", "garbage"}
	for i, d := range want {
		if preds[i].PredictionDate != d {
			t.Fatalf("position %d: expected %s, got %s", i, d, preds[i].PredictionDate)
		}
	}
}

func TestSortNewestFirst(t *testing.T) {
	preds := []models.Prediction{
		{PredictionID: 1, PredictionDate: "2024-03-04"},
		{PredictionID: 2, PredictionDate: "garbage"},
		{PredictionID: 3, PredictionDate: "2024-03-06T07:00:00"},
		{PredictionID: 4, PredictionDate: "2024-03-05"},
	}
	SortNewestFirst(preds)
	want := []int64{3, 4, 1, 2}
	for i, id := range want {
		if preds[i].PredictionID != id {
			t.Fatalf("position %d: expected %d, got %d", i, id, preds[i].PredictionID)
		}
	}
}
