package usecase

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"AgentDesk/internal/dashboard"
	"AgentDesk/internal/domain/models"
	xhttp "AgentDesk/pkg/http"
)

// CalendarView is the dashboard calendar with its pickers.
type CalendarView struct {
	dashboard.Calendar
	Years  []int                 `json:"years"`
	Months []dashboard.MonthName `json:"months"`
	Agent  *models.Agent         `json:"agent,omitempty"`
	Status string                `json:"status,omitempty"`
}

type DashboardService struct {
	agents *AgentService
	loc    *time.Location
	now    func() time.Time
}

func NewDashboardService(agents *AgentService, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{agents: agents, loc: loc, now: time.Now}
}

// Calendar lays out a month. Year and month default to today; with an agent and
// a date the period a prediction would cover is highlighted and labelled.
func (s *DashboardService) Calendar(ctx context.Context, cookies []*http.Cookie, req *models.CalendarRequest) (*CalendarView, error) {
	now := s.now().In(s.loc)
	year, month := req.Year, time.Month(req.Month)
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = now.Month()
	}

	var (
		period *dashboard.Period
		label  string
		agent  *models.Agent
	)
	if req.AgentID > 0 && req.Date != "" {
		a, err := s.agents.Find(ctx, cookies, req.AgentID)
		if err != nil {
			return nil, err
		}
		date, err := dashboard.ParseDate(req.Date, s.loc)
		if err != nil {
			return nil, xhttp.ValidationFailed("ERR_INVALID_DATE", "date must be YYYY-MM-DD").WithField("date").WithError(err)
		}
		if p, ok := dashboard.HighlightPeriod(a.PredictionScale, date); ok {
			period = &p
		}
		hour, err := optionalHour(req.Hour)
		if err != nil {
			return nil, err
		}
		label = dashboard.PeriodLabel(a.PredictionScale, date, hour)
		agent = &a
	}

	v := &CalendarView{
		Calendar: dashboard.BuildCalendar(year, month, s.loc, period),
		Years:    dashboard.YearRange(now),
		Months:   dashboard.Months(),
		Agent:    agent,
	}
	v.Label = label
	if agent != nil {
		v.Status = dashboard.StatusLabel(agent.TrainingStatus)
	}
	return v, nil
}

func optionalHour(raw string) (*int, error) {
	if raw == "" {
		return nil, nil
	}
	h, err := strconv.Atoi(raw)
	if err != nil || h < 0 || h > 23 {
		return nil, toAppError(dashboard.ErrInvalidHour)
	}
	return &h, nil
}
