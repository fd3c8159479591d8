package dashboard

import (
	"errors"
	"fmt"
	"time"

	"AgentDesk/internal/domain/models"
	"AgentDesk/internal/timeslot"
)

const (
	dateLayout      = "2006-01-02"
	firstYear       = 2020
	yearsAhead      = 5
	hoursInDay      = 24
	tradingWeekDays = 5
)

var (
	ErrSelectionRequired = errors.New("dashboard: select an agent and a date")
	ErrHourRequired      = errors.New("dashboard: select an hour for hourly predictions")
	ErrAgentNotReady     = errors.New("dashboard: agent is still in training")
	ErrInvalidHour       = errors.New("dashboard: hour must be between 0 and 23")
)

// Period is an inclusive range of calendar days.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether the day of t falls inside p.
func (p Period) Contains(t time.Time) bool {
	d := day(t)
	return !d.Before(p.Start) && !d.After(p.End)
}

// HighlightPeriod returns the calendar days a prediction at scale would cover
// when date is picked. Unknown scales highlight nothing.
func HighlightPeriod(scale timeslot.PredictionScale, date time.Time) (Period, bool) {
	d := day(date)
	switch scale {
	case timeslot.ScaleHourly, timeslot.ScaleDaily:
		return Period{Start: d, End: d}, true
	case timeslot.ScaleWeekly:
		// Sunday belongs to the week that started the previous Monday.
		offset := 1 - int(d.Weekday())
		if d.Weekday() == time.Sunday {
			offset = -6
		}
		monday := d.AddDate(0, 0, offset)
		return Period{Start: monday, End: monday.AddDate(0, 0, tradingWeekDays-1)}, true
	case timeslot.ScaleMonthly:
		first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
		return Period{Start: first, End: first.AddDate(0, 1, -1)}, true
	default:
		return Period{}, false
	}
}

// WeekNumber counts weeks from January 1st, with the first partial week as 1.
func WeekNumber(date time.Time) int {
	d := day(date)
	jan1 := time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
	past := d.YearDay() - 1
	return (past + int(jan1.Weekday()) + 1 + 6) / 7
}

// PeriodLabel describes the selected period. hour is only read for HOURLY.
func PeriodLabel(scale timeslot.PredictionScale, date time.Time, hour *int) string {
	d := day(date)
	switch scale {
	case timeslot.ScaleHourly:
		if hour != nil {
			return fmt.Sprintf("%s at %d:00", d.Format(dateLayout), *hour)
		}
		return d.Format(dateLayout) + " - Select an hour"
	case timeslot.ScaleDaily:
		return "Day: " + d.Format(dateLayout)
	case timeslot.ScaleWeekly:
		p, _ := HighlightPeriod(scale, d)
		return fmt.Sprintf("Week %d: %s - %s", WeekNumber(d), p.Start.Format(dateLayout), p.End.Format(dateLayout))
	case timeslot.ScaleMonthly:
		return "Month: " + d.Format("January 2006")
	default:
		return ""
	}
}

// PredictionDate formats the date sent to the backend. The backend derives
// the period from the agent's scale, so only HOURLY carries the hour.
func PredictionDate(scale timeslot.PredictionScale, date time.Time, hour *int) string {
	h := 0
	if scale == timeslot.ScaleHourly && hour != nil {
		h = *hour
	}
	return fmt.Sprintf("%sT%02d:00:00", day(date).Format(dateLayout), h)
}

// CheckPredict validates a prediction request against the selected agent.
func CheckPredict(agent *models.Agent, date *time.Time, hour *int) error {
	if agent == nil || date == nil {
		return ErrSelectionRequired
	}
	if hour != nil && (*hour < 0 || *hour >= hoursInDay) {
		return ErrInvalidHour
	}
	if agent.PredictionScale == timeslot.ScaleHourly && hour == nil {
		return ErrHourRequired
	}
	if agent.TrainingStatus != models.AgentCompleted {
		return ErrAgentNotReady
	}
	return nil
}

// ParseDate parses a YYYY-MM-DD day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation(dateLayout, s, loc)
}

// YearRange lists the years offered by the year picker.
func YearRange(now time.Time) []int {
	out := make([]int, 0, now.Year()+yearsAhead-firstYear+1)
	for y := firstYear; y <= now.Year()+yearsAhead; y++ {
		out = append(out, y)
	}
	return out
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
