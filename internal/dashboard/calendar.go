package dashboard

import "time"

// CalendarDay is one cell of the month grid. Day is 0 for the leading blanks.
type CalendarDay struct {
	Day      int  `json:"day,omitempty"`
	InPeriod bool `json:"isInPeriod"`
	Weekend  bool `json:"isWeekend"`
}

type MonthName struct {
	Value int    `json:"value"`
	Name  string `json:"name"`
}

// Calendar is a Sunday-first month grid.
type Calendar struct {
	Year   int           `json:"year"`
	Month  int           `json:"month"`
	Title  string        `json:"title"`
	Days   []CalendarDay `json:"days"`
	Period *Period       `json:"period,omitempty"`
	Label  string        `json:"label,omitempty"`
}

// BuildCalendar lays out month (1-12) of year with the days of period flagged.
func BuildCalendar(year int, month time.Month, loc *time.Location, period *Period) Calendar {
	if loc == nil {
		loc = time.UTC
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	last := first.AddDate(0, 1, -1)

	lead := int(first.Weekday())
	days := make([]CalendarDay, 0, lead+last.Day())
	for i := 0; i < lead; i++ {
		days = append(days, CalendarDay{})
	}
	for d := 1; d <= last.Day(); d++ {
		date := time.Date(year, month, d, 0, 0, 0, 0, loc)
		wd := date.Weekday()
		days = append(days, CalendarDay{
			Day:      d,
			Weekend:  wd == time.Saturday || wd == time.Sunday,
			InPeriod: period != nil && period.Contains(date),
		})
	}
	return Calendar{
		Year:   first.Year(),
		Month:  int(first.Month()),
		Title:  first.Format("January 2006"),
		Days:   days,
		Period: period,
	}
}

// Months lists the month picker entries.
func Months() []MonthName {
	out := make([]MonthName, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, MonthName{Value: int(m), Name: m.String()})
	}
	return out
}
