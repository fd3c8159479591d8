package timeslot

// PredictionScale is the granularity a forecast is evaluated at.
type PredictionScale string

const (
	ScaleHourly  PredictionScale = "HOURLY"
	ScaleDaily   PredictionScale = "DAILY"
	ScaleWeekly  PredictionScale = "WEEKLY"
	ScaleMonthly PredictionScale = "MONTHLY"
)

// Frequency is the sampling granularity of the data feeding an agent.
type Frequency string

const (
	FreqMin1  Frequency = "MIN_1"
	FreqMin5  Frequency = "MIN_5"
	FreqMin15 Frequency = "MIN_15"
	FreqMin30 Frequency = "MIN_30"
	FreqHour1 Frequency = "HOUR_1"
	FreqDay1  Frequency = "DAY_1"
	FreqWeek1 Frequency = "WEEK_1"
)

// TimeUnit is one level of the week > day > hour > minute hierarchy.
type TimeUnit string

const (
	UnitWeek   TimeUnit = "WEEK"
	UnitDay    TimeUnit = "DAY"
	UnitHour   TimeUnit = "HOUR"
	UnitMinute TimeUnit = "MINUTE"
)

const (
	weeksPerHorizon = 4
	tradingDays     = 5
	hoursPerDay     = 24
	minutesPerHour  = 60
)

var scaleMinutes = map[PredictionScale]int{
	ScaleHourly:  60,
	ScaleDaily:   1440,
	ScaleWeekly:  10080,
	ScaleMonthly: 43200,
}

var frequencyMinutes = map[Frequency]int{
	FreqMin1:  1,
	FreqMin5:  5,
	FreqMin15: 15,
	FreqMin30: 30,
	FreqHour1: 60,
	FreqDay1:  1440,
	FreqWeek1: 10080,
}

// Scales lists every prediction scale, finest first.
func Scales() []PredictionScale {
	return []PredictionScale{ScaleHourly, ScaleDaily, ScaleWeekly, ScaleMonthly}
}

// Frequencies lists every frequency, finest first.
func Frequencies() []Frequency {
	return []Frequency{FreqMin1, FreqMin5, FreqMin15, FreqMin30, FreqHour1, FreqDay1, FreqWeek1}
}

// Minutes returns the scale duration in minutes, or 0 when unknown.
func (s PredictionScale) Minutes() int { return scaleMinutes[s] }

// Valid reports whether s is a known scale.
func (s PredictionScale) Valid() bool {
	_, ok := scaleMinutes[s]
	return ok
}

// Minutes returns the frequency duration in minutes, or 0 when unknown.
func (f Frequency) Minutes() int { return frequencyMinutes[f] }

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	_, ok := frequencyMinutes[f]
	return ok
}

// MinuteStep is the width in minutes of one MINUTE slot for f.
func (f Frequency) MinuteStep() int {
	switch f {
	case FreqMin5:
		return 5
	case FreqMin15:
		return 15
	case FreqMin30:
		return 30
	default:
		return 1
	}
}

// SlotsPerHour is the number of MINUTE slots in one hour for f.
func (f Frequency) SlotsPerHour() int { return minutesPerHour / f.MinuteStep() }

// Selectable reports whether f is strictly finer than s.
func Selectable(s PredictionScale, f Frequency) bool {
	if !s.Valid() || !f.Valid() {
		return false
	}
	return f.Minutes() < s.Minutes()
}

// SelectableFrequencies returns the frequencies offered for s, finest first.
func SelectableFrequencies(s PredictionScale) []Frequency {
	out := make([]Frequency, 0, len(frequencyMinutes))
	for _, f := range Frequencies() {
		if Selectable(s, f) {
			out = append(out, f)
		}
	}
	return out
}
