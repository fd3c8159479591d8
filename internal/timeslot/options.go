package timeslot

import "fmt"

// Option is one selectable value of a hierarchy level.
type Option struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// GenerateOptions returns the candidate values for unit, ascending.
// MINUTE slots depend on the frequency step; other units ignore freq.
func GenerateOptions(unit TimeUnit, freq Frequency) []Option {
	switch unit {
	case UnitWeek:
		return sequence(1, weeksPerHorizon, "Week %d")
	case UnitDay:
		return sequence(1, tradingDays, "Day %d")
	case UnitHour:
		return sequence(0, hoursPerDay-1, "Hour %d")
	case UnitMinute:
		step := freq.MinuteStep()
		count := minutesPerHour / step
		out := make([]Option, 0, count)
		for slot := 1; slot <= count; slot++ {
			out = append(out, Option{Value: slot, Label: fmt.Sprintf("Minute %d", (slot-1)*step)})
		}
		return out
	default:
		return []Option{}
	}
}

// OptionsFor generates the option list of every unit in h.
func OptionsFor(h Hierarchy, freq Frequency) map[TimeUnit][]Option {
	out := make(map[TimeUnit][]Option, len(h))
	for _, u := range h {
		out[u] = GenerateOptions(u, freq)
	}
	return out
}

// ContainsValue reports whether v is one of opts.
func ContainsValue(opts []Option, v int) bool {
	for _, o := range opts {
		if o.Value == v {
			return true
		}
	}
	return false
}

func sequence(from, to int, format string) []Option {
	out := make([]Option, 0, to-from+1)
	for v := from; v <= to; v++ {
		out = append(out, Option{Value: v, Label: fmt.Sprintf(format, v)})
	}
	return out
}
