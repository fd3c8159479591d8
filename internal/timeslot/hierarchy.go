package timeslot

// unitOrder is the single precedence table, coarsest first.
// The resolver, the filters and the collapser all index into it.
var unitOrder = [...]TimeUnit{UnitWeek, UnitDay, UnitHour, UnitMinute}

var scaleStart = map[PredictionScale]int{
	ScaleMonthly: 0,
	ScaleWeekly:  1,
	ScaleDaily:   2,
	ScaleHourly:  3,
}

var frequencyEnd = map[Frequency]int{
	FreqWeek1: 0,
	FreqDay1:  1,
	FreqHour1: 2,
	FreqMin1:  3,
	FreqMin5:  3,
	FreqMin15: 3,
	FreqMin30: 3,
}

// Hierarchy is the ordered list of units the user must fill, coarsest first.
type Hierarchy []TimeUnit

// Rank returns the precedence index of u (0 = WEEK), or -1 when unknown.
func Rank(u TimeUnit) int {
	for i, v := range unitOrder {
		if v == u {
			return i
		}
	}
	return -1
}

// ResolveHierarchy returns the units between the scale's starting unit and the
// frequency's ending unit, inclusive. Unknown values or start > end yield an
// empty hierarchy.
func ResolveHierarchy(scale PredictionScale, freq Frequency) Hierarchy {
	start, ok := scaleStart[scale]
	if !ok {
		return Hierarchy{}
	}
	end, ok := frequencyEnd[freq]
	if !ok || start > end {
		return Hierarchy{}
	}
	h := make(Hierarchy, 0, end-start+1)
	for i := start; i <= end; i++ {
		h = append(h, unitOrder[i])
	}
	return h
}

// Empty reports whether the combination was invalid.
func (h Hierarchy) Empty() bool { return len(h) == 0 }

// Contains reports whether u is an active level.
func (h Hierarchy) Contains(u TimeUnit) bool {
	for _, v := range h {
		if v == u {
			return true
		}
	}
	return false
}

// Last returns the finest active unit.
func (h Hierarchy) Last() (TimeUnit, bool) {
	if len(h) == 0 {
		return "", false
	}
	return h[len(h)-1], true
}

// Coarser returns the active units strictly coarser than u, coarsest first.
func (h Hierarchy) Coarser(u TimeUnit) []TimeUnit {
	r := Rank(u)
	out := make([]TimeUnit, 0, len(h))
	for _, v := range h {
		if Rank(v) < r {
			out = append(out, v)
		}
	}
	return out
}

// Finer returns the active units strictly finer than u, coarsest first.
func (h Hierarchy) Finer(u TimeUnit) []TimeUnit {
	r := Rank(u)
	out := make([]TimeUnit, 0, len(h))
	for _, v := range h {
		if Rank(v) > r {
			out = append(out, v)
		}
	}
	return out
}

// Equal reports whether both hierarchies hold the same units in order.
func (h Hierarchy) Equal(o Hierarchy) bool {
	if len(h) != len(o) {
		return false
	}
	for i := range h {
		if h[i] != o[i] {
			return false
		}
	}
	return true
}
