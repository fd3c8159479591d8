package timeslot

// FilterEnd keeps the options that are not before start. An end may equal its
// start; an unset start (0) keeps everything.
func FilterEnd(opts []Option, start int) []Option {
	return keep(opts, func(v int) bool { return v >= start })
}

// FilterOutputEnd mirrors FilterEnd for the output window.
func FilterOutputEnd(opts []Option, outputStart int) []Option {
	return FilterEnd(opts, outputStart)
}

// FilterOutputStart narrows the output-start candidates of unit against the
// input end. If a coarser active unit of the output start is already past the
// input end, the unit is unconstrained; otherwise it must be strictly after
// the input end's value for the same unit. Units missing from h are skipped.
func FilterOutputStart(unit TimeUnit, h Hierarchy, inputEnd, outputStart Boundary, opts []Option) []Option {
	if advanced(unit, h, inputEnd, outputStart) {
		return keep(opts, nil)
	}
	end, ok := inputEnd.Get(unit)
	if !ok {
		return keep(opts, nil)
	}
	return keep(opts, func(v int) bool { return v > end })
}

// OutputStartCandidates is the cascade the form uses. A coarser unit may match
// the input end, which leaves the choice to the next finer unit; only the
// finest unit must be strictly after the input end.
func OutputStartCandidates(unit TimeUnit, h Hierarchy, inputEnd, outputStart Boundary, opts []Option) []Option {
	if last, ok := h.Last(); ok && last == unit {
		return FilterOutputStart(unit, h, inputEnd, outputStart, opts)
	}
	if advanced(unit, h, inputEnd, outputStart) {
		return keep(opts, nil)
	}
	end, ok := inputEnd.Get(unit)
	if !ok {
		return keep(opts, nil)
	}
	return keep(opts, func(v int) bool { return v >= end })
}

// EndCandidates applies FilterEnd top-down: once a coarser unit of end is past
// start, the finer unit is free.
func EndCandidates(unit TimeUnit, h Hierarchy, start, end Boundary, opts []Option) []Option {
	if advanced(unit, h, start, end) {
		return keep(opts, nil)
	}
	s, _ := start.Get(unit)
	return FilterEnd(opts, s)
}

// OutputEndCandidates is EndCandidates scoped to the output window.
func OutputEndCandidates(unit TimeUnit, h Hierarchy, outputStart, outputEnd Boundary, opts []Option) []Option {
	if advanced(unit, h, outputStart, outputEnd) {
		return keep(opts, nil)
	}
	s, _ := outputStart.Get(unit)
	return FilterOutputEnd(opts, s)
}

// advanced reports whether any active unit coarser than unit is strictly
// later in `later` than in `earlier`.
func advanced(unit TimeUnit, h Hierarchy, earlier, later Boundary) bool {
	for _, c := range h.Coarser(unit) {
		e, okE := earlier.Get(c)
		l, okL := later.Get(c)
		if okE && okL && l > e {
			return true
		}
	}
	return false
}

func keep(opts []Option, pred func(int) bool) []Option {
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		if pred == nil || pred(o.Value) {
			out = append(out, o)
		}
	}
	return out
}
