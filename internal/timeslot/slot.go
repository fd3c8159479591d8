package timeslot

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyHierarchy     = errors.New("timeslot: scale and frequency combination has no hierarchy")
	ErrIncompleteBoundary = errors.New("timeslot: boundary is missing a value")
	ErrValueOutOfRange    = errors.New("timeslot: value is not a valid option")
	ErrUnitNotActive      = errors.New("timeslot: unit is not part of the hierarchy")
)

// BoundaryKind names one of the four window edges.
type BoundaryKind string

const (
	InputStart  BoundaryKind = "inputStart"
	InputEnd    BoundaryKind = "inputEnd"
	OutputStart BoundaryKind = "outputStart"
	OutputEnd   BoundaryKind = "outputEnd"
)

// BoundaryKinds lists the edges in chronological order.
func BoundaryKinds() []BoundaryKind {
	return []BoundaryKind{InputStart, InputEnd, OutputStart, OutputEnd}
}

// Valid reports whether k is a known edge.
func (k BoundaryKind) Valid() bool {
	switch k {
	case InputStart, InputEnd, OutputStart, OutputEnd:
		return true
	default:
		return false
	}
}

// Boundary holds the per-unit selections of one edge. Absent keys are unset.
type Boundary map[TimeUnit]int

// Get returns the value for u and whether it is set.
func (b Boundary) Get(u TimeUnit) (int, bool) {
	if b == nil {
		return 0, false
	}
	v, ok := b[u]
	return v, ok
}

// Clone returns an independent copy.
func (b Boundary) Clone() Boundary {
	out := make(Boundary, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// unitBase is the first value a unit can take: WEEK and DAY count from 1,
// HOUR from 0, MINUTE slots from 1.
func unitBase(u TimeUnit) int {
	if u == UnitHour {
		return 0
	}
	return 1
}

// childCount is how many units of the next finer level fit in one u.
func childCount(u TimeUnit, freq Frequency) int {
	switch u {
	case UnitWeek:
		return tradingDays
	case UnitDay:
		return hoursPerDay
	case UnitHour:
		return freq.SlotsPerHour()
	default:
		return 1
	}
}

// span is how many `finest` units fit in one u.
func span(u, finest TimeUnit, freq Frequency) int {
	n := 1
	for i := Rank(u); i >= 0 && i < Rank(finest); i++ {
		n *= childCount(unitOrder[i], freq)
	}
	return n
}

// CollapseToSlot folds a boundary into one index at the granularity of the
// finest active unit: the finest value plus, for each coarser unit, its
// offset from the unit's first option times the finest steps it spans.
//
// Unset values count as 0. For 1-based units (WEEK, DAY) that would make the
// offset negative, e.g. an unset DAY above HOUR would add (0-1)*24. Offsets
// are clamped at 0 instead, so an incomplete boundary collapses as if the
// missing coarse unit sat on its first option and the slot is never negative.
// Use CollapseStrict to reject incomplete boundaries.
func CollapseToSlot(b Boundary, h Hierarchy, freq Frequency) int {
	finest, ok := h.Last()
	if !ok {
		return 0
	}
	slot, _ := b.Get(finest)
	for _, u := range h.Coarser(finest) {
		v, _ := b.Get(u)
		off := v - unitBase(u)
		if off < 0 {
			off = 0
		}
		slot += off * span(u, finest, freq)
	}
	return slot
}

// CollapseStrict is CollapseToSlot for complete boundaries only: every active
// unit must hold one of its generated options.
func CollapseStrict(b Boundary, h Hierarchy, freq Frequency) (int, error) {
	if h.Empty() {
		return 0, ErrEmptyHierarchy
	}
	for _, u := range h {
		v, ok := b.Get(u)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrIncompleteBoundary, u)
		}
		if !ContainsValue(GenerateOptions(u, freq), v) {
			return 0, fmt.Errorf("%w: %s=%d", ErrValueOutOfRange, u, v)
		}
	}
	for u := range b {
		if !h.Contains(u) {
			return 0, fmt.Errorf("%w: %s", ErrUnitNotActive, u)
		}
	}
	return CollapseToSlot(b, h, freq), nil
}
