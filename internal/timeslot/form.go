package timeslot

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownScale           = errors.New("timeslot: unknown prediction scale")
	ErrUnknownFrequency       = errors.New("timeslot: unknown frequency")
	ErrScaleRequired          = errors.New("timeslot: prediction scale must be chosen first")
	ErrFrequencyNotSelectable = errors.New("timeslot: frequency must be finer than the prediction scale")
	ErrUnknownBoundary        = errors.New("timeslot: unknown boundary")
	ErrChronology             = errors.New("timeslot: boundaries are not in chronological order")
)

// Slots are the four collapsed boundaries sent to the agent backend.
type Slots struct {
	InputStart  int `json:"inputStartTime"`
	InputEnd    int `json:"inputEndTime"`
	OutputStart int `json:"outputStartTime"`
	OutputEnd   int `json:"outputEndTime"`
}

// Form is the in-progress boundary state of one agent-creation form.
// The host calls SetScale/SetFrequency/Select on every field change; each call
// recomputes whatever depends on the changed field. A Form is not safe for
// concurrent use; every session owns its own.
type Form struct {
	scale      PredictionScale
	freq       Frequency
	hierarchy  Hierarchy
	options    map[TimeUnit][]Option
	boundaries map[BoundaryKind]Boundary
}

func NewForm() *Form {
	f := &Form{}
	f.reset()
	return f
}

func (f *Form) Scale() PredictionScale { return f.scale }
func (f *Form) Frequency() Frequency   { return f.freq }
func (f *Form) Hierarchy() Hierarchy   { return append(Hierarchy{}, f.hierarchy...) }

// Visible reports whether boundary fields should be shown at all.
func (f *Form) Visible() bool { return !f.hierarchy.Empty() }

// SetScale changes the prediction scale. A frequency that is no longer finer
// than the new scale is dropped. All boundaries are reset.
func (f *Form) SetScale(s PredictionScale) error {
	if !s.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownScale, s)
	}
	f.scale = s
	if f.freq != "" && !Selectable(s, f.freq) {
		f.freq = ""
	}
	f.hierarchy = ResolveHierarchy(f.scale, f.freq)
	f.options = OptionsFor(f.hierarchy, f.freq)
	f.reset()
	return nil
}

// SetFrequency changes the sampling frequency and resets all boundaries.
// When the hierarchy is unchanged only the MINUTE options are regenerated.
func (f *Form) SetFrequency(fr Frequency) error {
	if !fr.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownFrequency, fr)
	}
	if f.scale == "" {
		return ErrScaleRequired
	}
	if !Selectable(f.scale, fr) {
		return fmt.Errorf("%w: %s for %s", ErrFrequencyNotSelectable, fr, f.scale)
	}

	f.freq = fr
	next := ResolveHierarchy(f.scale, fr)
	if next.Equal(f.hierarchy) && f.options != nil {
		if next.Contains(UnitMinute) {
			f.options[UnitMinute] = GenerateOptions(UnitMinute, fr)
		}
	} else {
		f.hierarchy = next
		f.options = OptionsFor(next, fr)
	}
	f.reset()
	return nil
}

// Options returns the unfiltered option list of unit.
func (f *Form) Options(unit TimeUnit) []Option {
	return keep(f.options[unit], nil)
}

// Candidates returns the options currently offered for one field.
func (f *Form) Candidates(kind BoundaryKind, unit TimeUnit) []Option {
	if !f.hierarchy.Contains(unit) {
		return []Option{}
	}
	opts := f.options[unit]
	h := f.hierarchy
	switch kind {
	case InputStart:
		return keep(opts, nil)
	case InputEnd:
		return EndCandidates(unit, h, f.boundaries[InputStart], f.boundaries[InputEnd], opts)
	case OutputStart:
		return OutputStartCandidates(unit, h, f.boundaries[InputEnd], f.boundaries[OutputStart], opts)
	case OutputEnd:
		return OutputEndCandidates(unit, h, f.boundaries[OutputStart], f.boundaries[OutputEnd], opts)
	default:
		return []Option{}
	}
}

// Select sets one field. The value must be a current candidate. Fields that
// depend on it and are no longer valid are cleared; the cleared fields are
// returned so the caller can tell the user.
func (f *Form) Select(kind BoundaryKind, unit TimeUnit, value int) ([]Field, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownBoundary, kind)
	}
	if !f.hierarchy.Contains(unit) {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotActive, unit)
	}
	if !ContainsValue(f.Candidates(kind, unit), value) {
		return nil, fmt.Errorf("%w: %s.%s=%d", ErrValueOutOfRange, kind, unit, value)
	}
	f.boundaries[kind][unit] = value
	return f.prune(), nil
}

// Clear unsets one field and prunes its dependents.
func (f *Form) Clear(kind BoundaryKind, unit TimeUnit) []Field {
	if b, ok := f.boundaries[kind]; ok {
		delete(b, unit)
	}
	return f.prune()
}

// Boundary returns a copy of one edge.
func (f *Form) Boundary(kind BoundaryKind) Boundary {
	return f.boundaries[kind].Clone()
}

// Slots collapses the four boundaries. Every active unit must be filled.
func (f *Form) Slots() (Slots, error) {
	return ComputeSlots(f.hierarchy, f.freq, f.boundaries)
}

// Field identifies one boundary/unit cell.
type Field struct {
	Boundary BoundaryKind `json:"boundary"`
	Unit     TimeUnit     `json:"unit"`
}

// prune walks fields in dependency order (edges chronologically, units
// coarsest first) and drops values outside their narrowed candidate set.
func (f *Form) prune() []Field {
	var cleared []Field
	for _, kind := range BoundaryKinds() {
		for _, u := range f.hierarchy {
			v, ok := f.boundaries[kind].Get(u)
			if !ok {
				continue
			}
			if !ContainsValue(f.Candidates(kind, u), v) {
				delete(f.boundaries[kind], u)
				cleared = append(cleared, Field{Boundary: kind, Unit: u})
			}
		}
	}
	return cleared
}

func (f *Form) reset() {
	f.boundaries = make(map[BoundaryKind]Boundary, 4)
	for _, k := range BoundaryKinds() {
		f.boundaries[k] = Boundary{}
	}
}

// ComputeSlots strictly collapses a full set of boundaries and checks that
// inputStart <= inputEnd < outputStart <= outputEnd.
func ComputeSlots(h Hierarchy, freq Frequency, bs map[BoundaryKind]Boundary) (Slots, error) {
	if h.Empty() {
		return Slots{}, ErrEmptyHierarchy
	}
	vals := make(map[BoundaryKind]int, 4)
	for _, k := range BoundaryKinds() {
		v, err := CollapseStrict(bs[k], h, freq)
		if err != nil {
			return Slots{}, fmt.Errorf("%s: %w", k, err)
		}
		vals[k] = v
	}
	s := Slots{
		InputStart:  vals[InputStart],
		InputEnd:    vals[InputEnd],
		OutputStart: vals[OutputStart],
		OutputEnd:   vals[OutputEnd],
	}
	switch {
	case s.InputStart > s.InputEnd:
		return Slots{}, fmt.Errorf("%w: input ends before it starts", ErrChronology)
	case s.OutputStart <= s.InputEnd:
		return Slots{}, fmt.Errorf("%w: output must start after input ends", ErrChronology)
	case s.OutputStart > s.OutputEnd:
		return Slots{}, fmt.Errorf("%w: output ends before it starts", ErrChronology)
	}
	return s, nil
}

// State is the serialisable form of a Form.
type State struct {
	Scale      PredictionScale           `json:"predictionScale,omitempty"`
	Frequency  Frequency                 `json:"frequency,omitempty"`
	Boundaries map[BoundaryKind]Boundary `json:"boundaries,omitempty"`
}

func (f *Form) Snapshot() State {
	st := State{Scale: f.scale, Frequency: f.freq, Boundaries: make(map[BoundaryKind]Boundary, 4)}
	for _, k := range BoundaryKinds() {
		if b := f.boundaries[k]; len(b) > 0 {
			st.Boundaries[k] = b.Clone()
		}
	}
	return st
}

// Restore replays st through the update functions, so a tampered state is
// rejected with the same errors a live edit would get.
func Restore(st State) (*Form, error) {
	f := NewForm()
	if st.Scale != "" {
		if err := f.SetScale(st.Scale); err != nil {
			return nil, err
		}
	}
	if st.Frequency != "" {
		if err := f.SetFrequency(st.Frequency); err != nil {
			return nil, err
		}
	}
	for _, k := range BoundaryKinds() {
		b := st.Boundaries[k]
		for u := range b {
			if !f.hierarchy.Contains(u) {
				return nil, fmt.Errorf("%w: %s", ErrUnitNotActive, u)
			}
		}
		for _, u := range f.hierarchy {
			v, ok := b.Get(u)
			if !ok {
				continue
			}
			if _, err := f.Select(k, u, v); err != nil {
				return nil, err
			}
		}
	}
	return f, nil
}
