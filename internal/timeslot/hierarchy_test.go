package timeslot

import "testing"

func TestResolveHierarchyCoarserFrequencyIsEmpty(t *testing.T) {
	for _, s := range Scales() {
		for _, f := range Frequencies() {
			if f.Minutes() < s.Minutes() {
				continue
			}
			if h := ResolveHierarchy(s, f); !h.Empty() {
				t.Fatalf("%s/%s: expected empty hierarchy, got %v", s, f, h)
			}
		}
	}
}

func TestResolveHierarchyContiguous(t *testing.T) {
	for _, s := range Scales() {
		for _, f := range SelectableFrequencies(s) {
			h := ResolveHierarchy(s, f)
			if h.Empty() {
				t.Fatalf("%s/%s: unexpected empty hierarchy", s, f)
			}
			if h[0] != unitOrder[scaleStart[s]] {
				t.Fatalf("%s/%s: first unit %s", s, f, h[0])
			}
			last, _ := h.Last()
			if last != unitOrder[frequencyEnd[f]] {
				t.Fatalf("%s/%s: last unit %s", s, f, last)
			}
			for i := 1; i < len(h); i++ {
				if Rank(h[i]) != Rank(h[i-1])+1 {
					t.Fatalf("%s/%s: gap in %v", s, f, h)
				}
			}
		}
	}
}

func TestResolveHierarchyCases(t *testing.T) {
	cases := []struct {
		scale PredictionScale
		freq  Frequency
		want  Hierarchy
	}{
		{ScaleMonthly, FreqDay1, Hierarchy{UnitWeek, UnitDay}},
		{ScaleHourly, FreqMin15, Hierarchy{UnitMinute}},
		{ScaleDaily, FreqHour1, Hierarchy{UnitHour}},
		{ScaleMonthly, FreqMin1, Hierarchy{UnitWeek, UnitDay, UnitHour, UnitMinute}},
		{ScaleWeekly, FreqMin30, Hierarchy{UnitDay, UnitHour, UnitMinute}},
		{ScaleHourly, FreqWeek1, Hierarchy{}},
		{"YEARLY", FreqMin1, Hierarchy{}},
		{ScaleDaily, "SEC_1", Hierarchy{}},
	}
	for _, c := range cases {
		got := ResolveHierarchy(c.scale, c.freq)
		if !got.Equal(c.want) {
			t.Fatalf("%s/%s: got %v want %v", c.scale, c.freq, got, c.want)
		}
	}
}

func TestHierarchyCoarserFiner(t *testing.T) {
	h := ResolveHierarchy(ScaleMonthly, FreqHour1)
	if c := h.Coarser(UnitDay); len(c) != 1 || c[0] != UnitWeek {
		t.Fatalf("unexpected coarser %v", c)
	}
	if f := h.Finer(UnitDay); len(f) != 1 || f[0] != UnitHour {
		t.Fatalf("unexpected finer %v", f)
	}
	if h.Contains(UnitMinute) {
		t.Fatalf("minute should not be active")
	}
}

func TestSelectable(t *testing.T) {
	if Selectable(ScaleHourly, FreqHour1) {
		t.Fatalf("equal duration must not be selectable")
	}
	if !Selectable(ScaleHourly, FreqMin30) {
		t.Fatalf("MIN_30 should be finer than HOURLY")
	}
	got := SelectableFrequencies(ScaleWeekly)
	if len(got) != 6 || got[len(got)-1] != FreqDay1 {
		t.Fatalf("unexpected weekly frequencies %v", got)
	}
	if len(SelectableFrequencies("NOPE")) != 0 {
		t.Fatalf("unknown scale should offer nothing")
	}
}
