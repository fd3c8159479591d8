package timeslot

import "testing"

func values(opts []Option) []int {
	out := make([]int, 0, len(opts))
	for _, o := range opts {
		out = append(out, o.Value)
	}
	return out
}

func sameInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterEnd(t *testing.T) {
	days := GenerateOptions(UnitDay, FreqDay1)
	if got := values(FilterEnd(days, 3)); !sameInts(got, []int{3, 4, 5}) {
		t.Fatalf("unexpected %v", got)
	}
	if got := values(FilterEnd(days, 0)); len(got) != 5 {
		t.Fatalf("unset start should keep everything, got %v", got)
	}
	if got := values(FilterOutputEnd(days, 5)); !sameInts(got, []int{5}) {
		t.Fatalf("unexpected %v", got)
	}
}

func TestFilterOutputStart(t *testing.T) {
	h := ResolveHierarchy(ScaleMonthly, FreqDay1)
	days := GenerateOptions(UnitDay, FreqDay1)
	inputEnd := Boundary{UnitWeek: 2, UnitDay: 4}

	got := values(FilterOutputStart(UnitDay, h, inputEnd, Boundary{UnitWeek: 3}, days))
	if !sameInts(got, []int{1, 2, 3, 4, 5}) {
		t.Fatalf("later week should leave days free, got %v", got)
	}
	got = values(FilterOutputStart(UnitDay, h, inputEnd, Boundary{UnitWeek: 2}, days))
	if !sameInts(got, []int{5}) {
		t.Fatalf("same week should require day > 4, got %v", got)
	}
	got = values(FilterOutputStart(UnitDay, h, Boundary{}, Boundary{}, days))
	if len(got) != 5 {
		t.Fatalf("unset input end should leave days free, got %v", got)
	}
}

func TestFilterOutputStartIgnoresInactiveUnits(t *testing.T) {
	h := ResolveHierarchy(ScaleWeekly, FreqHour1)
	hours := GenerateOptions(UnitHour, FreqHour1)
	// WEEK is not active, so a stray week value must not unlock the hours
	got := values(FilterOutputStart(UnitHour, h,
		Boundary{UnitWeek: 1, UnitDay: 2, UnitHour: 20},
		Boundary{UnitWeek: 3, UnitDay: 2}, hours))
	if !sameInts(got, []int{21, 22, 23}) {
		t.Fatalf("unexpected %v", got)
	}
}

func TestOutputStartCandidatesAllowsSameCoarserPeriod(t *testing.T) {
	h := ResolveHierarchy(ScaleMonthly, FreqDay1)
	weeks := GenerateOptions(UnitWeek, FreqDay1)
	got := values(OutputStartCandidates(UnitWeek, h, Boundary{UnitWeek: 2, UnitDay: 4}, Boundary{}, weeks))
	if !sameInts(got, []int{2, 3, 4}) {
		t.Fatalf("unexpected %v", got)
	}
}

func TestEndCandidatesCascade(t *testing.T) {
	h := ResolveHierarchy(ScaleMonthly, FreqDay1)
	days := GenerateOptions(UnitDay, FreqDay1)
	start := Boundary{UnitWeek: 1, UnitDay: 4}
	if got := values(EndCandidates(UnitDay, h, start, Boundary{UnitWeek: 1}, days)); !sameInts(got, []int{4, 5}) {
		t.Fatalf("same week should require day >= 4, got %v", got)
	}
	if got := values(EndCandidates(UnitDay, h, start, Boundary{UnitWeek: 2}, days)); len(got) != 5 {
		t.Fatalf("later week should leave days free, got %v", got)
	}
}
