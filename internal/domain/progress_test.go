package domain

import "testing"

func TestPhaseForDay(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{day: 1, want: 1},
		{day: 15, want: 1},
		{day: 16, want: 2},
		{day: 30, want: 2},
		{day: 31, want: 3},
		{day: 45, want: 3},
		{day: 46, want: 4},
		{day: 60, want: 4},
	}

	for _, tc := range tests {
		if got := PhaseForDay(tc.day); got != tc.want {
			t.Errorf("PhaseForDay(%d) = %d, want %d", tc.day, got, tc.want)
		}
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		day  int
		want int
	}{
		{day: -3, want: 1},
		{day: 0, want: 1},
		{day: 1, want: 1},
		{day: 42, want: 42},
		{day: 60, want: 60},
		{day: 99, want: 60},
	}

	for _, tc := range tests {
		if got := ClampDay(tc.day); got != tc.want {
			t.Errorf("ClampDay(%d) = %d, want %d", tc.day, got, tc.want)
		}
	}
}

func TestRoadmapDayCompleted(t *testing.T) {
	r := RoadmapState{CurrentDay: 5, CompletedDays: []int{1, 2, 4}}
	if !r.DayCompleted(2) {
		t.Error("day 2 should be completed")
	}
	if r.DayCompleted(3) {
		t.Error("day 3 should not be completed")
	}
	if got := r.Phase(); got != 1 {
		t.Errorf("Phase() = %d, want 1", got)
	}
}
