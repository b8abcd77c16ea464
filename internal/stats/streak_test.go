package stats

import (
	"testing"
	"time"
)

func daySet(now time.Time, offsets ...int) map[time.Time]struct{} {
	set := map[time.Time]struct{}{}
	for _, off := range offsets {
		set[dayKey(now.AddDate(0, 0, -off))] = struct{}{}
	}
	return set
}

func TestStreaks(t *testing.T) {
	now := time.Date(2026, 8, 30, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		offsets     []int
		wantCurrent int
		wantLongest int
	}{
		{"no activity", nil, 0, 0},
		{"active today only", []int{0}, 1, 1},
		{"three day run ending today", []int{0, 1, 2}, 3, 3},
		{"run ending yesterday still counts", []int{1, 2, 3}, 3, 3},
		{"gap two days ago breaks current", []int{0, 1, 3, 4, 5}, 2, 3},
		{"stale activity has no current streak", []int{5, 6, 7, 8}, 0, 4},
		{"single stale day", []int{10}, 0, 1},
		{"longest run is in the past", []int{0, 4, 5, 6, 7, 8}, 1, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			current, longest := streaks(daySet(now, tt.offsets...), now)
			if current != tt.wantCurrent {
				t.Errorf("current = %d, want %d", current, tt.wantCurrent)
			}
			if longest != tt.wantLongest {
				t.Errorf("longest = %d, want %d", longest, tt.wantLongest)
			}
		})
	}
}

func TestDayKey(t *testing.T) {
	a := time.Date(2026, 8, 30, 1, 0, 0, 0, time.UTC)
	b := time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC)
	if dayKey(a) != dayKey(b) {
		t.Error("timestamps on the same UTC day must share a key")
	}
	if dayKey(a) == dayKey(a.AddDate(0, 0, 1)) {
		t.Error("different days must not share a key")
	}
}
