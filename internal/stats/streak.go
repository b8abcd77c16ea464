package stats

import (
	"sort"
	"time"
)

// dayKey truncates a timestamp to its UTC calendar day
func dayKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// streaks computes the current and longest run of consecutive active
// days. The current streak counts back from the reference day; activity
// today or yesterday keeps it alive, anything older means zero.
func streaks(activeDays map[time.Time]struct{}, now time.Time) (current, longest int) {
	if len(activeDays) == 0 {
		return 0, 0
	}

	days := make([]time.Time, 0, len(activeDays))
	for d := range activeDays {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Sub(days[i-1]) == 24*time.Hour {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	today := dayKey(now)
	anchor := today
	if _, ok := activeDays[anchor]; !ok {
		anchor = today.AddDate(0, 0, -1)
		if _, ok := activeDays[anchor]; !ok {
			return 0, longest
		}
	}
	for {
		current++
		anchor = anchor.AddDate(0, 0, -1)
		if _, ok := activeDays[anchor]; !ok {
			return current, longest
		}
	}
}
