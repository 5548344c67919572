package utils

import "time"

// PeriodStart truncates now to the start of the current aggregation
// period. Windows follow calendar boundaries in UTC: weeks start on
// Monday, quarters on Jan/Apr/Jul/Oct 1.
func PeriodStart(now time.Time, window string) time.Time {
	now = now.UTC()
	switch window {
	case "weekly":
		day := now.Truncate(24 * time.Hour)
		offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
		return day.AddDate(0, 0, -offset)
	case "monthly":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	case "quarterly":
		quarterMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
	case "yearly":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default: // daily
		return now.Truncate(24 * time.Hour)
	}
}

// PreviousPeriodStart returns the start of the period immediately before
// the one containing now, of equal calendar length.
func PreviousPeriodStart(now time.Time, window string) time.Time {
	start := PeriodStart(now, window)
	switch window {
	case "weekly":
		return start.AddDate(0, 0, -7)
	case "monthly":
		return start.AddDate(0, -1, 0)
	case "quarterly":
		return start.AddDate(0, -3, 0)
	case "yearly":
		return start.AddDate(-1, 0, 0)
	default:
		return start.AddDate(0, 0, -1)
	}
}
