package summary

import (
	"time"
)

// DayLayout formats calendar day keys.
const DayLayout = "2006-01-02"

// DayKey returns the local calendar day of t.
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// Midnight returns 00:00 on t's calendar day, in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// WeeklyBoundary returns the Sunday 23:59 closest to t, looking both
// backwards and forwards.
func WeeklyBoundary(t time.Time) time.Time {
	y, m, d := t.Date()
	daysUntilSunday := (7 - int(t.Weekday())) % 7

	next := time.Date(y, m, d+daysUntilSunday, 23, 59, 0, 0, t.Location())
	prev := next.AddDate(0, 0, -7)

	if absDuration(t.Sub(prev)) < absDuration(next.Sub(t)) {
		return prev
	}
	return next
}

// UpcomingWeeklyBoundary returns the Sunday 23:59 ending the week t falls
// in. The boundary minute itself still belongs to that week.
func UpcomingWeeklyBoundary(t time.Time) time.Time {
	y, m, d := t.Date()
	daysUntilSunday := (7 - int(t.Weekday())) % 7

	next := time.Date(y, m, d+daysUntilSunday, 23, 59, 0, 0, t.Location())
	if !t.Before(next.Add(time.Minute)) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
