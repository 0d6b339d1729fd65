// Package dates computes the calendar-day strings used by the service log forms.
package dates

import "time"

// Layout is the calendar date format used by every date field.
const Layout = "2006-01-02"

// Defaults returns today and tomorrow, as calendar days in UTC.
func Defaults(now time.Time) (start, end string) {
	day := now.UTC()
	return day.Format(Layout), day.AddDate(0, 0, 1).Format(Layout)
}

// NextDay returns the calendar day after start. ok is false when start is not a
// valid date.
func NextDay(start string) (string, bool) {
	t, err := time.Parse(Layout, start)
	if err != nil {
		return "", false
	}
	return t.AddDate(0, 0, 1).Format(Layout), true
}
