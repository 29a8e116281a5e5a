package store

import "time"

const dateLayout = "2006-01-02"

// localDate formats t as a date-only string in local time. Evaluation days
// and week keys are local calendar dates, not UTC.
func localDate(t time.Time) string {
	return t.Format(dateLayout)
}

// weekStart returns the Monday of t's week as a date string.
func weekStart(t time.Time) string {
	diff := int(t.Weekday()) - 1
	if t.Weekday() == time.Sunday {
		diff = 6
	}
	return t.AddDate(0, 0, -diff).Format(dateLayout)
}

// weekdayIndex maps Monday=1 through Sunday=7.
func weekdayIndex(t time.Time) int {
	if t.Weekday() == time.Sunday {
		return 7
	}
	return int(t.Weekday())
}
