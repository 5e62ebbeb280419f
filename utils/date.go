package utils

import "time"

const DateLayout = "2006-01-02"

// DayOf truncates a timestamp to its calendar date string in the
// timestamp's own location.
func DayOf(t time.Time) string {
	return t.Format(DateLayout)
}
