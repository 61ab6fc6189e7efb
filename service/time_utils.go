package service

import (
	"time"
)

// UTCDay returns midnight UTC of the day containing t
func UTCDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextUTCDay returns the next midnight UTC after t
func NextUTCDay(t time.Time) time.Time {
	return UTCDay(t).AddDate(0, 0, 1)
}

// UTCMonth returns midnight UTC of the first day of t's month
func UTCMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
