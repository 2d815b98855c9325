package matching

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidCycleKey is returned when a billing cycle key is not in the
// YYYY-MM format.
var ErrInvalidCycleKey = errors.New("invalid billing cycle format")

// cycleKeyLayout is the canonical billing cycle key format, e.g. "2024-11".
const cycleKeyLayout = "2006-01"

// ParseCycleKey validates a billing cycle key and returns the first day of
// its month at midnight UTC.
func ParseCycleKey(key string) (time.Time, error) {
	if len(key) != len(cycleKeyLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCycleKey, key)
	}
	t, err := time.ParseInLocation(cycleKeyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidCycleKey, key)
	}
	return t, nil
}

// CycleKeyFor derives the billing cycle key from a transaction date.
func CycleKeyFor(date time.Time) string {
	return date.Format(cycleKeyLayout)
}

// Window computes the candidate search window for a billing cycle:
// [first day of the cycle month - toleranceDays, last day of the cycle
// month + toleranceDays]. Both ends are inclusive calendar days.
// For cycle "2024-11" and 15 days it returns 2024-10-17 through 2024-12-15.
func Window(cycleKey string, cfg Config) (start, end time.Time, err error) {
	first, err := ParseCycleKey(cycleKey)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last := first.AddDate(0, 1, -1)
	start = first.AddDate(0, 0, -cfg.DateToleranceDays)
	end = last.AddDate(0, 0, cfg.DateToleranceDays)
	return start, end, nil
}

// WindowContains reports whether a date falls inside a cycle's candidate
// window. Only the calendar day matters; the time of day is ignored.
func WindowContains(cycleKey string, date time.Time, cfg Config) (bool, error) {
	start, end, err := Window(cycleKey, cfg)
	if err != nil {
		return false, err
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(start) && !day.After(end), nil
}
