// Package biztime provides business-timezone date calculations. Storage and
// transport use UTC; the business timezone only decides day and month
// boundaries for the reset scheduler.
package biztime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultTimezone is used when no timezone is configured.
const DefaultTimezone = "UTC"

var (
	bizLocation     *time.Location
	bizLocationOnce sync.Once
	initErr         error
)

// Init sets the business timezone. Call once at startup.
func Init(tz string) error {
	bizLocationOnce.Do(func() {
		if tz == "" {
			tz = DefaultTimezone
		}
		bizLocation, initErr = time.LoadLocation(tz)
	})
	return initErr
}

// MustInit initializes the business timezone and panics on error.
func MustInit(tz string) {
	if err := Init(tz); err != nil {
		panic(fmt.Sprintf("failed to initialize business timezone %q: %v", tz, err))
	}
}

// Location returns the business timezone, auto-initializing the default.
func Location() *time.Location {
	if bizLocation == nil {
		if err := Init(""); err != nil {
			panic(fmt.Sprintf("biztime: failed to auto-initialize: %v", err))
		}
	}
	return bizLocation
}

// NowUTC returns the current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// Today returns the current date at midnight in the business timezone.
func Today() time.Time {
	now := time.Now().In(Location())
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location())
}

// DaysInMonth returns the number of days in t's month (business timezone).
func DaysInMonth(t time.Time) int {
	bt := t.In(Location())
	firstOfNext := time.Date(bt.Year(), bt.Month(), 1, 0, 0, 0, 0, Location()).AddDate(0, 1, 0)
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// IsLastDayOfMonth reports whether t falls on the last day of its month.
func IsLastDayOfMonth(t time.Time) bool {
	return t.In(Location()).Day() == DaysInMonth(t)
}

// SameCalendarMonth reports whether a and b fall in the same business
// timezone year and month.
func SameCalendarMonth(a, b time.Time) bool {
	ab := a.In(Location())
	bb := b.In(Location())
	return ab.Year() == bb.Year() && ab.Month() == bb.Month()
}

// BeforeCalendarMonth reports whether a falls in a calendar month strictly
// before b's month.
func BeforeCalendarMonth(a, b time.Time) bool {
	ab := a.In(Location())
	bb := b.In(Location())
	if ab.Year() != bb.Year() {
		return ab.Year() < bb.Year()
	}
	return ab.Month() < bb.Month()
}

// SameDate reports whether a and b fall on the same business timezone date.
func SameDate(a, b time.Time) bool {
	ab := a.In(Location())
	bb := b.In(Location())
	return ab.Year() == bb.Year() && ab.Month() == bb.Month() && ab.Day() == bb.Day()
}
