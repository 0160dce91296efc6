package biztime

import (
	"testing"
	"time"
)

func TestDaysInMonth(t *testing.T) {
	MustInit("UTC")

	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), 31},
		{time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 30},
		{time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC), 28},
		{time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 29}, // leap year
		{time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 31},
	}

	for _, tt := range tests {
		if got := DaysInMonth(tt.date); got != tt.want {
			t.Errorf("DaysInMonth(%s) = %d, want %d", tt.date.Format("2006-01"), got, tt.want)
		}
	}
}

func TestIsLastDayOfMonth(t *testing.T) {
	MustInit("UTC")

	if !IsLastDayOfMonth(time.Date(2025, 4, 30, 12, 0, 0, 0, time.UTC)) {
		t.Error("Apr 30 should be the last day of April")
	}
	if IsLastDayOfMonth(time.Date(2025, 4, 29, 12, 0, 0, 0, time.UTC)) {
		t.Error("Apr 29 should not be the last day of April")
	}
	if !IsLastDayOfMonth(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Error("Feb 29 should be the last day of February in a leap year")
	}
}

func TestSameCalendarMonth(t *testing.T) {
	MustInit("UTC")

	a := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	if !SameCalendarMonth(a, b) {
		t.Error("Mar 1 and Mar 31 should be the same month")
	}

	c := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if SameCalendarMonth(a, c) {
		t.Error("same month in different years should not match")
	}
}

func TestBeforeCalendarMonth(t *testing.T) {
	MustInit("UTC")

	tests := []struct {
		name string
		a, b time.Time
		want bool
	}{
		{
			"previous month",
			time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			true,
		},
		{
			"same month",
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"later month",
			time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			false,
		},
		{
			"december to january across years",
			time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BeforeCalendarMonth(tt.a, tt.b); got != tt.want {
				t.Errorf("BeforeCalendarMonth = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameDate(t *testing.T) {
	MustInit("UTC")

	a := time.Date(2025, 6, 15, 0, 0, 1, 0, time.UTC)
	b := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	if !SameDate(a, b) {
		t.Error("different times on the same date should match")
	}
	if SameDate(a, b.AddDate(0, 0, 1)) {
		t.Error("different dates should not match")
	}
}
