// Package week holds the pure date-range and ISO-week computations shared by
// the commitment store and the aggregation engine. It is the only place a
// semantic view label ("current-week", "last-3-months") is translated into
// concrete bounds.
package week

import (
	"fmt"
	"time"
)

// View labels accepted by DateRangeOf.
const (
	ViewCurrentWeek  = "current-week"
	ViewCurrentMonth = "current-month"
	ViewLast3Months  = "last-3-months"
)

// Info identifies the Monday-start ISO week containing a date.
type Info struct {
	WeekNumber    int       `json:"week_number"`
	Year          int       `json:"year"`
	WeekStartDate time.Time `json:"week_start_date"`
	WeekEndDate   time.Time `json:"week_end_date"`
}

// DateRange is an inclusive pair of calendar-day boundaries: Start is
// 00:00:00 of its day, End is 23:59:59.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// ISOWeekInfo returns the ISO-8601 week identity for a date. Weeks start on
// Monday; the year is the ISO week year, which near January 1 can differ
// from the calendar year.
func ISOWeekInfo(t time.Time) Info {
	year, weekNumber := t.ISOWeek()

	day := startOfDay(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	start := day.AddDate(0, 0, -(weekday - 1))
	end := endOfDay(start.AddDate(0, 0, 6))

	return Info{
		WeekNumber:    weekNumber,
		Year:          year,
		WeekStartDate: start,
		WeekEndDate:   end,
	}
}

// FromNumber resolves an ISO year/week pair to its Monday-Sunday window.
// January 4 always falls in week 1, so the pair is anchored there. Out of
// range week numbers normalize into the adjacent ISO year, keeping the
// returned Info internally consistent.
func FromNumber(year, weekNumber int) Info {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	week1 := ISOWeekInfo(jan4)
	monday := week1.WeekStartDate.AddDate(0, 0, 7*(weekNumber-1))
	return ISOWeekInfo(monday)
}

// DateRangeOf resolves a named view into concrete bounds relative to ref.
func DateRangeOf(view string, ref time.Time) (DateRange, error) {
	switch view {
	case ViewCurrentWeek:
		info := ISOWeekInfo(ref)
		return DateRange{Start: info.WeekStartDate, End: info.WeekEndDate}, nil
	case ViewCurrentMonth:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
		last := endOfDay(first.AddDate(0, 1, -1))
		return DateRange{Start: first, End: last}, nil
	case ViewLast3Months:
		first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, -2, 0)
		last := endOfDay(time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location()).AddDate(0, 1, -1))
		return DateRange{Start: first, End: last}, nil
	default:
		return DateRange{}, fmt.Errorf("unknown view %q", view)
	}
}

// CustomRange normalizes explicit bounds to inclusive day boundaries.
// Reversed bounds are swapped rather than rejected.
func CustomRange(start, end time.Time) DateRange {
	if end.Before(start) {
		start, end = end, start
	}
	return DateRange{Start: startOfDay(start), End: endOfDay(end)}
}

// MonthLabel formats the calendar month bucket used by monthly rollups.
func MonthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// DayLabel formats the calendar day bucket used by daily rollups.
func DayLabel(t time.Time) string {
	return t.Format("2006-01-02")
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
