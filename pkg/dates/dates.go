// Package dates parses and keys calendar days in the store's time zone.
package dates

import (
	"fmt"
	"time"
)

// DayLayout is the wire format of calendar days.
const DayLayout = "2006-01-02"

// ParseDay parses a YYYY-MM-DD day and pins it to noon in loc so that the
// day survives time zone conversions.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if len(value) > 10 {
		value = value[:10]
	}
	day, err := time.ParseInLocation(DayLayout, value, loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Add(12 * time.Hour), nil
}

// DayKey truncates t to its calendar day in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DayLayout)
}

// MonthKey returns the YYYY-MM month of t in loc.
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01")
}

// Noon returns noon of t's calendar day in loc.
func Noon(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 12, 0, 0, 0, loc)
}
