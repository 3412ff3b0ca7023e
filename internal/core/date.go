package core

import (
	"strings"
	"time"
)

// Date is a calendar day carried as a point in time at local noon.
type Date struct {
	time.Time
}

// ParseLocalDate converts a user-supplied YYYY-MM-DD calendar date into a
// Date anchored at local noon. A plain midnight value shifts to the previous
// calendar day as soon as it is rendered in a zone with a negative offset;
// noon leaves twelve hours of margin on either side.
func ParseLocalDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.Local)
	if err != nil {
		return Date{}, ErrInvalidDateFormat
	}
	y, m, d := t.Date()
	return NewDate(y, int(m), d), nil
}

// NewDate builds a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)}
}

// AddMonths advances the date by n whole months keeping the day of month.
// Overflow follows time.Date normalization: day 31 plus one month into a
// 30-day month rolls into the following month. December rolls into January
// of the next year.
func (d Date) AddMonths(n int) Date {
	y, m, day := d.Date()
	return Date{Time: time.Date(y, m+time.Month(n), day, 12, 0, 0, 0, d.Location())}
}

// String renders the date-only form stored in the transactions table.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}
