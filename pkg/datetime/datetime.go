// Package datetime provides calendar arithmetic for payment scheduling.
package datetime

import (
	"time"

	"github.com/akarpov/loan-schedule/pkg/constants"
)

// DateLayout is the format expected in config files and is also the output
// date format.
const DateLayout = constants.DateLayout

// MustParseDate parses a date string in DateLayout and panics on error.
// This is intended for use in tests where the date string is known to be
// valid.
func MustParseDate(dateStr string) time.Time {
	t, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// AddMonths advances a date by the given number of calendar months,
// preserving the day-of-month but clamping to the last valid day of the
// target month (Jan 31 + 1 month = Feb 28 or 29). Two nearby anchor days
// can therefore collapse onto the same clamped date in short months; the
// schedule generator relies on this matching the anchor-day semantics of
// recurring payments. Note time.Time.AddDate normalizes overflow instead
// of clamping, which is why the month arithmetic is done by hand.
func AddMonths(d time.Time, months int) time.Time {
	y := d.Year() + (int(d.Month())-1+months)/12
	m := (int(d.Month())-1+months)%12 + 1
	if m <= 0 {
		m += 12
		y--
	}
	day := d.Day()
	if last := daysInMonth(y, time.Month(m)); day > last {
		day = last
	}
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, d.Location())
}

// MonthDiff returns the number of whole months elapsed from start to end,
// decremented by one when end's day-of-month precedes start's (the
// monthly anniversary has not been reached yet). Returns 0 when end is
// before start.
func MonthDiff(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if end.Day() < start.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// NextPaymentDate resolves the first unpaid installment date on or after
// calcDate. When the schedule has not started yet (firstPaymentDate on or
// after calcDate) the first payment date is returned unchanged. Otherwise
// the first payment date is advanced by the elapsed whole months, plus
// one more month if that still falls short of calcDate. Stepping always
// happens from the original anchor so the day-of-month is preserved
// across clamped months.
func NextPaymentDate(firstPaymentDate, calcDate time.Time) time.Time {
	if !firstPaymentDate.Before(calcDate) {
		return firstPaymentDate
	}
	next := AddMonths(firstPaymentDate, MonthDiff(firstPaymentDate, calcDate))
	if next.Before(calcDate) {
		next = AddMonths(firstPaymentDate, MonthDiff(firstPaymentDate, calcDate)+1)
	}
	return next
}

// DaysBetween returns the number of calendar days from start to end.
func DaysBetween(start, end time.Time) int {
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	endDay := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(endDay.Sub(startDay).Hours() / 24)
}

// SameDate reports whether two times fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
