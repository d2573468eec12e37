package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Date is a calendar date as an integer in the form YYYYMMDD. It is sortable
// and will be ordered naturally. The zero value is unset.
type Date int32

func MakeDate(year int, month time.Month, day int) Date {
	return Date(min(max(year, 0), 9999)*1_00_00 + int(min(max(month, 0), 99))*1_00 + min(max(day, 0), 99))
}

// DateOf returns the date of t in its location.
func DateOf(t time.Time) Date {
	return MakeDate(t.Year(), t.Month(), t.Day())
}

func (d Date) IsZero() bool {
	return d == 0
}

func (d Date) Year() int {
	return int(d / 1_00_00)
}

func (d Date) Month() time.Month {
	return time.Month(d / 1_00 % 1_00)
}

func (d Date) Day() int {
	return int(d % 1_00)
}

// IsValid returns true if d refers to a real calendar date.
func (d Date) IsValid() bool {
	if d <= 0 {
		return false
	}
	t := d.Time(time.UTC)
	return t.Year() == d.Year() && t.Month() == d.Month() && t.Day() == d.Day()
}

// Time returns midnight on d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// String formats d as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year(), int(d.Month()), d.Day())
}

var monthDayRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})`)

// IsMonthDayLabel returns true if s contains a month/day like "1/5".
func IsMonthDayLabel(s string) bool {
	return monthDayRe.MatchString(s)
}

// ParseMonthDayLabel extracts the month and day from a label like "Mon 1/5"
// or "1/5".
func ParseMonthDayLabel(s string) (time.Month, int, bool) {
	m := monthDayRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return 0, 0, false
	}
	return time.Month(month), day, true
}

// ResolveYear picks the year of a month/day relative to now. Months six or
// more months before the current month are taken to be in the next year.
//
// Unlike the plain next-year rollover, months more than six months after the
// current month are taken to be in the previous year, so the last week of
// December stays in the past when it is January (e.g., "Sun 12/27" at
// 2027-01-02 is 2026-12-27, not 2027-12-27).
func ResolveYear(month time.Month, day int, now time.Time) Date {
	year := now.Year()
	switch diff := int(now.Month()) - int(month); {
	case diff >= 6:
		year++
	case diff < -6:
		year--
	}
	return MakeDate(year, month, day)
}
