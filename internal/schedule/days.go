package schedule

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/lapswim/lapswim/schema"
)

// DayStyle is the format of the day labels produced by a source.
type DayStyle int

const (
	// MonthDayLabels are labels like "Mon 1/5" without a year.
	MonthDayLabels DayStyle = iota

	// ISOLabels are YYYY-MM-DD dates.
	ISOLabels
)

// SequenceDays returns the distinct labels in chronological order. For
// [MonthDayLabels], the year is inferred relative to now, and labels without a
// month/day are dropped.
func SequenceDays(labels []string, now time.Time, style DayStyle) []string {
	days := slices.Clone(labels)
	slices.Sort(days)
	days = slices.Compact(days)

	switch style {
	case ISOLabels:
		return slices.DeleteFunc(days, func(s string) bool {
			return s == ""
		})
	case MonthDayLabels:
		dates := make(map[string]schema.Date, len(days))
		days = slices.DeleteFunc(days, func(s string) bool {
			month, day, ok := schema.ParseMonthDayLabel(s)
			if !ok {
				slog.Debug("dropping undated day label", "label", s)
				return true
			}
			dates[s] = schema.ResolveYear(month, day, now)
			return false
		})
		slices.SortStableFunc(days, func(a, b string) int {
			return cmp.Compare(dates[a], dates[b])
		})
		return days
	default:
		panic("schedule: invalid day style")
	}
}

// DayDate returns the calendar date for a day label of either style, relative
// to now for labels without a year.
func DayDate(label string, now time.Time) (schema.Date, bool) {
	if t, err := time.Parse(time.DateOnly, label); err == nil {
		return schema.DateOf(t), true
	}
	if month, day, ok := schema.ParseMonthDayLabel(label); ok {
		return schema.ResolveYear(month, day, now), true
	}
	return 0, false
}
