// Package classic scrapes the printer-friendly weekly pool timetable from the
// legacy class-listing site.
package classic

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lapswim/lapswim/schema"
	"golang.org/x/text/cases"
)

// ErrNoTimetable is returned when a document doesn't contain a timetable.
var ErrNoTimetable = errors.New("no timetable found")

const (
	lapSwim       = "Lap Lane Swim"
	lapSwimPrefix = lapSwim + " - "
)

// Week is the lap swim sessions in a single week's timetable.
type Week struct {
	Days     []string // in column order
	Sessions []schema.Session
}

var fold = cases.Fold()

// Extract extracts lap swim sessions from a weekly timetable.
func Extract(doc *goquery.Document) (Week, error) {
	var week Week

	table := doc.Find(`table`).FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find(`thead th`).Length() != 0
	}).First()
	if table.Length() == 0 {
		return week, ErrNoTimetable
	}

	// column index to day label, empty for non-day columns
	var columns []string
	table.Find(`thead tr`).First().Children().Filter(`th, td`).Each(func(_ int, th *goquery.Selection) {
		h := schema.NormalizeText(th.Text())
		if h == "" || strings.Contains(fold.String(h), "time") {
			h = ""
		} else if !slices.Contains(week.Days, h) {
			week.Days = append(week.Days, h)
		}
		columns = append(columns, h)
	})
	if len(week.Days) == 0 {
		return week, fmt.Errorf("%w: no day columns", ErrNoTimetable)
	}

	table.Find(`tbody tr`).Each(func(_ int, row *goquery.Selection) {
		row.Children().Filter(`th, td`).EachWithBreak(func(i int, cell *goquery.Selection) bool {
			if i >= len(columns) {
				return false
			}
			day := columns[i]
			if day == "" {
				return true
			}
			cell.Find(`.schedule-item`).Each(func(_ int, item *goquery.Selection) {
				if s, ok := extractItem(day, item); ok {
					week.Sessions = append(week.Sessions, s)
				}
			})
			return true
		})
	})
	return week, nil
}

// extractItem extracts a lap swim session from a timetable entry.
func extractItem(day string, item *goquery.Selection) (schema.Session, bool) {
	name := itemName(
		schema.NormalizeText(item.Find(`.schedule-category`).Text()),
		schema.NormalizeText(item.Find(`.schedule-subtitle`).Text()),
	)
	if !strings.HasPrefix(name, lapSwim) || !schema.IsMonthDayLabel(day) {
		return schema.Session{}, false
	}

	// some entries have the full range, but the duration is authoritative
	raw := schema.NormalizeText(item.Find(`.schedule-time`).Text())
	raw, _, _ = strings.Cut(raw, "-")
	start, ok := schema.ParseClockTime(raw)
	if !ok {
		slog.Debug("skipping lap swim with unparseable time", "day", day, "name", name, "time", raw)
		return schema.Session{}, false
	}
	dur := schema.ParseDurationMinutes(item.Find(`.schedule-duration`).Text())

	var label string
	if name != lapSwim {
		label = strings.TrimPrefix(name, lapSwimPrefix)
	}
	return schema.Session{
		Day:       day,
		StartTime: start.Format12(),
		EndTime:   schema.AddMinutesAndFormat(start.Format12(), dur),
		Label:     label,
	}, true
}

// itemName combines the category and sub-label of a timetable entry.
func itemName(category, sub string) string {
	switch {
	case category != "" && sub != "":
		return category + " - " + sub
	case category != "":
		return category
	case sub != "":
		return sub
	default:
		return "Unknown"
	}
}
