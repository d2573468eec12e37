package main

import (
	"io"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/schema"
)

// uidNamespace scopes the event uids. Uids are stable across runs so
// calendar clients update events in place.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://lapswim.github.io/"))

func exportICS(w io.Writer, doc *schema.Document, coords []schema.BranchCoordinate, generated time.Time, loc *time.Location) error {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//lapswim//schedule//EN")
	cal.SetXWRCalName("Lap Swim")
	cal.SetXWRTimezone(loc.String())

	byKey := coordinatesByKey(coords)
	now := generated.In(loc)

	var n int
	for _, b := range doc.Branches {
		location := b.Name
		if c, ok := byKey[b.Key]; ok && c.Address != "" {
			location = b.Name + ", " + c.Address
		}
		for _, day := range b.Days {
			date, ok := schedule.DayDate(day, now)
			if !ok {
				slog.Warn("skipping undated day", "branch", b.Key, "day", day)
				continue
			}
			for _, s := range b.Schedule[day] {
				start, end, ok := sessionSpan(date, s, loc)
				if !ok {
					slog.Warn("skipping session with invalid time", "branch", b.Key, "day", day, "start", s.StartTime, "end", s.EndTime)
					continue
				}

				uid := uuid.NewSHA1(uidNamespace, []byte(strings.Join([]string{b.Key, date.String(), s.StartTime, s.EndTime, s.Label}, "\x00")))
				ev := cal.AddEvent(uid.String())
				ev.SetDtStampTime(generated)
				ev.SetStartAt(start)
				ev.SetEndAt(end)
				ev.SetSummary(sessionSummary(b.Name, s))
				ev.SetLocation(location)
				if s.Label != "" {
					ev.SetDescription(s.Label)
				}
				n++
			}
		}
	}
	slog.Info("generated calendar", "events", n)

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// sessionSpan returns the start and end of the session on the specified date.
// Sessions which wrap past midnight end on the next day.
func sessionSpan(date schema.Date, s schema.Session, loc *time.Location) (start, end time.Time, ok bool) {
	st, en := s.Start(), s.End()
	if !st.IsValid() || !en.IsValid() {
		return time.Time{}, time.Time{}, false
	}
	sh, sm := st.Split()
	eh, em := en.Split()
	start = time.Date(date.Year(), date.Month(), date.Day(), sh, sm, 0, 0, loc)
	end = time.Date(date.Year(), date.Month(), date.Day(), eh, em, 0, 0, loc)
	if en < st {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, true
}

func sessionSummary(branch string, s schema.Session) string {
	if s.Label != "" {
		return "Lap Swim (" + s.Label + ") - " + branch
	}
	return "Lap Swim - " + branch
}
