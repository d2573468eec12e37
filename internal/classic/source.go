package classic

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/internal/fetch"
	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/schema"
)

// DefaultWeeks is the number of weeks to scrape.
const DefaultWeeks = 3

// SearchTerm filters the timetable to pool activities.
const SearchTerm = "pool time"

// Source scrapes the timetable one branch and week at a time.
type Source struct {
	Client  *fetch.Client
	BaseURL string
	Weeks   int
	Zone    *time.Location

	// Now returns the current time. If nil, [time.Now] is used.
	Now func() time.Time
}

var _ schedule.Source = (*Source)(nil)

func (s *Source) Name() string {
	return "classic"
}

func (s *Source) Policy() schedule.Policy {
	return schedule.Policy{
		Merge:     schedule.LabelSensitive,
		Days:      schedule.MonthDayLabels,
		KeepEmpty: true,
	}
}

// URL returns the timetable URL for a branch and the week starting on sunday.
func (s *Source) URL(id int, sunday schema.Date) (string, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("location", strconv.Itoa(id))
	q.Set("search", SearchTerm)
	q.Set("week", sunday.String())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Sessions scrapes each week for the branch. Weeks which fail are logged and
// skipped.
func (s *Source) Sessions(ctx context.Context, b branch.Descriptor) (schedule.Result, error) {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	if s.Zone != nil {
		now = now.In(s.Zone)
	}

	res := schedule.Result{ID: &b.ClassicID}
	for _, sunday := range WeekStarts(now, positiveOr(s.Weeks, DefaultWeeks)) {
		week, err := s.week(ctx, b, sunday)
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			slog.Warn("failed to scrape week, treating as empty", "branch", b.Key, "id", b.ClassicID, "week", sunday, "error", err)
			continue
		}
		slog.Debug("scraped week", "branch", b.Key, "week", sunday, "days", len(week.Days), "sessions", len(week.Sessions))
		res.Days = append(res.Days, week.Days...)
		res.Sessions = append(res.Sessions, week.Sessions...)
	}
	return res, nil
}

func (s *Source) week(ctx context.Context, b branch.Descriptor, sunday schema.Date) (Week, error) {
	u, err := s.URL(b.ClassicID, sunday)
	if err != nil {
		return Week{}, err
	}
	doc, err := s.Client.Document(ctx, u, "classic")
	if err != nil {
		return Week{}, err
	}
	return Extract(doc)
}

// WeekStarts returns the dates of n consecutive Sundays, starting with the
// most recent one (today, if it is a Sunday).
func WeekStarts(now time.Time, n int) []schema.Date {
	sunday := now.AddDate(0, 0, -int(now.Weekday()))
	ws := make([]schema.Date, 0, max(n, 0))
	for i := range n {
		ws = append(ws, schema.DateOf(sunday.AddDate(0, 0, 7*i)))
	}
	return ws
}

func positiveOr(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}
