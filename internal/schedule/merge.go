package schedule

import (
	"cmp"
	"slices"

	"github.com/lapswim/lapswim/schema"
)

// MergePolicy controls when two sessions on the same day are coalesced.
type MergePolicy int

const (
	// LabelSensitive merges only sessions with identical labels where the next
	// one starts exactly when the previous one ends.
	LabelSensitive MergePolicy = iota

	// LabelAgnostic merges any touching or overlapping sessions, discarding
	// labels.
	LabelAgnostic
)

func (p MergePolicy) String() string {
	switch p {
	case LabelSensitive:
		return "label-sensitive"
	case LabelAgnostic:
		return "label-agnostic"
	default:
		return "invalid"
	}
}

const minutesPerDay = 24 * 60

// span is a session on an axis extending past midnight, so end >= start. The
// clock formatting wraps it back.
type span struct {
	start, end schema.ClockTime
	label      string
}

// Merge sorts the sessions for a single day and coalesces them into contiguous
// blocks according to p. The input order does not matter, and merging already
// merged sessions is a no-op. Sessions ending before they start are taken to
// end after midnight. Sessions with an unparseable start or end are dropped.
func Merge(sessions []schema.Session, p MergePolicy) []schema.Session {
	if len(sessions) == 0 {
		return []schema.Session{}
	}
	day := sessions[0].Day

	spans := make([]span, 0, len(sessions))
	for _, s := range sessions {
		st, en := s.Start(), s.End()
		if !st.IsValid() || !en.IsValid() {
			continue
		}
		if en < st {
			en += minutesPerDay // ends after midnight
		}
		label := s.Label
		if p == LabelAgnostic {
			label = ""
		}
		spans = append(spans, span{st, en, label})
	}
	slices.SortFunc(spans, func(a, b span) int {
		return cmp.Or(
			cmp.Compare(a.start, b.start),
			cmp.Compare(a.end, b.end),
			cmp.Compare(a.label, b.label),
		)
	})

	merged := make([]schema.Session, 0, len(spans))
	emit := func(s span) {
		merged = append(merged, schema.Session{
			Day:       day,
			StartTime: s.start.Format12(),
			EndTime:   s.end.Format12(),
			Label:     s.label,
		})
	}
	if len(spans) == 0 {
		return merged
	}
	cur := spans[0]
	for _, s := range spans[1:] {
		if s == cur {
			continue // duplicate
		}
		if s.start <= cur.end {
			switch p {
			case LabelAgnostic:
				cur.end = max(cur.end, s.end)
				continue
			case LabelSensitive:
				if s.label == cur.label && s.start == cur.end {
					cur.end = s.end
					continue
				}
			}
		}
		emit(cur)
		cur = s
	}
	emit(cur)
	return merged
}

// Dedupe removes exact duplicate sessions, keeping the first occurrence.
func Dedupe(sessions []schema.Session) []schema.Session {
	seen := make(map[schema.Session]struct{}, len(sessions))
	out := make([]schema.Session, 0, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// Gaps returns the closed periods between consecutive merged sessions. It is
// only used for display.
func Gaps(merged []schema.Session) []schema.Session {
	var gaps []schema.Session
	var end schema.ClockTime = -1
	for _, s := range merged {
		st, en := s.Start(), s.End()
		if !st.IsValid() || !en.IsValid() {
			continue
		}
		if en < st {
			en += minutesPerDay
		}
		if end.IsValid() && st > end {
			gaps = append(gaps, schema.Session{
				Day:       s.Day,
				StartTime: end.Format12(),
				EndTime:   st.Format12(),
				Label:     "closed",
			})
		}
		end = max(end, en)
	}
	return gaps
}
