package schema

import (
	"strconv"
	"strings"
	"time"
)

// ClockTime is a time of day in minutes since midnight. Negative values are
// invalid.
type ClockTime int32

const day = 24 * 60

func MakeClockTime(hh, mm int) ClockTime {
	if hh < 0 || mm < 0 || hh > 23 || mm > 59 {
		return -1
	}
	return ClockTime(hh*60 + mm)
}

func (t ClockTime) IsValid() bool {
	return t >= 0
}

func (t ClockTime) Split() (hh, mm int) {
	if t >= 0 {
		t %= day
		hh = int(t / 60)
		mm = int(t % 60)
	}
	return
}

// Add adds n minutes, wrapping around midnight.
func (t ClockTime) Add(n int) ClockTime {
	if !t.IsValid() {
		return t
	}
	return ClockTime(((int(t)+n)%day + day) % day)
}

func (t ClockTime) String() string {
	return t.Format12()
}

// Format12 formats t as a 12-hour clock time without a leading zero on the
// hour (e.g., "9:05 AM", "12:00 PM").
func (t ClockTime) Format12() string {
	if !t.IsValid() {
		return "invalid"
	}
	hh, mm := t.Split()
	ap := "AM"
	if hh >= 12 {
		ap = "PM"
		hh -= 12
	}
	if hh == 0 {
		hh = 12
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(hh))
	b.WriteByte(':')
	b.WriteByte('0' + byte(mm/10))
	b.WriteByte('0' + byte(mm%10))
	b.WriteByte(' ')
	b.WriteString(ap)
	return b.String()
}

// ParseClockTime parses a 12-hour clock time like "9:00 AM", "9:00am", or
// "12:30 PM". A missing minute component ("9 AM") is accepted.
func ParseClockTime(s string) (ClockTime, bool) {
	s = strings.ToLower(strings.Join(strings.Fields(NormalizeText(s)), ""))
	s = strings.ReplaceAll(s, ".", "") // a.m.

	var pm bool
	switch {
	case strings.HasSuffix(s, "am"):
		s = s[:len(s)-2]
	case strings.HasSuffix(s, "pm"):
		s, pm = s[:len(s)-2], true
	default:
		return -1, false
	}

	hs, ms, hasMinute := strings.Cut(s, ":")
	if len(hs) == 0 || len(hs) > 2 || (hasMinute && len(ms) != 2) {
		return -1, false
	}
	hh, err := strconv.Atoi(hs)
	if err != nil || hh < 1 || hh > 12 {
		return -1, false
	}
	var mm int
	if hasMinute {
		if mm, err = strconv.Atoi(ms); err != nil || mm < 0 || mm > 59 {
			return -1, false
		}
	}
	if hh == 12 {
		hh = 0
	}
	if pm {
		hh += 12
	}
	return MakeClockTime(hh, mm), true
}

// ParseDurationMinutes parses a duration annotation like "1.5 hr" or "(45
// min)". Anything without a leading number and unit is 60 minutes.
func ParseDurationMinutes(s string) int {
	const fallback = 60

	s = strings.TrimSpace(strings.Trim(strings.TrimSpace(NormalizeText(s)), "()"))

	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return fallback
	}
	n, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return fallback
	}
	switch unit := strings.ToLower(strings.TrimSpace(s[i:])); {
	case strings.HasPrefix(unit, "hr"):
		return int(n * 60)
	case strings.HasPrefix(unit, "min"):
		return int(n)
	}
	return fallback
}

// AddMinutesAndFormat adds n minutes to a 12-hour clock time, returning the
// result formatted with [ClockTime.Format12]. The date never matters. If start
// cannot be parsed, an empty string is returned.
func AddMinutesAndFormat(start string, n int) string {
	t, ok := ParseClockTime(start)
	if !ok {
		return ""
	}
	return t.Add(n).Format12()
}

// ClockTimeOf returns the time of day of t in its location.
func ClockTimeOf(t time.Time) ClockTime {
	return MakeClockTime(t.Hour(), t.Minute())
}
