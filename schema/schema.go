// Package schema contains the schedule document served to the browser, and
// the clock and calendar helpers used to build it.
package schema

// Session is a lap swim session on a day. Raw sessions come straight from an
// upstream source; merged sessions have the same shape but are coalesced.
type Session struct {
	Day       string `json:"day"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Label     string `json:"label,omitempty"` // lane count or studio
}

// Start parses the start time.
func (s Session) Start() ClockTime {
	t, _ := ParseClockTime(s.StartTime)
	return t
}

// End parses the end time.
func (s Session) End() ClockTime {
	t, _ := ParseClockTime(s.EndTime)
	return t
}

// BranchSchedule is the merged schedule for one branch.
type BranchSchedule struct {
	Key      string               `json:"key"`
	Name     string               `json:"name"`
	ID       *int                 `json:"id,omitempty"`
	Days     []string             `json:"days"`
	Schedule map[string][]Session `json:"schedule"`
}

// Document is the schedule artifact.
type Document struct {
	GeneratedAt string           `json:"generatedAt"` // RFC 3339, UTC
	Days        []string         `json:"days"`
	Branches    []BranchSchedule `json:"branches"`
}

// Sessions returns the number of sessions in the document.
func (d *Document) Sessions() int {
	var n int
	for _, b := range d.Branches {
		for _, ss := range b.Schedule {
			n += len(ss)
		}
	}
	return n
}

// BranchCoordinate is a geocoded branch for the map.
type BranchCoordinate struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}
