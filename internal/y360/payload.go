// Package y360 extracts lap swim sessions from the schedule data embedded in
// the Y360 branch landing page.
package y360

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoPayload is returned when a document doesn't embed the schedule data.
var ErrNoPayload = errors.New("no schedule payload found")

// Payload is the embedded schedule data.
type Payload struct {
	Schedules map[string]Day `json:"apiSchedules"` // keyed by ISO date
}

// Day is the schedule for a single date.
type Day struct {
	Items []Item `json:"items"`
}

// Item is a single scheduled activity.
type Item struct {
	BranchName   string `json:"branchName"`
	ScheduleName string `json:"scheduleName"`
	Title        string `json:"title"`
	Start        string `json:"start"` // UTC instant
	End          string `json:"end"`   // UTC instant
	StudioName   string `json:"studioName,omitempty"`
}

// ExtractPayload finds and decodes the schedule data embedded in doc.
func ExtractPayload(doc *goquery.Document) (Payload, error) {
	script := doc.Find(`script#__Y360_DATA__`).First()
	if script.Length() == 0 {
		script = doc.Find(`script`).FilterFunction(func(_ int, s *goquery.Selection) bool {
			return strings.Contains(s.Text(), `"apiSchedules"`)
		}).First()
	}
	if script.Length() == 0 {
		return Payload{}, ErrNoPayload
	}

	var p Payload
	if err := json.Unmarshal([]byte(scriptJSON(script.Text())), &p); err != nil {
		return Payload{}, fmt.Errorf("%w: decode: %v", ErrNoPayload, err)
	}
	if p.Schedules == nil {
		return Payload{}, fmt.Errorf("%w: missing apiSchedules", ErrNoPayload)
	}
	return p, nil
}

// scriptJSON trims a script body down to its JSON object, dropping a leading
// variable assignment and trailing semicolon if present.
func scriptJSON(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '{'); i > 0 {
		s = s[i:]
	}
	return strings.TrimRight(s, "; \t\r\n")
}
