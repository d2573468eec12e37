package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/lapswim/lapswim/internal/artifact"
	"github.com/lapswim/lapswim/schema"
	"github.com/ncruces/go-sqlite3/driver"
)

func testDocument() *schema.Document {
	id := 8740
	return &schema.Document{
		GeneratedAt: "2026-01-03T22:04:05Z",
		Days:        []string{"Sun 12/28", "Mon 1/5"},
		Branches: []schema.BranchSchedule{
			{
				Key:  "jordan",
				Name: "Jordan YMCA",
				ID:   &id,
				Days: []string{"Sun 12/28", "Mon 1/5"},
				Schedule: map[string][]schema.Session{
					"Sun 12/28": {{Day: "Sun 12/28", StartTime: "9:00 AM", EndTime: "10:00 AM", Label: "4 lanes"}},
					"Mon 1/5": {
						{Day: "Mon 1/5", StartTime: "9:00 AM", EndTime: "11:30 AM", Label: "4 lanes"},
						{Day: "Mon 1/5", StartTime: "11:00 PM", EndTime: "12:30 AM"},
					},
				},
			},
			{
				Key:      "baxter",
				Name:     "Baxter YMCA",
				Days:     []string{},
				Schedule: map[string][]schema.Session{},
			},
		},
	}
}

var testCoords = []schema.BranchCoordinate{
	{Key: "jordan", Name: "Jordan YMCA", Address: "8400 Westfield Blvd, Indianapolis, IN 46240", Lat: 39.908812, Lng: -86.140232},
}

func testZone(t *testing.T) *time.Location {
	t.Helper()
	zone, err := schema.LoadZone()
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return zone
}

func TestExportICS(t *testing.T) {
	generated := time.Date(2026, 1, 3, 22, 4, 5, 0, time.UTC)

	var a, b bytes.Buffer
	if err := exportICS(&a, testDocument(), testCoords, generated, testZone(t)); err != nil {
		t.Fatalf("export: %v", err)
	}
	if err := exportICS(&b, testDocument(), testCoords, generated, testZone(t)); err != nil {
		t.Fatalf("export: %v", err)
	}
	if a.String() != b.String() {
		t.Errorf("expected output to be stable")
	}

	cal, err := ics.ParseCalendar(strings.NewReader(a.String()))
	if err != nil {
		t.Fatalf("parse calendar: %v", err)
	}
	evs := cal.Events()
	if len(evs) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evs))
	}
	for i, exp := range []struct {
		Start, End, Summary string
	}{
		{"20251228T140000Z", "20251228T150000Z", "Lap Swim (4 lanes) - Jordan YMCA"},
		{"20260105T140000Z", "20260105T163000Z", "Lap Swim (4 lanes) - Jordan YMCA"},
		{"20260106T040000Z", "20260106T053000Z", "Lap Swim - Jordan YMCA"},
	} {
		ev := evs[i]
		if v := ev.GetProperty(ics.ComponentPropertyDtStart).Value; v != exp.Start {
			t.Errorf("event %d: expected start %s, got %s", i, exp.Start, v)
		}
		if v := ev.GetProperty(ics.ComponentPropertyDtEnd).Value; v != exp.End {
			t.Errorf("event %d: expected end %s, got %s", i, exp.End, v)
		}
		if v := ev.GetProperty(ics.ComponentPropertySummary).Value; v != exp.Summary {
			t.Errorf("event %d: expected summary %q, got %q", i, exp.Summary, v)
		}
		if v := ev.GetProperty(ics.ComponentPropertyLocation).Value; !strings.Contains(v, "Westfield") {
			t.Errorf("event %d: expected address in location, got %q", i, v)
		}
	}
	if evs[0].GetProperty(ics.ComponentPropertyUniqueId).Value == evs[1].GetProperty(ics.ComponentPropertyUniqueId).Value {
		t.Errorf("expected distinct uids")
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "classic.json")
	if err := artifact.WriteJSON(in, testDocument()); err != nil {
		t.Fatalf("write input: %v", err)
	}
	branches := filepath.Join(dir, "branches.json")
	if err := artifact.WriteJSON(branches, testCoords); err != nil {
		t.Fatalf("write input: %v", err)
	}

	*Sqlite = filepath.Join(dir, "out.db")
	*CSV = filepath.Join(dir, "csv")
	*TextPB = filepath.Join(dir, "out.textpb")
	*JSON = filepath.Join(dir, "out.json")
	*ICS = filepath.Join(dir, "out.ics")
	*Branches = branches
	*Pretty = true
	t.Cleanup(func() {
		*Sqlite, *CSV, *TextPB, *JSON, *ICS, *Branches, *Pretty = "", "", "", "", "", "", false
	})

	if err := run(in); err != nil {
		t.Fatalf("run: %v", err)
	}

	db, err := driver.Open(*Sqlite)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var n int
	if err := db.QueryRow(`SELECT count(*) FROM everything WHERE branch_key = 'jordan'`).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 sessions, got %d", n)
	}

	var date, weekday string
	var start, duration int
	if err := db.QueryRow(`SELECT date, weekday, start, duration FROM everything WHERE day = 'Mon 1/5' AND start IS NOT NULL ORDER BY start LIMIT 1`).Scan(&date, &weekday, &start, &duration); err != nil {
		t.Fatalf("query: %v", err)
	}
	if date != "2026-01-05" || weekday != "mo" || start != 9*60 || duration != 150 {
		t.Errorf("unexpected session row %s %s %d %d", date, weekday, start, duration)
	}

	if err := db.QueryRow(`SELECT start, duration FROM everything WHERE day = 'Mon 1/5' AND start_time = '11:00 PM'`).Scan(&start, &duration); err != nil {
		t.Fatalf("query: %v", err)
	}
	if start != 23*60 || duration != 90 {
		t.Errorf("expected session past midnight to last 90 minutes from 11 PM, got %d %d", start, duration)
	}

	var oldest string
	if err := db.QueryRow(`SELECT date FROM days ORDER BY id LIMIT 1`).Scan(&oldest); err != nil {
		t.Fatalf("query: %v", err)
	}
	if oldest != "2025-12-28" {
		t.Errorf("expected days in document order with resolved year, got %s first", oldest)
	}

	var lat float64
	if err := db.QueryRow(`SELECT branch_latitude FROM branches WHERE branch_key = 'jordan'`).Scan(&lat); err != nil {
		t.Fatalf("query: %v", err)
	}
	if lat != 39.908812 {
		t.Errorf("expected latitude from coordinates, got %v", lat)
	}

	for _, name := range []string{"metadata", "branches", "days", "sessions"} {
		if _, err := os.Stat(filepath.Join(*CSV, name+".csv")); err != nil {
			t.Errorf("expected csv for %s: %v", name, err)
		}
	}
	for _, name := range []string{*TextPB, *JSON, *ICS} {
		buf, err := os.ReadFile(name)
		if err != nil {
			t.Errorf("read %s: %v", name, err)
		} else if !bytes.Contains(buf, []byte("Jordan YMCA")) {
			t.Errorf("expected %s to contain the branch name", filepath.Base(name))
		}
	}
}

func TestExportZoneYear(t *testing.T) {
	// 10 PM on June 30 in the schedule zone, but already July in UTC, where
	// January would roll over to the next year.
	generated := time.Date(2026, 7, 1, 2, 0, 0, 0, time.UTC)
	zone := testZone(t)
	doc := &schema.Document{
		GeneratedAt: generated.Format(time.RFC3339),
		Days:        []string{"Fri 1/1"},
		Branches: []schema.BranchSchedule{{
			Key:  "jordan",
			Name: "Jordan YMCA",
			Days: []string{"Fri 1/1"},
			Schedule: map[string][]schema.Session{
				"Fri 1/1": {{Day: "Fri 1/1", StartTime: "9:00 AM", EndTime: "10:00 AM"}},
			},
		}},
	}

	db, err := driver.Open(":memory:", setupConn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	if err := populateDB(db, doc, nil, generated.In(zone)); err != nil {
		t.Fatalf("populate db: %v", err)
	}
	var date string
	if err := db.QueryRow(`SELECT date FROM days WHERE day = 'Fri 1/1'`).Scan(&date); err != nil {
		t.Fatalf("query: %v", err)
	}
	if date != "2026-01-01" {
		t.Errorf("sqlite: expected year resolved in the schedule zone, got %s", date)
	}

	var b bytes.Buffer
	if err := exportICS(&b, doc, nil, generated, zone); err != nil {
		t.Fatalf("export ics: %v", err)
	}
	if !strings.Contains(b.String(), "20260101T140000Z") {
		t.Errorf("ics: expected event on 2026-01-01, got:\n%s", b.String())
	}
}
