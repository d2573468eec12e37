package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/lapswim/lapswim/schema"
)

func TestFormatSchedule(t *testing.T) {
	var b bytes.Buffer
	if err := format(&b, []byte(`{
		"generatedAt": "2026-01-03T22:04:05Z",
		"days": ["Sun 1/4", "Mon 1/5"],
		"branches": [
			{
				"key": "jordan",
				"name": "Jordan YMCA",
				"id": 8740,
				"days": ["Mon 1/5"],
				"schedule": {
					"Mon 1/5": [
						{"day": "Mon 1/5", "startTime": "9:00 AM", "endTime": "11:30 AM", "label": "4 lanes"},
						{"day": "Mon 1/5", "startTime": "5:30 PM", "endTime": "6:00 PM"}
					]
				}
			},
			{"key": "baxter", "name": "Baxter YMCA", "days": [], "schedule": {}}
		]
	}`)); err != nil {
		t.Fatalf("format: %v", err)
	}
	out := b.String()
	for _, exp := range []string{
		"generated 2026-01-03T22:04:05Z\n",
		"days \"Sun 1/4\" \"Mon 1/5\"\n",
		"\n\n======\n\nJordan YMCA (jordan) #8740\n",
		"\n+ MON 1/5 (jordan)\n" +
			"  ~ [9:00 AM - 11:30 AM] \"4 lanes\" (jordan)\n" +
			"  ~ [11:30 AM - 5:30 PM] -- (jordan)\n" +
			"  ~ [5:30 PM - 6:00 PM] (jordan)\n",
		"Baxter YMCA (baxter)\n  NO SESSIONS\n",
	} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected output to contain %q, got:\n%s", exp, out)
		}
	}
	if strings.Contains(out, "#0") || strings.Contains(out, "0x") {
		t.Errorf("unexpected id in output:\n%s", out)
	}
}

func TestFormatBranches(t *testing.T) {
	var b bytes.Buffer
	if err := format(&b, []byte(`[
		{"key": "jordan", "name": "Jordan YMCA", "address": "8400 Westfield Blvd, Indianapolis, IN 46240", "lat": 39.908812, "lng": -86.140232}
	]`)); err != nil {
		t.Fatalf("format: %v", err)
	}
	if exp := "Jordan YMCA (jordan)\n  8400 Westfield Blvd, Indianapolis, IN 46240\n  -86.140232, 39.908812\n"; b.String() != exp {
		t.Errorf("expected:\n%s\ngot:\n%s", exp, b.String())
	}
}

func TestTimeline(t *testing.T) {
	tl := timeline([]schema.Session{
		{Day: "d", StartTime: "6:00 AM", EndTime: "8:00 AM"},
		{Day: "d", StartTime: "8:00 AM", EndTime: "9:00 AM", Label: "2 lanes"},
		{Day: "d", StartTime: "12:00 PM", EndTime: "1:00 PM"},
	})
	var act []string
	for _, s := range tl {
		act = append(act, s.StartTime+"-"+s.EndTime+"/"+s.Label)
	}
	if exp := "6:00 AM-8:00 AM/,8:00 AM-9:00 AM/2 lanes,9:00 AM-12:00 PM/closed,12:00 PM-1:00 PM/"; strings.Join(act, ",") != exp {
		t.Errorf("expected %s, got %s", exp, strings.Join(act, ","))
	}
	if len(timeline(nil)) != 0 {
		t.Errorf("expected empty timeline")
	}
}
