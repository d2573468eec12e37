package artifact

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lapswim/lapswim/schema"
)

func testDocument() *schema.Document {
	id := 8740
	return &schema.Document{
		GeneratedAt: "2026-01-03T22:04:05Z",
		Days:        []string{"Sun 1/4", "Mon 1/5"},
		Branches: []schema.BranchSchedule{
			{
				Key:  "jordan",
				Name: "Jordan YMCA",
				ID:   &id,
				Days: []string{"Sun 1/4", "Mon 1/5"},
				Schedule: map[string][]schema.Session{
					"Sun 1/4": {{Day: "Sun 1/4", StartTime: "9:00 AM", EndTime: "10:00 AM", Label: "4 lanes"}},
					"Mon 1/5": {
						{Day: "Mon 1/5", StartTime: "9:00 AM", EndTime: "11:30 AM", Label: "4 lanes"},
						{Day: "Mon 1/5", StartTime: "5:30 PM", EndTime: "6:00 PM"},
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

func TestWriteJSON(t *testing.T) {
	name := filepath.Join(t.TempDir(), "data", "classic.json")

	if err := WriteJSON(name, testDocument()); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(buf, []byte("{\n  \"generatedAt\": \"2026-01-03T22:04:05Z\",\n")) {
		t.Errorf("expected pretty-printed json, got:\n%s", buf)
	}
	if !bytes.HasSuffix(buf, []byte("}\n")) {
		t.Errorf("expected trailing newline")
	}

	// overwrite
	if err := WriteJSON(name, []schema.BranchCoordinate{{Key: "jordan", Lat: 39.909, Lng: -86.155}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	var cs []schema.BranchCoordinate
	if err := ReadJSON(name, &cs); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(cs) != 1 || cs[0].Key != "jordan" {
		t.Errorf("unexpected contents after overwrite: %+v", cs)
	}

	ents, err := os.ReadDir(filepath.Dir(name))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(ents) != 1 {
		t.Errorf("expected temp files to be cleaned up, got %d entries", len(ents))
	}

	if err := WriteJSON(name, func() {}); err == nil {
		t.Errorf("expected error for unencodable value")
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(testDocument())
	if s.Sessions != 3 {
		t.Errorf("expected 3 sessions, got %d", s.Sessions)
	}
	if len(s.Branches) != 2 || s.Branches[0].Sessions != 3 || s.Branches[0].Days != 2 || s.Branches[1].Sessions != 0 {
		t.Errorf("unexpected branch summary: %+v", s.Branches)
	}
}

func TestPreview(t *testing.T) {
	var plain bytes.Buffer
	if err := Preview(&plain, testDocument(), false); err != nil {
		t.Fatalf("preview: %v", err)
	}
	var s Summary
	if err := json.Unmarshal(plain.Bytes(), &s); err != nil {
		t.Fatalf("expected plain preview to be json: %v", err)
	}
	if s.GeneratedAt != "2026-01-03T22:04:05Z" || len(s.Branches) != 2 {
		t.Errorf("unexpected plain preview: %+v", s)
	}

	var styled bytes.Buffer
	if err := Preview(&styled, testDocument(), true); err != nil {
		t.Fatalf("preview: %v", err)
	}
	for _, exp := range []string{"Jordan YMCA", "baxter", "3 sessions over 2 days from Sun 1/4 to Mon 1/5"} {
		if !strings.Contains(styled.String(), exp) {
			t.Errorf("expected styled preview to contain %q, got:\n%s", exp, styled.String())
		}
	}
}
