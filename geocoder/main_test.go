package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/internal/fetch"
)

func testGeocoder(t *testing.T) (*geocoder, func() []string) {
	t.Helper()

	reqs := make(chan string, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		reqs <- r.URL.Path + " " + q.Get("q") + " " + q.Get("key")
		switch q.Get("q") {
		case "8400 Westfield Blvd, Indianapolis, IN 46240":
			fmt.Fprint(w, `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[-86.1402317,39.9088123]}}]}`)
		case "nowhere":
			fmt.Fprint(w, `{"type":"FeatureCollection","features":[]}`)
		case "polygon":
			fmt.Fprint(w, `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[]}}]}`)
		default:
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}
	}))
	t.Cleanup(srv.Close)

	g := &geocoder{
		Client: &fetch.Client{
			HTTP:    fetch.NewClient(nil, time.Second*5),
			Limiter: fetch.Every(time.Millisecond),
		},
		BaseURL: srv.URL + "/nominatim?key=secret",
	}
	return g, func() []string {
		var r []string
		for {
			select {
			case s := <-reqs:
				r = append(r, s)
			default:
				return r
			}
		}
	}
}

func TestGeocode(t *testing.T) {
	g, reqs := testGeocoder(t)
	ctx := context.Background()

	lng, lat, ok, err := g.Geocode(ctx, "8400 Westfield Blvd, Indianapolis, IN 46240")
	if err != nil || !ok {
		t.Fatalf("geocode: %v %v", ok, err)
	}
	if lng != -86.1402317 || lat != 39.9088123 {
		t.Errorf("unexpected coordinates %v, %v", lng, lat)
	}
	if r := reqs(); len(r) != 1 || r[0] != "/nominatim/search 8400 Westfield Blvd, Indianapolis, IN 46240 secret" {
		t.Errorf("unexpected request %q", r)
	}

	if _, _, ok, err := g.Geocode(ctx, "nowhere"); ok || err != nil {
		t.Errorf("expected no result, got %v %v", ok, err)
	}
	if _, _, _, err := g.Geocode(ctx, "polygon"); err == nil {
		t.Errorf("expected error for non-point geometry")
	}
	if _, _, _, err := g.Geocode(ctx, "busy"); err == nil {
		t.Errorf("expected error for failed request")
	}
}

func TestAll(t *testing.T) {
	g, _ := testGeocoder(t)
	ctx := context.Background()

	jordan, _ := branch.Default.Lookup("jordan")
	cs, err := g.All(ctx, branch.NewRegistry(
		branch.Descriptor{Key: "missing", Address: "nowhere"},
		jordan,
		branch.Descriptor{Key: "busy", Address: "busy"},
	))
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("expected failed branches to be omitted, got %+v", cs)
	}
	if c := cs[0]; c.Key != "jordan" || c.Name != "Jordan YMCA" || c.Lat != 39.908812 || c.Lng != -86.140232 {
		t.Errorf("unexpected coordinate %+v", c)
	}

	if _, err := g.All(ctx, branch.NewRegistry(branch.Descriptor{Key: "busy", Address: "busy"})); err == nil {
		t.Errorf("expected error when nothing could be geocoded")
	}
}

func TestRound6(t *testing.T) {
	for _, tc := range [][2]float64{
		{39.9088123, 39.908812},
		{-86.1402317, -86.140232},
		{39.5, 39.5},
	} {
		if v := round6(tc[0]); v != tc[1] {
			t.Errorf("round %v: expected %v, got %v", tc[0], tc[1], v)
		}
	}
}
