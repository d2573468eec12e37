// Command geocoder looks up the coordinates of each branch for the map.
package main

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"maps"
	"math"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lapswim/lapswim/internal/artifact"
	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/internal/config"
	"github.com/lapswim/lapswim/internal/fetch"
	"github.com/lapswim/lapswim/internal/zlog"
	"github.com/lapswim/lapswim/schema"
)

var (
	dryRun     = flag.Bool("dry-run", false, "print the coordinates instead of writing them")
	output     = flag.String("output", "", "write the coordinates to the specified file (default data/branches.json)")
	configFile = flag.String("config", "", "config file (default ./lapswim.yaml if it exists)")
	cacheDir   = flag.String("cache-dir", "", "cache responses in the specified directory")
	noFetch    = flag.Bool("no-fetch", false, "don't fetch responses not in cache")
	nominatim  = flag.String("nominatim", "", "nominatim base url (default from config)")
	branches   = flag.String("branches", "", "comma-separated branch keys to geocode (default all)")
)

func init() {
	flag.StringVar(output, "o", "", "shorthand for -output")
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *nominatim != "" {
		cfg.NominatimURL = *nominatim
	}

	flush, err := zlog.Setup(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer flush()

	reg := branch.Default
	if *branches != "" {
		var unknown []string
		if reg, unknown = reg.Filter(strings.Split(*branches, ",")...); len(unknown) != 0 {
			return fmt.Errorf("unknown branches %q", unknown)
		}
	}

	client, err := fetch.New(fetch.Options{
		CacheDir:     cfg.CacheDir,
		NoFetch:      *noFetch,
		Timeout:      cfg.Timeout,
		UserAgent:    cfg.UserAgent,
		Limiter:      fetch.Every(cfg.GeocodeEvery),
		RedactParams: []string{"key", "api_key"},
	})
	if err != nil {
		return err
	}

	g := &geocoder{
		Client:  client,
		BaseURL: cfg.NominatimURL,
	}
	cs, err := g.All(ctx, reg)
	if err != nil {
		return err
	}

	if *dryRun {
		buf, err := json.MarshalIndent(cs, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Printf("%s\n", buf)
		return err
	}

	name := cmp.Or(*output, filepath.Join(cfg.DataDir, "branches.json"))
	if err := artifact.WriteJSON(name, cs); err != nil {
		return err
	}
	slog.Info("wrote branch coordinates", "path", name, "count", len(cs))
	return nil
}

type geocoder struct {
	Client  *fetch.Client
	BaseURL string
}

// All geocodes each branch in order. Branches which fail are logged and
// omitted. An error is only returned if nothing could be geocoded.
func (g *geocoder) All(ctx context.Context, reg *branch.Registry) ([]schema.BranchCoordinate, error) {
	cs := []schema.BranchCoordinate{}
	for _, b := range reg.All() {
		lng, lat, ok, err := g.Geocode(ctx, b.Address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Error("failed to geocode branch", "branch", b.Key, "address", b.Address, "error", err)
			continue
		}
		if !ok {
			slog.Warn("no geocoding result for branch", "branch", b.Key, "address", b.Address)
			continue
		}
		slog.Info("got branch", "branch", b.Key, "address", b.Address, "lng", lng, "lat", lat)

		cs = append(cs, schema.BranchCoordinate{
			Key:     b.Key,
			Name:    b.Name,
			Address: b.Address,
			Lat:     round6(lat),
			Lng:     round6(lng),
		})
	}
	if len(cs) == 0 && reg.Len() != 0 {
		return nil, errors.New("failed to geocode any branches")
	}
	return cs, nil
}

// Geocode looks up an address.
func (g *geocoder) Geocode(ctx context.Context, addr string) (lng, lat float64, ok bool, err error) {
	u, err := url.Parse(g.BaseURL)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse nominatim url: %w", err)
	}
	r := &url.URL{
		Path: "search",
		RawQuery: url.Values{
			"format": {"geocodejson"},
			"q":      {addr},
		}.Encode(),
	}
	q := u.Query()
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u = u.ResolveReference(r)
	maps.Copy(q, r.Query()) // keep orig query params (e.g., for apikey)
	u.RawQuery = q.Encode()

	var obj struct {
		Type     string
		Features []struct {
			Type     string
			Geometry struct {
				Type        string
				Coordinates []float64
			}
		}
	}
	if err := g.Client.JSON(ctx, u.String(), "nominatim", &obj); err != nil {
		return 0, 0, false, err
	}
	if obj.Type != "FeatureCollection" {
		return 0, 0, false, fmt.Errorf("decode geocodejson: wrong type %q", obj.Type)
	}
	for _, f := range obj.Features {
		if f.Type == "Feature" {
			if f.Geometry.Type != "Point" {
				return 0, 0, false, fmt.Errorf("decode geocodejson: wrong feature geometry type %q", f.Geometry.Type)
			}
			if len(f.Geometry.Coordinates) != 2 {
				return 0, 0, false, fmt.Errorf("decode geocodejson: wrong feature geometry coordinates length %d", len(f.Geometry.Coordinates))
			}
			return f.Geometry.Coordinates[0], f.Geometry.Coordinates[1], true, nil
		}
	}
	return 0, 0, false, nil
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
