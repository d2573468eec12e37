// Command scraper builds the lap swim schedule document from an upstream
// source.
package main

import (
	"cmp"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/lapswim/lapswim/internal/artifact"
	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/internal/classic"
	"github.com/lapswim/lapswim/internal/config"
	"github.com/lapswim/lapswim/internal/fetch"
	"github.com/lapswim/lapswim/internal/httpcache"
	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/internal/y360"
	"github.com/lapswim/lapswim/internal/zlog"
)

var (
	source     = flag.String("source", "classic", "schedule source (classic, y360)")
	dryRun     = flag.Bool("dry-run", false, "print a preview instead of writing the output")
	output     = flag.String("output", "", "write the schedule to the specified file (default data/<source>.json)")
	configFile = flag.String("config", "", "config file (default ./lapswim.yaml if it exists)")
	cacheDir   = flag.String("cache-dir", "", "cache pages in the specified directory")
	noFetch    = flag.Bool("no-fetch", false, "don't fetch pages not in cache")
	purge      = flag.Bool("purge", false, "remove cached pages for the source before scraping")
	weeks      = flag.Int("weeks", 0, "number of weeks to scrape from the classic source (default from config)")
	branches   = flag.String("branches", "", "comma-separated branch keys to scrape (default all)")
	verbose    = flag.Bool("v", false, "log debug messages")
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
	if *verbose {
		cfg.LogLevel = "debug"
	}
	if *cacheDir != "" {
		cfg.CacheDir = *cacheDir
	}
	if *weeks > 0 {
		cfg.Weeks = *weeks
	}
	if *branches != "" {
		cfg.Branches = splitList(*branches)
	}

	flush, err := zlog.Setup(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer flush()

	reg := branch.Default
	if len(cfg.Branches) != 0 {
		var unknown []string
		if reg, unknown = reg.Filter(cfg.Branches...); len(unknown) != 0 {
			return fmt.Errorf("unknown branches %q", unknown)
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	client, err := fetch.New(fetch.Options{
		CacheDir:    cfg.CacheDir,
		CacheMaxAge: cfg.CacheMaxAge,
		NoFetch:     *noFetch,
		Timeout:     cfg.Timeout,
		UserAgent:   cfg.UserAgent,
		Limiter:     fetch.QPS(cfg.FetchQPS),
	})
	if err != nil {
		return err
	}

	src, err := newSource(*source, cfg, client, loc, reg)
	if err != nil {
		return err
	}
	if *purge && cfg.CacheDir != "" {
		if err := httpcache.Purge(cfg.CacheDir, src.Name()); err != nil {
			return fmt.Errorf("purge cache: %w", err)
		}
	}

	start := time.Now()
	doc, err := (&schedule.Aggregator{Registry: reg}).Run(ctx, src)
	if err != nil {
		return fmt.Errorf("scrape %s: %w", src.Name(), err)
	}
	slog.Info("scraped schedule", "source", src.Name(), "branches", len(doc.Branches), "days", len(doc.Days), "sessions", doc.Sessions(), "duration", time.Since(start).Round(time.Millisecond))

	if *dryRun {
		return artifact.Preview(os.Stdout, doc, artifact.IsTerminal(os.Stdout))
	}

	name := cmp.Or(*output, filepath.Join(cfg.DataDir, src.Name()+".json"))
	if err := artifact.WriteJSON(name, doc); err != nil {
		return err
	}
	slog.Info("wrote schedule", "path", name)
	return nil
}

func newSource(name string, cfg config.Config, client *fetch.Client, loc *time.Location, reg *branch.Registry) (schedule.Source, error) {
	switch name {
	case "classic":
		return &classic.Source{
			Client:  client,
			BaseURL: cfg.ClassicURL,
			Weeks:   cfg.Weeks,
			Zone:    loc,
		}, nil
	case "y360":
		return &y360.Source{
			Client:   client,
			URL:      cfg.Y360URL,
			Zone:     loc,
			Registry: reg,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

func splitList(s string) []string {
	var r []string
	for v := range strings.SplitSeq(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			r = append(r, v)
		}
	}
	return r
}
