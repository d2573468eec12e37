// Command exporter converts a schedule document into other formats.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/lapswim/lapswim/internal/artifact"
	"github.com/lapswim/lapswim/schema"
	"github.com/protocolbuffers/txtpbfmt/parser"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	CSV      = flag.String("csv", "", "write csv to this directory")
	JSON     = flag.String("json", "", "write json to this file")
	TextPB   = flag.String("textpb", "", "write textpb to this file")
	Sqlite   = flag.String("sqlite", "", "write sqlite database to this file")
	ICS      = flag.String("ics", "", "write an icalendar feed to this file")
	Branches = flag.String("branches", "", "read branch coordinates from this file (optional)")
	Zone     = flag.String("zone", schema.Zone, "time zone of the schedule (-sqlite -csv -ics)")
	Pretty   = flag.Bool("pretty", false, "prettify output (-json -textpb)")
	Indent   = flag.String("indent", "  ", "indentation to use when -pretty")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "%s [options] schedule.json\n", os.Args[0])
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(name string) error {
	slog.Info("loading schedule", "name", name)
	var doc schema.Document
	if err := artifact.ReadJSON(name, &doc); err != nil {
		return fmt.Errorf("load schedule: %w", err)
	}

	var coords []schema.BranchCoordinate
	if *Branches != "" {
		slog.Info("loading branch coordinates", "name", *Branches)
		if err := artifact.ReadJSON(*Branches, &coords); err != nil {
			return fmt.Errorf("load branch coordinates: %w", err)
		}
	}

	loc, err := time.LoadLocation(*Zone)
	if err != nil {
		return fmt.Errorf("load zone: %w", err)
	}

	generated, err := time.Parse(time.RFC3339, doc.GeneratedAt)
	if err != nil {
		slog.Warn("schedule has invalid generation time, resolving dates relative to now", "generatedAt", doc.GeneratedAt)
		generated = time.Now()
	}

	if *TextPB != "" || *JSON != "" {
		v, err := documentValue(&doc)
		if err != nil {
			return fmt.Errorf("convert schedule: %w", err)
		}

		if *TextPB != "" {
			slog.Info("writing textpb", "name", *TextPB, "pretty", *Pretty)
			opt := prototext.MarshalOptions{
				Multiline:    *Pretty,
				AllowPartial: false,
				EmitASCII:    !*Pretty,
			}
			if *Pretty {
				opt.Indent = *Indent
			}
			buf, err := opt.Marshal(v)
			if err == nil && *Pretty {
				buf, err = parser.Format(buf)
			}
			if err != nil {
				return fmt.Errorf("export textpb: %w", err)
			}
			if err := os.WriteFile(*TextPB, buf, 0644); err != nil {
				return fmt.Errorf("export textpb: %w", err)
			}
		}

		if *JSON != "" {
			slog.Info("writing json", "name", *JSON, "pretty", *Pretty)
			opt := protojson.MarshalOptions{
				EmitUnpopulated: true,
				Multiline:       *Pretty,
				AllowPartial:    false,
			}
			if *Pretty {
				opt.Indent = *Indent
			}
			if buf, err := opt.Marshal(v); err != nil {
				return fmt.Errorf("export json: %w", err)
			} else if err := os.WriteFile(*JSON, buf, 0644); err != nil {
				return fmt.Errorf("export json: %w", err)
			}
		}
	}

	if *Sqlite != "" || *CSV != "" {
		if err := exportDB(&doc, coords, generated.In(loc)); err != nil {
			return err
		}
	}

	if *ICS != "" {
		slog.Info("writing ics", "name", *ICS)
		f, err := os.Create(*ICS)
		if err != nil {
			return fmt.Errorf("export ics: %w", err)
		}
		defer f.Close()

		if err := exportICS(f, &doc, coords, generated, loc); err != nil {
			return fmt.Errorf("export ics: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("export ics: %w", err)
		}
	}

	slog.Info("done")
	return nil
}

// documentValue converts doc into a protobuf value with the same structure as
// its json encoding.
func documentValue(doc *schema.Document) (*structpb.Value, error) {
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var obj any
	if err := json.Unmarshal(buf, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.New("empty document")
	}
	return structpb.NewValue(obj)
}

func coordinatesByKey(coords []schema.BranchCoordinate) map[string]schema.BranchCoordinate {
	m := make(map[string]schema.BranchCoordinate, len(coords))
	for _, c := range coords {
		m[c.Key] = c
	}
	return m
}

func pointer[T any](x T) *T {
	return &x
}
