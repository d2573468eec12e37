package y360

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/internal/fetch"
	"github.com/lapswim/lapswim/internal/schedule"
	"github.com/lapswim/lapswim/schema"
)

// Source reads all branches from a single landing page fetched by Prepare.
type Source struct {
	Client *fetch.Client
	URL    string
	Zone   *time.Location

	// Registry resolves branch names. If nil, [branch.Default] is used.
	Registry *branch.Registry

	sessions map[string][]schema.Session
}

var (
	_ schedule.Source   = (*Source)(nil)
	_ schedule.Preparer = (*Source)(nil)
)

func (s *Source) Name() string {
	return "y360"
}

func (s *Source) Policy() schedule.Policy {
	return schedule.Policy{
		Merge: schedule.LabelAgnostic,
		Days:  schedule.ISOLabels,
	}
}

// Prepare fetches and extracts the feed. There is no per-branch fallback, so
// any failure here is fatal.
func (s *Source) Prepare(ctx context.Context) error {
	doc, err := s.Client.Document(ctx, s.URL, "y360")
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}
	p, err := ExtractPayload(doc)
	if err != nil {
		return fmt.Errorf("extract feed: %w", err)
	}

	reg := s.Registry
	if reg == nil {
		reg = branch.Default
	}
	loc := s.Zone
	if loc == nil {
		if loc, err = schema.LoadZone(); err != nil {
			return err
		}
	}
	s.sessions = Extract(p, reg, loc)
	return nil
}

func (s *Source) Sessions(ctx context.Context, b branch.Descriptor) (schedule.Result, error) {
	if s.sessions == nil {
		return schedule.Result{}, errors.New("feed not prepared")
	}
	return schedule.Result{Sessions: s.sessions[b.Key]}, nil
}
