package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/schema"
)

// ErrNoBranches is returned when there is nothing to aggregate.
var ErrNoBranches = errors.New("no branches")

// Aggregator builds a schedule document from a source.
type Aggregator struct {
	Registry *branch.Registry

	// Now returns the current time. If nil, [time.Now] is used.
	Now func() time.Time
}

func (a *Aggregator) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Run aggregates all branches in the registry, one at a time. Failures for
// a single branch are logged and treated as having no sessions.
func (a *Aggregator) Run(ctx context.Context, src Source) (*schema.Document, error) {
	if a.Registry == nil || a.Registry.Len() == 0 {
		return nil, ErrNoBranches
	}

	if p, ok := src.(Preparer); ok {
		if err := p.Prepare(ctx); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", src.Name(), err)
		}
	}

	var (
		now    = a.now()
		policy = src.Policy()
		doc    = &schema.Document{
			GeneratedAt: now.UTC().Format(time.RFC3339),
			Days:        []string{},
			Branches:    []schema.BranchSchedule{},
		}
		allDays []string
	)
	for _, b := range a.Registry.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := src.Sessions(ctx, b)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("failed to get sessions, treating as empty", "source", src.Name(), "branch", b.Key, "error", err)
			res = Result{}
		}

		bs, n := Build(b, res, policy, now)
		if n == 0 && !policy.KeepEmpty {
			slog.Info("skipping branch without sessions", "source", src.Name(), "branch", b.Key)
			continue
		}
		slog.Info("got branch schedule", "source", src.Name(), "branch", b.Key, "days", len(bs.Days), "raw", len(res.Sessions), "merged", n)

		doc.Branches = append(doc.Branches, bs)
		allDays = append(allDays, bs.Days...)
	}
	doc.Days = append(doc.Days, SequenceDays(allDays, now, policy.Days)...)
	return doc, nil
}

// Build deduplicates, groups, and merges the raw sessions for a branch,
// returning the schedule and the number of merged sessions in it.
func Build(b branch.Descriptor, res Result, policy Policy, now time.Time) (schema.BranchSchedule, int) {
	sessions := Dedupe(res.Sessions)

	byDay := map[string][]schema.Session{}
	labels := append([]string(nil), res.Days...)
	for _, s := range sessions {
		byDay[s.Day] = append(byDay[s.Day], s)
		labels = append(labels, s.Day)
	}

	bs := schema.BranchSchedule{
		Key:      b.Key,
		Name:     b.Name,
		ID:       res.ID,
		Days:     SequenceDays(labels, now, policy.Days),
		Schedule: make(map[string][]schema.Session, len(byDay)),
	}
	var n int
	for _, day := range bs.Days {
		merged := Merge(byDay[day], policy.Merge)
		bs.Schedule[day] = merged
		n += len(merged)
	}
	if bs.Days == nil {
		bs.Days = []string{}
	}
	return bs, n
}
