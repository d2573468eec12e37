// Package schedule turns raw upstream sessions into the schedule document.
package schedule

import (
	"context"

	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/schema"
)

// Source provides raw lap swim sessions for branches.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Policy returns how sessions from the source are normalized.
	Policy() Policy

	// Sessions returns the raw sessions for a branch. An error means no
	// sessions could be obtained for the branch at all.
	Sessions(ctx context.Context, b branch.Descriptor) (Result, error)
}

// Preparer is implemented by sources which must load data before sessions
// can be requested. A Prepare error aborts the run.
type Preparer interface {
	Prepare(ctx context.Context) error
}

// Policy describes the source-specific normalization rules.
type Policy struct {
	Merge MergePolicy
	Days  DayStyle

	// KeepEmpty includes branches without any sessions in the document.
	KeepEmpty bool
}

// Result is the output of a source for a single branch.
type Result struct {
	ID       *int     // upstream branch id, if the source has one
	Days     []string // day labels seen, even those without sessions
	Sessions []schema.Session
}
