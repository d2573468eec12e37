package schedule

import (
	"slices"

	"github.com/lapswim/lapswim/schema"
)

// FilterBranches returns a copy of doc with only the branches with the
// specified keys, in document order. The document days are narrowed to those
// used by the remaining branches. If keys is empty, all branches are kept.
func FilterBranches(doc *schema.Document, keys []string) *schema.Document {
	out := &schema.Document{
		GeneratedAt: doc.GeneratedAt,
		Days:        []string{},
		Branches:    []schema.BranchSchedule{},
	}
	used := map[string]bool{}
	for _, b := range doc.Branches {
		if len(keys) != 0 && !slices.Contains(keys, b.Key) {
			continue
		}
		out.Branches = append(out.Branches, b)
		for _, d := range b.Days {
			used[d] = true
		}
	}
	for _, d := range doc.Days {
		if used[d] {
			out.Days = append(out.Days, d)
		}
	}
	return out
}
