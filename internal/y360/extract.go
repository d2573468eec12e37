package y360

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/lapswim/lapswim/internal/branch"
	"github.com/lapswim/lapswim/schema"
)

// PoolsSchedule is the schedule category containing pool activities.
const PoolsSchedule = "Pools"

// LapSwimTitles are the item titles considered to be lap swim.
var LapSwimTitles = []string{
	"Lap Lane Swim",
	"Open Swim",
}

// Extract converts the payload items into sessions for the branches in reg,
// keyed by branch key. Branches without any items are absent.
func Extract(p Payload, reg *branch.Registry, loc *time.Location) map[string][]schema.Session {
	res := map[string][]schema.Session{}
	for _, date := range slices.Sorted(maps.Keys(p.Schedules)) {
		for _, item := range p.Schedules[date].Items {
			key, ok := reg.KeyForY360Name(item.BranchName)
			if !ok {
				continue
			}
			if item.ScheduleName != PoolsSchedule || !slices.Contains(LapSwimTitles, item.Title) {
				continue
			}
			s, err := convertItem(item, loc)
			if err != nil {
				slog.Debug("skipping item with invalid time", "date", date, "branch", key, "title", item.Title, "error", err)
				continue
			}
			res[key] = append(res[key], s)
		}
	}
	return res
}

func convertItem(item Item, loc *time.Location) (schema.Session, error) {
	day, start, err := schema.ZonedCivilTime(item.Start, loc)
	if err != nil {
		return schema.Session{}, err
	}
	_, end, err := schema.ZonedCivilTime(item.End, loc)
	if err != nil {
		return schema.Session{}, err
	}
	return schema.Session{
		Day:       day,
		StartTime: start,
		EndTime:   end,
		Label:     schema.NormalizeText(item.StudioName),
	}, nil
}
