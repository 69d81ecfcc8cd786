package conflict

import (
	"time"
)

// Entity is anything with an identifier and an inclusive calendar date range:
// a proposal, or a normalized row of the pre-approved schedule.
type Entity struct {
	ID    string
	Start time.Time
	End   time.Time
}

// Detect reports every entity whose date range shares at least one calendar
// day with another entity. The result is a flat set: membership is symmetric,
// and no clustering into separate groups is attempted.
//
// Each entity's days are enumerated into per-day buckets and any bucket with
// more than one occupant flags all of its occupants. That is O(total
// entity-days) rather than O(n^2) pairwise comparison, and a changed subset
// only ever requires re-bucketing its own day range.
func Detect(entities []Entity) map[string]bool {
	flagged := make(map[string]bool)
	if len(entities) < 2 {
		return flagged
	}

	buckets := make(map[time.Time][]string)
	for _, e := range entities {
		start := DateOnly(e.Start)
		end := DateOnly(e.End)
		if end.Before(start) {
			continue
		}
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			buckets[day] = append(buckets[day], e.ID)
		}
	}

	for _, ids := range buckets {
		if len(ids) < 2 {
			continue
		}
		for _, id := range ids {
			flagged[id] = true
		}
	}

	return flagged
}
