// Package scan finds the calendar days missing from a daily note registry.
package scan

import (
	"github.com/example/daygap/internal/dailynotes"
	"github.com/example/daygap/internal/date"
)

// FindMissingDates walks every day from start through end inclusive and
// returns, in ascending order, the days reg has no note for. A start after
// end yields no dates. The walk is purely observational; reg is never
// modified.
func FindMissingDates(reg *dailynotes.Registry, start, end date.Date) []date.Date {
	var missing []date.Date
	for d := start; !d.After(end); d = d.Next() {
		if !reg.Has(d) {
			missing = append(missing, d)
		}
	}
	return missing
}

// FirstAndLast returns the earliest and latest dates observed in reg. An
// empty registry resolves both to today, which keeps downstream range math
// total: scanning (today, today) finds nothing to do.
func FirstAndLast(reg *dailynotes.Registry, today date.Date) (first, last date.Date) {
	first, ok := reg.First()
	if !ok {
		return today, today
	}
	last, _ = reg.Last()
	return first, last
}
