// Package availability computes bookable appointment slots, either uniform
// slots carved out of business hours around busy intervals, or per-doctor
// slots derived from availability events on the clinic calendar.
package availability

import "time"

// Engine generates candidate appointment slots within a clinic's business
// hours.
type Engine struct {
	loc           *time.Location
	slotDuration  time.Duration
	businessStart int
	businessEnd   int
}

// NewEngine builds an Engine for the given timezone, slot duration, and
// business hours (start inclusive, end exclusive, in whole hours).
func NewEngine(loc *time.Location, slotDuration time.Duration, businessStart, businessEnd int) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	if slotDuration <= 0 {
		slotDuration = time.Hour
	}
	if businessEnd <= businessStart {
		businessStart, businessEnd = 9, 18
	}
	return &Engine{
		loc:           loc,
		slotDuration:  slotDuration,
		businessStart: businessStart,
		businessEnd:   businessEnd,
	}
}

// SuggestTimes returns the free slots inside the search window. The window
// start is rounded up to the next full hour when it has sub-hour precision;
// candidates then step by the slot duration. A candidate is kept when it
// starts within business hours, ends inside the window, and intersects no
// busy interval.
func (e *Engine) SuggestTimes(window Interval, busy []Interval) []Interval {
	cursor := window.Start.In(e.loc)
	if !cursor.Equal(cursor.Truncate(time.Hour)) {
		cursor = cursor.Truncate(time.Hour).Add(time.Hour)
	}

	var free []Interval
	for ; !cursor.Add(e.slotDuration).After(window.End); cursor = cursor.Add(e.slotDuration) {
		hour := cursor.Hour()
		if hour < e.businessStart || hour >= e.businessEnd {
			continue
		}

		slot := Interval{Start: cursor, End: cursor.Add(e.slotDuration)}
		conflict := false
		for _, b := range busy {
			if slot.Overlaps(b) {
				conflict = true
				break
			}
		}
		if !conflict {
			free = append(free, slot)
		}
	}
	return free
}
