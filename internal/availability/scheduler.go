package availability

import (
	"context"
	"fmt"
	"time"
)

// EventSource supplies availability events for the lookahead window.
type EventSource interface {
	AvailabilityEvents(ctx context.Context) ([]Event, error)
}

// Scheduler turns calendar events into the filtered per-doctor slot list
// the conversation layer presents to the patient.
type Scheduler struct {
	events EventSource
	loc    *time.Location
	now    func() time.Time
}

// NewScheduler builds a Scheduler over an event source. A nil clock
// defaults to time.Now.
func NewScheduler(events EventSource, loc *time.Location, now func() time.Time) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Scheduler{events: events, loc: loc, now: now}
}

// AvailableSlots fetches availability events and returns the slots that
// match the patient's preferred date and time of day. Empty preferences
// return every upcoming slot.
func (s *Scheduler) AvailableSlots(ctx context.Context, targetDate, timeSlot string) ([]Slot, error) {
	events, err := s.events.AvailabilityEvents(ctx)
	if err != nil {
		return nil, fmt.Errorf("availability: failed to fetch events: %w", err)
	}

	slots := SlotsFromEvents(events, s.loc)
	return FilterSlots(slots, targetDate, timeSlot, s.now().In(s.loc)), nil
}
