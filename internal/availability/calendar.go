package availability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarSource reads the clinic's Google Calendar: doctor availability
// events for the per-staff mode and busy intervals for the uniform-slot
// mode.
type CalendarSource struct {
	svc        *calendar.Service
	calendarID string
	loc        *time.Location
	daysAhead  int
	now        func() time.Time
}

// NewCalendarSource builds a CalendarSource from a service-account
// credentials file.
func NewCalendarSource(ctx context.Context, credentialsFile, calendarID string, loc *time.Location, daysAhead int) (*CalendarSource, error) {
	if strings.TrimSpace(credentialsFile) == "" {
		return nil, fmt.Errorf("availability: google credentials file is required")
	}
	if strings.TrimSpace(calendarID) == "" {
		calendarID = "primary"
	}
	if loc == nil {
		loc = time.UTC
	}
	if daysAhead <= 0 {
		daysAhead = 7
	}

	svc, err := calendar.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(calendar.CalendarReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("availability: failed to create calendar service: %w", err)
	}

	return &CalendarSource{
		svc:        svc,
		calendarID: calendarID,
		loc:        loc,
		daysAhead:  daysAhead,
		now:        time.Now,
	}, nil
}

// AvailabilityEvents lists the timed events in [now, now+daysAhead).
// All-day events carry no start time and are skipped; classification of
// offers versus busy blocks happens in the slot parser.
func (s *CalendarSource) AvailabilityEvents(ctx context.Context) ([]Event, error) {
	now := s.now().In(s.loc)
	res, err := s.svc.Events.List(s.calendarID).
		TimeMin(now.Format(time.RFC3339)).
		TimeMax(now.AddDate(0, 0, s.daysAhead).Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("availability: failed to list events: %w", err)
	}

	var events []Event
	for _, item := range res.Items {
		if item.Start == nil || item.End == nil || item.Start.DateTime == "" {
			continue
		}
		start, err := time.Parse(time.RFC3339, item.Start.DateTime)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			continue
		}
		events = append(events, Event{Summary: item.Summary, Start: start, End: end})
	}
	return events, nil
}

// BusyIntervals queries free/busy for the window, feeding the uniform-slot
// engine.
func (s *CalendarSource) BusyIntervals(ctx context.Context, window Interval) ([]Interval, error) {
	req := &calendar.FreeBusyRequest{
		TimeMin: window.Start.Format(time.RFC3339),
		TimeMax: window.End.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: s.calendarID}},
	}

	res, err := s.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("availability: freebusy query failed: %w", err)
	}

	cal, ok := res.Calendars[s.calendarID]
	if !ok {
		return nil, nil
	}

	var busy []Interval
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			continue
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			continue
		}
		busy = append(busy, Interval{Start: start, End: end})
	}
	return busy, nil
}
