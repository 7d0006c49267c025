package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/kwchan/clinic-booking-ai/internal/clinic"
)

// MockSource generates a demo schedule when no Google Calendar is
// configured: each doctor in the roster offers a morning and an afternoon
// slot every day of the lookahead window, and the third doctor an evening
// slot. Used for local runs and tests.
type MockSource struct {
	doctors   []clinic.Doctor
	loc       *time.Location
	daysAhead int
	now       func() time.Time
}

// NewMockSource builds a MockSource over a doctor roster. A nil clock
// defaults to time.Now.
func NewMockSource(doctors []clinic.Doctor, loc *time.Location, daysAhead int, now func() time.Time) *MockSource {
	if loc == nil {
		loc = time.UTC
	}
	if daysAhead <= 0 {
		daysAhead = 7
	}
	if now == nil {
		now = time.Now
	}
	if len(doctors) == 0 {
		doctors = clinic.Default().Doctors
	}
	return &MockSource{doctors: doctors, loc: loc, daysAhead: daysAhead, now: now}
}

// AvailabilityEvents returns the generated demo events. A non-offer busy
// event is included each day; the slot parser must discard it.
func (s *MockSource) AvailabilityEvents(_ context.Context) ([]Event, error) {
	base := s.now().In(s.loc)

	var events []Event
	for day := 1; day <= s.daysAhead; day++ {
		date := base.AddDate(0, 0, day)
		for i, doc := range s.doctors {
			morning := time.Date(date.Year(), date.Month(), date.Day(), 9+i, 0, 0, 0, s.loc)
			events = append(events, Event{
				Summary: fmt.Sprintf("%s Available - %s", doc.Name, doc.Specialty),
				Start:   morning,
				End:     morning.Add(time.Hour),
			})

			afternoon := time.Date(date.Year(), date.Month(), date.Day(), 14+i, 0, 0, 0, s.loc)
			events = append(events, Event{
				Summary: fmt.Sprintf("%s Available - %s", doc.Name, doc.Specialty),
				Start:   afternoon,
				End:     afternoon.Add(time.Hour),
			})

			if i == len(s.doctors)-1 {
				evening := time.Date(date.Year(), date.Month(), date.Day(), 18, 0, 0, 0, s.loc)
				events = append(events, Event{
					Summary: fmt.Sprintf("%s Available - %s", doc.Name, doc.Specialty),
					Start:   evening,
					End:     evening.Add(time.Hour),
				})
			}
		}

		busy := time.Date(date.Year(), date.Month(), date.Day(), 13, 0, 0, 0, s.loc)
		events = append(events, Event{
			Summary: "Dr. Wang BUSY - Meeting",
			Start:   busy,
			End:     busy.Add(time.Hour),
		})
	}
	return events, nil
}
