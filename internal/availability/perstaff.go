package availability

import (
	"sort"
	"strings"
	"time"
)

const defaultSpecialty = "普通科"

// Event is a calendar event as fetched from the clinic calendar.
type Event struct {
	Summary string
	Start   time.Time
	End     time.Time
}

// Slot is one bookable per-doctor appointment slot, shaped for display and
// for the booking confirmation.
type Slot struct {
	DoctorID   string `json:"doctor_id"`
	DoctorName string `json:"doctor_name"`
	Specialty  string `json:"specialty"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// parseStaffSummary interprets an availability event title of the form
// "<Doctor Name> Available - <Specialty>". Events without an "available"
// marker are not offers and are skipped; a missing specialty falls back to
// general practice.
func parseStaffSummary(summary string) (name, specialty string, ok bool) {
	if !strings.Contains(strings.ToLower(summary), "available") {
		return "", "", false
	}

	parts := strings.SplitN(summary, " - ", 2)
	name = parts[0]
	name = strings.ReplaceAll(name, "Available", "")
	name = strings.ReplaceAll(name, "AVAILABLE", "")
	name = strings.ReplaceAll(name, "available", "")
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}

	specialty = defaultSpecialty
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		specialty = strings.TrimSpace(parts[1])
	}
	return name, specialty, true
}

// StaffID derives a stable doctor identifier from a display name:
// lower-cased, spaces to underscores, periods removed.
func StaffID(name string) string {
	id := strings.ToLower(strings.TrimSpace(name))
	id = strings.ReplaceAll(id, " ", "_")
	id = strings.ReplaceAll(id, ".", "")
	return id
}

// SlotsFromEvents converts availability events into per-doctor slots in the
// clinic timezone, sorted by date and start time. Non-offer events are
// dropped.
func SlotsFromEvents(events []Event, loc *time.Location) []Slot {
	if loc == nil {
		loc = time.UTC
	}

	var slots []Slot
	for _, ev := range events {
		name, specialty, ok := parseStaffSummary(ev.Summary)
		if !ok {
			continue
		}
		start := ev.Start.In(loc)
		slots = append(slots, Slot{
			DoctorID:   StaffID(name),
			DoctorName: name,
			Specialty:  specialty,
			Date:       start.Format("2006-01-02"),
			StartTime:  start.Format("15:04"),
			EndTime:    ev.End.In(loc).Format("15:04"),
		})
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Date != slots[j].Date {
			return slots[i].Date < slots[j].Date
		}
		if slots[i].StartTime != slots[j].StartTime {
			return slots[i].StartTime < slots[j].StartTime
		}
		return slots[i].DoctorID < slots[j].DoctorID
	})
	return slots
}

// FilterSlots narrows slots by the patient's preferred date and time of
// day. Empty preferences match everything.
func FilterSlots(slots []Slot, targetDate, timeSlot string, now time.Time) []Slot {
	filtered := slots

	if strings.TrimSpace(targetDate) != "" {
		var keep []Slot
		for _, s := range filtered {
			if matchesTargetDate(s.Date, strings.TrimSpace(targetDate), now) {
				keep = append(keep, s)
			}
		}
		filtered = keep
	}

	if strings.TrimSpace(timeSlot) != "" {
		var keep []Slot
		for _, s := range filtered {
			if matchesTimeOfDay(s.StartTime, strings.TrimSpace(timeSlot)) {
				keep = append(keep, s)
			}
		}
		filtered = keep
	}

	return filtered
}

// Relative terms match by containment so phrases like "想約明天" still
// resolve; anything else matches the slot date by substring.
func matchesTargetDate(slotDate, target string, now time.Time) bool {
	switch {
	case strings.Contains(target, "今天"), strings.Contains(target, "今日"):
		return slotDate == now.Format("2006-01-02")
	case strings.Contains(target, "明天"), strings.Contains(target, "明日"):
		return slotDate == now.AddDate(0, 0, 1).Format("2006-01-02")
	}
	return strings.Contains(slotDate, target)
}

// matchesTimeOfDay buckets the slot's start hour: 上午 [9,12), 下午 [12,18),
// 晚上 [18,21). Hours outside every bucket match no preference. A
// preference outside the three buckets does not filter at all.
func matchesTimeOfDay(startTime, pref string) bool {
	hourPart, _, ok := strings.Cut(startTime, ":")
	if !ok {
		return false
	}
	hour := 0
	for _, r := range hourPart {
		if r < '0' || r > '9' {
			return false
		}
		hour = hour*10 + int(r-'0')
	}

	switch pref {
	case "上午":
		return hour >= 9 && hour < 12
	case "下午":
		return hour >= 12 && hour < 18
	case "晚上":
		return hour >= 18 && hour < 21
	}
	return true
}
