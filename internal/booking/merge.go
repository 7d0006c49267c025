package booking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kwchan/clinic-booking-ai/internal/validate"
)

// Merger folds freshly extracted entity values into an existing aggregate.
// Every value passes through its validator before it is stored; empty or
// absent values never overwrite data already collected. Merging the same
// payload twice yields the same result.
type Merger struct {
	validator *validate.Validator
}

// NewMerger builds a Merger over the given validator.
func NewMerger(validator *validate.Validator) *Merger {
	return &Merger{validator: validator}
}

// mergeHandlers is the closed set of entity keys the merger understands.
// Keys outside this table are ignored.
var mergeHandlers = []struct {
	key   string
	apply func(m *Merger, e *Entities, value any) []string
}{
	{string(FieldBookingType), (*Merger).mergeBookingType},
	{string(FieldPatientInfo), (*Merger).mergePatientInfo},
	{string(FieldPolicyNumber), (*Merger).mergePolicyNumber},
	{string(FieldAvailableTime), (*Merger).mergeAvailableTime},
	{string(FieldPhoneNumber), (*Merger).mergePhoneNumber},
}

// Merge returns a copy of current with the accepted values from extracted
// applied, plus the validation errors for the rejected ones. Rejected or
// empty values leave the corresponding field untouched.
func (m *Merger) Merge(current Entities, extracted map[string]any) (Entities, []string) {
	merged := current
	var errs []string

	for _, h := range mergeHandlers {
		value, ok := extracted[h.key]
		if !ok || emptyValue(value) {
			continue
		}
		errs = append(errs, h.apply(m, &merged, value)...)
	}

	return merged, errs
}

func (m *Merger) mergeBookingType(e *Entities, value any) []string {
	res := m.validator.AppointmentType(scalarString(value))
	if !res.OK() {
		return []string{"booking_type: " + res.Err}
	}
	e.BookingType = res.Value
	e.RawBookingType = res.Status == validate.AcceptedRaw
	return nil
}

func (m *Merger) mergePolicyNumber(e *Entities, value any) []string {
	res := validate.PolicyNumber(scalarString(value))
	if !res.OK() {
		return []string{"policy_number: " + res.Err}
	}
	e.PolicyNumber = res.Value
	return nil
}

func (m *Merger) mergePhoneNumber(e *Entities, value any) []string {
	res := validate.Phone(scalarString(value))
	if !res.OK() {
		return []string{"phone_number: " + res.Err}
	}
	e.PhoneNumber = res.Value
	return nil
}

// mergePatientInfo runs the composite validator over the sub-field map and
// applies whatever survives it. Sub-fields are independent; a rejected one
// is dropped by the validator and does not block its siblings.
func (m *Merger) mergePatientInfo(e *Entities, value any) []string {
	fields, ok := value.(map[string]any)
	if !ok {
		return []string{"patient_info: 格式不正確"}
	}

	_, verrs := m.validator.PatientInfo(fields)
	errs := prefixErrors("patient_info", verrs)

	if v, ok := fields["name"]; ok && !emptyValue(v) {
		e.PatientInfo.Name = scalarString(v)
	}
	if v, ok := fields["age"]; ok && !emptyValue(v) {
		if age, err := scalarInt(v); err == nil {
			e.PatientInfo.Age = age
		}
	}
	if v, ok := fields["gender"]; ok && !emptyValue(v) {
		e.PatientInfo.Gender = scalarString(v)
	}

	return errs
}

func (m *Merger) mergeAvailableTime(e *Entities, value any) []string {
	fields, ok := value.(map[string]any)
	if !ok {
		return []string{"available_time: 格式不正確"}
	}

	_, verrs := m.validator.PreferredTime(fields)
	errs := prefixErrors("available_time", verrs)

	if v, ok := fields["date"]; ok && !emptyValue(v) {
		e.AvailableTime.Date = scalarString(v)
	}
	if v, ok := fields["time_slot"]; ok && !emptyValue(v) {
		e.AvailableTime.TimeSlot = scalarString(v)
	}

	return errs
}

func prefixErrors(field string, errs []string) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, msg := range errs {
		out[i] = field + ": " + msg
	}
	return out
}

// ---------- value coercion ----------

func emptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case float64:
		return v == 0
	case int:
		return v == 0
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}

func scalarString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}

func scalarInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("booking: not a number: %v", value)
	}
}
