// Package booking holds the entity model collected over a booking
// conversation and the merger that folds newly extracted values into it.
package booking

// Field identifies one top-level booking entity.
type Field string

const (
	FieldBookingType   Field = "booking_type"
	FieldPatientInfo   Field = "patient_info"
	FieldAvailableTime Field = "available_time"
	FieldPolicyNumber  Field = "policy_number"
	FieldPhoneNumber   Field = "phone_number"
)

// Label returns the patient-facing name of a field, used in follow-up
// questions.
func (f Field) Label() string {
	switch f {
	case FieldBookingType:
		return "預約類型"
	case FieldPatientInfo:
		return "患者姓名"
	case FieldAvailableTime:
		return "預約日期"
	case FieldPolicyNumber:
		return "保單號碼"
	case FieldPhoneNumber:
		return "電話號碼"
	}
	return string(f)
}

// PatientInfo holds the patient details. Name is required for a complete
// booking; age and gender are optional.
type PatientInfo struct {
	Name   string `json:"name,omitempty"`
	Age    int    `json:"age,omitempty"`
	Gender string `json:"gender,omitempty"`
}

// PreferredTime holds the patient's preferred appointment time. Date is
// required; the time-of-day slot is optional.
type PreferredTime struct {
	Date     string `json:"date,omitempty"`
	TimeSlot string `json:"time_slot,omitempty"`
}

// Entities is the aggregate collected over a booking conversation.
type Entities struct {
	BookingType string `json:"booking_type,omitempty"`
	// RawBookingType marks a booking type that was accepted as given
	// because it matched nothing in the clinic catalog.
	RawBookingType bool          `json:"raw_booking_type,omitempty"`
	PatientInfo    PatientInfo   `json:"patient_info"`
	PolicyNumber   string        `json:"policy_number,omitempty"`
	AvailableTime  PreferredTime `json:"available_time"`
	PhoneNumber    string        `json:"phone_number,omitempty"`
}

// MissingFields returns the mandatory fields that are still unset, in the
// order the assistant should ask for them: appointment type, patient name,
// appointment date, policy number, phone number.
func (e *Entities) MissingFields() []Field {
	var missing []Field
	if e.BookingType == "" {
		missing = append(missing, FieldBookingType)
	}
	if e.PatientInfo.Name == "" {
		missing = append(missing, FieldPatientInfo)
	}
	if e.AvailableTime.Date == "" {
		missing = append(missing, FieldAvailableTime)
	}
	if e.PolicyNumber == "" {
		missing = append(missing, FieldPolicyNumber)
	}
	if e.PhoneNumber == "" {
		missing = append(missing, FieldPhoneNumber)
	}
	return missing
}

// IsComplete reports whether every mandatory field has been collected.
func (e *Entities) IsComplete() bool {
	return len(e.MissingFields()) == 0
}

// Map renders the entities as a plain map, the shape shared with the LLM
// prompts and the conversation summary.
func (e *Entities) Map() map[string]any {
	patient := map[string]any{}
	if e.PatientInfo.Name != "" {
		patient["name"] = e.PatientInfo.Name
	}
	if e.PatientInfo.Age > 0 {
		patient["age"] = e.PatientInfo.Age
	}
	if e.PatientInfo.Gender != "" {
		patient["gender"] = e.PatientInfo.Gender
	}

	preferred := map[string]any{}
	if e.AvailableTime.Date != "" {
		preferred["date"] = e.AvailableTime.Date
	}
	if e.AvailableTime.TimeSlot != "" {
		preferred["time_slot"] = e.AvailableTime.TimeSlot
	}

	return map[string]any{
		"booking_type":   e.BookingType,
		"patient_info":   patient,
		"policy_number":  e.PolicyNumber,
		"available_time": preferred,
		"phone_number":   e.PhoneNumber,
	}
}
