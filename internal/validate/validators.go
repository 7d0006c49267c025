// Package validate implements field validation for clinic booking entities:
// Hong Kong phone numbers, policy numbers, patient details, and the date and
// time-of-day expressions patients use in chat.
package validate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	phoneSeparatorRE = regexp.MustCompile(`[\s\-]`)
	hkPrefixRE       = regexp.MustCompile(`^(\+852|852)`)
	hkPhoneRE        = regexp.MustCompile(`^[2-9]\d{7}$`)
	policyRE         = regexp.MustCompile(`^[A-Za-z0-9]{6,20}$`)
	hanNameRE        = regexp.MustCompile(`^\p{Han}+$`)
	latinNameRE      = regexp.MustCompile(`^[A-Za-z][A-Za-z ]*$`)
	isoDateRE        = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	cnDateRE         = regexp.MustCompile(`^(\d{1,2})月(\d{1,2})日$`)
	slashDateRE      = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})$`)
	hourRE           = regexp.MustCompile(`\d{1,2}`)
)

const (
	MorningSlot   = "上午"
	AfternoonSlot = "下午"
	EveningSlot   = "晚上"
)

// relative date expressions mapped to a day offset from the clinic clock.
// Matched by containment in order, so "day after tomorrow" wins over the
// "tomorrow" it contains.
var relativeDates = []struct {
	token  string
	offset int
}{
	{"後天", 2},
	{"后天", 2},
	{"day after tomorrow", 2},
	{"今天", 0},
	{"今日", 0},
	{"today", 0},
	{"明天", 1},
	{"明日", 1},
	{"tomorrow", 1},
	{"下週", 7},
	{"下周", 7},
	{"next week", 7},
}

// time-of-day synonyms checked in order; containment, not equality, so that
// phrases like "聽日上午" still resolve
var timeSlotSynonyms = []struct {
	token string
	slot  string
}{
	{MorningSlot, MorningSlot},
	{"早上", MorningSlot},
	{"早晨", MorningSlot},
	{"morning", MorningSlot},
	{"中午", AfternoonSlot},
	{AfternoonSlot, AfternoonSlot},
	{"afternoon", AfternoonSlot},
	{"noon", AfternoonSlot},
	{EveningSlot, EveningSlot},
	{"夜晚", EveningSlot},
	{"evening", EveningSlot},
	{"night", EveningSlot},
}

// ---------- context-free validators ----------

// Phone validates a Hong Kong phone number. Spaces, dashes, and a leading
// +852/852 country code are stripped; the remainder must be eight digits
// starting with 2-9.
func Phone(input string) Result {
	cleaned := phoneSeparatorRE.ReplaceAllString(strings.TrimSpace(input), "")
	cleaned = hkPrefixRE.ReplaceAllString(cleaned, "")
	if !hkPhoneRE.MatchString(cleaned) {
		return rejected("電話號碼無效，請提供8位香港電話號碼（首位為2-9）")
	}
	return canonical(cleaned)
}

// PolicyNumber validates an insurance policy number: 6-20 alphanumeric
// characters, normalised to upper case.
func PolicyNumber(input string) Result {
	trimmed := strings.TrimSpace(input)
	if !policyRE.MatchString(trimmed) {
		return rejected("保單號碼無效，應為6-20位英文字母或數字")
	}
	return canonical(strings.ToUpper(trimmed))
}

// Name validates a patient name: 2-10 characters, either all Chinese or all
// Latin letters (spaces allowed between Latin words).
func Name(input string) Result {
	trimmed := strings.TrimSpace(input)
	length := len([]rune(trimmed))
	if length < 2 || length > 10 {
		return rejected("姓名長度應為2-10個字符")
	}
	if hanNameRE.MatchString(trimmed) || latinNameRE.MatchString(trimmed) {
		return canonical(trimmed)
	}
	return rejected("姓名只可包含中文或英文字母")
}

// Age validates a patient age in years.
func Age(age int) Result {
	if age < 0 || age > 150 {
		return rejected("年齡應為0-150之間的數字")
	}
	return canonical(strconv.Itoa(age))
}

// Gender validates a gender token. The canonical values are 男/女/其他;
// common English synonyms normalise onto them. Empty input is accepted
// because gender is optional.
func Gender(input string) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return canonical("")
	}
	switch trimmed {
	case "男", "女", "其他":
		return canonical(trimmed)
	}
	switch strings.ToLower(trimmed) {
	case "male", "m":
		return canonical("男")
	case "female", "f":
		return canonical("女")
	case "other":
		return canonical("其他")
	}
	return rejected("性別應為：男、女或其他")
}

// TimeSlot normalises a time-of-day expression to 上午/下午/晚上. Free-form
// phrases are matched by synonym containment first, then by the first hour
// number found in the text; anything else is echoed back raw so the
// availability filters can decide what to do with it.
func TimeSlot(input string) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return rejected("請提供時段：上午、下午或晚上")
	}

	lowered := strings.ToLower(trimmed)
	for _, syn := range timeSlotSynonyms {
		if strings.Contains(lowered, syn.token) {
			return canonical(syn.slot)
		}
	}

	if digits := hourRE.FindString(trimmed); digits != "" {
		hour, err := strconv.Atoi(digits)
		if err == nil {
			switch {
			case hour >= 9 && hour < 12:
				return canonical(MorningSlot)
			case hour >= 12 && hour < 18:
				return canonical(AfternoonSlot)
			case hour >= 18 && hour < 21:
				return canonical(EveningSlot)
			}
		}
	}

	return raw(trimmed)
}

// ---------- catalog/clock-bound validators ----------

// Validator validates fields that depend on injected context: the clinic's
// appointment-type catalog and the clock used to resolve relative dates.
type Validator struct {
	appointmentTypes []string
	now              func() time.Time
}

// New builds a Validator over the given appointment-type catalog. A nil
// clock defaults to time.Now.
func New(appointmentTypes []string, now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{
		appointmentTypes: appointmentTypes,
		now:              now,
	}
}

// AppointmentType matches an appointment type against the catalog by
// substring in either direction, normalising to the catalog entry. Types
// outside the catalog are accepted raw so that the clinic can review them.
func (v *Validator) AppointmentType(input string) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return rejected("請提供預約類型")
	}
	for _, known := range v.appointmentTypes {
		if strings.Contains(trimmed, known) || strings.Contains(known, trimmed) {
			return canonical(known)
		}
	}
	return raw(trimmed)
}

// DateExpression normalises a date expression to YYYY-MM-DD. Relative terms
// (今天/明天/後天/下週 and their English forms) resolve against the injected
// clock; explicit YYYY-MM-DD, M月D日, and M/D forms are zero-padded, the
// latter two assuming the current year. Anything else is echoed back raw
// for the availability layer's substring matching.
func (v *Validator) DateExpression(input string) Result {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return rejected("請提供預約日期")
	}

	today := v.now()
	lowered := strings.ToLower(trimmed)
	for _, rel := range relativeDates {
		if strings.Contains(lowered, rel.token) {
			return canonical(today.AddDate(0, 0, rel.offset).Format("2006-01-02"))
		}
	}

	if m := isoDateRE.FindStringSubmatch(trimmed); m != nil {
		return canonical(formatDate(atoi(m[1]), atoi(m[2]), atoi(m[3])))
	}
	if m := cnDateRE.FindStringSubmatch(trimmed); m != nil {
		return canonical(formatDate(today.Year(), atoi(m[1]), atoi(m[2])))
	}
	if m := slashDateRE.FindStringSubmatch(trimmed); m != nil {
		return canonical(formatDate(today.Year(), atoi(m[1]), atoi(m[2])))
	}

	return raw(trimmed)
}

// ---------- composite validators ----------

// PatientInfo validates the name/age/gender sub-fields of a patient-info
// map, writing normalised values back in place and removing rejected ones.
// Sub-fields are independent: one failing does not stop the others from
// being normalised.
func (v *Validator) PatientInfo(fields map[string]any) (bool, []string) {
	var errs []string

	if value, ok := fields["name"]; ok && !isEmpty(value) {
		if res := Name(asString(value)); res.OK() {
			fields["name"] = res.Value
		} else {
			delete(fields, "name")
			errs = append(errs, "name: "+res.Err)
		}
	}
	if value, ok := fields["age"]; ok && !isEmpty(value) {
		age, convErr := asInt(value)
		if convErr != nil {
			delete(fields, "age")
			errs = append(errs, "age: 年齡應為數字")
		} else if res := Age(age); res.OK() {
			fields["age"] = age
		} else {
			delete(fields, "age")
			errs = append(errs, "age: "+res.Err)
		}
	}
	if value, ok := fields["gender"]; ok && !isEmpty(value) {
		if res := Gender(asString(value)); res.OK() {
			fields["gender"] = res.Value
		} else {
			delete(fields, "gender")
			errs = append(errs, "gender: "+res.Err)
		}
	}

	return len(errs) == 0, errs
}

// PreferredTime validates the date/time_slot sub-fields of a preferred-time
// map, writing normalised values back in place and removing rejected ones.
func (v *Validator) PreferredTime(fields map[string]any) (bool, []string) {
	var errs []string

	if value, ok := fields["date"]; ok && !isEmpty(value) {
		if res := v.DateExpression(asString(value)); res.OK() {
			fields["date"] = res.Value
		} else {
			delete(fields, "date")
			errs = append(errs, "date: "+res.Err)
		}
	}
	if value, ok := fields["time_slot"]; ok && !isEmpty(value) {
		if res := TimeSlot(asString(value)); res.OK() {
			fields["time_slot"] = res.Value
		} else {
			delete(fields, "time_slot")
			errs = append(errs, "time_slot: "+res.Err)
		}
	}

	return len(errs) == 0, errs
}

// ---------- helpers ----------

func formatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func asString(value any) string {
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

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("validate: not a number: %v", value)
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	default:
		return false
	}
}
