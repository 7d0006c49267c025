package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	t.Run("empty aggregate misses everything in priority order", func(t *testing.T) {
		e := &Entities{}
		assert.Equal(t, []Field{
			FieldBookingType,
			FieldPatientInfo,
			FieldAvailableTime,
			FieldPolicyNumber,
			FieldPhoneNumber,
		}, e.MissingFields())
		assert.False(t, e.IsComplete())
	})

	t.Run("age and gender alone do not satisfy patient info", func(t *testing.T) {
		e := &Entities{PatientInfo: PatientInfo{Age: 30, Gender: "男"}}
		assert.Contains(t, e.MissingFields(), FieldPatientInfo)
	})

	t.Run("time slot alone does not satisfy available time", func(t *testing.T) {
		e := &Entities{AvailableTime: PreferredTime{TimeSlot: "上午"}}
		assert.Contains(t, e.MissingFields(), FieldAvailableTime)
	})

	t.Run("complete aggregate", func(t *testing.T) {
		e := &Entities{
			BookingType:   "內科",
			PatientInfo:   PatientInfo{Name: "陳大文"},
			PolicyNumber:  "HK12345678",
			AvailableTime: PreferredTime{Date: "2026-09-01"},
			PhoneNumber:   "91234567",
		}
		assert.Empty(t, e.MissingFields())
		assert.True(t, e.IsComplete())
	})
}

func TestEntitiesMap(t *testing.T) {
	e := &Entities{
		BookingType:   "內科",
		PatientInfo:   PatientInfo{Name: "陳大文", Age: 36},
		AvailableTime: PreferredTime{Date: "2026-09-01", TimeSlot: "上午"},
	}

	m := e.Map()
	assert.Equal(t, "內科", m["booking_type"])
	assert.Equal(t, map[string]any{"name": "陳大文", "age": 36}, m["patient_info"])
	assert.Equal(t, map[string]any{"date": "2026-09-01", "time_slot": "上午"}, m["available_time"])
	assert.Equal(t, "", m["phone_number"])
}

func TestFieldLabel(t *testing.T) {
	assert.Equal(t, "預約類型", FieldBookingType.Label())
	assert.Equal(t, "患者姓名", FieldPatientInfo.Label())
	assert.Equal(t, "電話號碼", FieldPhoneNumber.Label())
}
