package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	// Friday 2026-08-28 in the clinic timezone
	return time.Date(2026, 8, 28, 10, 30, 0, 0, time.FixedZone("HKT", 8*3600))
}

func testValidator() *Validator {
	return New([]string{"內科", "外科", "皮膚科", "身體檢查"}, fixedClock)
}

func TestPhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"plain eight digits", "91234567", "91234567", true},
		{"landline", "21234567", "21234567", true},
		{"plus country code", "+852 9123 4567", "91234567", true},
		{"bare country code", "85291234567", "91234567", true},
		{"dashes", "9123-4567", "91234567", true},
		{"leading zero", "01234567", "", false},
		{"leading one", "11234567", "", false},
		{"seven digits", "9123456", "", false},
		{"nine digits", "912345678", "", false},
		{"letters", "9123456a", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Phone(tt.input)
			assert.Equal(t, tt.ok, res.OK())
			if tt.ok {
				assert.Equal(t, AcceptedCanonical, res.Status)
				assert.Equal(t, tt.want, res.Value)
			} else {
				assert.NotEmpty(t, res.Err)
			}
		})
	}
}

func TestPolicyNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"six chars lower bound", "abc123", "ABC123", true},
		{"twenty chars upper bound", "A1234567890123456789", "A1234567890123456789", true},
		{"lowercase normalised", "hk12345678", "HK12345678", true},
		{"five chars", "AB123", "", false},
		{"twenty-one chars", "A12345678901234567890", "", false},
		{"symbols", "AB-12345", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := PolicyNumber(tt.input)
			assert.Equal(t, tt.ok, res.OK())
			if tt.ok {
				assert.Equal(t, tt.want, res.Value)
			}
		})
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"two han chars", "陳明", true},
		{"ten han chars", "歐陽歐陽歐陽歐陽歐陽", true},
		{"one han char", "陳", false},
		{"eleven han chars", "歐陽歐陽歐陽歐陽歐陽歐", false},
		{"latin too long", "Chan Tai Man", false}, // 12 runes
		{"latin with space", "Amy Chan", true},
		{"mixed scripts", "陳Ming", false},
		{"digits", "陳2明", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Name(tt.input)
			assert.Equal(t, tt.ok, res.OK(), "input %q", tt.input)
		})
	}
}

func TestAge(t *testing.T) {
	assert.True(t, Age(0).OK())
	assert.True(t, Age(150).OK())
	assert.False(t, Age(-1).OK())
	assert.False(t, Age(151).OK())
}

func TestGender(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"男", "男", true},
		{"女", "女", true},
		{"其他", "其他", true},
		{"male", "男", true},
		{"M", "男", true},
		{"female", "女", true},
		{"f", "女", true},
		{"other", "其他", true},
		{"", "", true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		res := Gender(tt.input)
		assert.Equal(t, tt.ok, res.OK(), "input %q", tt.input)
		if tt.ok {
			assert.Equal(t, tt.want, res.Value)
		}
	}
}

func TestTimeSlot(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		status Status
	}{
		{"上午", "上午", AcceptedCanonical},
		{"早上", "上午", AcceptedCanonical},
		{"morning", "上午", AcceptedCanonical},
		{"聽日早晨", "上午", AcceptedCanonical},
		{"下午", "下午", AcceptedCanonical},
		{"中午", "下午", AcceptedCanonical},
		{"afternoon", "下午", AcceptedCanonical},
		{"晚上", "晚上", AcceptedCanonical},
		{"夜晚", "晚上", AcceptedCanonical},
		{"evening", "晚上", AcceptedCanonical},
		{"10點", "上午", AcceptedCanonical},
		{"14:00", "下午", AcceptedCanonical},
		{"19:30", "晚上", AcceptedCanonical},
		{"22:00", "22:00", AcceptedRaw},
		{"隨便", "隨便", AcceptedRaw},
	}

	for _, tt := range tests {
		res := TimeSlot(tt.input)
		assert.Equal(t, tt.status, res.Status, "input %q", tt.input)
		assert.Equal(t, tt.want, res.Value, "input %q", tt.input)
	}

	t.Run("empty rejected", func(t *testing.T) {
		assert.False(t, TimeSlot("  ").OK())
	})
}

func TestAppointmentType(t *testing.T) {
	v := testValidator()

	t.Run("exact catalog match", func(t *testing.T) {
		res := v.AppointmentType("內科")
		assert.Equal(t, AcceptedCanonical, res.Status)
		assert.Equal(t, "內科", res.Value)
	})

	t.Run("input containing catalog entry", func(t *testing.T) {
		res := v.AppointmentType("想預約內科門診")
		assert.Equal(t, AcceptedCanonical, res.Status)
		assert.Equal(t, "內科", res.Value)
	})

	t.Run("input contained in catalog entry", func(t *testing.T) {
		res := v.AppointmentType("皮膚")
		assert.Equal(t, AcceptedCanonical, res.Status)
		assert.Equal(t, "皮膚科", res.Value)
	})

	t.Run("unknown type accepted raw", func(t *testing.T) {
		res := v.AppointmentType("中醫針灸")
		assert.Equal(t, AcceptedRaw, res.Status)
		assert.Equal(t, "中醫針灸", res.Value)
	})

	t.Run("empty rejected", func(t *testing.T) {
		assert.False(t, v.AppointmentType("  ").OK())
	})
}

func TestDateExpression(t *testing.T) {
	v := testValidator()

	tests := []struct {
		name   string
		input  string
		want   string
		status Status
	}{
		{"today", "今天", "2026-08-28", AcceptedCanonical},
		{"today alt", "今日", "2026-08-28", AcceptedCanonical},
		{"today english", "Today", "2026-08-28", AcceptedCanonical},
		{"tomorrow", "明天", "2026-08-29", AcceptedCanonical},
		{"day after tomorrow", "後天", "2026-08-30", AcceptedCanonical},
		{"next week", "下週", "2026-09-04", AcceptedCanonical},
		{"iso already padded", "2026-09-01", "2026-09-01", AcceptedCanonical},
		{"iso unpadded", "2026-9-1", "2026-09-01", AcceptedCanonical},
		{"chinese month day", "9月1日", "2026-09-01", AcceptedCanonical},
		{"slash month day", "9/1", "2026-09-01", AcceptedCanonical},
		{"relative inside phrase", "想約明天", "2026-08-29", AcceptedCanonical},
		{"compound term wins over contained one", "day after tomorrow", "2026-08-30", AcceptedCanonical},
		{"free-form echoed", "下星期三", "下星期三", AcceptedRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.DateExpression(tt.input)
			require.True(t, res.OK())
			assert.Equal(t, tt.status, res.Status)
			assert.Equal(t, tt.want, res.Value)
		})
	}

	t.Run("empty rejected", func(t *testing.T) {
		assert.False(t, v.DateExpression("").OK())
	})
}

func TestPatientInfoComposite(t *testing.T) {
	v := testValidator()

	t.Run("all valid normalises in place", func(t *testing.T) {
		fields := map[string]any{"name": " 陳大文 ", "age": float64(36), "gender": "male"}
		ok, errs := v.PatientInfo(fields)
		require.True(t, ok)
		assert.Empty(t, errs)
		assert.Equal(t, "陳大文", fields["name"])
		assert.Equal(t, 36, fields["age"])
		assert.Equal(t, "男", fields["gender"])
	})

	t.Run("one bad field does not block siblings", func(t *testing.T) {
		fields := map[string]any{"name": "陳大文", "age": float64(200)}
		ok, errs := v.PatientInfo(fields)
		assert.False(t, ok)
		require.Len(t, errs, 1)
		assert.Contains(t, errs[0], "age:")
		assert.Equal(t, "陳大文", fields["name"])
		_, present := fields["age"]
		assert.False(t, present, "rejected sub-field should be removed")
	})

	t.Run("empty sub-fields skipped", func(t *testing.T) {
		fields := map[string]any{"name": "", "gender": nil}
		ok, errs := v.PatientInfo(fields)
		assert.True(t, ok)
		assert.Empty(t, errs)
	})
}

func TestPreferredTimeComposite(t *testing.T) {
	v := testValidator()

	fields := map[string]any{"date": "明天", "time_slot": "morning"}
	ok, errs := v.PreferredTime(fields)
	require.True(t, ok)
	assert.Empty(t, errs)
	assert.Equal(t, "2026-08-29", fields["date"])
	assert.Equal(t, "上午", fields["time_slot"])

	fields = map[string]any{"date": "今天", "time_slot": "半夜三更"}
	ok, errs = v.PreferredTime(fields)
	require.True(t, ok)
	assert.Empty(t, errs)
	assert.Equal(t, "2026-08-28", fields["date"])
	// unmapped time-of-day text is kept as given
	assert.Equal(t, "半夜三更", fields["time_slot"])
}
