package availability

import (
	"fmt"
	"strings"
)

// FormatSlots renders a slot list as the numbered menu shown to the
// patient.
func FormatSlots(slots []Slot) string {
	if len(slots) == 0 {
		return "目前沒有可預約的時段。"
	}

	var b strings.Builder
	b.WriteString("為您找到以下可預約時段：\n\n")
	for i, s := range slots {
		fmt.Fprintf(&b, "%d. %s - %s\n   日期：%s  時間：%s-%s\n",
			i+1, s.DoctorName, s.Specialty, s.Date, s.StartTime, s.EndTime)
	}
	b.WriteString("\n請回覆時段編號（例如：1）進行預約。")
	return b.String()
}
