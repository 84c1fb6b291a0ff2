package sendtomorrowreminders

import (
	"fmt"
	"strings"
)

const (
	reminderWithDoctor = "تذكير: لديك موعد غداً مع د. %s. نرجو الحضور قبل الموعد بـ 10 دقائق."
	reminderNoDoctor   = "تذكير: لديك موعد غداً. نرجو الحضور قبل الموعد بـ 10 دقائق."
)

// ReminderMessage is the chat text sent for one appointment.
func ReminderMessage(doctorName string) string {
	if strings.TrimSpace(doctorName) == "" {
		return reminderNoDoctor
	}
	return fmt.Sprintf(reminderWithDoctor, doctorName)
}
