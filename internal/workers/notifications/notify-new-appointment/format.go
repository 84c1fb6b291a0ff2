package notifynewappointment

import (
	"fmt"
	"strings"
	"time"

	"clinic-notify-workers/internal/common/datetime"
	"clinic-notify-workers/internal/models"
)

const (
	placeholderPatient = "مريض"
	labelToday         = "اليوم"
	labelTomorrow      = "غداً"
	periodMorning      = "صباحاً"
	periodEvening      = "مساءً"
	titleGeneric       = "حجز جديد"
	titleWithDoctor    = "حجز جديد لدى د. %s"
	notificationType   = "new_appointment"
)

// Sunday first, matching time.Weekday.
var weekdayNames = [7]string{"الأحد", "الاثنين", "الثلاثاء", "الأربعاء", "الخميس", "الجمعة", "السبت"}

// TopicFor is the per-doctor push topic.
func TopicFor(doctorID string) string {
	return "doctor_" + doctorID
}

// RelativeDayLabel names d relative to now: today, tomorrow, or its weekday.
func RelativeDayLabel(d, now time.Time, loc *time.Location) string {
	switch datetime.DayDiff(d, now, loc) {
	case 0:
		return labelToday
	case 1:
		return labelTomorrow
	default:
		return weekdayNames[d.In(loc).Weekday()]
	}
}

func PeriodLabel(hour int) string {
	if hour < 12 {
		return periodMorning
	}
	return periodEvening
}

type formatted struct {
	relative string
	date     string
	time     string
	period   string
}

// formatSchedule renders the appointment's date and time. Without a resolved
// instant it falls back to the raw date and a best-effort split of the raw
// time. A raw time with no leading digits is printed as written, with no
// period.
func formatSchedule(rawDate, rawTime string, now time.Time, loc *time.Location) formatted {
	if at, ok := datetime.Resolve(rawDate, rawTime, now, loc); ok {
		at = at.In(loc)
		return formatted{
			relative: RelativeDayLabel(at, now, loc),
			date:     at.Format("2006/01/02"),
			time:     fmt.Sprintf("%02d:%02d", at.Hour(), at.Minute()),
			period:   PeriodLabel(at.Hour()),
		}
	}

	h, m, ok := datetime.LooseClock(rawTime)
	if !ok {
		return formatted{date: strings.TrimSpace(rawDate), time: strings.TrimSpace(rawTime)}
	}
	return formatted{
		date:   strings.TrimSpace(rawDate),
		time:   fmt.Sprintf("%02d:%02d", h, m),
		period: PeriodLabel(h),
	}
}

func (f formatted) String() string {
	parts := make([]string, 0, 3)
	if f.relative != "" {
		parts = append(parts, f.relative)
	}
	if f.date != "" {
		parts = append(parts, f.date)
	}
	switch {
	case f.time != "" && f.period != "":
		parts = append(parts, fmt.Sprintf("%s (%s)", f.time, f.period))
	case f.time != "":
		parts = append(parts, f.time)
	}
	return strings.Join(parts, " - ")
}

// BuildNotification composes the push message for a new appointment.
func BuildNotification(input *Input, doctorName string, now time.Time, loc *time.Location) models.PushNotification {
	appt := input.Appointment

	patient := appt.PatientName
	if strings.TrimSpace(patient) == "" {
		patient = placeholderPatient
	}

	title := titleGeneric
	if doctorName != "" {
		title = fmt.Sprintf(titleWithDoctor, doctorName)
	}

	body := "المريض " + patient
	if schedule := formatSchedule(appt.Date, appt.Time, now, loc).String(); schedule != "" {
		body += " - " + schedule
	}

	return models.PushNotification{
		Topic: TopicFor(input.DoctorID),
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":          notificationType,
			"doctorId":      input.DoctorID,
			"appointmentId": input.AppointmentID,
			"date":          appt.Date,
			"time":          appt.Time,
			"doctorName":    doctorName,
		},
	}
}
