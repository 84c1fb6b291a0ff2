package notifynewappointment

import (
	"testing"
	"time"

	"clinic-notify-workers/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestRelativeDayLabel(t *testing.T) {
	loc := riyadh(t)
	// Sunday 2025-03-09
	now := time.Date(2025, 3, 9, 22, 0, 0, 0, loc)

	assert.Equal(t, "اليوم", RelativeDayLabel(time.Date(2025, 3, 9, 8, 0, 0, 0, loc), now, loc))
	assert.Equal(t, "غداً", RelativeDayLabel(time.Date(2025, 3, 10, 8, 0, 0, 0, loc), now, loc))

	want := map[int]string{
		2: "الثلاثاء",
		3: "الأربعاء",
		4: "الخميس",
		5: "الجمعة",
		6: "السبت",
		7: "الأحد",
		8: "الاثنين",
	}
	for offset, label := range want {
		d := time.Date(2025, 3, 9+offset, 12, 0, 0, 0, loc)
		assert.Equal(t, label, RelativeDayLabel(d, now, loc), "offset %d", offset)
	}

	// past dates fall through to the weekday name
	assert.Equal(t, "السبت", RelativeDayLabel(time.Date(2025, 3, 8, 12, 0, 0, 0, loc), now, loc))
}

func TestPeriodLabel(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		if hour < 12 {
			assert.Equal(t, "صباحاً", PeriodLabel(hour), "hour %d", hour)
		} else {
			assert.Equal(t, "مساءً", PeriodLabel(hour), "hour %d", hour)
		}
	}
}

func TestBuildNotification_TomorrowAfternoon(t *testing.T) {
	loc := riyadh(t)
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, loc)

	n := BuildNotification(createTestInput(models.Appointment{
		PatientName: "سارة",
		Date:        "2025-03-10",
		Time:        "14:30",
	}), "أحمد", now, loc)

	assert.Equal(t, "doctor_doc-1", n.Topic)
	assert.Equal(t, "حجز جديد لدى د. أحمد", n.Title)
	assert.Equal(t, "المريض سارة - غداً - 2025/03/10 - 14:30 (مساءً)", n.Body)
	assert.Equal(t, map[string]string{
		"type":          "new_appointment",
		"doctorId":      "doc-1",
		"appointmentId": "appt-1",
		"date":          "2025-03-10",
		"time":          "14:30",
		"doctorName":    "أحمد",
	}, n.Data)
}

func TestBuildNotification_UnparseableFallsBackToRaw(t *testing.T) {
	loc := riyadh(t)
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, loc)

	n := BuildNotification(createTestInput(models.Appointment{
		PatientName: "سارة",
		Date:        "الاثنين القادم",
		Time:        "بعد الظهر",
	}), "", now, loc)

	assert.Equal(t, "حجز جديد", n.Title)
	assert.Equal(t, "المريض سارة - الاثنين القادم - بعد الظهر", n.Body)
}

func TestBuildNotification_RawFallbacks(t *testing.T) {
	loc := riyadh(t)
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, loc)

	tests := []struct {
		name     string
		date     string
		time     string
		wantBody string
	}{
		{name: "out of range clock keeps digits", date: "قريباً", time: "25:99", wantBody: "المريض سارة - قريباً - 25:99 (مساءً)"},
		{name: "date only unparseable", date: "قريباً", wantBody: "المريض سارة - قريباً"},
		{name: "nothing to print", wantBody: "المريض سارة"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := BuildNotification(createTestInput(models.Appointment{
				PatientName: "سارة",
				Date:        tt.date,
				Time:        tt.time,
			}), "", now, loc)
			assert.Equal(t, tt.wantBody, n.Body)
		})
	}
}

func TestBuildNotification_TimeOnlyUsesToday(t *testing.T) {
	loc := riyadh(t)
	now := time.Date(2025, 3, 9, 10, 0, 0, 0, loc)

	n := BuildNotification(createTestInput(models.Appointment{Time: "9:05"}), "", now, loc)

	assert.Equal(t, "المريض مريض - اليوم - 2025/03/09 - 09:05 (صباحاً)", n.Body)
}
