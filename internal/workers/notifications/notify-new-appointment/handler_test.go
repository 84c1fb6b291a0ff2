package notifynewappointment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/errors"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "clinic-notifications",
		ElementId:          "Activity_NotifyNewAppointment",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func validEnvelope() map[string]interface{} {
	return map[string]interface{}{
		"params": map[string]interface{}{
			"facilityId":       "fac-1",
			"specializationId": "spec-1",
			"doctorId":         "doc-1",
			"appointmentId":    "appt-1",
		},
		"document": map[string]interface{}{
			"patientName": "سارة",
			"date":        "2025-03-10",
			"time":        "14:30",
			"doctorName":  "أحمد",
		},
	}
}

func createTestHandler(t *testing.T, publisher Publisher) *Handler {
	h, err := NewHandler(HandlerOptions{
		CustomConfig: DefaultConfig(),
		Logger:       logger.NewTestLogger(t),
		Doctors:      &MockDoctors{},
		Publisher:    publisher,
	})
	require.NoError(t, err)
	return h
}

func TestHandler_NewHandler(t *testing.T) {
	_, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Logger: logger.NewNoOpLogger()})
	assert.Error(t, err, "publisher is required")

	_, err = NewHandler(HandlerOptions{
		CustomConfig: &Config{Enabled: true, MaxJobsActive: 0, Timeout: time.Second, Location: time.UTC},
		Publisher:    &MockPublisher{},
	})
	assert.Error(t, err)

	h, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Publisher: &MockPublisher{}})
	require.NoError(t, err)
	assert.Equal(t, TaskType, h.GetTaskType())
	assert.True(t, h.IsEnabled())
}

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t, &MockPublisher{})

	input, err := h.parseInput(createMockJob(1, validEnvelope()))
	require.NoError(t, err)
	assert.Equal(t, "fac-1", input.FacilityID)
	assert.Equal(t, "spec-1", input.SpecializationID)
	assert.Equal(t, "doc-1", input.DoctorID)
	assert.Equal(t, "appt-1", input.AppointmentID)
	assert.Equal(t, "سارة", input.Appointment.PatientName)
	assert.Equal(t, "أحمد", input.Appointment.DoctorName)

	bad := validEnvelope()
	delete(bad["params"].(map[string]interface{}), "doctorId")
	_, err = h.parseInput(createMockJob(2, bad))
	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeInvalidEvent), errors.CodeOf(err))
}

func TestHandler_HandleEvent(t *testing.T) {
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(n models.PushNotification) bool {
		return n.Topic == "doctor_doc-1"
	})).Return("msg-1", nil).Once()

	h := createTestHandler(t, publisher)
	body, _ := json.Marshal(validEnvelope())

	require.NoError(t, h.HandleEvent(context.Background(), body))
	publisher.AssertExpectations(t)
}

func TestHandler_HandleEvent_Invalid(t *testing.T) {
	publisher := &MockPublisher{}
	h := createTestHandler(t, publisher)

	err := h.HandleEvent(context.Background(), []byte(`{"document":{}}`))

	require.Error(t, err)
	assert.Equal(t, string(errors.ErrCodeInvalidEvent), errors.CodeOf(err))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appCfg := &config.Config{
		App: config.AppConfig{Timezone: "Asia/Riyadh"},
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: false, MaxJobsActive: 9, Timeout: 5000},
		},
	}

	cfg, err := createConfigFromAppConfig(appCfg, nil)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 9, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "Asia/Riyadh", cfg.Location.String())

	appCfg.App.Timezone = "Mars/Olympus"
	_, err = createConfigFromAppConfig(appCfg, nil)
	assert.Error(t, err)
}

func TestOutputVariables(t *testing.T) {
	vars := outputVariables(&Output{Status: StatusFailed, Topic: "doctor_1", Error: "boom"})
	assert.Equal(t, map[string]interface{}{
		"notificationStatus": "failed",
		"notificationTopic":  "doctor_1",
		"notificationError":  "boom",
	}, vars)
}
