package notifyhomeclinicrequest

import (
	"context"
	"errors"
	"testing"

	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, n models.PushNotification) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

func TestBuildNotification_LegacyFieldNames(t *testing.T) {
	doc := models.Document{
		"name":       "Huda",
		"phone":      "0550000000",
		"service":    "physiotherapy",
		"centerName": "Care Center",
	}
	n := BuildNotification(&Input{RequestID: "r-1", Request: models.HomeClinicRequestFromDocument(doc)})

	assert.Equal(t, "home_clinic_requests", n.Topic)
	assert.Equal(t, "طلب عيادة منزلية جديد", n.Title)
	assert.Equal(t, "المريض: Huda - الهاتف: 0550000000 - الخدمة: physiotherapy - مقدم الخدمة: Care Center", n.Body)
	assert.Equal(t, "Care Center", n.Data["providerName"])
	assert.Equal(t, "Care Center", n.Data["centerName"])
	assert.Equal(t, "new_home_clinic_request", n.Data["type"])
	assert.Equal(t, "r-1", n.Data["requestId"])
}

func TestBuildNotification_PrefersCurrentFieldNames(t *testing.T) {
	doc := models.Document{
		"patientName":  "Huda",
		"name":         "ignored",
		"providerName": "Dr. Home",
		"centerName":   "Old Center",
	}
	n := BuildNotification(&Input{RequestID: "r-2", Request: models.HomeClinicRequestFromDocument(doc)})

	assert.Equal(t, "Huda", n.Data["patientName"])
	assert.Equal(t, "Dr. Home", n.Data["providerName"])
	assert.Equal(t, "Dr. Home", n.Data["centerName"])
	assert.Equal(t, "غير معروف", n.Data["patientPhone"])
	assert.Equal(t, "غير معروف", n.Data["serviceType"])
}

func TestService_Execute(t *testing.T) {
	tests := []struct {
		name       string
		publishErr error
		wantStatus string
	}{
		{name: "published", wantStatus: StatusPublished},
		{name: "publish failure is swallowed", publishErr: errors.New("sns down"), wantStatus: StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &MockPublisher{}
			messageID := "msg-1"
			if tt.publishErr != nil {
				messageID = ""
			}
			pub.On("Publish", mock.Anything, mock.MatchedBy(func(n models.PushNotification) bool {
				return n.Topic == Topic
			})).Return(messageID, tt.publishErr).Once()

			svc := NewService(ServiceDependencies{Logger: logger.NewTestLogger(t), Publisher: pub})
			out, err := svc.Execute(context.Background(), &Input{RequestID: "r-1"})

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out.Status)
			pub.AssertExpectations(t)
		})
	}
}

func TestHandler_HandleEvent_RequiresRequestID(t *testing.T) {
	pub := &MockPublisher{}
	h, err := NewHandler(HandlerOptions{CustomConfig: DefaultConfig(), Logger: logger.NewNoOpLogger(), Publisher: pub})
	require.NoError(t, err)
	assert.Equal(t, "notify-home-clinic-request", h.GetTaskType())

	err = h.HandleEvent(context.Background(), []byte(`{"params":{"patientId":"x"},"document":{}}`))
	assert.Error(t, err)
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}
