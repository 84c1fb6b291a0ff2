package sendtomorrowreminders

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/docstore"
	"clinic-notify-workers/internal/common/gateway"
	commonhttp "clinic-notify-workers/internal/common/http"
	"clinic-notify-workers/internal/common/logger"
	"clinic-notify-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Fakes
// ==========================

// memoryStore applies the same filter as the real backends.
type memoryStore struct {
	mu       sync.Mutex
	records  []models.ScheduledAppointment
	listErr  error
	markErr  map[string]error
	listCall int
}

func (m *memoryStore) ListPendingReminders(_ context.Context) ([]models.ScheduledAppointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCall++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []models.ScheduledAppointment
	for _, r := range m.records {
		if r.Status == models.StatusScheduled && !r.ReminderSent {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memoryStore) MarkReminderSent(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.markErr[id]; err != nil {
		return err
	}
	for i := range m.records {
		if m.records[i].ID == id && !m.records[i].ReminderSent {
			now := time.Now()
			m.records[i].ReminderSent = true
			m.records[i].ReminderSentAt = &now
			return nil
		}
	}
	return docstore.ErrNoPendingRecord
}

func (m *memoryStore) get(id string) models.ScheduledAppointment {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			return r
		}
	}
	return models.ScheduledAppointment{}
}

type sentChat struct {
	To   string
	Body string
}

type fakeSender struct {
	sent   []sentChat
	failTo map[string]error
}

func (f *fakeSender) SendChat(_ context.Context, to, body string) error {
	if err := f.failTo[to]; err != nil {
		return err
	}
	f.sent = append(f.sent, sentChat{To: to, Body: body})
	return nil
}

type fakeLocker struct {
	acquired bool
	err      error
	released bool
}

func (f *fakeLocker) Acquire(context.Context) (func(context.Context) error, bool, error) {
	if f.err != nil || !f.acquired {
		return nil, false, f.err
	}
	return func(context.Context) error { f.released = true; return nil }, true, nil
}

type fakeMailer struct {
	subject string
	body    string
	to      []string
}

func (f *fakeMailer) SendText(_ context.Context, _ string, to []string, subject, body string) (string, error) {
	f.to, f.subject, f.body = to, subject, body
	return "mail-1", nil
}

// ==========================
// Helpers
// ==========================

func riyadh(t *testing.T) *time.Location {
	loc, err := time.LoadLocation("Asia/Riyadh")
	require.NoError(t, err)
	return loc
}

func createTestService(t *testing.T, deps ServiceDependencies, now time.Time) *Service {
	cfg := DefaultConfig()
	cfg.Location = now.Location()
	if deps.Logger == nil {
		deps.Logger = logger.NewTestLogger(t)
	}
	svc := NewService(deps, cfg)
	svc.now = func() time.Time { return now }
	return svc
}

func pending(id, date, phone, doctor string) models.ScheduledAppointment {
	return models.ScheduledAppointment{
		ID:              id,
		AppointmentDate: date,
		PatientPhone:    phone,
		DoctorName:      doctor,
		Status:          models.StatusScheduled,
	}
}

// ==========================
// Tests
// ==========================

func TestRun_SendsReminderThroughGateway(t *testing.T) {
	var got url.Values
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		got, _ = url.ParseQuery(string(raw))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"sent":"true"}`))
	}))
	defer server.Close()

	client := gateway.NewClient(config.GatewayConfig{
		BaseURL:    server.URL,
		InstanceID: "instance1",
		Token:      "secret",
	}, commonhttp.NewClientWith(server.Client()))

	store := &memoryStore{records: []models.ScheduledAppointment{
		pending("rec-1", "2025-01-02", "+15551234567", "Sami"),
	}}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))
	svc := createTestService(t, ServiceDependencies{Store: store, Sender: client}, now)

	out, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "2025-01-02", out.Tomorrow)
	assert.Equal(t, 1, out.Sent)
	assert.Equal(t, []models.ReminderResult{{ID: "rec-1", Sent: true}}, out.Results)

	assert.Equal(t, "/instance1/messages/chat", path)
	assert.Equal(t, "secret", got.Get("token"))
	assert.Equal(t, "+15551234567", got.Get("to"))
	assert.Contains(t, got.Get("body"), "Sami")

	rec := store.get("rec-1")
	assert.True(t, rec.ReminderSent)
	assert.NotNil(t, rec.ReminderSentAt)
}

func TestRun_AlreadySentRecordIsNotQueried(t *testing.T) {
	rec := pending("rec-1", "2025-01-02", "+15551234567", "Sami")
	rec.ReminderSent = true
	store := &memoryStore{records: []models.ScheduledAppointment{rec}}
	sender := &fakeSender{}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))

	out, err := createTestService(t, ServiceDependencies{Store: store, Sender: sender}, now).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, out.Total)
	assert.Empty(t, sender.sent)
}

func TestRun_MarkedRecordExcludedFromNextRun(t *testing.T) {
	store := &memoryStore{records: []models.ScheduledAppointment{
		pending("rec-1", "2025-01-02", "0501234567", "Sami"),
	}}
	sender := &fakeSender{}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))
	svc := createTestService(t, ServiceDependencies{Store: store, Sender: sender}, now)

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, first.Sent)
	assert.Equal(t, 0, second.Total)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "+966501234567", sender.sent[0].To)
	assert.Equal(t, "تذكير: لديك موعد غداً مع د. Sami. نرجو الحضور قبل الموعد بـ 10 دقائق.", sender.sent[0].Body)
}

func TestRun_EligibilityConjunction(t *testing.T) {
	tomorrow := "2025-01-02"

	tests := []struct {
		name       string
		record     models.ScheduledAppointment
		wantSend   bool
		wantReason string
	}{
		{name: "eligible", record: pending("r", tomorrow, "+15551234567", "Sami"), wantSend: true},
		{name: "iso timestamp keeps its date", record: pending("r", "2025-01-02T23:30:00Z", "+15551234567", "Sami"), wantSend: true},
		{name: "status not scheduled", record: func() models.ScheduledAppointment {
			r := pending("r", tomorrow, "+15551234567", "Sami")
			r.Status = "cancelled"
			return r
		}()},
		{name: "already sent", record: func() models.ScheduledAppointment {
			r := pending("r", tomorrow, "+15551234567", "Sami")
			r.ReminderSent = true
			return r
		}()},
		{name: "today", record: pending("r", "2025-01-01", "+15551234567", "Sami"), wantReason: ReasonNotTomorrow},
		{name: "day after tomorrow", record: pending("r", "2025-01-03", "+15551234567", "Sami"), wantReason: ReasonNotTomorrow},
		{name: "unparseable date", record: pending("r", "next thursday", "+15551234567", "Sami"), wantReason: ReasonInvalidDate},
		{name: "missing phone", record: pending("r", tomorrow, "  ", "Sami"), wantReason: ReasonMissingPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memoryStore{records: []models.ScheduledAppointment{tt.record}}
			sender := &fakeSender{}
			now := time.Date(2025, 1, 1, 20, 0, 0, 0, riyadh(t))

			out, err := createTestService(t, ServiceDependencies{Store: store, Sender: sender}, now).Run(context.Background())
			require.NoError(t, err)

			if tt.wantSend {
				assert.Len(t, sender.sent, 1)
				assert.Equal(t, 1, out.Sent)
				return
			}
			assert.Empty(t, sender.sent)
			assert.Equal(t, 0, out.Sent)
			if tt.wantReason != "" {
				require.Len(t, out.Results, 1)
				assert.Equal(t, tt.wantReason, out.Results[0].Reason)
			}
		})
	}
}

func TestRun_GatewayFailureKeepsRecordPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.PostForm.Get("to") == "+15550000001" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream down"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := gateway.NewClient(config.GatewayConfig{BaseURL: server.URL, InstanceID: "i", Token: "t"},
		commonhttp.NewClientWith(server.Client()))
	store := &memoryStore{records: []models.ScheduledAppointment{
		pending("bad", "2025-01-02", "+15550000001", "Sami"),
		pending("good", "2025-01-02", "+15550000002", "Sami"),
	}}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))

	out, err := createTestService(t, ServiceDependencies{Store: store, Sender: client}, now).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	assert.False(t, out.Results[0].Sent)
	assert.Contains(t, out.Results[0].Reason, "500")
	assert.Contains(t, out.Results[0].Reason, "upstream down")
	assert.True(t, out.Results[1].Sent)
	assert.Equal(t, 1, out.Sent)

	assert.False(t, store.get("bad").ReminderSent)
	assert.True(t, store.get("good").ReminderSent)
}

func TestRun_GatewayNotConfiguredIsPerRecord(t *testing.T) {
	client := gateway.NewClient(config.GatewayConfig{}, nil)
	store := &memoryStore{records: []models.ScheduledAppointment{
		pending("a", "2025-01-02", "+15550000001", ""),
		pending("b", "2025-01-02", "+15550000002", ""),
	}}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))

	out, err := createTestService(t, ServiceDependencies{Store: store, Sender: client}, now).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, out.Results, 2)
	for _, r := range out.Results {
		assert.False(t, r.Sent)
		assert.Contains(t, r.Reason, "GATEWAY_NOT_CONFIGURED")
	}
}

func TestRun_MarkSentFailure(t *testing.T) {
	store := &memoryStore{
		records: []models.ScheduledAppointment{pending("rec-1", "2025-01-02", "+15551234567", "Sami")},
		markErr: map[string]error{"rec-1": errors.New("write conflict")},
	}
	sender := &fakeSender{}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))

	out, err := createTestService(t, ServiceDependencies{Store: store, Sender: sender}, now).Run(context.Background())

	require.NoError(t, err)
	require.Len(t, out.Results, 1)
	assert.True(t, out.Results[0].Sent)
	assert.Equal(t, "mark sent failed: write conflict", out.Results[0].Reason)
}

func TestRun_QueryErrorAborts(t *testing.T) {
	store := &memoryStore{listErr: errors.New("connection refused")}
	sender := &fakeSender{}

	out, err := createTestService(t, ServiceDependencies{Store: store, Sender: sender}, time.Now()).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, out.Error, "REMINDER_QUERY_FAILED")
	assert.Empty(t, out.Results)
	assert.Empty(t, sender.sent)
}

func TestRun_Lock(t *testing.T) {
	t.Run("held by another run", func(t *testing.T) {
		store := &memoryStore{}
		out, err := createTestService(t, ServiceDependencies{
			Store: store, Sender: &fakeSender{}, Locker: &fakeLocker{acquired: false},
		}, time.Now()).Run(context.Background())

		require.NoError(t, err)
		assert.True(t, out.Locked)
		assert.Equal(t, 0, store.listCall)
	})

	t.Run("redis unavailable", func(t *testing.T) {
		store := &memoryStore{}
		out, err := createTestService(t, ServiceDependencies{
			Store: store, Sender: &fakeSender{}, Locker: &fakeLocker{err: errors.New("dial tcp: refused")},
		}, time.Now()).Run(context.Background())

		require.NoError(t, err)
		assert.False(t, out.Locked)
		assert.Equal(t, 1, store.listCall)
	})

	t.Run("released after run", func(t *testing.T) {
		locker := &fakeLocker{acquired: true}
		_, err := createTestService(t, ServiceDependencies{
			Store: &memoryStore{}, Sender: &fakeSender{}, Locker: locker,
		}, time.Now()).Run(context.Background())

		require.NoError(t, err)
		assert.True(t, locker.released)
	})
}

func TestRun_SummaryEmail(t *testing.T) {
	store := &memoryStore{records: []models.ScheduledAppointment{
		pending("rec-1", "2025-01-02", "+15551234567", "Sami"),
		pending("rec-2", "2025-01-05", "+15551234567", "Sami"),
	}}
	mailer := &fakeMailer{}
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, riyadh(t))
	svc := createTestService(t, ServiceDependencies{Store: store, Sender: &fakeSender{}, Mailer: mailer}, now)
	svc.config.Summary = SummaryConfig{Enabled: true, From: "ops@clinic.test", To: []string{"admin@clinic.test"}}

	_, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Appointment reminders 2025-01-02: 1/2 sent", mailer.subject)
	assert.Equal(t, []string{"admin@clinic.test"}, mailer.to)
	assert.Contains(t, mailer.body, "rec-2\tskipped\tnot tomorrow")
}

func TestReminderMessage(t *testing.T) {
	assert.Equal(t, "تذكير: لديك موعد غداً مع د. Sami. نرجو الحضور قبل الموعد بـ 10 دقائق.", ReminderMessage("Sami"))
	assert.Equal(t, "تذكير: لديك موعد غداً. نرجو الحضور قبل الموعد بـ 10 دقائق.", ReminderMessage(""))
}
