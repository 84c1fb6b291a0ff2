package docstore

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"clinic-notify-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_GetDoctor(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(getDoctorQuery)).
		WithArgs("fac-1", "spec-1", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"docName", "doctorName"}).AddRow("", "Omar"))

	doc, err := store.GetDoctor(context.Background(), "fac-1", "spec-1", "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Omar", doc.Name())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetDoctor_NotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(getDoctorQuery)).
		WithArgs("fac-1", "spec-1", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetDoctor(context.Background(), "fac-1", "spec-1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_ListPendingReminders(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "appointment_date", "patient_phone", "doctor_name", "status", "reminder_sent"}).
		AddRow("a1", "2025-01-02", "+15550001", "Ali", "scheduled", false).
		AddRow("a2", "2025-01-05", "", "Omar", "scheduled", false)
	mock.ExpectQuery(regexp.QuoteMeta(listPendingRemindersQuery)).
		WithArgs(models.StatusScheduled).
		WillReturnRows(rows)

	recs, err := store.ListPendingReminders(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a1", recs[0].ID)
	assert.Equal(t, "+15550001", recs[0].PatientPhone)
	assert.Equal(t, "Omar", recs[1].DoctorName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPendingReminders_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(listPendingRemindersQuery)).
		WillReturnError(errors.New("connection reset"))

	recs, err := store.ListPendingReminders(context.Background())
	assert.Error(t, err)
	assert.Nil(t, recs)
}

func TestPostgresStore_MarkReminderSent(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "pending record", affected: 1},
		{name: "already sent", affected: 0, wantErr: ErrNoPendingRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(regexp.QuoteMeta(markReminderSentQuery)).
				WithArgs("a1").
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := store.MarkReminderSent(context.Background(), "a1")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
