package services

import (
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikohealth/campaign-backend/internal/patients/models"
)

func newVitalsService(t *testing.T) (*VitalsService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewVitalsService(db), mock
}

func TestVitalsSaveUnknownPatient(t *testing.T) {
	s, mock := newVitalsService(t)

	// No insert may run for a patient that does not exist; the lookup
	// itself surfaces sql.ErrNoRows.
	mock.ExpectQuery("SELECT status FROM patients WHERE id = \\?").
		WithArgs(999).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Save(models.Vitals{PatientID: 999, RecordedBy: 1})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVitalsSaveOutOfRange(t *testing.T) {
	s, mock := newVitalsService(t)

	systolic := 400
	_, err := s.Save(models.Vitals{PatientID: 1, SystolicBP: &systolic})
	assert.Equal(t, ErrVitalsOutOfRange, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
