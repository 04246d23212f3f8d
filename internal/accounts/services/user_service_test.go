package services

import (
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikohealth/campaign-backend/internal/accounts/models"
)

func newUserService(t *testing.T) (*UserService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserService(db), mock
}

func userRow(id int, username, role string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "username", "password", "email", "first_name", "last_name", "role",
		"phone_number", "employee_id", "department", "is_active", "created_at", "updated_at",
	}).AddRow(id, username, "hash", "a@b.c", "Grace", "Okafor", role, nil, nil, nil, active, now, now)
}

func TestUserListActiveFilter(t *testing.T) {
	s, mock := newUserService(t)

	active := true
	mock.ExpectQuery("FROM users\\s+WHERE is_active = \\?").
		WithArgs(true, 25, 0).
		WillReturnRows(userRow(1, "grace", models.RoleDoctor, true))

	users, err := s.List("", &active, "", 0, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "grace", users[0].Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserListNilActiveSkipsFilter(t *testing.T) {
	s, mock := newUserService(t)

	mock.ExpectQuery("FROM users\\s+ORDER BY created_at").
		WithArgs(25, 0).
		WillReturnRows(userRow(1, "grace", models.RoleDoctor, true))

	_, err := s.List("", nil, "", 0, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateReturnsUpdatedRecord(t *testing.T) {
	s, mock := newUserService(t)

	role := models.RoleLabTechnician
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = ?, updated_at = ? WHERE id = ?")).
		WithArgs(role, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM users\\s+WHERE id = \\?").
		WithArgs(7).
		WillReturnRows(userRow(7, "grace", role, true))

	user, err := s.Update(7, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, role, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateNoOpEditIsNotNotFound(t *testing.T) {
	s, mock := newUserService(t)

	// MySQL reports zero affected rows when the submitted values equal
	// the stored ones. The user still exists, so this is not a 404.
	role := models.RoleDoctor
	mock.ExpectExec("UPDATE users SET").
		WithArgs(role, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM users\\s+WHERE id = \\?").
		WithArgs(7).
		WillReturnRows(userRow(7, "grace", role, true))

	user, err := s.Update(7, UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, "grace", user.Username)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserUpdateMissingUser(t *testing.T) {
	s, mock := newUserService(t)

	role := models.RoleDoctor
	mock.ExpectExec("UPDATE users SET").
		WithArgs(role, sqlmock.AnyArg(), 99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM users\\s+WHERE id = \\?").
		WithArgs(99).
		WillReturnError(sql.ErrNoRows)

	_, err := s.Update(99, UpdateUserRequest{Role: &role})
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSetActiveReturnsUpdatedRecord(t *testing.T) {
	s, mock := newUserService(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?")).
		WithArgs(false, sqlmock.AnyArg(), 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("FROM users\\s+WHERE id = \\?").
		WithArgs(7).
		WillReturnRows(userRow(7, "grace", models.RoleDoctor, false))

	user, err := s.SetActive(7, false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}
