package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/tikohealth/campaign-backend/internal/accounts/models"
)

type UserService struct {
	DB *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{DB: db}
}

// List returns users filtered by role, active state and a free-text search
// over username/name/employee ID. A nil active pointer skips the filter.
func (s *UserService) List(role string, active *bool, search string, limit, offset int) ([]models.User, error) {
	baseQuery := userSelect
	conditions := []string{}
	params := []interface{}{}

	if role != "" {
		conditions = append(conditions, "role = ?")
		params = append(params, role)
	}
	if active != nil {
		conditions = append(conditions, "is_active = ?")
		params = append(params, *active)
	}
	if search != "" {
		conditions = append(conditions, "(username LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR employee_id LIKE ?)")
		like := "%" + search + "%"
		params = append(params, like, like, like, like)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY created_at DESC LIMIT ? OFFSET ?"
	if limit <= 0 {
		limit = 25
	}
	params = append(params, limit, offset)

	rows, err := s.DB.Query(baseQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *user)
	}
	return list, rows.Err()
}

// UpdateUserRequest carries the editable fields; nil pointers are left
// unchanged.
type UpdateUserRequest struct {
	Email       *string `json:"email"`
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Role        *string `json:"role"`
	PhoneNumber *string `json:"phone_number"`
	Department  *string `json:"department"`
}

// GetByID loads one user.
func (s *UserService) GetByID(id int) (*models.User, error) {
	return scanUser(s.DB.QueryRow(userSelect+" WHERE id = ?", id))
}

// Update applies partial changes to a user and returns the updated record.
// A payload with no editable fields is a no-op that still returns the user.
func (s *UserService) Update(id int, req UpdateUserRequest) (*models.User, error) {
	sets := []string{}
	params := []interface{}{}

	if req.Email != nil {
		sets = append(sets, "email = ?")
		params = append(params, *req.Email)
	}
	if req.FirstName != nil {
		sets = append(sets, "first_name = ?")
		params = append(params, *req.FirstName)
	}
	if req.LastName != nil {
		sets = append(sets, "last_name = ?")
		params = append(params, *req.LastName)
	}
	if req.Role != nil {
		sets = append(sets, "role = ?")
		params = append(params, *req.Role)
	}
	if req.PhoneNumber != nil {
		sets = append(sets, "phone_number = ?")
		params = append(params, *req.PhoneNumber)
	}
	if req.Department != nil {
		sets = append(sets, "department = ?")
		params = append(params, *req.Department)
	}

	if len(sets) == 0 {
		return s.GetByID(id)
	}
	sets = append(sets, "updated_at = ?")
	params = append(params, time.Now(), id)

	// RowsAffected cannot distinguish a missing user from an edit that
	// re-submits the current values, so existence is checked by the
	// re-fetch instead.
	query := "UPDATE users SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	if _, err := s.DB.Exec(query, params...); err != nil {
		return nil, fmt.Errorf("failed to update user: %v", err)
	}
	return s.GetByID(id)
}

// SetActive toggles the soft-delete flag and returns the updated record.
func (s *UserService) SetActive(id int, active bool) (*models.User, error) {
	_, err := s.DB.Exec("UPDATE users SET is_active = ?, updated_at = ? WHERE id = ?", active, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update user state: %v", err)
	}
	return s.GetByID(id)
}
