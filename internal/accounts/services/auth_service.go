package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tikohealth/campaign-backend/config"
	"github.com/tikohealth/campaign-backend/internal/accounts/models"
	"github.com/tikohealth/campaign-backend/pkg/utils"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountInactive    = errors.New("account has been deactivated")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmployeeIDTaken    = errors.New("employee ID already taken")
)

type AuthService struct {
	DB *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{DB: db}
}

// Login verifies the credentials and issues a JWT for the staff user.
func (s *AuthService) Login(username, password string) (string, *models.User, error) {
	user, err := s.getByUsername(username)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if !utils.CheckPassword(user.Password, password) {
		return "", nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, ErrAccountInactive
	}

	cfg := config.LoadConfig()
	exp := time.Now().Add(time.Duration(cfg.TokenTTLMinutes) * time.Minute)
	token, err := utils.GenerateJWTToken(user.ID, user.Username, user.Role, user.FullName(), exp)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %v", err)
	}
	return token, user, nil
}

// RegisterStaffRequest is the self-service signup payload. The admin role
// cannot be self-assigned.
type RegisterStaffRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Role        string `json:"role"`
	PhoneNumber string `json:"phone_number"`
	EmployeeID  string `json:"employee_id"`
	Department  string `json:"department"`
}

// RegisterStaff creates a new active staff account.
func (s *AuthService) RegisterStaff(req RegisterStaffRequest) (*models.User, error) {
	var existingID int
	err := s.DB.QueryRow("SELECT id FROM users WHERE username = ?", req.Username).Scan(&existingID)
	if err == nil {
		return nil, ErrUsernameTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	if req.EmployeeID != "" {
		err = s.DB.QueryRow("SELECT id FROM users WHERE employee_id = ?", req.EmployeeID).Scan(&existingID)
		if err == nil {
			return nil, ErrEmployeeIDTaken
		} else if err != sql.ErrNoRows {
			return nil, err
		}
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %v", err)
	}

	now := time.Now()
	query := `
		INSERT INTO users
			(username, password, email, first_name, last_name, role, phone_number, employee_id, department, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
	`
	result, err := s.DB.Exec(query,
		req.Username, hashed, req.Email, req.FirstName, req.LastName,
		req.Role, req.PhoneNumber, req.EmployeeID, req.Department, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return s.GetByID(int(id))
}

// GetByID loads one user.
func (s *AuthService) GetByID(id int) (*models.User, error) {
	return scanUser(s.DB.QueryRow(userSelect+" WHERE id = ?", id))
}

func (s *AuthService) getByUsername(username string) (*models.User, error) {
	return scanUser(s.DB.QueryRow(userSelect+" WHERE username = ?", username))
}

const userSelect = `
	SELECT id, username, password, email, first_name, last_name, role,
	       phone_number, employee_id, department, is_active, created_at, updated_at
	FROM users
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	var email, phone, employeeID, department sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Password, &email, &u.FirstName, &u.LastName,
		&u.Role, &phone, &employeeID, &department, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Email = email.String
	u.PhoneNumber = phone.String
	u.EmployeeID = employeeID.String
	u.Department = department.String
	return &u, nil
}
