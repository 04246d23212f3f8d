package models

import "time"

// Staff roles. One role per user; the role decides which endpoints and
// dashboard a user gets.
const (
	RoleAdmin             = "admin"
	RoleCampaignManager   = "campaign_manager"
	RoleRegistrationClerk = "registration_clerk"
	RoleVitalsClerk       = "vitals_clerk"
	RoleDoctor            = "doctor"
	RoleLabTechnician     = "lab_technician"
	RolePharmacyClerk     = "pharmacy_clerk"
	RoleDataAnalyst       = "data_analyst"
)

var validRoles = map[string]string{
	RoleAdmin:             "Administrator",
	RoleCampaignManager:   "Campaign Manager",
	RoleRegistrationClerk: "Registration Clerk",
	RoleVitalsClerk:       "Vitals Clerk",
	RoleDoctor:            "Doctor",
	RoleLabTechnician:     "Lab Technician",
	RolePharmacyClerk:     "Pharmacy Clerk",
	RoleDataAnalyst:       "Data Analyst",
}

// IsValidRole reports whether the role name is one of the known roles.
func IsValidRole(role string) bool {
	_, ok := validRoles[role]
	return ok
}

// RoleDisplay returns the human readable name for a role, falling back to
// the raw value for unknown roles.
func RoleDisplay(role string) string {
	if display, ok := validRoles[role]; ok {
		return display
	}
	return role
}

type User struct {
	ID          int       `json:"id"`
	Username    string    `json:"username"`
	Password    string    `json:"-"`
	Email       string    `json:"email,omitempty"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Role        string    `json:"role"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	EmployeeID  string    `json:"employee_id,omitempty"`
	Department  string    `json:"department,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// AuditLog records one mutating action for traceability.
type AuditLog struct {
	ID        string    `json:"id"`
	UserID    int       `json:"user_id"`
	Username  string    `json:"username"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	EntityID  string    `json:"entity_id,omitempty"`
	Changes   string    `json:"changes,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
