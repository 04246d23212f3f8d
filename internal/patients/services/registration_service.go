package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	campaignModels "github.com/tikohealth/campaign-backend/internal/campaigns/models"
	"github.com/tikohealth/campaign-backend/internal/patients/models"
	"github.com/tikohealth/campaign-backend/pkg/utils"
)

var (
	ErrCampaignNotFound  = errors.New("campaign not found")
	ErrCampaignNotActive = errors.New("campaign is not active")
	ErrCampaignFull      = errors.New("campaign has reached its patient limit")
	ErrConsentRequired   = errors.New("patient consent is required")
	ErrInvalidStatusMove = errors.New("patient status cannot move backwards")
)

type RegistrationService struct {
	DB              *sql.DB
	PatientIDPrefix string
}

func NewRegistrationService(db *sql.DB, patientIDPrefix string) *RegistrationService {
	return &RegistrationService{DB: db, PatientIDPrefix: patientIDPrefix}
}

// Register creates a patient inside one transaction: it validates the
// campaign, allocates the next PREFIX-YEAR-NNNN identifier and inserts the
// record. The max existing ID is read within the transaction so two clerks
// cannot be handed the same number.
func (s *RegistrationService) Register(p models.Patient) (*models.Patient, error) {
	if !p.ConsentGiven {
		return nil, ErrConsentRequired
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}

	var campaignStatus, healthArea string
	var maxPatients sql.NullInt64
	err = tx.QueryRow(
		"SELECT status, health_area, max_patients FROM campaigns WHERE id = ?",
		p.CampaignID).Scan(&campaignStatus, &healthArea, &maxPatients)
	if err != nil {
		tx.Rollback()
		if err == sql.ErrNoRows {
			return nil, ErrCampaignNotFound
		}
		return nil, err
	}
	if campaignStatus != campaignModels.CampaignActive {
		tx.Rollback()
		return nil, ErrCampaignNotActive
	}

	if maxPatients.Valid {
		var registered int
		if err := tx.QueryRow("SELECT COUNT(*) FROM patients WHERE campaign_id = ?", p.CampaignID).Scan(&registered); err != nil {
			tx.Rollback()
			return nil, err
		}
		if int64(registered) >= maxPatients.Int64 {
			tx.Rollback()
			return nil, ErrCampaignFull
		}
	}

	if p.HealthArea == "" {
		p.HealthArea = healthArea
	}

	now := time.Now()
	year := now.Year()
	idPattern := fmt.Sprintf("%s-%d-%%", s.PatientIDPrefix, year)

	var lastID sql.NullString
	err = tx.QueryRow(
		"SELECT MAX(patient_id) FROM patients WHERE patient_id LIKE ?",
		idPattern).Scan(&lastID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	nextNumber := utils.NextPatientNumber(lastID.String)
	p.PatientID = utils.FormatPatientID(s.PatientIDPrefix, year, nextNumber)

	consentDate := now
	p.ConsentDate = &consentDate

	query := `
		INSERT INTO patients
			(patient_id, campaign_id, first_name, middle_name, last_name,
			 date_of_birth, age, gender, marital_status,
			 phone_number, email, address,
			 emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
			 health_area, consent_given, consent_date,
			 registered_by, registration_date, updated_at, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.Exec(query,
		p.PatientID, p.CampaignID, p.FirstName, p.MiddleName, p.LastName,
		p.DateOfBirth, p.Age, p.Gender, p.MaritalStatus,
		p.PhoneNumber, p.Email, p.Address,
		p.EmergencyContactName, p.EmergencyContactPhone, p.EmergencyContactRelationship,
		p.HealthArea, p.ConsentGiven, p.ConsentDate,
		p.RegisteredBy, now, now, models.StatusRegistered,
	)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to register patient: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetByID(int(id))
}

const patientSelect = `
	SELECT id, patient_id, campaign_id, first_name, middle_name, last_name,
	       date_of_birth, age, gender, marital_status,
	       phone_number, email, address,
	       emergency_contact_name, emergency_contact_phone, emergency_contact_relationship,
	       health_area, consent_given, consent_date,
	       registered_by, registration_date, updated_at, status
	FROM patients
`

type patientScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row patientScanner) (*models.Patient, error) {
	var p models.Patient
	var middleName, maritalStatus, phone, email, address sql.NullString
	var ecName, ecPhone, ecRelationship sql.NullString
	var dob, consentDate sql.NullTime
	err := row.Scan(&p.ID, &p.PatientID, &p.CampaignID, &p.FirstName, &middleName, &p.LastName,
		&dob, &p.Age, &p.Gender, &maritalStatus,
		&phone, &email, &address,
		&ecName, &ecPhone, &ecRelationship,
		&p.HealthArea, &p.ConsentGiven, &consentDate,
		&p.RegisteredBy, &p.RegistrationDate, &p.UpdatedAt, &p.Status)
	if err != nil {
		return nil, err
	}
	p.MiddleName = middleName.String
	p.MaritalStatus = maritalStatus.String
	p.PhoneNumber = phone.String
	p.Email = email.String
	p.Address = address.String
	p.EmergencyContactName = ecName.String
	p.EmergencyContactPhone = ecPhone.String
	p.EmergencyContactRelationship = ecRelationship.String
	if dob.Valid {
		p.DateOfBirth = &dob.Time
	}
	if consentDate.Valid {
		p.ConsentDate = &consentDate.Time
	}
	return &p, nil
}

// GetByID loads a patient by numeric key.
func (s *RegistrationService) GetByID(id int) (*models.Patient, error) {
	return scanPatient(s.DB.QueryRow(patientSelect+" WHERE id = ?", id))
}

// GetByPatientID loads a patient by the generated identifier.
func (s *RegistrationService) GetByPatientID(patientID string) (*models.Patient, error) {
	return scanPatient(s.DB.QueryRow(patientSelect+" WHERE patient_id = ?", patientID))
}

// List searches patients by free text (ID, name, phone) with campaign and
// status filters.
func (s *RegistrationService) List(search, status string, campaignID, limit, offset int) ([]models.Patient, error) {
	baseQuery := patientSelect
	conditions := []string{}
	params := []interface{}{}

	if search != "" {
		conditions = append(conditions,
			"(patient_id LIKE ? OR first_name LIKE ? OR last_name LIKE ? OR phone_number LIKE ?)")
		like := "%" + search + "%"
		params = append(params, like, like, like, like)
	}
	if status != "" {
		conditions = append(conditions, "status = ?")
		params = append(params, status)
	}
	if campaignID > 0 {
		conditions = append(conditions, "campaign_id = ?")
		params = append(params, campaignID)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY registration_date DESC LIMIT ? OFFSET ?"
	if limit <= 0 {
		limit = 25
	}
	params = append(params, limit, offset)

	rows, err := s.DB.Query(baseQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// ConsultationSummaries lists a patient's consultations for the detail view.
func (s *RegistrationService) ConsultationSummaries(patientID int) ([]map[string]interface{}, error) {
	rows, err := s.DB.Query(`
		SELECT c.id, c.consultation_date, c.status, c.working_diagnosis,
		       u.first_name, u.last_name
		FROM consultations c
		JOIN users u ON u.id = c.doctor_id
		WHERE c.patient_id = ?
		ORDER BY c.consultation_date DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var summaries []map[string]interface{}
	for rows.Next() {
		var id int
		var date time.Time
		var status, firstName, lastName string
		var diagnosis sql.NullString
		if err := rows.Scan(&id, &date, &status, &diagnosis, &firstName, &lastName); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		summaries = append(summaries, map[string]interface{}{
			"id":                id,
			"consultation_date": date,
			"status":            status,
			"working_diagnosis": diagnosis.String,
			"doctor":            firstName + " " + lastName,
		})
	}
	return summaries, rows.Err()
}

// AdvanceStatus moves the workflow status forward. Backward moves are
// rejected; discharge is always allowed.
func (s *RegistrationService) AdvanceStatus(patientID int, next string) error {
	return AdvancePatientStatus(s.DB, patientID, next)
}

// AdvancePatientStatus is shared with the laboratory and pharmacy services
// which also push patients along the workflow.
func AdvancePatientStatus(db *sql.DB, patientID int, next string) error {
	var current string
	err := db.QueryRow("SELECT status FROM patients WHERE id = ?", patientID).Scan(&current)
	if err != nil {
		return err
	}
	if !models.StatusAdvances(current, next) {
		return ErrInvalidStatusMove
	}
	_, err = db.Exec("UPDATE patients SET status = ?, updated_at = ? WHERE id = ?", next, time.Now(), patientID)
	if err != nil {
		return fmt.Errorf("failed to update patient status: %v", err)
	}
	return nil
}
