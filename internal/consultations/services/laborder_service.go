package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tikohealth/campaign-backend/internal/consultations/models"
	patientModels "github.com/tikohealth/campaign-backend/internal/patients/models"
	patientServices "github.com/tikohealth/campaign-backend/internal/patients/services"
)

var (
	ErrTestUnspecified     = errors.New("either lab_test_id or custom_test_name is required")
	ErrLabTestNotFound     = errors.New("lab test not found")
	ErrOrderNotCancellable = errors.New("only ordered lab orders can be cancelled")
)

type LabOrderService struct {
	DB *sql.DB
}

func NewLabOrderService(db *sql.DB) *LabOrderService {
	return &LabOrderService{DB: db}
}

// Create adds a lab order to a consultation and pushes the patient into
// the lab_ordered stage.
func (s *LabOrderService) Create(o models.LabOrder) (*models.LabOrder, error) {
	if o.LabTestID == nil && o.CustomTestName == "" {
		return nil, ErrTestUnspecified
	}

	consultation, err := scanConsultation(s.DB.QueryRow(consultationSelect+" WHERE id = ?", o.ConsultationID))
	if err != nil {
		return nil, err
	}

	if o.LabTestID != nil {
		var exists int
		err := s.DB.QueryRow("SELECT id FROM lab_tests WHERE id = ?", *o.LabTestID).Scan(&exists)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrLabTestNotFound
			}
			return nil, err
		}
	}

	now := time.Now()
	if o.OrderedDate.IsZero() {
		o.OrderedDate = now
	}
	if o.Urgency == "" {
		o.Urgency = models.UrgencyRoutine
	}

	query := `
		INSERT INTO lab_orders
			(consultation_id, lab_test_id, custom_test_name, ordered_date, urgency,
			 clinical_indication, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.DB.Exec(query,
		o.ConsultationID, o.LabTestID, o.CustomTestName, o.OrderedDate, o.Urgency,
		o.ClinicalIndication, models.OrderStatusOrdered, o.Notes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create lab order: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	err = patientServices.AdvancePatientStatus(s.DB, consultation.PatientID, patientModels.StatusLabOrdered)
	if err != nil && err != patientServices.ErrInvalidStatusMove {
		return nil, err
	}

	return s.GetByID(int(id))
}

// Cancel marks an ordered lab order as cancelled.
func (s *LabOrderService) Cancel(id int) (*models.LabOrder, error) {
	order, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusOrdered {
		return nil, ErrOrderNotCancellable
	}
	_, err = s.DB.Exec("UPDATE lab_orders SET status = ?, updated_at = ? WHERE id = ?",
		models.OrderStatusCancelled, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel lab order: %v", err)
	}
	return s.GetByID(id)
}

const labOrderSelect = `
	SELECT o.id, o.consultation_id, o.lab_test_id, o.custom_test_name, o.ordered_date,
	       o.urgency, o.clinical_indication, o.status, o.notes, o.created_at, o.updated_at,
	       t.name
	FROM lab_orders o
	LEFT JOIN lab_tests t ON t.id = o.lab_test_id
`

type labOrderScanner interface {
	Scan(dest ...interface{}) error
}

func scanLabOrder(row labOrderScanner) (*models.LabOrder, error) {
	var o models.LabOrder
	var labTestID sql.NullInt64
	var customName, indication, notes, testName sql.NullString
	err := row.Scan(&o.ID, &o.ConsultationID, &labTestID, &customName, &o.OrderedDate,
		&o.Urgency, &indication, &o.Status, &notes, &o.CreatedAt, &o.UpdatedAt,
		&testName)
	if err != nil {
		return nil, err
	}
	if labTestID.Valid {
		n := int(labTestID.Int64)
		o.LabTestID = &n
	}
	o.CustomTestName = customName.String
	o.ClinicalIndication = indication.String
	o.Notes = notes.String
	o.TestName = testName.String
	return &o, nil
}

// GetByID loads one lab order with its formulary test name.
func (s *LabOrderService) GetByID(id int) (*models.LabOrder, error) {
	return scanLabOrder(s.DB.QueryRow(labOrderSelect+" WHERE o.id = ?", id))
}

// ListByConsultation returns a consultation's orders, oldest first, with
// an optional status filter.
func (s *LabOrderService) ListByConsultation(consultationID int, status string) ([]models.LabOrder, error) {
	query := labOrderSelect + " WHERE o.consultation_id = ?"
	params := []interface{}{consultationID}
	if status != "" {
		query += " AND o.status = ?"
		params = append(params, status)
	}
	query += " ORDER BY o.ordered_date"

	rows, err := s.DB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.LabOrder
	for rows.Next() {
		o, err := scanLabOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *o)
	}
	return list, rows.Err()
}

// Search finds lab orders by patient/test text with status, urgency and
// category filters.
func (s *LabOrderService) Search(text, status, urgency, category string, limit, offset int) ([]map[string]interface{}, error) {
	baseQuery := `
		SELECT o.id, o.consultation_id, o.status, o.urgency, o.ordered_date,
		       o.custom_test_name, t.name, t.category,
		       p.id, p.patient_id, p.first_name, p.last_name
		FROM lab_orders o
		LEFT JOIN lab_tests t ON t.id = o.lab_test_id
		JOIN consultations c ON c.id = o.consultation_id
		JOIN patients p ON p.id = c.patient_id
	`
	conditions := []string{}
	params := []interface{}{}

	if text != "" {
		conditions = append(conditions,
			"(p.patient_id LIKE ? OR p.first_name LIKE ? OR p.last_name LIKE ? OR t.name LIKE ? OR o.custom_test_name LIKE ?)")
		like := "%" + text + "%"
		params = append(params, like, like, like, like, like)
	}
	if status != "" {
		conditions = append(conditions, "o.status = ?")
		params = append(params, status)
	}
	if urgency != "" {
		conditions = append(conditions, "o.urgency = ?")
		params = append(params, urgency)
	}
	if category != "" {
		conditions = append(conditions, "t.category = ?")
		params = append(params, category)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY o.ordered_date DESC LIMIT ? OFFSET ?"
	if limit <= 0 {
		limit = 15
	}
	params = append(params, limit, offset)

	rows, err := s.DB.Query(baseQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []map[string]interface{}
	for rows.Next() {
		var orderID, consultationID, patientPK int
		var orderStatus, urgencyVal, patientID, firstName, lastName string
		var orderedDate time.Time
		var customName, testName, testCategory sql.NullString
		if err := rows.Scan(&orderID, &consultationID, &orderStatus, &urgencyVal, &orderedDate,
			&customName, &testName, &testCategory,
			&patientPK, &patientID, &firstName, &lastName); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}

		displayName := customName.String
		if displayName == "" {
			displayName = testName.String
		}
		list = append(list, map[string]interface{}{
			"id":              orderID,
			"consultation_id": consultationID,
			"status":          orderStatus,
			"urgency":         urgencyVal,
			"ordered_date":    orderedDate,
			"test_name":       displayName,
			"test_category":   testCategory.String,
			"patient_pk":      patientPK,
			"patient_id":      patientID,
			"patient_name":    strings.TrimSpace(firstName + " " + lastName),
		})
	}
	return list, rows.Err()
}
