package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	consultationModels "github.com/tikohealth/campaign-backend/internal/consultations/models"
	"github.com/tikohealth/campaign-backend/internal/laboratory/models"
	"github.com/tikohealth/campaign-backend/pkg/utils"
)

var (
	ErrOrderAlreadyOnSheet = errors.New("lab order already attached to this worksheet")
	ErrOrderNotOrdered     = errors.New("only ordered lab orders can join a worksheet")
	ErrInvalidSheetStatus  = errors.New("invalid worksheet status")
)

type WorksheetService struct {
	DB *sql.DB
}

func NewWorksheetService(db *sql.DB) *WorksheetService {
	return &WorksheetService{DB: db}
}

// Create opens a worksheet for a test type. The per-day running number is
// allocated inside the transaction.
func (s *WorksheetService) Create(labTestID, technicianID int, notes string) (*models.Worksheet, error) {
	var testExists int
	err := s.DB.QueryRow("SELECT id FROM lab_tests WHERE id = ?", labTestID).Scan(&testExists)
	if err != nil {
		return nil, err
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var lastNumber sql.NullString
	err = tx.QueryRow(
		"SELECT MAX(worksheet_number) FROM worksheets WHERE created_date >= ? AND created_date < ?",
		start, start.Add(24*time.Hour)).Scan(&lastNumber)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	number := utils.FormatWorksheetNumber(now, utils.NextWorksheetNumber(lastNumber.String))

	result, err := tx.Exec(`
		INSERT INTO worksheets
			(worksheet_number, lab_test_id, technician_id, created_date, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, number, labTestID, technicianID, now, models.WorksheetCreated, notes, now, now)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to create worksheet: %v", err)
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

// SetStatus moves a worksheet through its run lifecycle; entering
// in_progress stamps the run date.
func (s *WorksheetService) SetStatus(id int, status, controlResults string) (*models.Worksheet, error) {
	switch status {
	case models.WorksheetCreated, models.WorksheetInProgress, models.WorksheetCompleted, models.WorksheetReviewed:
	default:
		return nil, ErrInvalidSheetStatus
	}

	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}

	now := time.Now()
	if status == models.WorksheetInProgress {
		_, err := s.DB.Exec(
			"UPDATE worksheets SET status = ?, run_date = ?, control_results = ?, updated_at = ? WHERE id = ?",
			status, now, controlResults, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update worksheet: %v", err)
		}
	} else {
		_, err := s.DB.Exec(
			"UPDATE worksheets SET status = ?, control_results = ?, updated_at = ? WHERE id = ?",
			status, controlResults, now, id)
		if err != nil {
			return nil, fmt.Errorf("failed to update worksheet: %v", err)
		}
	}
	return s.GetByID(id)
}

// AttachOrder places an ordered lab order at the next free position on
// the worksheet.
func (s *WorksheetService) AttachOrder(worksheetID, labOrderID int) error {
	var orderStatus string
	err := s.DB.QueryRow("SELECT status FROM lab_orders WHERE id = ?", labOrderID).Scan(&orderStatus)
	if err != nil {
		return err
	}
	if orderStatus != consultationModels.OrderStatusOrdered {
		return ErrOrderNotOrdered
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return err
	}

	var existingID int
	err = tx.QueryRow(
		"SELECT id FROM worksheet_orders WHERE worksheet_id = ? AND lab_order_id = ?",
		worksheetID, labOrderID).Scan(&existingID)
	if err == nil {
		tx.Rollback()
		return ErrOrderAlreadyOnSheet
	} else if err != sql.ErrNoRows {
		tx.Rollback()
		return err
	}

	var maxPosition sql.NullInt64
	err = tx.QueryRow(
		"SELECT MAX(position) FROM worksheet_orders WHERE worksheet_id = ?",
		worksheetID).Scan(&maxPosition)
	if err != nil {
		tx.Rollback()
		return err
	}
	position := int64(1)
	if maxPosition.Valid {
		position = maxPosition.Int64 + 1
	}

	_, err = tx.Exec(
		"INSERT INTO worksheet_orders (worksheet_id, lab_order_id, position) VALUES (?, ?, ?)",
		worksheetID, labOrderID, position)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to attach order: %v", err)
	}
	return tx.Commit()
}

// DetachOrder removes a lab order from a worksheet.
func (s *WorksheetService) DetachOrder(worksheetID, labOrderID int) error {
	result, err := s.DB.Exec(
		"DELETE FROM worksheet_orders WHERE worksheet_id = ? AND lab_order_id = ?",
		worksheetID, labOrderID)
	if err != nil {
		return fmt.Errorf("failed to detach order: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

const worksheetSelect = `
	SELECT id, worksheet_number, lab_test_id, technician_id, created_date, run_date,
	       status, control_results, notes, created_at, updated_at
	FROM worksheets
`

type worksheetScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorksheet(row worksheetScanner) (*models.Worksheet, error) {
	var w models.Worksheet
	var runDate sql.NullTime
	var controlResults, notes sql.NullString
	err := row.Scan(&w.ID, &w.WorksheetNumber, &w.LabTestID, &w.TechnicianID, &w.CreatedDate, &runDate,
		&w.Status, &controlResults, &notes, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if runDate.Valid {
		w.RunDate = &runDate.Time
	}
	w.ControlResults = controlResults.String
	w.Notes = notes.String
	return &w, nil
}

// GetByID loads one worksheet.
func (s *WorksheetService) GetByID(id int) (*models.Worksheet, error) {
	return scanWorksheet(s.DB.QueryRow(worksheetSelect+" WHERE id = ?", id))
}

// List returns worksheets, newest first, optionally filtered by status.
func (s *WorksheetService) List(status string, limit, offset int) ([]models.Worksheet, error) {
	query := worksheetSelect
	params := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		params = append(params, status)
	}
	query += " ORDER BY created_date DESC, created_at DESC LIMIT ? OFFSET ?"
	if limit <= 0 {
		limit = 25
	}
	params = append(params, limit, offset)

	rows, err := s.DB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.Worksheet
	for rows.Next() {
		w, err := scanWorksheet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

// Orders returns a worksheet's samples in position order.
func (s *WorksheetService) Orders(worksheetID int) ([]map[string]interface{}, error) {
	rows, err := s.DB.Query(`
		SELECT wo.position, o.id, o.status, o.custom_test_name, t.name,
		       p.patient_id, p.first_name, p.last_name
		FROM worksheet_orders wo
		JOIN lab_orders o ON o.id = wo.lab_order_id
		LEFT JOIN lab_tests t ON t.id = o.lab_test_id
		JOIN consultations c ON c.id = o.consultation_id
		JOIN patients p ON p.id = c.patient_id
		WHERE wo.worksheet_id = ?
		ORDER BY wo.position
	`, worksheetID)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []map[string]interface{}
	for rows.Next() {
		var position, orderID int
		var orderStatus, patientID, firstName, lastName string
		var customName, testName sql.NullString
		if err := rows.Scan(&position, &orderID, &orderStatus, &customName, &testName,
			&patientID, &firstName, &lastName); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		displayName := customName.String
		if displayName == "" {
			displayName = testName.String
		}
		list = append(list, map[string]interface{}{
			"position":     position,
			"lab_order_id": orderID,
			"status":       orderStatus,
			"test_name":    displayName,
			"patient_id":   patientID,
			"patient_name": firstName + " " + lastName,
		})
	}
	return list, rows.Err()
}
