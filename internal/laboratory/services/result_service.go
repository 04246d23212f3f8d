package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	consultationModels "github.com/tikohealth/campaign-backend/internal/consultations/models"
	"github.com/tikohealth/campaign-backend/internal/laboratory/models"
	patientModels "github.com/tikohealth/campaign-backend/internal/patients/models"
	patientServices "github.com/tikohealth/campaign-backend/internal/patients/services"
)

var (
	ErrOrderNotOpen       = errors.New("lab order is not awaiting results")
	ErrResultValueMissing = errors.New("result value is required")
	ErrResultNotCritical  = errors.New("result is not flagged critical")
	ErrAlreadyVerified    = errors.New("result already verified")
	ErrSelfVerification   = errors.New("a result cannot be verified by its own technician")
)

type ResultService struct {
	DB *sql.DB
}

func NewResultService(db *sql.DB) *ResultService {
	return &ResultService{DB: db}
}

// ResultEntry is one result submission, individual or one row of the
// tabular form.
type ResultEntry struct {
	LabOrderID         int    `json:"lab_order_id"`
	ResultValue        string `json:"result_value"`
	ResultUnit         string `json:"result_unit"`
	ReferenceRange     string `json:"reference_range"`
	Interpretation     string `json:"interpretation"`
	TechnicianNotes    string `json:"technician_notes"`
	ClinicalConclusion string `json:"clinical_conclusion"`
	SampleQuality      string `json:"sample_quality"`
	TestMethod         string `json:"test_method"`
	IsCritical         bool   `json:"is_critical"`
}

// EnterResult records a result for an ordered lab order and completes the
// order. Unit and reference range default from the formulary test. The
// write and the order completion share a transaction.
func (s *ResultService) EnterResult(entry ResultEntry, technicianID int) (*models.LabResult, error) {
	if entry.ResultValue == "" {
		return nil, ErrResultValueMissing
	}
	if entry.Interpretation == "" {
		entry.Interpretation = models.InterpretationNormal
	}
	if !models.IsValidInterpretation(entry.Interpretation) {
		return nil, fmt.Errorf("invalid interpretation: %s", entry.Interpretation)
	}
	if entry.SampleQuality == "" {
		entry.SampleQuality = models.SampleGood
	}

	tx, err := s.DB.Begin()
	if err != nil {
		return nil, err
	}

	resultID, patientID, err := s.enterResultTx(tx, entry, technicianID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// Completing the last open order finishes the lab stage.
	if err := s.promotePatientIfDone(patientID); err != nil {
		return nil, err
	}

	return s.GetByID(resultID)
}

// enterResultTx performs the order check, the result insert and the order
// completion inside the caller's transaction. Returns the new result ID
// and the patient the order belongs to.
func (s *ResultService) enterResultTx(tx *sql.Tx, entry ResultEntry, technicianID int) (int, int, error) {
	var orderStatus string
	var patientID int
	var normalRange, unit sql.NullString
	err := tx.QueryRow(`
		SELECT o.status, p.id, t.normal_range, t.unit
		FROM lab_orders o
		JOIN consultations c ON c.id = o.consultation_id
		JOIN patients p ON p.id = c.patient_id
		LEFT JOIN lab_tests t ON t.id = o.lab_test_id
		WHERE o.id = ?
	`, entry.LabOrderID).Scan(&orderStatus, &patientID, &normalRange, &unit)
	if err != nil {
		return 0, 0, err
	}
	if orderStatus != consultationModels.OrderStatusOrdered {
		return 0, 0, ErrOrderNotOpen
	}

	if entry.ResultUnit == "" {
		entry.ResultUnit = unit.String
	}
	if entry.ReferenceRange == "" {
		entry.ReferenceRange = normalRange.String
	}

	now := time.Now()
	result, err := tx.Exec(`
		INSERT INTO lab_results
			(lab_order_id, result_value, result_unit, reference_range, interpretation,
			 technician_notes, clinical_conclusion, sample_quality, test_method,
			 is_critical, critical_notified, status, technician_id, result_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)
	`,
		entry.LabOrderID, entry.ResultValue, entry.ResultUnit, entry.ReferenceRange, entry.Interpretation,
		entry.TechnicianNotes, entry.ClinicalConclusion, entry.SampleQuality, entry.TestMethod,
		entry.IsCritical, models.ResultCompleted, technicianID, now, now, now,
	)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to save lab result: %v", err)
	}
	resultID, err := result.LastInsertId()
	if err != nil {
		return 0, 0, err
	}

	_, err = tx.Exec("UPDATE lab_orders SET status = ?, updated_at = ? WHERE id = ?",
		consultationModels.OrderStatusCompleted, now, entry.LabOrderID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to complete lab order: %v", err)
	}
	return int(resultID), patientID, nil
}

// TabularOutcome reports what a batch submission did.
type TabularOutcome struct {
	Saved   int      `json:"saved"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// EnterTabular saves one result per submitted row for a consultation's
// ordered tests. Rows without a value are skipped; each row commits
// independently so one bad row does not discard the others.
func (s *ResultService) EnterTabular(consultationID int, entries []ResultEntry, technicianID int) (*TabularOutcome, error) {
	var patientID int
	err := s.DB.QueryRow("SELECT patient_id FROM consultations WHERE id = ?", consultationID).Scan(&patientID)
	if err != nil {
		return nil, err
	}

	outcome := &TabularOutcome{}
	for _, entry := range entries {
		if entry.ResultValue == "" {
			outcome.Skipped++
			continue
		}
		if entry.Interpretation == "" {
			entry.Interpretation = models.InterpretationNormal
		}
		if entry.SampleQuality == "" {
			entry.SampleQuality = models.SampleGood
		}
		if !models.IsValidInterpretation(entry.Interpretation) {
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("order %d: invalid interpretation %q", entry.LabOrderID, entry.Interpretation))
			continue
		}

		tx, err := s.DB.Begin()
		if err != nil {
			return nil, err
		}
		if _, _, err := s.enterResultTx(tx, entry, technicianID); err != nil {
			tx.Rollback()
			outcome.Errors = append(outcome.Errors,
				fmt.Sprintf("order %d: %v", entry.LabOrderID, err))
			continue
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		outcome.Saved++
	}

	if outcome.Saved > 0 {
		if err := s.promotePatientIfDone(patientID); err != nil {
			return nil, err
		}
	}
	return outcome, nil
}

// promotePatientIfDone moves a lab_ordered patient to lab_completed once
// no order of theirs is still open.
func (s *ResultService) promotePatientIfDone(patientID int) error {
	var open int
	err := s.DB.QueryRow(`
		SELECT COUNT(*)
		FROM lab_orders o
		JOIN consultations c ON c.id = o.consultation_id
		WHERE c.patient_id = ? AND o.status = 'ordered'
	`, patientID).Scan(&open)
	if err != nil {
		return err
	}
	if open > 0 {
		return nil
	}

	var status string
	if err := s.DB.QueryRow("SELECT status FROM patients WHERE id = ?", patientID).Scan(&status); err != nil {
		return err
	}
	if status != patientModels.StatusLabOrdered {
		return nil
	}
	return patientServices.AdvancePatientStatus(s.DB, patientID, patientModels.StatusLabCompleted)
}

// Verify marks a completed result as verified by a second technician.
func (s *ResultService) Verify(resultID, verifierID int) (*models.LabResult, error) {
	result, err := s.GetByID(resultID)
	if err != nil {
		return nil, err
	}
	if result.Status == models.ResultVerified {
		return nil, ErrAlreadyVerified
	}
	if result.TechnicianID == verifierID {
		return nil, ErrSelfVerification
	}

	now := time.Now()
	_, err = s.DB.Exec(
		"UPDATE lab_results SET status = ?, verified_by = ?, verified_at = ?, updated_at = ? WHERE id = ?",
		models.ResultVerified, verifierID, now, now, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify result: %v", err)
	}
	return s.GetByID(resultID)
}

// MarkCriticalNotified records that a critical value was communicated.
func (s *ResultService) MarkCriticalNotified(resultID int) (*models.LabResult, error) {
	result, err := s.GetByID(resultID)
	if err != nil {
		return nil, err
	}
	if !result.IsCritical {
		return nil, ErrResultNotCritical
	}

	now := time.Now()
	_, err = s.DB.Exec(
		"UPDATE lab_results SET critical_notified = 1, critical_notified_at = ?, updated_at = ? WHERE id = ?",
		now, now, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark critical notification: %v", err)
	}
	return s.GetByID(resultID)
}

const resultSelect = `
	SELECT id, lab_order_id, result_value, result_unit, reference_range, interpretation,
	       technician_notes, clinical_conclusion, sample_quality, test_method,
	       is_critical, critical_notified, critical_notified_at,
	       status, technician_id, result_date, verified_by, verified_at, created_at, updated_at
	FROM lab_results
`

type resultScanner interface {
	Scan(dest ...interface{}) error
}

func scanResult(row resultScanner) (*models.LabResult, error) {
	var r models.LabResult
	var unit, refRange, interpretation, techNotes, conclusion, method sql.NullString
	var notifiedAt, verifiedAt sql.NullTime
	var verifiedBy sql.NullInt64
	err := row.Scan(&r.ID, &r.LabOrderID, &r.ResultValue, &unit, &refRange, &interpretation,
		&techNotes, &conclusion, &r.SampleQuality, &method,
		&r.IsCritical, &r.CriticalNotified, &notifiedAt,
		&r.Status, &r.TechnicianID, &r.ResultDate, &verifiedBy, &verifiedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.ResultUnit = unit.String
	r.ReferenceRange = refRange.String
	r.Interpretation = interpretation.String
	r.TechnicianNotes = techNotes.String
	r.ClinicalConclusion = conclusion.String
	r.TestMethod = method.String
	if notifiedAt.Valid {
		r.CriticalNotifiedAt = &notifiedAt.Time
	}
	if verifiedBy.Valid {
		n := int(verifiedBy.Int64)
		r.VerifiedBy = &n
	}
	if verifiedAt.Valid {
		r.VerifiedAt = &verifiedAt.Time
	}
	return &r, nil
}

// GetByID loads one result.
func (s *ResultService) GetByID(id int) (*models.LabResult, error) {
	return scanResult(s.DB.QueryRow(resultSelect+" WHERE id = ?", id))
}

// GetByOrderID loads the result of a lab order.
func (s *ResultService) GetByOrderID(orderID int) (*models.LabResult, error) {
	return scanResult(s.DB.QueryRow(resultSelect+" WHERE lab_order_id = ?", orderID))
}

// UnnotifiedCriticals lists critical results still awaiting notification.
func (s *ResultService) UnnotifiedCriticals(limit int) ([]models.LabResult, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.DB.Query(resultSelect+" WHERE is_critical = 1 AND critical_notified = 0 ORDER BY result_date DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.LabResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}

// RecentByTechnician lists a technician's latest results.
func (s *ResultService) RecentByTechnician(technicianID, limit int) ([]models.LabResult, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.DB.Query(resultSelect+" WHERE technician_id = ? ORDER BY result_date DESC LIMIT ?", technicianID, limit)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.LabResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *r)
	}
	return list, rows.Err()
}
