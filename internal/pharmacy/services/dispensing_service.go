package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	consultationModels "github.com/tikohealth/campaign-backend/internal/consultations/models"
	consultationServices "github.com/tikohealth/campaign-backend/internal/consultations/services"
	patientModels "github.com/tikohealth/campaign-backend/internal/patients/models"
	patientServices "github.com/tikohealth/campaign-backend/internal/patients/services"
)

var (
	ErrNotReadyToDispense = errors.New("prescription is not ready to dispense")
	ErrAlreadyDispensed   = errors.New("prescription already dispensed")
)

type DispensingService struct {
	DB *sql.DB
}

func NewDispensingService(db *sql.DB) *DispensingService {
	return &DispensingService{DB: db}
}

const prescriptionQueueSelect = `
	SELECT pr.id, pr.consultation_id, pr.drug_id, pr.custom_drug_name,
	       pr.dosage, pr.frequency, pr.duration, pr.route,
	       pr.instructions, pr.indication, pr.quantity, pr.refills,
	       pr.pharmacy_status, pr.dispensed_by, pr.dispensed_date, pr.dispensed_quantity,
	       pr.notes, pr.created_at, pr.updated_at, d.name
	FROM prescriptions pr
	LEFT JOIN drugs d ON d.id = pr.drug_id
`

// Queue lists prescriptions in the given pharmacy statuses, oldest first.
func (s *DispensingService) Queue(statuses []string, limit, offset int) ([]consultationModels.Prescription, error) {
	if len(statuses) == 0 {
		statuses = []string{consultationModels.PharmacyPendingReview, consultationModels.PharmacyDetailsNeeded}
	}
	placeholders := strings.TrimRight(strings.Repeat("?,", len(statuses)), ",")
	query := prescriptionQueueSelect + " WHERE pr.pharmacy_status IN (" + placeholders + ")" +
		" ORDER BY pr.created_at LIMIT ? OFFSET ?"

	params := make([]interface{}, 0, len(statuses)+2)
	for _, st := range statuses {
		params = append(params, st)
	}
	if limit <= 0 {
		limit = 25
	}
	params = append(params, limit, offset)

	rows, err := s.DB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []consultationModels.Prescription
	for rows.Next() {
		p, err := consultationServices.ScanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}

// CompleteDetailsRequest fills in the dosage information the doctor left
// for pharmacy review.
type CompleteDetailsRequest struct {
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	Duration     *string `json:"duration"`
	Route        *string `json:"route"`
	Instructions *string `json:"instructions"`
	Quantity     *int    `json:"quantity"`
	Notes        *string `json:"notes"`
}

// CompleteDetails updates the prescription and recomputes its pharmacy
// status from the new completeness.
func (s *DispensingService) CompleteDetails(id int, req CompleteDetailsRequest) (*consultationModels.Prescription, error) {
	prescription, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if prescription.PharmacyStatus == consultationModels.PharmacyDispensed {
		return nil, ErrAlreadyDispensed
	}

	if req.Dosage != nil {
		prescription.Dosage = *req.Dosage
	}
	if req.Frequency != nil {
		prescription.Frequency = *req.Frequency
	}
	if req.Duration != nil {
		prescription.Duration = *req.Duration
	}
	if req.Route != nil {
		prescription.Route = *req.Route
	}
	if req.Instructions != nil {
		prescription.Instructions = *req.Instructions
	}
	if req.Quantity != nil {
		prescription.Quantity = req.Quantity
	}
	if req.Notes != nil {
		prescription.Notes = *req.Notes
	}

	prescription.PharmacyStatus = prescription.DerivePharmacyStatus()

	query := `
		UPDATE prescriptions SET
			dosage = ?, frequency = ?, duration = ?, route = ?, instructions = ?,
			quantity = ?, notes = ?, pharmacy_status = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = s.DB.Exec(query,
		prescription.Dosage, prescription.Frequency, prescription.Duration, prescription.Route,
		prescription.Instructions, prescription.Quantity, prescription.Notes,
		prescription.PharmacyStatus, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to complete prescription details: %v", err)
	}
	return s.GetByID(id)
}

// Dispense hands out a ready prescription, defaulting the dispensed
// quantity to the prescribed one. The patient advances to
// treatment_completed once nothing of theirs is left to dispense.
func (s *DispensingService) Dispense(id, clerkID int, quantity *int) (*consultationModels.Prescription, error) {
	prescription, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if prescription.PharmacyStatus == consultationModels.PharmacyDispensed {
		return nil, ErrAlreadyDispensed
	}
	if !prescription.IsReadyToDispense() {
		return nil, ErrNotReadyToDispense
	}

	if quantity == nil {
		quantity = prescription.Quantity
	}

	now := time.Now()
	_, err = s.DB.Exec(`
		UPDATE prescriptions
		SET pharmacy_status = ?, dispensed_by = ?, dispensed_date = ?, dispensed_quantity = ?, updated_at = ?
		WHERE id = ?
	`, consultationModels.PharmacyDispensed, clerkID, now, quantity, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to dispense prescription: %v", err)
	}

	if err := s.promotePatientIfDone(prescription.ConsultationID); err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// promotePatientIfDone moves the patient to treatment_completed when every
// prescription of theirs is dispensed or cancelled and the lab stage is
// behind them.
func (s *DispensingService) promotePatientIfDone(consultationID int) error {
	var patientID int
	err := s.DB.QueryRow("SELECT patient_id FROM consultations WHERE id = ?", consultationID).Scan(&patientID)
	if err != nil {
		return err
	}

	var outstanding int
	err = s.DB.QueryRow(`
		SELECT COUNT(*)
		FROM prescriptions pr
		JOIN consultations c ON c.id = pr.consultation_id
		WHERE c.patient_id = ? AND pr.pharmacy_status NOT IN ('dispensed', 'cancelled')
	`, patientID).Scan(&outstanding)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return nil
	}

	var openOrders int
	err = s.DB.QueryRow(`
		SELECT COUNT(*)
		FROM lab_orders o
		JOIN consultations c ON c.id = o.consultation_id
		WHERE c.patient_id = ? AND o.status = 'ordered'
	`, patientID).Scan(&openOrders)
	if err != nil {
		return err
	}
	if openOrders > 0 {
		return nil
	}

	var status string
	if err := s.DB.QueryRow("SELECT status FROM patients WHERE id = ?", patientID).Scan(&status); err != nil {
		return err
	}
	switch status {
	case patientModels.StatusLabCompleted, patientModels.StatusConsultationDone, patientModels.StatusLabOrdered:
		return patientServices.AdvancePatientStatus(s.DB, patientID, patientModels.StatusTreatmentCompleted)
	}
	return nil
}

// Cancel voids a prescription that has not been dispensed.
func (s *DispensingService) Cancel(id int) (*consultationModels.Prescription, error) {
	prescription, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if prescription.PharmacyStatus == consultationModels.PharmacyDispensed {
		return nil, ErrAlreadyDispensed
	}
	_, err = s.DB.Exec("UPDATE prescriptions SET pharmacy_status = ?, updated_at = ? WHERE id = ?",
		consultationModels.PharmacyCancelled, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel prescription: %v", err)
	}
	return s.GetByID(id)
}

// GetByID loads one prescription with its drug name.
func (s *DispensingService) GetByID(id int) (*consultationModels.Prescription, error) {
	return consultationServices.ScanPrescription(s.DB.QueryRow(prescriptionQueueSelect+" WHERE pr.id = ?", id))
}

// History lists dispensed prescriptions with patient and clerk context,
// newest first.
func (s *DispensingService) History(limit, offset int) ([]map[string]interface{}, error) {
	if limit <= 0 {
		limit = 25
	}
	rows, err := s.DB.Query(`
		SELECT pr.id, pr.custom_drug_name, d.name, pr.dosage, pr.dispensed_quantity, pr.dispensed_date,
		       p.patient_id, p.first_name, p.last_name, u.username
		FROM prescriptions pr
		LEFT JOIN drugs d ON d.id = pr.drug_id
		JOIN consultations c ON c.id = pr.consultation_id
		JOIN patients p ON p.id = c.patient_id
		LEFT JOIN users u ON u.id = pr.dispensed_by
		WHERE pr.pharmacy_status = 'dispensed'
		ORDER BY pr.dispensed_date DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []map[string]interface{}
	for rows.Next() {
		var id int
		var customName, drugName, dosage, clerk sql.NullString
		var dispensedQuantity sql.NullInt64
		var dispensedDate sql.NullTime
		var patientID, firstName, lastName string
		if err := rows.Scan(&id, &customName, &drugName, &dosage, &dispensedQuantity, &dispensedDate,
			&patientID, &firstName, &lastName, &clerk); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}

		displayName := customName.String
		if displayName == "" {
			displayName = drugName.String
		}
		entry := map[string]interface{}{
			"id":           id,
			"drug_name":    displayName,
			"dosage":       dosage.String,
			"patient_id":   patientID,
			"patient_name": firstName + " " + lastName,
			"dispensed_by": clerk.String,
		}
		if dispensedQuantity.Valid {
			entry["dispensed_quantity"] = dispensedQuantity.Int64
		}
		if dispensedDate.Valid {
			entry["dispensed_date"] = dispensedDate.Time
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}
