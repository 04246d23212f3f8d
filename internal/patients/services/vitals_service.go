package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tikohealth/campaign-backend/internal/patients/models"
)

var ErrVitalsOutOfRange = errors.New("vital sign value out of accepted range")

type VitalsService struct {
	DB *sql.DB
}

func NewVitalsService(db *sql.DB) *VitalsService {
	return &VitalsService{DB: db}
}

// validate enforces the clinical ranges accepted at intake.
func validate(v models.Vitals) error {
	if v.SystolicBP != nil && (*v.SystolicBP < 50 || *v.SystolicBP > 300) {
		return ErrVitalsOutOfRange
	}
	if v.DiastolicBP != nil && (*v.DiastolicBP < 30 || *v.DiastolicBP > 200) {
		return ErrVitalsOutOfRange
	}
	if v.HeartRate != nil && (*v.HeartRate < 30 || *v.HeartRate > 250) {
		return ErrVitalsOutOfRange
	}
	if v.GestationalAge != nil && (*v.GestationalAge < 1 || *v.GestationalAge > 42) {
		return ErrVitalsOutOfRange
	}
	if v.AgeAtFirstPregnancy != nil && (*v.AgeAtFirstPregnancy < 10 || *v.AgeAtFirstPregnancy > 50) {
		return ErrVitalsOutOfRange
	}
	return nil
}

// Save upserts the single vitals record of a patient and moves a freshly
// registered patient to vitals_taken.
func (s *VitalsService) Save(v models.Vitals) (*models.Vitals, error) {
	if err := validate(v); err != nil {
		return nil, err
	}

	// The patient lookup runs first so an unknown patient surfaces as
	// sql.ErrNoRows instead of a foreign key violation on the insert.
	var status string
	if err := s.DB.QueryRow("SELECT status FROM patients WHERE id = ?", v.PatientID).Scan(&status); err != nil {
		return nil, err
	}

	now := time.Now()
	var existingID int
	err := s.DB.QueryRow("SELECT id FROM vitals WHERE patient_id = ?", v.PatientID).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		query := `
			INSERT INTO vitals
				(patient_id, weight, height, temperature, systolic_bp, diastolic_bp, heart_rate,
				 glucose_type, blood_glucose, lmp, is_pregnant, gestational_age, age_at_first_pregnancy,
				 notes, recorded_by, recorded_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = s.DB.Exec(query,
			v.PatientID, v.Weight, v.Height, v.Temperature, v.SystolicBP, v.DiastolicBP, v.HeartRate,
			nullIfEmpty(v.GlucoseType), v.BloodGlucose, v.LMP, v.IsPregnant, v.GestationalAge, v.AgeAtFirstPregnancy,
			v.Notes, v.RecordedBy, now, now,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to save vitals: %v", err)
		}
	case err == nil:
		query := `
			UPDATE vitals SET
				weight = ?, height = ?, temperature = ?, systolic_bp = ?, diastolic_bp = ?, heart_rate = ?,
				glucose_type = ?, blood_glucose = ?, lmp = ?, is_pregnant = ?, gestational_age = ?,
				age_at_first_pregnancy = ?, notes = ?, recorded_by = ?, updated_at = ?
			WHERE patient_id = ?
		`
		_, err = s.DB.Exec(query,
			v.Weight, v.Height, v.Temperature, v.SystolicBP, v.DiastolicBP, v.HeartRate,
			nullIfEmpty(v.GlucoseType), v.BloodGlucose, v.LMP, v.IsPregnant, v.GestationalAge,
			v.AgeAtFirstPregnancy, v.Notes, v.RecordedBy, now, v.PatientID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update vitals: %v", err)
		}
	default:
		return nil, err
	}

	// A registered patient advances once vitals exist; patients already
	// further along stay where they are.
	if status == models.StatusRegistered {
		if err := AdvancePatientStatus(s.DB, v.PatientID, models.StatusVitalsTaken); err != nil {
			return nil, err
		}
	}

	return s.GetByPatientID(v.PatientID)
}

// GetByPatientID loads the vitals record for a patient.
func (s *VitalsService) GetByPatientID(patientID int) (*models.Vitals, error) {
	query := `
		SELECT id, patient_id, weight, height, temperature, systolic_bp, diastolic_bp, heart_rate,
		       glucose_type, blood_glucose, lmp, is_pregnant, gestational_age, age_at_first_pregnancy,
		       notes, recorded_by, recorded_at, updated_at
		FROM vitals
		WHERE patient_id = ?
	`
	var v models.Vitals
	var weight, height, temperature, bloodGlucose sql.NullFloat64
	var systolic, diastolic, heartRate, gestationalAge, firstPregnancy sql.NullInt64
	var glucoseType, notes sql.NullString
	var lmp sql.NullTime

	err := s.DB.QueryRow(query, patientID).Scan(
		&v.ID, &v.PatientID, &weight, &height, &temperature, &systolic, &diastolic, &heartRate,
		&glucoseType, &bloodGlucose, &lmp, &v.IsPregnant, &gestationalAge, &firstPregnancy,
		&notes, &v.RecordedBy, &v.RecordedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}

	v.Weight = nullFloat(weight)
	v.Height = nullFloat(height)
	v.Temperature = nullFloat(temperature)
	v.BloodGlucose = nullFloat(bloodGlucose)
	v.SystolicBP = nullInt(systolic)
	v.DiastolicBP = nullInt(diastolic)
	v.HeartRate = nullInt(heartRate)
	v.GestationalAge = nullInt(gestationalAge)
	v.AgeAtFirstPregnancy = nullInt(firstPregnancy)
	v.GlucoseType = glucoseType.String
	v.Notes = notes.String
	if lmp.Valid {
		v.LMP = &lmp.Time
	}
	return &v, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullFloat(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	f := n.Float64
	return &f
}

func nullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	i := int(n.Int64)
	return &i
}
