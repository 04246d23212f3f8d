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
	ErrPatientNotFound     = errors.New("patient not found")
	ErrInvalidConsultation = errors.New("invalid consultation status")
)

type ConsultationService struct {
	DB *sql.DB
}

func NewConsultationService(db *sql.DB) *ConsultationService {
	return &ConsultationService{DB: db}
}

// Create opens a consultation for a patient.
func (s *ConsultationService) Create(c models.Consultation) (*models.Consultation, error) {
	var patientExists int
	err := s.DB.QueryRow("SELECT id FROM patients WHERE id = ?", c.PatientID).Scan(&patientExists)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	now := time.Now()
	if c.ConsultationDate.IsZero() {
		c.ConsultationDate = now
	}
	if c.Status == "" {
		c.Status = models.ConsultationInProgress
	}

	query := `
		INSERT INTO consultations
			(patient_id, doctor_id, consultation_date,
			 chief_complaint, history_of_present_illness, past_medical_history, family_history, social_history,
			 general_appearance, physical_examination,
			 clinical_assessment, working_diagnosis, treatment_plan,
			 follow_up_instructions, referral_needed, referral_to, referral_reason,
			 status, additional_notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.DB.Exec(query,
		c.PatientID, c.DoctorID, c.ConsultationDate,
		c.ChiefComplaint, c.HistoryOfPresentIllness, c.PastMedicalHistory, c.FamilyHistory, c.SocialHistory,
		c.GeneralAppearance, c.PhysicalExamination,
		c.ClinicalAssessment, c.WorkingDiagnosis, c.TreatmentPlan,
		c.FollowUpInstructions, c.ReferralNeeded, c.ReferralTo, c.ReferralReason,
		c.Status, c.AdditionalNotes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create consultation: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(int(id))
}

// UpdateRequest carries the editable clinical fields; nil pointers are
// left unchanged.
type UpdateRequest struct {
	ChiefComplaint          *string `json:"chief_complaint"`
	HistoryOfPresentIllness *string `json:"history_of_present_illness"`
	PastMedicalHistory      *string `json:"past_medical_history"`
	FamilyHistory           *string `json:"family_history"`
	SocialHistory           *string `json:"social_history"`
	GeneralAppearance       *string `json:"general_appearance"`
	PhysicalExamination     *string `json:"physical_examination"`
	ClinicalAssessment      *string `json:"clinical_assessment"`
	WorkingDiagnosis        *string `json:"working_diagnosis"`
	TreatmentPlan           *string `json:"treatment_plan"`
	FollowUpInstructions    *string `json:"follow_up_instructions"`
	ReferralNeeded          *bool   `json:"referral_needed"`
	ReferralTo              *string `json:"referral_to"`
	ReferralReason          *string `json:"referral_reason"`
	AdditionalNotes         *string `json:"additional_notes"`
}

// Update applies partial changes.
func (s *ConsultationService) Update(id int, req UpdateRequest) (*models.Consultation, error) {
	sets := []string{}
	params := []interface{}{}

	add := func(column string, value interface{}) {
		sets = append(sets, column+" = ?")
		params = append(params, value)
	}

	if req.ChiefComplaint != nil {
		add("chief_complaint", *req.ChiefComplaint)
	}
	if req.HistoryOfPresentIllness != nil {
		add("history_of_present_illness", *req.HistoryOfPresentIllness)
	}
	if req.PastMedicalHistory != nil {
		add("past_medical_history", *req.PastMedicalHistory)
	}
	if req.FamilyHistory != nil {
		add("family_history", *req.FamilyHistory)
	}
	if req.SocialHistory != nil {
		add("social_history", *req.SocialHistory)
	}
	if req.GeneralAppearance != nil {
		add("general_appearance", *req.GeneralAppearance)
	}
	if req.PhysicalExamination != nil {
		add("physical_examination", *req.PhysicalExamination)
	}
	if req.ClinicalAssessment != nil {
		add("clinical_assessment", *req.ClinicalAssessment)
	}
	if req.WorkingDiagnosis != nil {
		add("working_diagnosis", *req.WorkingDiagnosis)
	}
	if req.TreatmentPlan != nil {
		add("treatment_plan", *req.TreatmentPlan)
	}
	if req.FollowUpInstructions != nil {
		add("follow_up_instructions", *req.FollowUpInstructions)
	}
	if req.ReferralNeeded != nil {
		add("referral_needed", *req.ReferralNeeded)
	}
	if req.ReferralTo != nil {
		add("referral_to", *req.ReferralTo)
	}
	if req.ReferralReason != nil {
		add("referral_reason", *req.ReferralReason)
	}
	if req.AdditionalNotes != nil {
		add("additional_notes", *req.AdditionalNotes)
	}

	if len(sets) > 0 {
		sets = append(sets, "updated_at = ?")
		params = append(params, time.Now(), id)
		query := "UPDATE consultations SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := s.DB.Exec(query, params...); err != nil {
			return nil, fmt.Errorf("failed to update consultation: %v", err)
		}
	}
	return s.GetByID(id)
}

// SetStatus completes a consultation or flags it for follow-up. Completing
// moves the patient to consultation_done unless they are already further
// along the workflow.
func (s *ConsultationService) SetStatus(id int, status string) (*models.Consultation, error) {
	switch status {
	case models.ConsultationInProgress, models.ConsultationCompleted, models.ConsultationFollowUpNeeded:
	default:
		return nil, ErrInvalidConsultation
	}

	consultation, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	_, err = s.DB.Exec("UPDATE consultations SET status = ?, updated_at = ? WHERE id = ?", status, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update consultation status: %v", err)
	}

	if status == models.ConsultationCompleted {
		err := patientServices.AdvancePatientStatus(s.DB, consultation.PatientID, patientModels.StatusConsultationDone)
		if err != nil && err != patientServices.ErrInvalidStatusMove {
			return nil, err
		}
	}
	return s.GetByID(id)
}

const consultationSelect = `
	SELECT id, patient_id, doctor_id, consultation_date,
	       chief_complaint, history_of_present_illness, past_medical_history, family_history, social_history,
	       general_appearance, physical_examination,
	       clinical_assessment, working_diagnosis, treatment_plan,
	       follow_up_instructions, referral_needed, referral_to, referral_reason,
	       status, additional_notes, created_at, updated_at
	FROM consultations
`

type consultationScanner interface {
	Scan(dest ...interface{}) error
}

func scanConsultation(row consultationScanner) (*models.Consultation, error) {
	var c models.Consultation
	var chiefComplaint, hpi, pmh, familyHistory, socialHistory sql.NullString
	var appearance, examination, assessment, diagnosis, plan sql.NullString
	var followUp, referralTo, referralReason, notes sql.NullString
	err := row.Scan(&c.ID, &c.PatientID, &c.DoctorID, &c.ConsultationDate,
		&chiefComplaint, &hpi, &pmh, &familyHistory, &socialHistory,
		&appearance, &examination,
		&assessment, &diagnosis, &plan,
		&followUp, &c.ReferralNeeded, &referralTo, &referralReason,
		&c.Status, &notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.ChiefComplaint = chiefComplaint.String
	c.HistoryOfPresentIllness = hpi.String
	c.PastMedicalHistory = pmh.String
	c.FamilyHistory = familyHistory.String
	c.SocialHistory = socialHistory.String
	c.GeneralAppearance = appearance.String
	c.PhysicalExamination = examination.String
	c.ClinicalAssessment = assessment.String
	c.WorkingDiagnosis = diagnosis.String
	c.TreatmentPlan = plan.String
	c.FollowUpInstructions = followUp.String
	c.ReferralTo = referralTo.String
	c.ReferralReason = referralReason.String
	c.AdditionalNotes = notes.String
	return &c, nil
}

// GetByID loads one consultation.
func (s *ConsultationService) GetByID(id int) (*models.Consultation, error) {
	return scanConsultation(s.DB.QueryRow(consultationSelect+" WHERE id = ?", id))
}

// List returns consultations filtered by patient, doctor and status.
func (s *ConsultationService) List(patientID, doctorID int, status string, limit, offset int) ([]models.Consultation, error) {
	baseQuery := consultationSelect
	conditions := []string{}
	params := []interface{}{}

	if patientID > 0 {
		conditions = append(conditions, "patient_id = ?")
		params = append(params, patientID)
	}
	if doctorID > 0 {
		conditions = append(conditions, "doctor_id = ?")
		params = append(params, doctorID)
	}
	if status != "" {
		conditions = append(conditions, "status = ?")
		params = append(params, status)
	}

	if len(conditions) > 0 {
		baseQuery += " WHERE " + strings.Join(conditions, " AND ")
	}
	baseQuery += " ORDER BY consultation_date DESC LIMIT ? OFFSET ?"
	if limit <= 0 {
		limit = 25
	}
	params = append(params, limit, offset)

	rows, err := s.DB.Query(baseQuery, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}
