package models

import "time"

// Consultation statuses.
const (
	ConsultationInProgress     = "in_progress"
	ConsultationCompleted      = "completed"
	ConsultationFollowUpNeeded = "follow_up_needed"
)

type Consultation struct {
	ID        int `json:"id"`
	PatientID int `json:"patient_id"`
	DoctorID  int `json:"doctor_id"`

	ConsultationDate time.Time `json:"consultation_date"`

	ChiefComplaint          string `json:"chief_complaint,omitempty"`
	HistoryOfPresentIllness string `json:"history_of_present_illness,omitempty"`
	PastMedicalHistory      string `json:"past_medical_history,omitempty"`
	FamilyHistory           string `json:"family_history,omitempty"`
	SocialHistory           string `json:"social_history,omitempty"`

	GeneralAppearance   string `json:"general_appearance,omitempty"`
	PhysicalExamination string `json:"physical_examination,omitempty"`

	ClinicalAssessment string `json:"clinical_assessment,omitempty"`
	WorkingDiagnosis   string `json:"working_diagnosis,omitempty"`
	TreatmentPlan      string `json:"treatment_plan,omitempty"`

	FollowUpInstructions string `json:"follow_up_instructions,omitempty"`
	ReferralNeeded       bool   `json:"referral_needed"`
	ReferralTo           string `json:"referral_to,omitempty"`
	ReferralReason       string `json:"referral_reason,omitempty"`

	Status          string    `json:"status"`
	AdditionalNotes string    `json:"additional_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Lab order statuses. Entering a result moves an order to completed.
const (
	OrderStatusOrdered   = "ordered"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

// Lab order urgencies.
const (
	UrgencyRoutine = "routine"
	UrgencyUrgent  = "urgent"
	UrgencyStat    = "stat"
)

// LabOrder requests one test for a consultation, either from the campaign
// formulary or as free text.
type LabOrder struct {
	ID             int    `json:"id"`
	ConsultationID int    `json:"consultation_id"`
	LabTestID      *int   `json:"lab_test_id,omitempty"`
	CustomTestName string `json:"custom_test_name,omitempty"`

	OrderedDate        time.Time `json:"ordered_date"`
	Urgency            string    `json:"urgency"`
	ClinicalIndication string    `json:"clinical_indication,omitempty"`

	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Denormalized from the formulary when LabTestID is set.
	TestName string `json:"test_name,omitempty"`
}

// DisplayTestName returns the free-text name when set, then the formulary
// name, then a placeholder.
func (o LabOrder) DisplayTestName() string {
	if o.CustomTestName != "" {
		return o.CustomTestName
	}
	if o.TestName != "" {
		return o.TestName
	}
	return "Lab Test (To be specified)"
}

// CanEnterResults reports whether the order still awaits a result.
func (o LabOrder) CanEnterResults() bool {
	return o.Status == OrderStatusOrdered
}

// Pharmacy workflow statuses for prescriptions.
const (
	PharmacyPendingReview   = "pending_review"
	PharmacyDetailsNeeded   = "details_needed"
	PharmacyReadyToDispense = "ready_to_dispense"
	PharmacyDispensed       = "dispensed"
	PharmacyCancelled       = "cancelled"
)

// Medication routes.
const (
	RouteOral       = "oral"
	RouteTopical    = "topical"
	RouteInjection  = "injection"
	RouteInhalation = "inhalation"
	RouteOther      = "other"
)

type Prescription struct {
	ID             int    `json:"id"`
	ConsultationID int    `json:"consultation_id"`
	DrugID         *int   `json:"drug_id,omitempty"`
	CustomDrugName string `json:"custom_drug_name,omitempty"`

	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
	Duration  string `json:"duration,omitempty"`
	Route     string `json:"route"`

	Instructions string `json:"instructions,omitempty"`
	Indication   string `json:"indication,omitempty"`

	Quantity *int `json:"quantity,omitempty"`
	Refills  int  `json:"refills"`

	PharmacyStatus string `json:"pharmacy_status"`

	DispensedBy       *int       `json:"dispensed_by,omitempty"`
	DispensedDate     *time.Time `json:"dispensed_date,omitempty"`
	DispensedQuantity *int       `json:"dispensed_quantity,omitempty"`

	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Denormalized from the formulary when DrugID is set.
	DrugName string `json:"drug_name,omitempty"`
}

// DisplayDrugName returns the free-text name when set, then the formulary
// name, then a placeholder.
func (p Prescription) DisplayDrugName() string {
	if p.CustomDrugName != "" {
		return p.CustomDrugName
	}
	if p.DrugName != "" {
		return p.DrugName
	}
	return "Medication (To be specified)"
}

// HasCompleteDetails reports whether dosage, frequency and duration are
// all filled in.
func (p Prescription) HasCompleteDetails() bool {
	return p.Dosage != "" && p.Frequency != "" && p.Duration != ""
}

// DerivePharmacyStatus recomputes the pharmacy workflow status from the
// prescription's completeness. Dispensed and cancelled are terminal.
func (p Prescription) DerivePharmacyStatus() string {
	if p.PharmacyStatus == PharmacyDispensed || p.PharmacyStatus == PharmacyCancelled {
		return p.PharmacyStatus
	}
	if p.HasCompleteDetails() {
		return PharmacyReadyToDispense
	}
	return PharmacyDetailsNeeded
}

// IsReadyToDispense reports whether the prescription can be handed out.
func (p Prescription) IsReadyToDispense() bool {
	return p.HasCompleteDetails() && p.PharmacyStatus == PharmacyReadyToDispense
}
