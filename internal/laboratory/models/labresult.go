package models

import "time"

// Result interpretations.
const (
	InterpretationNormal       = "normal"
	InterpretationAbnormalLow  = "abnormal_low"
	InterpretationAbnormalHigh = "abnormal_high"
	InterpretationCriticalLow  = "critical_low"
	InterpretationCriticalHigh = "critical_high"
	InterpretationInconclusive = "inconclusive"
)

// IsValidInterpretation reports whether the interpretation is a known one.
func IsValidInterpretation(v string) bool {
	switch v {
	case InterpretationNormal, InterpretationAbnormalLow, InterpretationAbnormalHigh,
		InterpretationCriticalLow, InterpretationCriticalHigh, InterpretationInconclusive:
		return true
	}
	return false
}

// Sample quality grades.
const (
	SampleGood         = "good"
	SampleAcceptable   = "acceptable"
	SamplePoor         = "poor"
	SampleHemolyzed    = "hemolyzed"
	SampleClotted      = "clotted"
	SampleInsufficient = "insufficient"
)

// Result statuses.
const (
	ResultCompleted = "completed"
	ResultVerified  = "verified"
)

// LabResult stores the outcome for one lab order.
type LabResult struct {
	ID         int `json:"id"`
	LabOrderID int `json:"lab_order_id"`

	ResultValue    string `json:"result_value"`
	ResultUnit     string `json:"result_unit,omitempty"`
	ReferenceRange string `json:"reference_range,omitempty"`
	Interpretation string `json:"interpretation,omitempty"`

	TechnicianNotes    string `json:"technician_notes,omitempty"`
	ClinicalConclusion string `json:"clinical_conclusion,omitempty"`
	SampleQuality      string `json:"sample_quality"`
	TestMethod         string `json:"test_method,omitempty"`

	IsCritical         bool       `json:"is_critical"`
	CriticalNotified   bool       `json:"critical_notified"`
	CriticalNotifiedAt *time.Time `json:"critical_notified_at,omitempty"`

	Status       string     `json:"status"`
	TechnicianID int        `json:"technician_id"`
	ResultDate   time.Time  `json:"result_date"`
	VerifiedBy   *int       `json:"verified_by,omitempty"`
	VerifiedAt   *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAbnormal reports whether the interpretation is out of range.
func (r LabResult) IsAbnormal() bool {
	switch r.Interpretation {
	case InterpretationAbnormalLow, InterpretationAbnormalHigh,
		InterpretationCriticalLow, InterpretationCriticalHigh:
		return true
	}
	return false
}

// NeedsAttention reports whether the result requires immediate follow-up.
func (r LabResult) NeedsAttention() bool {
	return r.IsCritical ||
		r.Interpretation == InterpretationCriticalLow ||
		r.Interpretation == InterpretationCriticalHigh
}

// Worksheet statuses.
const (
	WorksheetCreated    = "created"
	WorksheetInProgress = "in_progress"
	WorksheetCompleted  = "completed"
	WorksheetReviewed   = "reviewed"
)

// Worksheet batches lab orders of one test type for a technician run.
type Worksheet struct {
	ID              int        `json:"id"`
	WorksheetNumber string     `json:"worksheet_number"`
	LabTestID       int        `json:"lab_test_id"`
	TechnicianID    int        `json:"technician_id"`
	CreatedDate     time.Time  `json:"created_date"`
	RunDate         *time.Time `json:"run_date,omitempty"`
	Status          string     `json:"status"`
	ControlResults  string     `json:"control_results,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// WorksheetOrder places a lab order at a position on a worksheet.
type WorksheetOrder struct {
	ID          int `json:"id"`
	LabOrderID  int `json:"lab_order_id"`
	WorksheetID int `json:"worksheet_id"`
	Position    int `json:"position"`
}
