package models

import (
	"fmt"
	"time"
)

// Patient workflow statuses, in order of progression.
const (
	StatusRegistered         = "registered"
	StatusVitalsTaken        = "vitals_taken"
	StatusConsultationDone   = "consultation_done"
	StatusLabOrdered         = "lab_ordered"
	StatusLabCompleted       = "lab_completed"
	StatusTreatmentCompleted = "treatment_completed"
	StatusDischarged         = "discharged"
)

var statusRank = map[string]int{
	StatusRegistered:         0,
	StatusVitalsTaken:        1,
	StatusConsultationDone:   2,
	StatusLabOrdered:         3,
	StatusLabCompleted:       4,
	StatusTreatmentCompleted: 5,
	StatusDischarged:         6,
}

// StatusAdvances reports whether moving from current to next goes forward
// in the workflow. Discharge is always allowed.
func StatusAdvances(current, next string) bool {
	if next == StatusDischarged {
		return true
	}
	cur, okCur := statusRank[current]
	nxt, okNxt := statusRank[next]
	if !okCur || !okNxt {
		return false
	}
	return nxt > cur
}

type Patient struct {
	ID         int    `json:"id"`
	PatientID  string `json:"patient_id"`
	CampaignID int    `json:"campaign_id"`

	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name,omitempty"`
	LastName   string `json:"last_name"`

	DateOfBirth   *time.Time `json:"date_of_birth,omitempty"`
	Age           int        `json:"age"`
	Gender        string     `json:"gender"`
	MaritalStatus string     `json:"marital_status,omitempty"`

	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
	Address     string `json:"address,omitempty"`

	EmergencyContactName         string `json:"emergency_contact_name,omitempty"`
	EmergencyContactPhone        string `json:"emergency_contact_phone,omitempty"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship,omitempty"`

	HealthArea   string     `json:"health_area"`
	ConsentGiven bool       `json:"consent_given"`
	ConsentDate  *time.Time `json:"consent_date,omitempty"`

	RegisteredBy     int       `json:"registered_by"`
	RegistrationDate time.Time `json:"registration_date"`
	UpdatedAt        time.Time `json:"updated_at"`

	Status string `json:"status"`
}

// FullName joins first, middle and last names.
func (p Patient) FullName() string {
	name := p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	return name + " " + p.LastName
}

// AgeDisplay prefers the age computed from date of birth over the
// recorded age.
func (p Patient) AgeDisplay(today time.Time) int {
	if p.DateOfBirth == nil {
		return p.Age
	}
	dob := *p.DateOfBirth
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() ||
		(today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

// Glucose measurement types.
const (
	GlucoseFasting      = "fbs"
	GlucoseRandom       = "rbs"
	GlucosePostPrandial = "pp"
)

// Vitals holds one set of clinical parameters per patient.
type Vitals struct {
	ID        int `json:"id"`
	PatientID int `json:"patient_id"`

	Weight      *float64 `json:"weight,omitempty"`      // kg
	Height      *float64 `json:"height,omitempty"`      // cm
	Temperature *float64 `json:"temperature,omitempty"` // Celsius

	SystolicBP  *int `json:"systolic_bp,omitempty"`  // mmHg
	DiastolicBP *int `json:"diastolic_bp,omitempty"` // mmHg
	HeartRate   *int `json:"heart_rate,omitempty"`   // bpm

	GlucoseType  string   `json:"glucose_type,omitempty"`
	BloodGlucose *float64 `json:"blood_glucose,omitempty"` // mg/dL

	LMP                 *time.Time `json:"lmp,omitempty"`
	IsPregnant          bool       `json:"is_pregnant"`
	GestationalAge      *int       `json:"gestational_age,omitempty"`
	AgeAtFirstPregnancy *int       `json:"age_at_first_pregnancy,omitempty"`

	Notes      string    `json:"notes,omitempty"`
	RecordedBy int       `json:"recorded_by"`
	RecordedAt time.Time `json:"recorded_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// BMI computes body mass index from weight (kg) and height (cm).
func (v Vitals) BMI() *float64 {
	if v.Weight == nil || v.Height == nil || *v.Height == 0 {
		return nil
	}
	heightM := *v.Height / 100
	bmi := *v.Weight / (heightM * heightM)
	rounded := float64(int(bmi*10+0.5)) / 10
	return &rounded
}

// BMICategory classifies the BMI value.
func (v Vitals) BMICategory() string {
	bmi := v.BMI()
	if bmi == nil {
		return ""
	}
	switch {
	case *bmi < 18.5:
		return "Underweight"
	case *bmi < 25:
		return "Normal weight"
	case *bmi < 30:
		return "Overweight"
	default:
		return "Obese"
	}
}

// BloodPressureDisplay renders systolic/diastolic, empty when incomplete.
func (v Vitals) BloodPressureDisplay() string {
	if v.SystolicBP == nil || v.DiastolicBP == nil {
		return ""
	}
	return fmt.Sprintf("%d/%d", *v.SystolicBP, *v.DiastolicBP)
}

// BloodPressureCategory classifies blood pressure per AHA stages.
func (v Vitals) BloodPressureCategory() string {
	if v.SystolicBP == nil || v.DiastolicBP == nil {
		return ""
	}
	sys, dia := *v.SystolicBP, *v.DiastolicBP
	switch {
	case sys < 120 && dia < 80:
		return "Normal"
	case sys < 130 && dia < 80:
		return "Elevated"
	case sys < 140 || dia < 90:
		return "High Blood Pressure Stage 1"
	case sys < 180 || dia < 120:
		return "High Blood Pressure Stage 2"
	default:
		return "Hypertensive Crisis"
	}
}
