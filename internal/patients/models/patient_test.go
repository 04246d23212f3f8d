package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func TestStatusAdvances(t *testing.T) {
	assert.True(t, StatusAdvances(StatusRegistered, StatusVitalsTaken))
	assert.True(t, StatusAdvances(StatusVitalsTaken, StatusLabOrdered))
	assert.False(t, StatusAdvances(StatusLabCompleted, StatusVitalsTaken))
	assert.False(t, StatusAdvances(StatusRegistered, StatusRegistered))

	// Discharge is reachable from any stage.
	assert.True(t, StatusAdvances(StatusRegistered, StatusDischarged))
	assert.True(t, StatusAdvances(StatusTreatmentCompleted, StatusDischarged))

	assert.False(t, StatusAdvances("bogus", StatusVitalsTaken))
	assert.False(t, StatusAdvances(StatusRegistered, "bogus"))
}

func TestFullName(t *testing.T) {
	p := Patient{FirstName: "Maria", LastName: "Santos"}
	assert.Equal(t, "Maria Santos", p.FullName())

	p.MiddleName = "Clara"
	assert.Equal(t, "Maria Clara Santos", p.FullName())
}

func TestAgeDisplay(t *testing.T) {
	today := time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)

	p := Patient{Age: 30}
	assert.Equal(t, 30, p.AgeDisplay(today))

	dob := time.Date(1990, 8, 24, 0, 0, 0, 0, time.UTC)
	p.DateOfBirth = &dob
	// Birthday tomorrow, still 35.
	assert.Equal(t, 35, p.AgeDisplay(today))

	dob = time.Date(1990, 8, 23, 0, 0, 0, 0, time.UTC)
	p.DateOfBirth = &dob
	assert.Equal(t, 36, p.AgeDisplay(today))
}

func TestBMI(t *testing.T) {
	v := Vitals{Weight: f(70), Height: f(175)}
	bmi := v.BMI()
	require.NotNil(t, bmi)
	assert.InDelta(t, 22.9, *bmi, 0.01)
	assert.Equal(t, "Normal weight", v.BMICategory())

	v = Vitals{Weight: f(95), Height: f(170)}
	assert.Equal(t, "Obese", v.BMICategory())

	v = Vitals{Weight: f(45), Height: f(170)}
	assert.Equal(t, "Underweight", v.BMICategory())

	assert.Nil(t, Vitals{}.BMI())
	assert.Equal(t, "", Vitals{}.BMICategory())
	assert.Nil(t, Vitals{Weight: f(70), Height: f(0)}.BMI())
}

func TestBloodPressure(t *testing.T) {
	assert.Equal(t, "", Vitals{}.BloodPressureDisplay())
	assert.Equal(t, "", Vitals{}.BloodPressureCategory())

	v := Vitals{SystolicBP: i(118), DiastolicBP: i(76)}
	assert.Equal(t, "118/76", v.BloodPressureDisplay())
	assert.Equal(t, "Normal", v.BloodPressureCategory())

	assert.Equal(t, "Elevated", Vitals{SystolicBP: i(125), DiastolicBP: i(78)}.BloodPressureCategory())
	assert.Equal(t, "High Blood Pressure Stage 1", Vitals{SystolicBP: i(135), DiastolicBP: i(85)}.BloodPressureCategory())
	assert.Equal(t, "High Blood Pressure Stage 2", Vitals{SystolicBP: i(150), DiastolicBP: i(95)}.BloodPressureCategory())
	assert.Equal(t, "Hypertensive Crisis", Vitals{SystolicBP: i(185), DiastolicBP: i(125)}.BloodPressureCategory())
}
