package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayTestName(t *testing.T) {
	assert.Equal(t, "Lab Test (To be specified)", LabOrder{}.DisplayTestName())
	assert.Equal(t, "Hemoglobin A1c", LabOrder{TestName: "Hemoglobin A1c"}.DisplayTestName())
	assert.Equal(t, "Special Panel",
		LabOrder{CustomTestName: "Special Panel", TestName: "Hemoglobin A1c"}.DisplayTestName())
}

func TestCanEnterResults(t *testing.T) {
	assert.True(t, LabOrder{Status: OrderStatusOrdered}.CanEnterResults())
	assert.False(t, LabOrder{Status: OrderStatusCompleted}.CanEnterResults())
	assert.False(t, LabOrder{Status: OrderStatusCancelled}.CanEnterResults())
}

func TestDisplayDrugName(t *testing.T) {
	assert.Equal(t, "Medication (To be specified)", Prescription{}.DisplayDrugName())
	assert.Equal(t, "Metformin 500mg", Prescription{DrugName: "Metformin 500mg"}.DisplayDrugName())
	assert.Equal(t, "Compounded Mix",
		Prescription{CustomDrugName: "Compounded Mix", DrugName: "Metformin 500mg"}.DisplayDrugName())
}

func TestDerivePharmacyStatus(t *testing.T) {
	incomplete := Prescription{Dosage: "500mg", PharmacyStatus: PharmacyPendingReview}
	assert.Equal(t, PharmacyDetailsNeeded, incomplete.DerivePharmacyStatus())

	complete := Prescription{
		Dosage:         "500mg",
		Frequency:      "twice daily",
		Duration:       "7 days",
		PharmacyStatus: PharmacyDetailsNeeded,
	}
	assert.Equal(t, PharmacyReadyToDispense, complete.DerivePharmacyStatus())

	// Terminal statuses never change.
	dispensed := complete
	dispensed.PharmacyStatus = PharmacyDispensed
	assert.Equal(t, PharmacyDispensed, dispensed.DerivePharmacyStatus())

	cancelled := Prescription{PharmacyStatus: PharmacyCancelled}
	assert.Equal(t, PharmacyCancelled, cancelled.DerivePharmacyStatus())
}

func TestIsReadyToDispense(t *testing.T) {
	p := Prescription{
		Dosage:         "500mg",
		Frequency:      "twice daily",
		Duration:       "7 days",
		PharmacyStatus: PharmacyReadyToDispense,
	}
	assert.True(t, p.IsReadyToDispense())

	p.PharmacyStatus = PharmacyPendingReview
	assert.False(t, p.IsReadyToDispense())

	p.PharmacyStatus = PharmacyReadyToDispense
	p.Duration = ""
	assert.False(t, p.IsReadyToDispense())
}
