package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidInterpretation(t *testing.T) {
	assert.True(t, IsValidInterpretation(InterpretationNormal))
	assert.True(t, IsValidInterpretation(InterpretationCriticalHigh))
	assert.True(t, IsValidInterpretation(InterpretationInconclusive))
	assert.False(t, IsValidInterpretation("slightly_off"))
	assert.False(t, IsValidInterpretation(""))
}

func TestIsAbnormal(t *testing.T) {
	assert.False(t, LabResult{Interpretation: InterpretationNormal}.IsAbnormal())
	assert.False(t, LabResult{Interpretation: InterpretationInconclusive}.IsAbnormal())
	assert.True(t, LabResult{Interpretation: InterpretationAbnormalLow}.IsAbnormal())
	assert.True(t, LabResult{Interpretation: InterpretationAbnormalHigh}.IsAbnormal())
	assert.True(t, LabResult{Interpretation: InterpretationCriticalLow}.IsAbnormal())
}

func TestNeedsAttention(t *testing.T) {
	assert.False(t, LabResult{Interpretation: InterpretationNormal}.NeedsAttention())
	assert.False(t, LabResult{Interpretation: InterpretationAbnormalHigh}.NeedsAttention())
	assert.True(t, LabResult{Interpretation: InterpretationCriticalHigh}.NeedsAttention())
	assert.True(t, LabResult{Interpretation: InterpretationCriticalLow}.NeedsAttention())

	// The critical flag forces attention regardless of interpretation.
	assert.True(t, LabResult{Interpretation: InterpretationNormal, IsCritical: true}.NeedsAttention())
}
