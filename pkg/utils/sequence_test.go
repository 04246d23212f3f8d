package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatPatientID(t *testing.T) {
	assert.Equal(t, "TIKO-2026-0001", FormatPatientID("TIKO", 2026, 1))
	assert.Equal(t, "TIKO-2026-0042", FormatPatientID("TIKO", 2026, 42))
	assert.Equal(t, "CAMP-2025-1234", FormatPatientID("CAMP", 2025, 1234))
}

func TestNextPatientNumber(t *testing.T) {
	assert.Equal(t, 1, NextPatientNumber(""))
	assert.Equal(t, 2, NextPatientNumber("TIKO-2026-0001"))
	assert.Equal(t, 100, NextPatientNumber("TIKO-2026-0099"))
	// Malformed identifiers restart the sequence rather than panicking.
	assert.Equal(t, 1, NextPatientNumber("garbage"))
}

func TestFormatWorksheetNumber(t *testing.T) {
	day := time.Date(2026, 8, 23, 14, 0, 0, 0, time.UTC)
	assert.Equal(t, "WS-20260823-001", FormatWorksheetNumber(day, 1))
	assert.Equal(t, "WS-20260823-017", FormatWorksheetNumber(day, 17))
}

func TestNextWorksheetNumber(t *testing.T) {
	assert.Equal(t, 1, NextWorksheetNumber(""))
	assert.Equal(t, 4, NextWorksheetNumber("WS-20260823-003"))
}
