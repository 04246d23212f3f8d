package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatPatientID renders a patient identifier like TIKO-2025-0001.
func FormatPatientID(prefix string, year int, number int) string {
	return fmt.Sprintf("%s-%d-%04d", prefix, year, number)
}

// NextPatientNumber extracts the running number from the last issued
// patient ID and returns the next one. An empty or malformed last ID
// restarts the sequence at 1.
func NextPatientNumber(lastID string) int {
	if lastID == "" {
		return 1
	}
	parts := strings.Split(lastID, "-")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || n < 0 {
		return 1
	}
	return n + 1
}

// FormatWorksheetNumber renders a worksheet identifier like WS-20250823-001.
func FormatWorksheetNumber(day time.Time, number int) string {
	return fmt.Sprintf("WS-%s-%03d", day.Format("20060102"), number)
}

// NextWorksheetNumber returns the running number following the last
// worksheet number issued on the same day.
func NextWorksheetNumber(lastNumber string) int {
	return NextPatientNumber(lastNumber)
}
