package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsRunning(t *testing.T) {
	c := Campaign{
		Status:    CampaignActive,
		StartDate: day(2026, 8, 1),
		EndDate:   day(2026, 8, 31),
	}

	assert.True(t, c.IsRunning(day(2026, 8, 15)))
	assert.True(t, c.IsRunning(day(2026, 8, 1)))
	assert.True(t, c.IsRunning(day(2026, 8, 31)))
	assert.False(t, c.IsRunning(day(2026, 7, 31)))
	assert.False(t, c.IsRunning(day(2026, 9, 1)))

	c.Status = CampaignDraft
	assert.False(t, c.IsRunning(day(2026, 8, 15)))
}

func TestDaysRemaining(t *testing.T) {
	c := Campaign{
		Status:    CampaignActive,
		StartDate: day(2026, 8, 1),
		EndDate:   day(2026, 8, 31),
	}

	assert.Equal(t, 16, c.DaysRemaining(day(2026, 8, 15)))
	assert.Equal(t, 0, c.DaysRemaining(day(2026, 8, 31)))
	assert.Equal(t, 0, c.DaysRemaining(day(2026, 9, 5)))

	c.Status = CampaignCompleted
	assert.Equal(t, 0, c.DaysRemaining(day(2026, 8, 15)))
}

func TestIsValidTestCategory(t *testing.T) {
	assert.True(t, IsValidTestCategory(TestCategoryBlood))
	assert.True(t, IsValidTestCategory(TestCategoryImaging))
	assert.False(t, IsValidTestCategory("saliva"))
	assert.False(t, IsValidTestCategory(""))
}
