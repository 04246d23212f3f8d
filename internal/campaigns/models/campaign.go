package models

import "time"

// Campaign statuses.
const (
	CampaignDraft     = "draft"
	CampaignActive    = "active"
	CampaignCompleted = "completed"
	CampaignCancelled = "cancelled"
)

type Campaign struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	HealthArea  string    `json:"health_area"`
	ConsentText string    `json:"consent_text"`
	Status      string    `json:"status"`
	MaxPatients *int      `json:"max_patients,omitempty"`
	CreatedBy   int       `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsRunning reports whether the campaign is active and today falls inside
// its date window.
func (c Campaign) IsRunning(today time.Time) bool {
	day := today.Truncate(24 * time.Hour)
	return c.Status == CampaignActive &&
		!day.Before(c.StartDate.Truncate(24*time.Hour)) &&
		!day.After(c.EndDate.Truncate(24*time.Hour))
}

// DaysRemaining returns how many days are left in an active campaign.
func (c Campaign) DaysRemaining(today time.Time) int {
	if c.Status != CampaignActive {
		return 0
	}
	day := today.Truncate(24 * time.Hour)
	end := c.EndDate.Truncate(24 * time.Hour)
	if day.After(end) {
		return 0
	}
	return int(end.Sub(day).Hours() / 24)
}

// Lab test categories.
const (
	TestCategoryBlood   = "blood"
	TestCategoryUrine   = "urine"
	TestCategoryStool   = "stool"
	TestCategoryImaging = "imaging"
	TestCategoryOther   = "other"
)

// IsValidTestCategory reports whether the category is a known one.
func IsValidTestCategory(category string) bool {
	switch category {
	case TestCategoryBlood, TestCategoryUrine, TestCategoryStool, TestCategoryImaging, TestCategoryOther:
		return true
	}
	return false
}

// LabTest is a catalog entry selectable in campaign formularies.
type LabTest struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description,omitempty"`
	NormalRange string    `json:"normal_range,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Drug categories.
const (
	DrugCategoryAnalgesic        = "analgesic"
	DrugCategoryAntibiotic       = "antibiotic"
	DrugCategoryAntihypertensive = "antihypertensive"
	DrugCategoryAntidiabetic     = "antidiabetic"
	DrugCategoryVitamin          = "vitamin"
	DrugCategoryOther            = "other"
)

// Drug is a formulary catalog entry.
type Drug struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	GenericName string    `json:"generic_name,omitempty"`
	Strength    string    `json:"strength,omitempty"`
	DosageForm  string    `json:"dosage_form,omitempty"`
	Category    string    `json:"category"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CampaignLabTest links a test into a campaign's default panel.
type CampaignLabTest struct {
	ID         int  `json:"id"`
	CampaignID int  `json:"campaign_id"`
	LabTestID  int  `json:"lab_test_id"`
	IsDefault  bool `json:"is_default"`
	SortOrder  int  `json:"sort_order"`
}

// CampaignDrug links a drug into a campaign's formulary.
type CampaignDrug struct {
	ID            int  `json:"id"`
	CampaignID    int  `json:"campaign_id"`
	DrugID        int  `json:"drug_id"`
	IsPreferred   bool `json:"is_preferred"`
	StockQuantity *int `json:"stock_quantity,omitempty"`
	SortOrder     int  `json:"sort_order"`
}
