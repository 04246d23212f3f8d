package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tikohealth/campaign-backend/internal/campaigns/models"
)

var (
	ErrCampaignNameTaken = errors.New("campaign name already exists")
	ErrInvalidTransition = errors.New("invalid campaign status transition")
	ErrInvalidDateWindow = errors.New("end date must not be before start date")
)

type CampaignService struct {
	DB *sql.DB
}

func NewCampaignService(db *sql.DB) *CampaignService {
	return &CampaignService{DB: db}
}

// CampaignRequest is the create/update payload.
type CampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"` // YYYY-MM-DD
	EndDate     string `json:"end_date"`   // YYYY-MM-DD
	HealthArea  string `json:"health_area"`
	ConsentText string `json:"consent_text"`
	MaxPatients *int   `json:"max_patients"`
}

// Create inserts a draft campaign.
func (s *CampaignService) Create(req CampaignRequest, createdBy int) (*models.Campaign, error) {
	start, end, err := parseDateWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var existingID int
	err = s.DB.QueryRow("SELECT id FROM campaigns WHERE name = ?", req.Name).Scan(&existingID)
	if err == nil {
		return nil, ErrCampaignNameTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	now := time.Now()
	query := `
		INSERT INTO campaigns
			(name, description, start_date, end_date, health_area, consent_text, status, max_patients, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.DB.Exec(query,
		req.Name, req.Description, start, end, req.HealthArea, req.ConsentText,
		models.CampaignDraft, req.MaxPatients, createdBy, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create campaign: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(int(id))
}

// Update edits a campaign's descriptive fields.
func (s *CampaignService) Update(id int, req CampaignRequest) (*models.Campaign, error) {
	start, end, err := parseDateWindow(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	var existingID int
	err = s.DB.QueryRow("SELECT id FROM campaigns WHERE name = ? AND id <> ?", req.Name, id).Scan(&existingID)
	if err == nil {
		return nil, ErrCampaignNameTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
		UPDATE campaigns
		SET name = ?, description = ?, start_date = ?, end_date = ?, health_area = ?,
		    consent_text = ?, max_patients = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := s.DB.Exec(query,
		req.Name, req.Description, start, end, req.HealthArea,
		req.ConsentText, req.MaxPatients, time.Now(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		if _, err := s.GetByID(id); err != nil {
			return nil, err
		}
	}
	return s.GetByID(id)
}

// Transitions allowed from each campaign status.
var campaignTransitions = map[string][]string{
	models.CampaignDraft:  {models.CampaignActive, models.CampaignCancelled},
	models.CampaignActive: {models.CampaignCompleted, models.CampaignCancelled},
}

// SetStatus moves a campaign through its lifecycle.
func (s *CampaignService) SetStatus(id int, next string) (*models.Campaign, error) {
	campaign, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, target := range campaignTransitions[campaign.Status] {
		if target == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, ErrInvalidTransition
	}

	_, err = s.DB.Exec("UPDATE campaigns SET status = ?, updated_at = ? WHERE id = ?", next, time.Now(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update campaign status: %v", err)
	}
	return s.GetByID(id)
}

const campaignSelect = `
	SELECT id, name, description, start_date, end_date, health_area, consent_text,
	       status, max_patients, created_by, created_at, updated_at
	FROM campaigns
`

// GetByID loads one campaign.
func (s *CampaignService) GetByID(id int) (*models.Campaign, error) {
	return scanCampaign(s.DB.QueryRow(campaignSelect+" WHERE id = ?", id))
}

// List returns campaigns, optionally filtered by status.
func (s *CampaignService) List(status string) ([]models.Campaign, error) {
	query := campaignSelect
	params := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		params = append(params, status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.DB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// PatientCount returns how many patients are registered to a campaign.
func (s *CampaignService) PatientCount(id int) (int, error) {
	var n int
	err := s.DB.QueryRow("SELECT COUNT(*) FROM patients WHERE campaign_id = ?", id).Scan(&n)
	return n, err
}

// Detail returns a campaign with its derived figures.
func (s *CampaignService) Detail(id int) (map[string]interface{}, error) {
	campaign, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	patients, err := s.PatientCount(id)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"campaign":       campaign,
		"patient_count":  patients,
		"days_remaining": campaign.DaysRemaining(time.Now()),
		"is_running":     campaign.IsRunning(time.Now()),
	}, nil
}

type campaignScanner interface {
	Scan(dest ...interface{}) error
}

func scanCampaign(row campaignScanner) (*models.Campaign, error) {
	var c models.Campaign
	var description sql.NullString
	var maxPatients sql.NullInt64
	err := row.Scan(&c.ID, &c.Name, &description, &c.StartDate, &c.EndDate,
		&c.HealthArea, &c.ConsentText, &c.Status, &maxPatients,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.Description = description.String
	if maxPatients.Valid {
		n := int(maxPatients.Int64)
		c.MaxPatients = &n
	}
	return &c, nil
}

func parseDateWindow(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start_date: use YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end_date: use YYYY-MM-DD")
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDateWindow
	}
	return start, end, nil
}
