package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tikohealth/campaign-backend/internal/campaigns/models"
)

var (
	ErrTestCodeTaken = errors.New("lab test code already exists")
	ErrDuplicateDrug = errors.New("drug with same name, strength and dosage form already exists")
	ErrAlreadyLinked = errors.New("entry already linked to campaign")
)

// CatalogService manages the lab test catalog, the drug formulary and
// their per-campaign links.
type CatalogService struct {
	DB *sql.DB
}

func NewCatalogService(db *sql.DB) *CatalogService {
	return &CatalogService{DB: db}
}

// LabTestRequest is the catalog create/update payload.
type LabTestRequest struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description"`
	NormalRange string `json:"normal_range"`
	Unit        string `json:"unit"`
	Category    string `json:"category"`
}

// CreateLabTest adds a catalog entry.
func (s *CatalogService) CreateLabTest(req LabTestRequest) (*models.LabTest, error) {
	var existingID int
	err := s.DB.QueryRow("SELECT id FROM lab_tests WHERE code = ?", req.Code).Scan(&existingID)
	if err == nil {
		return nil, ErrTestCodeTaken
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
		INSERT INTO lab_tests (name, code, description, normal_range, unit, category, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?)
	`
	result, err := s.DB.Exec(query, req.Name, req.Code, req.Description, req.NormalRange, req.Unit, req.Category, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create lab test: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetLabTest(int(id))
}

const labTestSelect = `
	SELECT id, name, code, description, normal_range, unit, category, is_active, created_at
	FROM lab_tests
`

// GetLabTest loads one catalog entry.
func (s *CatalogService) GetLabTest(id int) (*models.LabTest, error) {
	var t models.LabTest
	var description, normalRange, unit sql.NullString
	err := s.DB.QueryRow(labTestSelect+" WHERE id = ?", id).Scan(
		&t.ID, &t.Name, &t.Code, &description, &normalRange, &unit, &t.Category, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Description = description.String
	t.NormalRange = normalRange.String
	t.Unit = unit.String
	return &t, nil
}

// ListLabTests returns catalog entries, optionally only active ones or a
// single category.
func (s *CatalogService) ListLabTests(category string, activeOnly bool) ([]models.LabTest, error) {
	query := labTestSelect + " WHERE 1=1"
	params := []interface{}{}
	if category != "" {
		query += " AND category = ?"
		params = append(params, category)
	}
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY category, name"

	rows, err := s.DB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.LabTest
	for rows.Next() {
		var t models.LabTest
		var description, normalRange, unit sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.Code, &description, &normalRange, &unit,
			&t.Category, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		t.Description = description.String
		t.NormalRange = normalRange.String
		t.Unit = unit.String
		list = append(list, t)
	}
	return list, rows.Err()
}

// SetLabTestActive toggles a catalog entry.
func (s *CatalogService) SetLabTestActive(id int, active bool) error {
	result, err := s.DB.Exec("UPDATE lab_tests SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update lab test: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DrugRequest is the formulary create payload.
type DrugRequest struct {
	Name        string `json:"name"`
	GenericName string `json:"generic_name"`
	Strength    string `json:"strength"`
	DosageForm  string `json:"dosage_form"`
	Category    string `json:"category"`
}

// CreateDrug adds a formulary entry; (name, strength, dosage_form) must be
// unique.
func (s *CatalogService) CreateDrug(req DrugRequest) (*models.Drug, error) {
	var existingID int
	err := s.DB.QueryRow(
		"SELECT id FROM drugs WHERE name = ? AND strength = ? AND dosage_form = ?",
		req.Name, req.Strength, req.DosageForm).Scan(&existingID)
	if err == nil {
		return nil, ErrDuplicateDrug
	} else if err != sql.ErrNoRows {
		return nil, err
	}

	query := `
		INSERT INTO drugs (name, generic_name, strength, dosage_form, category, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, 1, ?)
	`
	result, err := s.DB.Exec(query, req.Name, req.GenericName, req.Strength, req.DosageForm, req.Category, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to create drug: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetDrug(int(id))
}

const drugSelect = `
	SELECT id, name, generic_name, strength, dosage_form, category, is_active, created_at
	FROM drugs
`

// GetDrug loads one formulary entry.
func (s *CatalogService) GetDrug(id int) (*models.Drug, error) {
	var d models.Drug
	var genericName, strength, dosageForm sql.NullString
	err := s.DB.QueryRow(drugSelect+" WHERE id = ?", id).Scan(
		&d.ID, &d.Name, &genericName, &strength, &dosageForm, &d.Category, &d.IsActive, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	d.GenericName = genericName.String
	d.Strength = strength.String
	d.DosageForm = dosageForm.String
	return &d, nil
}

// ListDrugs returns formulary entries.
func (s *CatalogService) ListDrugs(category string, activeOnly bool) ([]models.Drug, error) {
	query := drugSelect + " WHERE 1=1"
	params := []interface{}{}
	if category != "" {
		query += " AND category = ?"
		params = append(params, category)
	}
	if activeOnly {
		query += " AND is_active = 1"
	}
	query += " ORDER BY category, name"

	rows, err := s.DB.Query(query, params...)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.Drug
	for rows.Next() {
		var d models.Drug
		var genericName, strength, dosageForm sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &genericName, &strength, &dosageForm,
			&d.Category, &d.IsActive, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		d.GenericName = genericName.String
		d.Strength = strength.String
		d.DosageForm = dosageForm.String
		list = append(list, d)
	}
	return list, rows.Err()
}

// SetDrugActive toggles a formulary entry.
func (s *CatalogService) SetDrugActive(id int, active bool) error {
	result, err := s.DB.Exec("UPDATE drugs SET is_active = ? WHERE id = ?", active, id)
	if err != nil {
		return fmt.Errorf("failed to update drug: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// LinkLabTest attaches a test to a campaign panel.
func (s *CatalogService) LinkLabTest(campaignID, labTestID int, isDefault bool, sortOrder int) error {
	var existingID int
	err := s.DB.QueryRow(
		"SELECT id FROM campaign_lab_tests WHERE campaign_id = ? AND lab_test_id = ?",
		campaignID, labTestID).Scan(&existingID)
	if err == nil {
		return ErrAlreadyLinked
	} else if err != sql.ErrNoRows {
		return err
	}

	_, err = s.DB.Exec(
		"INSERT INTO campaign_lab_tests (campaign_id, lab_test_id, is_default, sort_order) VALUES (?, ?, ?, ?)",
		campaignID, labTestID, isDefault, sortOrder)
	if err != nil {
		return fmt.Errorf("failed to link lab test: %v", err)
	}
	return nil
}

// UnlinkLabTest removes a test from a campaign panel.
func (s *CatalogService) UnlinkLabTest(campaignID, labTestID int) error {
	result, err := s.DB.Exec(
		"DELETE FROM campaign_lab_tests WHERE campaign_id = ? AND lab_test_id = ?",
		campaignID, labTestID)
	if err != nil {
		return fmt.Errorf("failed to unlink lab test: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CampaignLabTests lists the panel of a campaign with catalog details.
func (s *CatalogService) CampaignLabTests(campaignID int) ([]map[string]interface{}, error) {
	rows, err := s.DB.Query(`
		SELECT t.id, t.name, t.code, t.normal_range, t.unit, t.category, clt.is_default, clt.sort_order
		FROM campaign_lab_tests clt
		JOIN lab_tests t ON t.id = clt.lab_test_id
		WHERE clt.campaign_id = ?
		ORDER BY clt.sort_order, t.name
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []map[string]interface{}
	for rows.Next() {
		var id, sortOrder int
		var isDefault bool
		var name, code, category string
		var normalRange, unit sql.NullString
		if err := rows.Scan(&id, &name, &code, &normalRange, &unit, &category, &isDefault, &sortOrder); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, map[string]interface{}{
			"lab_test_id":  id,
			"name":         name,
			"code":         code,
			"normal_range": normalRange.String,
			"unit":         unit.String,
			"category":     category,
			"is_default":   isDefault,
			"sort_order":   sortOrder,
		})
	}
	return list, rows.Err()
}

// LinkDrug attaches a drug to a campaign formulary.
func (s *CatalogService) LinkDrug(campaignID, drugID int, isPreferred bool, stockQuantity *int, sortOrder int) error {
	var existingID int
	err := s.DB.QueryRow(
		"SELECT id FROM campaign_drugs WHERE campaign_id = ? AND drug_id = ?",
		campaignID, drugID).Scan(&existingID)
	if err == nil {
		return ErrAlreadyLinked
	} else if err != sql.ErrNoRows {
		return err
	}

	_, err = s.DB.Exec(
		"INSERT INTO campaign_drugs (campaign_id, drug_id, is_preferred, stock_quantity, sort_order) VALUES (?, ?, ?, ?, ?)",
		campaignID, drugID, isPreferred, stockQuantity, sortOrder)
	if err != nil {
		return fmt.Errorf("failed to link drug: %v", err)
	}
	return nil
}

// UnlinkDrug removes a drug from a campaign formulary.
func (s *CatalogService) UnlinkDrug(campaignID, drugID int) error {
	result, err := s.DB.Exec(
		"DELETE FROM campaign_drugs WHERE campaign_id = ? AND drug_id = ?",
		campaignID, drugID)
	if err != nil {
		return fmt.Errorf("failed to unlink drug: %v", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CampaignDrugs lists the formulary of a campaign with catalog details.
func (s *CatalogService) CampaignDrugs(campaignID int) ([]map[string]interface{}, error) {
	rows, err := s.DB.Query(`
		SELECT d.id, d.name, d.generic_name, d.strength, d.dosage_form, d.category,
		       cd.is_preferred, cd.stock_quantity, cd.sort_order
		FROM campaign_drugs cd
		JOIN drugs d ON d.id = cd.drug_id
		WHERE cd.campaign_id = ?
		ORDER BY cd.sort_order, d.name
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []map[string]interface{}
	for rows.Next() {
		var id, sortOrder int
		var isPreferred bool
		var name, category string
		var genericName, strength, dosageForm sql.NullString
		var stockQuantity sql.NullInt64
		if err := rows.Scan(&id, &name, &genericName, &strength, &dosageForm, &category,
			&isPreferred, &stockQuantity, &sortOrder); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		entry := map[string]interface{}{
			"drug_id":      id,
			"name":         name,
			"generic_name": genericName.String,
			"strength":     strength.String,
			"dosage_form":  dosageForm.String,
			"category":     category,
			"is_preferred": isPreferred,
			"sort_order":   sortOrder,
		}
		if stockQuantity.Valid {
			entry["stock_quantity"] = stockQuantity.Int64
		}
		list = append(list, entry)
	}
	return list, rows.Err()
}
