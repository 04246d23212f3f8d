package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tikohealth/campaign-backend/internal/consultations/models"
)

var (
	ErrDrugUnspecified = errors.New("either drug_id or custom_drug_name is required")
	ErrDrugNotFound    = errors.New("drug not found")
)

type PrescriptionService struct {
	DB *sql.DB
}

func NewPrescriptionService(db *sql.DB) *PrescriptionService {
	return &PrescriptionService{DB: db}
}

// Create adds a prescription to a consultation. The pharmacy status is
// derived from how complete the dosage details are.
func (s *PrescriptionService) Create(p models.Prescription) (*models.Prescription, error) {
	if p.DrugID == nil && p.CustomDrugName == "" {
		return nil, ErrDrugUnspecified
	}

	var consultationExists int
	err := s.DB.QueryRow("SELECT id FROM consultations WHERE id = ?", p.ConsultationID).Scan(&consultationExists)
	if err != nil {
		return nil, err
	}

	if p.DrugID != nil {
		var exists int
		err := s.DB.QueryRow("SELECT id FROM drugs WHERE id = ?", *p.DrugID).Scan(&exists)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrDrugNotFound
			}
			return nil, err
		}
	}

	if p.Route == "" {
		p.Route = models.RouteOral
	}
	p.PharmacyStatus = models.PharmacyPendingReview
	p.PharmacyStatus = p.DerivePharmacyStatus()

	now := time.Now()
	query := `
		INSERT INTO prescriptions
			(consultation_id, drug_id, custom_drug_name, dosage, frequency, duration, route,
			 instructions, indication, quantity, refills, pharmacy_status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := s.DB.Exec(query,
		p.ConsultationID, p.DrugID, p.CustomDrugName, p.Dosage, p.Frequency, p.Duration, p.Route,
		p.Instructions, p.Indication, p.Quantity, p.Refills, p.PharmacyStatus, p.Notes, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create prescription: %v", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(int(id))
}

const prescriptionSelect = `
	SELECT pr.id, pr.consultation_id, pr.drug_id, pr.custom_drug_name,
	       pr.dosage, pr.frequency, pr.duration, pr.route,
	       pr.instructions, pr.indication, pr.quantity, pr.refills,
	       pr.pharmacy_status, pr.dispensed_by, pr.dispensed_date, pr.dispensed_quantity,
	       pr.notes, pr.created_at, pr.updated_at, d.name
	FROM prescriptions pr
	LEFT JOIN drugs d ON d.id = pr.drug_id
`

type prescriptionScanner interface {
	Scan(dest ...interface{}) error
}

// ScanPrescription maps one joined prescription row; shared with the
// pharmacy service.
func ScanPrescription(row prescriptionScanner) (*models.Prescription, error) {
	var p models.Prescription
	var drugID, quantity, dispensedBy, dispensedQuantity sql.NullInt64
	var customName, dosage, frequency, duration sql.NullString
	var instructions, indication, notes, drugName sql.NullString
	var dispensedDate sql.NullTime
	err := row.Scan(&p.ID, &p.ConsultationID, &drugID, &customName,
		&dosage, &frequency, &duration, &p.Route,
		&instructions, &indication, &quantity, &p.Refills,
		&p.PharmacyStatus, &dispensedBy, &dispensedDate, &dispensedQuantity,
		&notes, &p.CreatedAt, &p.UpdatedAt, &drugName)
	if err != nil {
		return nil, err
	}
	if drugID.Valid {
		n := int(drugID.Int64)
		p.DrugID = &n
	}
	if quantity.Valid {
		n := int(quantity.Int64)
		p.Quantity = &n
	}
	if dispensedBy.Valid {
		n := int(dispensedBy.Int64)
		p.DispensedBy = &n
	}
	if dispensedQuantity.Valid {
		n := int(dispensedQuantity.Int64)
		p.DispensedQuantity = &n
	}
	if dispensedDate.Valid {
		p.DispensedDate = &dispensedDate.Time
	}
	p.CustomDrugName = customName.String
	p.Dosage = dosage.String
	p.Frequency = frequency.String
	p.Duration = duration.String
	p.Instructions = instructions.String
	p.Indication = indication.String
	p.Notes = notes.String
	p.DrugName = drugName.String
	return &p, nil
}

// GetByID loads one prescription with its formulary drug name.
func (s *PrescriptionService) GetByID(id int) (*models.Prescription, error) {
	return ScanPrescription(s.DB.QueryRow(prescriptionSelect+" WHERE pr.id = ?", id))
}

// ListByConsultation returns a consultation's prescriptions, oldest first.
func (s *PrescriptionService) ListByConsultation(consultationID int) ([]models.Prescription, error) {
	rows, err := s.DB.Query(prescriptionSelect+" WHERE pr.consultation_id = ? ORDER BY pr.created_at", consultationID)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var list []models.Prescription
	for rows.Next() {
		p, err := ScanPrescription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		list = append(list, *p)
	}
	return list, rows.Err()
}
