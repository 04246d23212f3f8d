package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/tikohealth/campaign-backend/internal/accounts/models"
)

type DashboardService struct {
	DB *sql.DB
}

func NewDashboardService(db *sql.DB) *DashboardService {
	return &DashboardService{DB: db}
}

// Stats builds the dashboard document for the user's role.
func (s *DashboardService) Stats(role string, userID int) (map[string]interface{}, error) {
	switch role {
	case models.RoleAdmin:
		return s.adminStats()
	case models.RoleCampaignManager:
		return s.campaignManagerStats()
	case models.RoleRegistrationClerk:
		return s.registrationStats(userID)
	case models.RoleVitalsClerk:
		return s.vitalsStats()
	case models.RoleDoctor:
		return s.doctorStats(userID)
	case models.RoleLabTechnician:
		return s.labStats(userID)
	case models.RolePharmacyClerk:
		return s.pharmacyStats()
	case models.RoleDataAnalyst:
		return s.analystStats()
	default:
		return nil, fmt.Errorf("unknown role: %s", role)
	}
}

func (s *DashboardService) count(query string, params ...interface{}) (int, error) {
	var n int
	err := s.DB.QueryRow(query, params...).Scan(&n)
	return n, err
}

func (s *DashboardService) adminStats() (map[string]interface{}, error) {
	users, err := s.count("SELECT COUNT(*) FROM users WHERE is_active = 1")
	if err != nil {
		return nil, err
	}
	campaigns, err := s.count("SELECT COUNT(*) FROM campaigns")
	if err != nil {
		return nil, err
	}
	activeCampaigns, err := s.count("SELECT COUNT(*) FROM campaigns WHERE status = 'active'")
	if err != nil {
		return nil, err
	}
	patients, err := s.count("SELECT COUNT(*) FROM patients")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":             models.RoleAdmin,
		"active_users":     users,
		"total_campaigns":  campaigns,
		"active_campaigns": activeCampaigns,
		"total_patients":   patients,
	}, nil
}

func (s *DashboardService) campaignManagerStats() (map[string]interface{}, error) {
	rows, err := s.DB.Query(`
		SELECT c.id, c.name, c.status, COUNT(p.id)
		FROM campaigns c
		LEFT JOIN patients p ON p.campaign_id = c.id
		GROUP BY c.id, c.name, c.status
		ORDER BY c.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query error: %v", err)
	}
	defer rows.Close()

	var campaigns []map[string]interface{}
	for rows.Next() {
		var id, patientCount int
		var name, status string
		if err := rows.Scan(&id, &name, &status, &patientCount); err != nil {
			return nil, fmt.Errorf("scan error: %v", err)
		}
		campaigns = append(campaigns, map[string]interface{}{
			"id":            id,
			"name":          name,
			"status":        status,
			"patient_count": patientCount,
		})
	}
	return map[string]interface{}{
		"role":      models.RoleCampaignManager,
		"campaigns": campaigns,
	}, rows.Err()
}

func (s *DashboardService) registrationStats(userID int) (map[string]interface{}, error) {
	start := startOfDay(time.Now())
	today, err := s.count(
		"SELECT COUNT(*) FROM patients WHERE registration_date >= ? AND registration_date < ?",
		start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	mine, err := s.count(
		"SELECT COUNT(*) FROM patients WHERE registered_by = ? AND registration_date >= ? AND registration_date < ?",
		userID, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	total, err := s.count("SELECT COUNT(*) FROM patients")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":                models.RoleRegistrationClerk,
		"registrations_today": today,
		"my_registrations":    mine,
		"total_registrations": total,
	}, nil
}

func (s *DashboardService) vitalsStats() (map[string]interface{}, error) {
	pending, err := s.count("SELECT COUNT(*) FROM patients WHERE status = 'registered'")
	if err != nil {
		return nil, err
	}
	taken, err := s.count("SELECT COUNT(*) FROM vitals")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":           models.RoleVitalsClerk,
		"pending_vitals": pending,
		"vitals_taken":   taken,
	}, nil
}

func (s *DashboardService) doctorStats(userID int) (map[string]interface{}, error) {
	waiting, err := s.count("SELECT COUNT(*) FROM patients WHERE status = 'vitals_taken'")
	if err != nil {
		return nil, err
	}
	inProgress, err := s.count(
		"SELECT COUNT(*) FROM consultations WHERE doctor_id = ? AND status = 'in_progress'", userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.count(
		"SELECT COUNT(*) FROM consultations WHERE doctor_id = ? AND status = 'completed'", userID)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":                    models.RoleDoctor,
		"patients_waiting":        waiting,
		"consultations_open":      inProgress,
		"consultations_completed": completed,
	}, nil
}

func (s *DashboardService) labStats(userID int) (map[string]interface{}, error) {
	pending, err := s.count("SELECT COUNT(*) FROM lab_orders WHERE status = 'ordered'")
	if err != nil {
		return nil, err
	}
	start := startOfDay(time.Now())
	todayResults, err := s.count(
		"SELECT COUNT(*) FROM lab_results WHERE technician_id = ? AND result_date >= ? AND result_date < ?",
		userID, start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	totalResults, err := s.count("SELECT COUNT(*) FROM lab_results WHERE technician_id = ?", userID)
	if err != nil {
		return nil, err
	}
	criticals, err := s.count(
		"SELECT COUNT(*) FROM lab_results WHERE is_critical = 1 AND critical_notified = 0")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":                 models.RoleLabTechnician,
		"pending_orders":       pending,
		"results_today":        todayResults,
		"results_total":        totalResults,
		"unnotified_criticals": criticals,
	}, nil
}

func (s *DashboardService) pharmacyStats() (map[string]interface{}, error) {
	needsDetails, err := s.count(
		"SELECT COUNT(*) FROM prescriptions WHERE pharmacy_status IN ('pending_review', 'details_needed')")
	if err != nil {
		return nil, err
	}
	ready, err := s.count("SELECT COUNT(*) FROM prescriptions WHERE pharmacy_status = 'ready_to_dispense'")
	if err != nil {
		return nil, err
	}
	start := startOfDay(time.Now())
	dispensedToday, err := s.count(
		"SELECT COUNT(*) FROM prescriptions WHERE pharmacy_status = 'dispensed' AND dispensed_date >= ? AND dispensed_date < ?",
		start, start.Add(24*time.Hour))
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":              models.RolePharmacyClerk,
		"pending_review":    needsDetails,
		"ready_to_dispense": ready,
		"dispensed_today":   dispensedToday,
	}, nil
}

func (s *DashboardService) analystStats() (map[string]interface{}, error) {
	patients, err := s.count("SELECT COUNT(*) FROM patients")
	if err != nil {
		return nil, err
	}
	consultations, err := s.count("SELECT COUNT(*) FROM consultations")
	if err != nil {
		return nil, err
	}
	labResults, err := s.count("SELECT COUNT(*) FROM lab_results")
	if err != nil {
		return nil, err
	}
	dispensed, err := s.count("SELECT COUNT(*) FROM prescriptions WHERE pharmacy_status = 'dispensed'")
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"role":          models.RoleDataAnalyst,
		"patients":      patients,
		"consultations": consultations,
		"lab_results":   labResults,
		"dispensed":     dispensed,
	}, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
