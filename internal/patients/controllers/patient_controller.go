package controllers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	"github.com/tikohealth/campaign-backend/internal/patients/models"
	"github.com/tikohealth/campaign-backend/internal/patients/services"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
	"github.com/tikohealth/campaign-backend/ws"
)

type PatientController struct {
	Service *services.RegistrationService
	Vitals  *services.VitalsService
	Audit   *audit.Recorder
}

func NewPatientController(service *services.RegistrationService, vitals *services.VitalsService, recorder *audit.Recorder) *PatientController {
	return &PatientController{Service: service, Vitals: vitals, Audit: recorder}
}

type registerPatientRequest struct {
	CampaignID    int    `json:"campaign_id"`
	FirstName     string `json:"first_name"`
	MiddleName    string `json:"middle_name"`
	LastName      string `json:"last_name"`
	DateOfBirth   string `json:"date_of_birth"` // YYYY-MM-DD
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"marital_status"`

	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Address     string `json:"address"`

	EmergencyContactName         string `json:"emergency_contact_name"`
	EmergencyContactPhone        string `json:"emergency_contact_phone"`
	EmergencyContactRelationship string `json:"emergency_contact_relationship"`

	HealthArea   string `json:"health_area"`
	ConsentGiven bool   `json:"consent_given"`
}

// Register enrolls a patient into an active campaign and allocates their
// identifier.
func (pc *PatientController) Register(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.CampaignID == 0 || req.FirstName == "" || req.LastName == "" || req.Gender == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "campaign_id, first_name, last_name and gender are required",
			"data":    nil,
		})
	}

	patient := models.Patient{
		CampaignID:                   req.CampaignID,
		FirstName:                    req.FirstName,
		MiddleName:                   req.MiddleName,
		LastName:                     req.LastName,
		Age:                          req.Age,
		Gender:                       req.Gender,
		MaritalStatus:                req.MaritalStatus,
		PhoneNumber:                  req.PhoneNumber,
		Email:                        req.Email,
		Address:                      req.Address,
		EmergencyContactName:         req.EmergencyContactName,
		EmergencyContactPhone:        req.EmergencyContactPhone,
		EmergencyContactRelationship: req.EmergencyContactRelationship,
		HealthArea:                   req.HealthArea,
		ConsentGiven:                 req.ConsentGiven,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "invalid date_of_birth: use YYYY-MM-DD",
				"data":    nil,
			})
		}
		patient.DateOfBirth = &dob
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	patient.RegisteredBy = claims.UserID

	created, err := pc.Service.Register(patient)
	if err != nil {
		switch err {
		case services.ErrConsentRequired:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		case services.ErrCampaignNotFound:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": err.Error(),
				"data":    nil,
			})
		case services.ErrCampaignNotActive, services.ErrCampaignFull:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to register patient: " + err.Error(),
				"data":    nil,
			})
		}
	}

	pc.Audit.Record(claims.UserID, claims.Username, "register", "patient", created.PatientID, map[string]interface{}{
		"campaign_id": created.CampaignID,
		"name":        created.FullName(),
	})
	ws.HubInstance.BroadcastEvent("patient_registered", map[string]interface{}{
		"patient_id":  created.PatientID,
		"name":        created.FullName(),
		"campaign_id": created.CampaignID,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Patient registered successfully",
		"data":    created,
	})
}

// Get looks a patient up by numeric key or by the generated identifier and
// aggregates their vitals and consultation history.
func (pc *PatientController) Get(c echo.Context) error {
	param := c.Param("id")
	var (
		patient *models.Patient
		err     error
	)
	if id, convErr := strconv.Atoi(param); convErr == nil {
		patient, err = pc.Service.GetByID(id)
	} else {
		patient, err = pc.Service.GetByPatientID(param)
	}
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Patient not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load patient: " + err.Error(),
			"data":    nil,
		})
	}

	data := map[string]interface{}{
		"patient":   patient,
		"full_name": patient.FullName(),
		"age":       patient.AgeDisplay(time.Now()),
	}

	vitals, err := pc.Vitals.GetByPatientID(patient.ID)
	switch {
	case err == nil:
		data["vitals"] = vitalsPayload(vitals)
	case err == sql.ErrNoRows:
		data["vitals"] = nil
	default:
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load vitals: " + err.Error(),
			"data":    nil,
		})
	}

	consultations, err := pc.Service.ConsultationSummaries(patient.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load consultations: " + err.Error(),
			"data":    nil,
		})
	}
	data["consultations"] = consultations

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Patient retrieved successfully",
		"data":    data,
	})
}

// List searches patients with status and campaign filters.
func (pc *PatientController) List(c echo.Context) error {
	campaignID, _ := strconv.Atoi(c.QueryParam("campaign_id"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	patients, err := pc.Service.List(c.QueryParam("search"), c.QueryParam("status"), campaignID, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list patients: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Patients retrieved successfully",
		"data":    patients,
	})
}

// Discharge ends a patient's campaign visit from any workflow stage.
func (pc *PatientController) Discharge(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid patient ID",
			"data":    nil,
		})
	}

	if err := pc.Service.AdvanceStatus(id, models.StatusDischarged); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Patient not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to discharge patient: " + err.Error(),
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	pc.Audit.Record(claims.UserID, claims.Username, "discharge", "patient", strconv.Itoa(id), nil)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Patient discharged successfully",
		"data":    nil,
	})
}
