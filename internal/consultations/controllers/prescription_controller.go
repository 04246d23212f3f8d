package controllers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	"github.com/tikohealth/campaign-backend/internal/consultations/models"
	"github.com/tikohealth/campaign-backend/internal/consultations/services"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type PrescriptionController struct {
	Service *services.PrescriptionService
	Audit   *audit.Recorder
}

func NewPrescriptionController(service *services.PrescriptionService, recorder *audit.Recorder) *PrescriptionController {
	return &PrescriptionController{Service: service, Audit: recorder}
}

type createPrescriptionRequest struct {
	ConsultationID int    `json:"consultation_id"`
	DrugID         *int   `json:"drug_id"`
	CustomDrugName string `json:"custom_drug_name"`
	Dosage         string `json:"dosage"`
	Frequency      string `json:"frequency"`
	Duration       string `json:"duration"`
	Route          string `json:"route"`
	Instructions   string `json:"instructions"`
	Indication     string `json:"indication"`
	Quantity       *int   `json:"quantity"`
	Refills        int    `json:"refills"`
	Notes          string `json:"notes"`
}

// Create prescribes a drug on a consultation. Incomplete dosage details
// land the prescription in the pharmacy review queue.
func (pc *PrescriptionController) Create(c echo.Context) error {
	var req createPrescriptionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.ConsultationID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "consultation_id is required",
			"data":    nil,
		})
	}

	prescription, err := pc.Service.Create(models.Prescription{
		ConsultationID: req.ConsultationID,
		DrugID:         req.DrugID,
		CustomDrugName: req.CustomDrugName,
		Dosage:         req.Dosage,
		Frequency:      req.Frequency,
		Duration:       req.Duration,
		Route:          req.Route,
		Instructions:   req.Instructions,
		Indication:     req.Indication,
		Quantity:       req.Quantity,
		Refills:        req.Refills,
		Notes:          req.Notes,
	})
	if err != nil {
		switch err {
		case services.ErrDrugUnspecified:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		case services.ErrDrugNotFound, sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Consultation or drug not found",
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to create prescription: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	pc.Audit.Record(claims.UserID, claims.Username, "create", "prescription", strconv.Itoa(prescription.ID), map[string]interface{}{
		"consultation_id": prescription.ConsultationID,
		"drug":            prescription.DisplayDrugName(),
		"pharmacy_status": prescription.PharmacyStatus,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Prescription created successfully",
		"data":    prescription,
	})
}

// Get loads one prescription.
func (pc *PrescriptionController) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid prescription ID",
			"data":    nil,
		})
	}

	prescription, err := pc.Service.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Prescription not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load prescription: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Prescription retrieved successfully",
		"data":    prescription,
	})
}
