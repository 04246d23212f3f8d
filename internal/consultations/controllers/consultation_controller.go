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

type ConsultationController struct {
	Service       *services.ConsultationService
	Orders        *services.LabOrderService
	Prescriptions *services.PrescriptionService
	Audit         *audit.Recorder
}

func NewConsultationController(service *services.ConsultationService, orders *services.LabOrderService,
	prescriptions *services.PrescriptionService, recorder *audit.Recorder) *ConsultationController {
	return &ConsultationController{Service: service, Orders: orders, Prescriptions: prescriptions, Audit: recorder}
}

type createConsultationRequest struct {
	PatientID      int    `json:"patient_id"`
	ChiefComplaint string `json:"chief_complaint"`
}

// Create opens a consultation for the signed-in doctor.
func (cc *ConsultationController) Create(c echo.Context) error {
	var req createConsultationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.PatientID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "patient_id is required",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	consultation, err := cc.Service.Create(models.Consultation{
		PatientID:      req.PatientID,
		DoctorID:       claims.UserID,
		ChiefComplaint: req.ChiefComplaint,
	})
	if err != nil {
		if err == services.ErrPatientNotFound {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": err.Error(),
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to create consultation: " + err.Error(),
			"data":    nil,
		})
	}

	cc.Audit.Record(claims.UserID, claims.Username, "create", "consultation", strconv.Itoa(consultation.ID), map[string]interface{}{
		"patient_id": consultation.PatientID,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Consultation created successfully",
		"data":    consultation,
	})
}

// Update edits the clinical note fields.
func (cc *ConsultationController) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid consultation ID",
			"data":    nil,
		})
	}

	var req services.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	consultation, err := cc.Service.Update(id, req)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Consultation not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to update consultation: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Consultation updated successfully",
		"data":    consultation,
	})
}

// SetStatus completes a consultation or flags a follow-up.
func (cc *ConsultationController) SetStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid consultation ID",
			"data":    nil,
		})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "status is required",
			"data":    nil,
		})
	}

	consultation, err := cc.Service.SetStatus(id, req.Status)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Consultation not found",
				"data":    nil,
			})
		case services.ErrInvalidConsultation:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to update consultation status: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "status_change", "consultation", strconv.Itoa(id), map[string]interface{}{
		"status": consultation.Status,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Consultation status updated successfully",
		"data":    consultation,
	})
}

// Detail returns a consultation with its lab orders and prescriptions.
func (cc *ConsultationController) Detail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid consultation ID",
			"data":    nil,
		})
	}

	consultation, err := cc.Service.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Consultation not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load consultation: " + err.Error(),
			"data":    nil,
		})
	}

	orders, err := cc.Orders.ListByConsultation(id, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load lab orders: " + err.Error(),
			"data":    nil,
		})
	}
	prescriptions, err := cc.Prescriptions.ListByConsultation(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load prescriptions: " + err.Error(),
			"data":    nil,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Consultation retrieved successfully",
		"data": map[string]interface{}{
			"consultation":  consultation,
			"lab_orders":    orders,
			"prescriptions": prescriptions,
		},
	})
}

// List returns consultations with patient, doctor and status filters. The
// mine flag narrows the list to the caller's own consultations.
func (cc *ConsultationController) List(c echo.Context) error {
	patientID, _ := strconv.Atoi(c.QueryParam("patient_id"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	doctorID := 0
	if c.QueryParam("mine") == "true" {
		claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
		doctorID = claims.UserID
	}

	consultations, err := cc.Service.List(patientID, doctorID, c.QueryParam("status"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list consultations: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Consultations retrieved successfully",
		"data":    consultations,
	})
}
