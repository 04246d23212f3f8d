package controllers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	"github.com/tikohealth/campaign-backend/internal/pharmacy/services"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
	"github.com/tikohealth/campaign-backend/ws"
)

type PharmacyController struct {
	Service *services.DispensingService
	Audit   *audit.Recorder
}

func NewPharmacyController(service *services.DispensingService, recorder *audit.Recorder) *PharmacyController {
	return &PharmacyController{Service: service, Audit: recorder}
}

// Queue lists prescriptions awaiting pharmacy action.
func (pc *PharmacyController) Queue(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	var statuses []string
	if raw := c.QueryParam("status"); raw != "" {
		statuses = strings.Split(raw, ",")
	}

	queue, err := pc.Service.Queue(statuses, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load pharmacy queue: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Pharmacy queue retrieved successfully",
		"data":    queue,
	})
}

// CompleteDetails fills in missing dosage details on a prescription.
func (pc *PharmacyController) CompleteDetails(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid prescription ID",
			"data":    nil,
		})
	}

	var req services.CompleteDetailsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	prescription, err := pc.Service.CompleteDetails(id, req)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Prescription not found",
				"data":    nil,
			})
		case services.ErrAlreadyDispensed:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to update prescription: " + err.Error(),
				"data":    nil,
			})
		}
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	pc.Audit.Record(claims.UserID, claims.Username, "complete_details", "prescription", strconv.Itoa(id), map[string]interface{}{
		"pharmacy_status": prescription.PharmacyStatus,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Prescription details updated successfully",
		"data":    prescription,
	})
}

type dispenseRequest struct {
	Quantity *int `json:"quantity"`
}

// Dispense hands out a ready prescription.
func (pc *PharmacyController) Dispense(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid prescription ID",
			"data":    nil,
		})
	}

	var req dispenseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	prescription, err := pc.Service.Dispense(id, claims.UserID, req.Quantity)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Prescription not found",
				"data":    nil,
			})
		case services.ErrAlreadyDispensed, services.ErrNotReadyToDispense:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to dispense prescription: " + err.Error(),
				"data":    nil,
			})
		}
	}

	pc.Audit.Record(claims.UserID, claims.Username, "dispense", "prescription", strconv.Itoa(id), map[string]interface{}{
		"drug": prescription.DisplayDrugName(),
	})
	ws.HubInstance.BroadcastEvent("prescription_dispensed", map[string]interface{}{
		"prescription_id": prescription.ID,
		"consultation_id": prescription.ConsultationID,
		"drug_name":       prescription.DisplayDrugName(),
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Prescription dispensed successfully",
		"data":    prescription,
	})
}

// Cancel voids a prescription that has not been dispensed.
func (pc *PharmacyController) Cancel(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid prescription ID",
			"data":    nil,
		})
	}

	prescription, err := pc.Service.Cancel(id)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Prescription not found",
				"data":    nil,
			})
		case services.ErrAlreadyDispensed:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to cancel prescription: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	pc.Audit.Record(claims.UserID, claims.Username, "cancel", "prescription", strconv.Itoa(id), nil)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Prescription cancelled successfully",
		"data":    prescription,
	})
}

// History lists dispensed prescriptions, newest first.
func (pc *PharmacyController) History(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	history, err := pc.Service.History(limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load dispensing history: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Dispensing history retrieved successfully",
		"data":    history,
	})
}
