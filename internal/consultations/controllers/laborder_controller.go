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

type LabOrderController struct {
	Service *services.LabOrderService
	Audit   *audit.Recorder
}

func NewLabOrderController(service *services.LabOrderService, recorder *audit.Recorder) *LabOrderController {
	return &LabOrderController{Service: service, Audit: recorder}
}

type createLabOrderRequest struct {
	ConsultationID     int    `json:"consultation_id"`
	LabTestID          *int   `json:"lab_test_id"`
	CustomTestName     string `json:"custom_test_name"`
	Urgency            string `json:"urgency"`
	ClinicalIndication string `json:"clinical_indication"`
	Notes              string `json:"notes"`
}

// Create orders a test for a consultation, either from the catalog or as
// a free-text custom test.
func (lc *LabOrderController) Create(c echo.Context) error {
	var req createLabOrderRequest
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
	switch req.Urgency {
	case "", models.UrgencyRoutine, models.UrgencyUrgent, models.UrgencyStat:
	default:
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid urgency: " + req.Urgency,
			"data":    nil,
		})
	}

	order, err := lc.Service.Create(models.LabOrder{
		ConsultationID:     req.ConsultationID,
		LabTestID:          req.LabTestID,
		CustomTestName:     req.CustomTestName,
		Urgency:            req.Urgency,
		ClinicalIndication: req.ClinicalIndication,
		Notes:              req.Notes,
	})
	if err != nil {
		switch err {
		case services.ErrTestUnspecified:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		case services.ErrLabTestNotFound, sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Consultation or lab test not found",
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to create lab order: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	lc.Audit.Record(claims.UserID, claims.Username, "create", "lab_order", strconv.Itoa(order.ID), map[string]interface{}{
		"consultation_id": order.ConsultationID,
		"test":            order.DisplayTestName(),
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Lab order created successfully",
		"data":    order,
	})
}

// Cancel voids an ordered test.
func (lc *LabOrderController) Cancel(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid lab order ID",
			"data":    nil,
		})
	}

	order, err := lc.Service.Cancel(id)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab order not found",
				"data":    nil,
			})
		case services.ErrOrderNotCancellable:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to cancel lab order: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	lc.Audit.Record(claims.UserID, claims.Username, "cancel", "lab_order", strconv.Itoa(id), nil)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab order cancelled successfully",
		"data":    order,
	})
}

// Get loads one lab order.
func (lc *LabOrderController) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid lab order ID",
			"data":    nil,
		})
	}

	order, err := lc.Service.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab order not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load lab order: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab order retrieved successfully",
		"data":    order,
	})
}

// Search finds lab orders across patients for the lab bench.
func (lc *LabOrderController) Search(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	results, err := lc.Service.Search(
		c.QueryParam("q"), c.QueryParam("status"), c.QueryParam("urgency"), c.QueryParam("category"),
		limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to search lab orders: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab orders retrieved successfully",
		"data":    results,
	})
}
