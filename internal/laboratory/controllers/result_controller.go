package controllers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	"github.com/tikohealth/campaign-backend/internal/laboratory/services"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
	"github.com/tikohealth/campaign-backend/ws"
)

type ResultController struct {
	Service *services.ResultService
	Audit   *audit.Recorder
}

func NewResultController(service *services.ResultService, recorder *audit.Recorder) *ResultController {
	return &ResultController{Service: service, Audit: recorder}
}

// Enter records a single result against a lab order.
func (rc *ResultController) Enter(c echo.Context) error {
	var entry services.ResultEntry
	if err := c.Bind(&entry); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if entry.LabOrderID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "lab_order_id is required",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	result, err := rc.Service.EnterResult(entry, claims.UserID)
	if err != nil {
		switch {
		case err == services.ErrResultValueMissing:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		case err == sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab order not found",
				"data":    nil,
			})
		case err == services.ErrOrderNotOpen:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		case strings.Contains(err.Error(), "invalid interpretation"):
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to save lab result: " + err.Error(),
				"data":    nil,
			})
		}
	}

	rc.Audit.Record(claims.UserID, claims.Username, "enter_result", "lab_result", strconv.Itoa(result.ID), map[string]interface{}{
		"lab_order_id": result.LabOrderID,
		"is_critical":  result.IsCritical,
	})
	ws.HubInstance.BroadcastEvent("lab_result_completed", map[string]interface{}{
		"result_id":    result.ID,
		"lab_order_id": result.LabOrderID,
		"is_critical":  result.IsCritical,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Lab result saved successfully",
		"data":    result,
	})
}

type tabularRequest struct {
	ConsultationID int                    `json:"consultation_id"`
	Entries        []services.ResultEntry `json:"entries"`
}

// EnterTabular saves a batch of results for one consultation. Rows without
// a value are skipped rather than rejected.
func (rc *ResultController) EnterTabular(c echo.Context) error {
	var req tabularRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.ConsultationID == 0 || len(req.Entries) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "consultation_id and entries are required",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	outcome, err := rc.Service.EnterTabular(req.ConsultationID, req.Entries, claims.UserID)
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
			"message": "Failed to save lab results: " + err.Error(),
			"data":    nil,
		})
	}

	if outcome.Saved > 0 {
		rc.Audit.Record(claims.UserID, claims.Username, "enter_result", "consultation", strconv.Itoa(req.ConsultationID), map[string]interface{}{
			"saved":  outcome.Saved,
			"errors": len(outcome.Errors),
		})
		ws.HubInstance.BroadcastEvent("lab_result_completed", map[string]interface{}{
			"consultation_id": req.ConsultationID,
			"saved":           outcome.Saved,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab results processed",
		"data":    outcome,
	})
}

// Verify counter-signs a completed result.
func (rc *ResultController) Verify(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid result ID",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	result, err := rc.Service.Verify(id, claims.UserID)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab result not found",
				"data":    nil,
			})
		case services.ErrAlreadyVerified, services.ErrSelfVerification:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to verify result: " + err.Error(),
				"data":    nil,
			})
		}
	}
	rc.Audit.Record(claims.UserID, claims.Username, "verify", "lab_result", strconv.Itoa(id), nil)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab result verified successfully",
		"data":    result,
	})
}

// MarkCriticalNotified records that a critical value was phoned through.
func (rc *ResultController) MarkCriticalNotified(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid result ID",
			"data":    nil,
		})
	}

	result, err := rc.Service.MarkCriticalNotified(id)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab result not found",
				"data":    nil,
			})
		case services.ErrResultNotCritical:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to update result: " + err.Error(),
				"data":    nil,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Critical notification recorded",
		"data":    result,
	})
}

// Get loads one result, by result ID or by its lab order.
func (rc *ResultController) Get(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid result ID",
			"data":    nil,
		})
	}

	result, err := rc.Service.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab result not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load result: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab result retrieved successfully",
		"data":    result,
	})
}

// GetByOrder loads the result belonging to a lab order.
func (rc *ResultController) GetByOrder(c echo.Context) error {
	orderID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid lab order ID",
			"data":    nil,
		})
	}

	result, err := rc.Service.GetByOrderID(orderID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "No result for this lab order",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load result: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab result retrieved successfully",
		"data":    result,
	})
}

// Criticals lists critical results still awaiting notification.
func (rc *ResultController) Criticals(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	results, err := rc.Service.UnnotifiedCriticals(limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list critical results: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Critical results retrieved successfully",
		"data":    results,
	})
}

// Recent lists the caller's latest results.
func (rc *ResultController) Recent(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)

	results, err := rc.Service.RecentByTechnician(claims.UserID, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list results: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Results retrieved successfully",
		"data":    results,
	})
}
