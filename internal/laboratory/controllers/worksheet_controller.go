package controllers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	"github.com/tikohealth/campaign-backend/internal/laboratory/services"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type WorksheetController struct {
	Service *services.WorksheetService
	Audit   *audit.Recorder
}

func NewWorksheetController(service *services.WorksheetService, recorder *audit.Recorder) *WorksheetController {
	return &WorksheetController{Service: service, Audit: recorder}
}

type createWorksheetRequest struct {
	LabTestID int    `json:"lab_test_id"`
	Notes     string `json:"notes"`
}

// Create opens a batch worksheet for one test type.
func (wc *WorksheetController) Create(c echo.Context) error {
	var req createWorksheetRequest
	if err := c.Bind(&req); err != nil || req.LabTestID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "lab_test_id is required",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	worksheet, err := wc.Service.Create(req.LabTestID, claims.UserID, req.Notes)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab test not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to create worksheet: " + err.Error(),
			"data":    nil,
		})
	}
	wc.Audit.Record(claims.UserID, claims.Username, "create", "worksheet", worksheet.WorksheetNumber, map[string]interface{}{
		"lab_test_id": req.LabTestID,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Worksheet created successfully",
		"data":    worksheet,
	})
}

type worksheetStatusRequest struct {
	Status         string `json:"status"`
	ControlResults string `json:"control_results"`
}

// SetStatus moves the worksheet through its run lifecycle.
func (wc *WorksheetController) SetStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid worksheet ID",
			"data":    nil,
		})
	}

	var req worksheetStatusRequest
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "status is required",
			"data":    nil,
		})
	}

	worksheet, err := wc.Service.SetStatus(id, req.Status, req.ControlResults)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Worksheet not found",
				"data":    nil,
			})
		case services.ErrInvalidSheetStatus:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to update worksheet: " + err.Error(),
				"data":    nil,
			})
		}
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	wc.Audit.Record(claims.UserID, claims.Username, "status_change", "worksheet", strconv.Itoa(id), map[string]interface{}{
		"status": req.Status,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Worksheet updated successfully",
		"data":    worksheet,
	})
}

type attachOrderRequest struct {
	LabOrderID int `json:"lab_order_id"`
}

// AttachOrder places an ordered test on the worksheet.
func (wc *WorksheetController) AttachOrder(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid worksheet ID",
			"data":    nil,
		})
	}
	var req attachOrderRequest
	if err := c.Bind(&req); err != nil || req.LabOrderID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "lab_order_id is required",
			"data":    nil,
		})
	}

	if err := wc.Service.AttachOrder(id, req.LabOrderID); err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab order not found",
				"data":    nil,
			})
		case services.ErrOrderAlreadyOnSheet, services.ErrOrderNotOrdered:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to attach order: " + err.Error(),
				"data":    nil,
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Order attached successfully",
		"data":    nil,
	})
}

// DetachOrder removes a sample from the worksheet.
func (wc *WorksheetController) DetachOrder(c echo.Context) error {
	id, err1 := strconv.Atoi(c.Param("id"))
	orderID, err2 := strconv.Atoi(c.Param("orderId"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid ID",
			"data":    nil,
		})
	}

	if err := wc.Service.DetachOrder(id, orderID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Order not on this worksheet",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to detach order: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Order detached successfully",
		"data":    nil,
	})
}

// Detail returns a worksheet with its samples.
func (wc *WorksheetController) Detail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid worksheet ID",
			"data":    nil,
		})
	}

	worksheet, err := wc.Service.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Worksheet not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load worksheet: " + err.Error(),
			"data":    nil,
		})
	}

	orders, err := wc.Service.Orders(id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load worksheet orders: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Worksheet retrieved successfully",
		"data": map[string]interface{}{
			"worksheet": worksheet,
			"orders":    orders,
		},
	})
}

// List returns worksheets, newest first.
func (wc *WorksheetController) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	worksheets, err := wc.Service.List(c.QueryParam("status"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list worksheets: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Worksheets retrieved successfully",
		"data":    worksheets,
	})
}
