package controllers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/campaigns/models"
	"github.com/tikohealth/campaign-backend/internal/campaigns/services"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type CampaignController struct {
	Service *services.CampaignService
	Audit   *audit.Recorder
}

func NewCampaignController(service *services.CampaignService, recorder *audit.Recorder) *CampaignController {
	return &CampaignController{Service: service, Audit: recorder}
}

// Create opens a new campaign in draft status.
func (cc *CampaignController) Create(c echo.Context) error {
	var req services.CampaignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.Name == "" || req.StartDate == "" || req.EndDate == "" || req.HealthArea == "" || req.ConsentText == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "name, start_date, end_date, health_area and consent_text are required",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	campaign, err := cc.Service.Create(req, claims.UserID)
	if err != nil {
		switch err {
		case services.ErrCampaignNameTaken:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		case services.ErrInvalidDateWindow:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Failed to create campaign: " + err.Error(),
				"data":    nil,
			})
		}
	}

	cc.Audit.Record(claims.UserID, claims.Username, "create", "campaign", strconv.Itoa(campaign.ID), map[string]interface{}{
		"name": campaign.Name,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Campaign created successfully",
		"data":    campaign,
	})
}

// Update edits the descriptive fields of a campaign.
func (cc *CampaignController) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
			"data":    nil,
		})
	}

	var req services.CampaignRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	campaign, err := cc.Service.Update(id, req)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Campaign not found",
				"data":    nil,
			})
		case services.ErrCampaignNameTaken:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Failed to update campaign: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "update", "campaign", strconv.Itoa(id), map[string]interface{}{
		"name": campaign.Name,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Campaign updated successfully",
		"data":    campaign,
	})
}

// SetStatus moves a campaign through draft, active, completed, cancelled.
func (cc *CampaignController) SetStatus(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
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

	campaign, err := cc.Service.SetStatus(id, req.Status)
	if err != nil {
		switch err {
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Campaign not found",
				"data":    nil,
			})
		case services.ErrInvalidTransition:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to update campaign status: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "status_change", "campaign", strconv.Itoa(id), map[string]interface{}{
		"status": campaign.Status,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Campaign status updated successfully",
		"data":    campaign,
	})
}

// List returns campaigns, optionally filtered by status.
func (cc *CampaignController) List(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", models.CampaignDraft, models.CampaignActive, models.CampaignCompleted, models.CampaignCancelled:
	default:
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid status filter: " + status,
			"data":    nil,
		})
	}

	campaigns, err := cc.Service.List(status)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list campaigns: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Campaigns retrieved successfully",
		"data":    campaigns,
	})
}

// Detail returns one campaign with its patient count and schedule figures.
func (cc *CampaignController) Detail(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
			"data":    nil,
		})
	}

	detail, err := cc.Service.Detail(id)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Campaign not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load campaign: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Campaign retrieved successfully",
		"data":    detail,
	})
}
