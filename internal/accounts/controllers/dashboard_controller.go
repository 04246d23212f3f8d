package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/accounts/services"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type DashboardController struct {
	Service *services.DashboardService
}

func NewDashboardController(service *services.DashboardService) *DashboardController {
	return &DashboardController{Service: service}
}

// Stats returns the counters for the caller's own role.
func (dc *DashboardController) Stats(c echo.Context) error {
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)

	stats, err := dc.Service.Stats(claims.Role, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load dashboard: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Dashboard retrieved successfully",
		"data": map[string]interface{}{
			"role":  claims.Role,
			"stats": stats,
		},
	})
}
