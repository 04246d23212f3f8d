package controllers

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/accounts/models"
	"github.com/tikohealth/campaign-backend/internal/accounts/services"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type UserController struct {
	Service *services.UserService
	Audit   *audit.Recorder
}

func NewUserController(service *services.UserService, recorder *audit.Recorder) *UserController {
	return &UserController{Service: service, Audit: recorder}
}

// List returns staff accounts filtered by role, active flag and a free
// text search over name and username.
func (uc *UserController) List(c echo.Context) error {
	var active *bool
	if raw := c.QueryParam("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "Invalid active filter: " + raw,
				"data":    nil,
			})
		}
		active = &parsed
	}

	role := c.QueryParam("role")
	if role != "" && !models.IsValidRole(role) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid role: " + role,
			"data":    nil,
		})
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	users, err := uc.Service.List(role, active, c.QueryParam("search"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list users: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Users retrieved successfully",
		"data":    users,
	})
}

// Update applies a partial edit to a staff account.
func (uc *UserController) Update(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid user ID",
			"data":    nil,
		})
	}

	var req services.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.Role != nil && (!models.IsValidRole(*req.Role) || *req.Role == models.RoleAdmin) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid role: " + *req.Role,
			"data":    nil,
		})
	}

	user, err := uc.Service.Update(id, req)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "User not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to update user: " + err.Error(),
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	uc.Audit.Record(claims.UserID, claims.Username, "update", "user", strconv.Itoa(id), map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "User updated successfully",
		"data":    user,
	})
}

// SetActive flips the active flag on a staff account. Deactivated staff
// keep their history but can no longer sign in.
func (uc *UserController) SetActive(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid user ID",
			"data":    nil,
		})
	}

	var req struct {
		Active *bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "active flag is required",
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	if id == claims.UserID && !*req.Active {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "You cannot deactivate your own account",
			"data":    nil,
		})
	}

	user, err := uc.Service.SetActive(id, *req.Active)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "User not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to update user: " + err.Error(),
			"data":    nil,
		})
	}

	action := "deactivate"
	message := "User deactivated successfully"
	if *req.Active {
		action = "reactivate"
		message = "User reactivated successfully"
	}
	uc.Audit.Record(claims.UserID, claims.Username, action, "user", strconv.Itoa(id), map[string]interface{}{
		"username": user.Username,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": message,
		"data":    user,
	})
}

// AuditTrail lists audit log entries, newest first.
func (uc *UserController) AuditTrail(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	offset, _ := strconv.Atoi(c.QueryParam("offset"))

	entries, err := uc.Audit.List(c.QueryParam("username"), c.QueryParam("entity"), c.QueryParam("action"), limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list audit entries: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Audit entries retrieved successfully",
		"data":    entries,
	})
}
