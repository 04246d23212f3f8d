package controllers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/accounts/models"
	"github.com/tikohealth/campaign-backend/internal/accounts/services"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type AuthController struct {
	Service *services.AuthService
	Audit   *audit.Recorder
}

func NewAuthController(service *services.AuthService, recorder *audit.Recorder) *AuthController {
	return &AuthController{Service: service, Audit: recorder}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and returns a token plus the role the client
// uses to pick a dashboard.
func (ac *AuthController) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "username and password are required",
			"data":    nil,
		})
	}

	token, user, err := ac.Service.Login(req.Username, req.Password)
	if err != nil {
		switch err {
		case services.ErrInvalidCredentials:
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"status":  http.StatusUnauthorized,
				"message": "Invalid username or password",
				"data":    nil,
			})
		case services.ErrAccountInactive:
			return c.JSON(http.StatusUnauthorized, map[string]interface{}{
				"status":  http.StatusUnauthorized,
				"message": "Your account has been deactivated",
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Login failed: " + err.Error(),
				"data":    nil,
			})
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Login successful",
		"data": map[string]interface{}{
			"token":     token,
			"id":        user.ID,
			"username":  user.Username,
			"full_name": user.FullName(),
			"role":      user.Role,
		},
	})
}

// Register creates a staff account. The admin role cannot be self-assigned.
func (ac *AuthController) Register(c echo.Context) error {
	var req services.RegisterStaffRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.Username == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" || req.Role == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "username, password, first_name, last_name and role are required",
			"data":    nil,
		})
	}
	if !models.IsValidRole(req.Role) || req.Role == models.RoleAdmin {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid role: " + req.Role,
			"data":    nil,
		})
	}

	user, err := ac.Service.RegisterStaff(req)
	if err != nil {
		switch err {
		case services.ErrUsernameTaken, services.ErrEmployeeIDTaken:
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to register staff: " + err.Error(),
				"data":    nil,
			})
		}
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	ac.Audit.Record(claims.UserID, claims.Username, "create", "user", strconv.Itoa(user.ID), map[string]interface{}{
		"username": user.Username,
		"role":     user.Role,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Staff registered successfully",
		"data":    user,
	})
}

// Profile returns the record behind the presented token.
func (ac *AuthController) Profile(c echo.Context) error {
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	user, err := ac.Service.GetByID(claims.UserID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]interface{}{
			"status":  http.StatusNotFound,
			"message": "User not found",
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Profile retrieved successfully",
		"data":    user,
	})
}
