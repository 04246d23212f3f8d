package controllers

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	common "github.com/tikohealth/campaign-backend/internal/common/middlewares"
	"github.com/tikohealth/campaign-backend/internal/patients/models"
	"github.com/tikohealth/campaign-backend/internal/patients/services"
	jwtUtils "github.com/tikohealth/campaign-backend/pkg/utils"
)

type VitalsController struct {
	Service *services.VitalsService
	Audit   *audit.Recorder
}

func NewVitalsController(service *services.VitalsService, recorder *audit.Recorder) *VitalsController {
	return &VitalsController{Service: service, Audit: recorder}
}

type vitalsRequest struct {
	Weight      *float64 `json:"weight"`
	Height      *float64 `json:"height"`
	Temperature *float64 `json:"temperature"`

	SystolicBP  *int `json:"systolic_bp"`
	DiastolicBP *int `json:"diastolic_bp"`
	HeartRate   *int `json:"heart_rate"`

	GlucoseType  string   `json:"glucose_type"`
	BloodGlucose *float64 `json:"blood_glucose"`

	LMP                 string `json:"lmp"` // YYYY-MM-DD
	IsPregnant          bool   `json:"is_pregnant"`
	GestationalAge      *int   `json:"gestational_age"`
	AgeAtFirstPregnancy *int   `json:"age_at_first_pregnancy"`

	Notes string `json:"notes"`
}

// Save records or replaces the vitals of a patient.
func (vc *VitalsController) Save(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid patient ID",
			"data":    nil,
		})
	}

	var req vitalsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}

	switch req.GlucoseType {
	case "", models.GlucoseFasting, models.GlucoseRandom, models.GlucosePostPrandial:
	default:
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid glucose_type: " + req.GlucoseType,
			"data":    nil,
		})
	}

	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	vitals := models.Vitals{
		PatientID:           patientID,
		Weight:              req.Weight,
		Height:              req.Height,
		Temperature:         req.Temperature,
		SystolicBP:          req.SystolicBP,
		DiastolicBP:         req.DiastolicBP,
		HeartRate:           req.HeartRate,
		GlucoseType:         req.GlucoseType,
		BloodGlucose:        req.BloodGlucose,
		IsPregnant:          req.IsPregnant,
		GestationalAge:      req.GestationalAge,
		AgeAtFirstPregnancy: req.AgeAtFirstPregnancy,
		Notes:               req.Notes,
		RecordedBy:          claims.UserID,
	}
	if req.LMP != "" {
		lmp, err := time.Parse("2006-01-02", req.LMP)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": "invalid lmp: use YYYY-MM-DD",
				"data":    nil,
			})
		}
		vitals.LMP = &lmp
	}

	saved, err := vc.Service.Save(vitals)
	if err != nil {
		switch err {
		case services.ErrVitalsOutOfRange:
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"status":  http.StatusBadRequest,
				"message": err.Error(),
				"data":    nil,
			})
		case sql.ErrNoRows:
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Patient not found",
				"data":    nil,
			})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]interface{}{
				"status":  http.StatusInternalServerError,
				"message": "Failed to save vitals: " + err.Error(),
				"data":    nil,
			})
		}
	}

	vc.Audit.Record(claims.UserID, claims.Username, "record_vitals", "patient", strconv.Itoa(patientID), map[string]interface{}{
		"blood_pressure": saved.BloodPressureDisplay(),
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Vitals saved successfully",
		"data":    vitalsPayload(saved),
	})
}

// Get returns the vitals of a patient with the derived clinical figures.
func (vc *VitalsController) Get(c echo.Context) error {
	patientID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid patient ID",
			"data":    nil,
		})
	}

	vitals, err := vc.Service.GetByPatientID(patientID)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Vitals not recorded for this patient",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to load vitals: " + err.Error(),
			"data":    nil,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Vitals retrieved successfully",
		"data":    vitalsPayload(vitals),
	})
}

func vitalsPayload(v *models.Vitals) map[string]interface{} {
	return map[string]interface{}{
		"vitals":                  v,
		"bmi":                     v.BMI(),
		"bmi_category":            v.BMICategory(),
		"blood_pressure":          v.BloodPressureDisplay(),
		"blood_pressure_category": v.BloodPressureCategory(),
	}
}
