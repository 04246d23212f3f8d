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

// CatalogController serves the lab test catalog, the drug formulary and
// the per-campaign panel links.
type CatalogController struct {
	Service *services.CatalogService
	Audit   *audit.Recorder
}

func NewCatalogController(service *services.CatalogService, recorder *audit.Recorder) *CatalogController {
	return &CatalogController{Service: service, Audit: recorder}
}

// CreateLabTest adds a lab test catalog entry.
func (cc *CatalogController) CreateLabTest(c echo.Context) error {
	var req services.LabTestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.Name == "" || req.Code == "" || req.Category == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "name, code and category are required",
			"data":    nil,
		})
	}
	if !models.IsValidTestCategory(req.Category) {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid test category: " + req.Category,
			"data":    nil,
		})
	}

	test, err := cc.Service.CreateLabTest(req)
	if err != nil {
		if err == services.ErrTestCodeTaken {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to create lab test: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "create", "lab_test", strconv.Itoa(test.ID), map[string]interface{}{
		"code": test.Code,
		"name": test.Name,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Lab test created successfully",
		"data":    test,
	})
}

// ListLabTests returns catalog entries.
func (cc *CatalogController) ListLabTests(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	tests, err := cc.Service.ListLabTests(c.QueryParam("category"), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list lab tests: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab tests retrieved successfully",
		"data":    tests,
	})
}

// SetLabTestActive toggles a catalog entry on or off.
func (cc *CatalogController) SetLabTestActive(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid lab test ID",
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

	if err := cc.Service.SetLabTestActive(id, *req.Active); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Lab test not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to update lab test: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "toggle", "lab_test", strconv.Itoa(id), map[string]interface{}{
		"active": *req.Active,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab test updated successfully",
		"data":    nil,
	})
}

// CreateDrug adds a formulary entry.
func (cc *CatalogController) CreateDrug(c echo.Context) error {
	var req services.DrugRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload: " + err.Error(),
			"data":    nil,
		})
	}
	if req.Name == "" || req.Category == "" {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "name and category are required",
			"data":    nil,
		})
	}

	drug, err := cc.Service.CreateDrug(req)
	if err != nil {
		if err == services.ErrDuplicateDrug {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to create drug: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "create", "drug", strconv.Itoa(drug.ID), map[string]interface{}{
		"name":     drug.Name,
		"strength": drug.Strength,
	})

	return c.JSON(http.StatusCreated, map[string]interface{}{
		"status":  http.StatusCreated,
		"message": "Drug created successfully",
		"data":    drug,
	})
}

// ListDrugs returns formulary entries.
func (cc *CatalogController) ListDrugs(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	drugs, err := cc.Service.ListDrugs(c.QueryParam("category"), activeOnly)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list drugs: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Drugs retrieved successfully",
		"data":    drugs,
	})
}

// SetDrugActive toggles a formulary entry on or off.
func (cc *CatalogController) SetDrugActive(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid drug ID",
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

	if err := cc.Service.SetDrugActive(id, *req.Active); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Drug not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to update drug: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "toggle", "drug", strconv.Itoa(id), map[string]interface{}{
		"active": *req.Active,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Drug updated successfully",
		"data":    nil,
	})
}

type linkLabTestRequest struct {
	LabTestID int  `json:"lab_test_id"`
	IsDefault bool `json:"is_default"`
	SortOrder int  `json:"sort_order"`
}

// LinkLabTest attaches a catalog test to a campaign panel.
func (cc *CatalogController) LinkLabTest(c echo.Context) error {
	campaignID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
			"data":    nil,
		})
	}
	var req linkLabTestRequest
	if err := c.Bind(&req); err != nil || req.LabTestID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "lab_test_id is required",
			"data":    nil,
		})
	}

	if err := cc.Service.LinkLabTest(campaignID, req.LabTestID, req.IsDefault, req.SortOrder); err != nil {
		if err == services.ErrAlreadyLinked {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to link lab test: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "link", "campaign_lab_test", strconv.Itoa(campaignID), map[string]interface{}{
		"lab_test_id": req.LabTestID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab test linked successfully",
		"data":    nil,
	})
}

// UnlinkLabTest removes a test from a campaign panel.
func (cc *CatalogController) UnlinkLabTest(c echo.Context) error {
	campaignID, err1 := strconv.Atoi(c.Param("id"))
	labTestID, err2 := strconv.Atoi(c.Param("testId"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid ID",
			"data":    nil,
		})
	}

	if err := cc.Service.UnlinkLabTest(campaignID, labTestID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Link not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to unlink lab test: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "unlink", "campaign_lab_test", strconv.Itoa(campaignID), map[string]interface{}{
		"lab_test_id": labTestID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Lab test unlinked successfully",
		"data":    nil,
	})
}

// CampaignLabTests lists a campaign's test panel.
func (cc *CatalogController) CampaignLabTests(c echo.Context) error {
	campaignID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
			"data":    nil,
		})
	}
	panel, err := cc.Service.CampaignLabTests(campaignID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list campaign lab tests: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Campaign lab tests retrieved successfully",
		"data":    panel,
	})
}

type linkDrugRequest struct {
	DrugID        int  `json:"drug_id"`
	IsPreferred   bool `json:"is_preferred"`
	StockQuantity *int `json:"stock_quantity"`
	SortOrder     int  `json:"sort_order"`
}

// LinkDrug attaches a formulary drug to a campaign.
func (cc *CatalogController) LinkDrug(c echo.Context) error {
	campaignID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
			"data":    nil,
		})
	}
	var req linkDrugRequest
	if err := c.Bind(&req); err != nil || req.DrugID == 0 {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "drug_id is required",
			"data":    nil,
		})
	}

	if err := cc.Service.LinkDrug(campaignID, req.DrugID, req.IsPreferred, req.StockQuantity, req.SortOrder); err != nil {
		if err == services.ErrAlreadyLinked {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"status":  http.StatusConflict,
				"message": err.Error(),
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to link drug: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "link", "campaign_drug", strconv.Itoa(campaignID), map[string]interface{}{
		"drug_id": req.DrugID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Drug linked successfully",
		"data":    nil,
	})
}

// UnlinkDrug removes a drug from a campaign formulary.
func (cc *CatalogController) UnlinkDrug(c echo.Context) error {
	campaignID, err1 := strconv.Atoi(c.Param("id"))
	drugID, err2 := strconv.Atoi(c.Param("drugId"))
	if err1 != nil || err2 != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid ID",
			"data":    nil,
		})
	}

	if err := cc.Service.UnlinkDrug(campaignID, drugID); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, map[string]interface{}{
				"status":  http.StatusNotFound,
				"message": "Link not found",
				"data":    nil,
			})
		}
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to unlink drug: " + err.Error(),
			"data":    nil,
		})
	}
	claims := c.Get(string(common.ContextKeyClaims)).(*jwtUtils.Claims)
	cc.Audit.Record(claims.UserID, claims.Username, "unlink", "campaign_drug", strconv.Itoa(campaignID), map[string]interface{}{
		"drug_id": drugID,
	})

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Drug unlinked successfully",
		"data":    nil,
	})
}

// CampaignDrugs lists a campaign's formulary.
func (cc *CatalogController) CampaignDrugs(c echo.Context) error {
	campaignID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]interface{}{
			"status":  http.StatusBadRequest,
			"message": "Invalid campaign ID",
			"data":    nil,
		})
	}
	formulary, err := cc.Service.CampaignDrugs(campaignID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]interface{}{
			"status":  http.StatusInternalServerError,
			"message": "Failed to list campaign drugs: " + err.Error(),
			"data":    nil,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  http.StatusOK,
		"message": "Campaign drugs retrieved successfully",
		"data":    formulary,
	})
}
