package routes

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tikohealth/campaign-backend/config"
	accountControllers "github.com/tikohealth/campaign-backend/internal/accounts/controllers"
	accountModels "github.com/tikohealth/campaign-backend/internal/accounts/models"
	accountServices "github.com/tikohealth/campaign-backend/internal/accounts/services"
	campaignControllers "github.com/tikohealth/campaign-backend/internal/campaigns/controllers"
	campaignServices "github.com/tikohealth/campaign-backend/internal/campaigns/services"
	"github.com/tikohealth/campaign-backend/internal/common/audit"
	"github.com/tikohealth/campaign-backend/internal/common/middlewares"
	consultationControllers "github.com/tikohealth/campaign-backend/internal/consultations/controllers"
	consultationServices "github.com/tikohealth/campaign-backend/internal/consultations/services"
	labControllers "github.com/tikohealth/campaign-backend/internal/laboratory/controllers"
	labServices "github.com/tikohealth/campaign-backend/internal/laboratory/services"
	patientControllers "github.com/tikohealth/campaign-backend/internal/patients/controllers"
	patientServices "github.com/tikohealth/campaign-backend/internal/patients/services"
	pharmacyControllers "github.com/tikohealth/campaign-backend/internal/pharmacy/controllers"
	pharmacyServices "github.com/tikohealth/campaign-backend/internal/pharmacy/services"
	"github.com/tikohealth/campaign-backend/ws"
)

// Init wires every service and controller onto the echo instance.
func Init(e *echo.Echo, db *sql.DB) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	cfg := config.LoadConfig()
	recorder := audit.NewRecorder(db)

	authService := accountServices.NewAuthService(db)
	userService := accountServices.NewUserService(db)
	dashboardService := accountServices.NewDashboardService(db)
	campaignService := campaignServices.NewCampaignService(db)
	catalogService := campaignServices.NewCatalogService(db)
	registrationService := patientServices.NewRegistrationService(db, cfg.PatientIDPrefix)
	vitalsService := patientServices.NewVitalsService(db)
	consultationService := consultationServices.NewConsultationService(db)
	labOrderService := consultationServices.NewLabOrderService(db)
	prescriptionService := consultationServices.NewPrescriptionService(db)
	resultService := labServices.NewResultService(db)
	worksheetService := labServices.NewWorksheetService(db)
	dispensingService := pharmacyServices.NewDispensingService(db)

	authController := accountControllers.NewAuthController(authService, recorder)
	userController := accountControllers.NewUserController(userService, recorder)
	dashboardController := accountControllers.NewDashboardController(dashboardService)
	campaignController := campaignControllers.NewCampaignController(campaignService, recorder)
	catalogController := campaignControllers.NewCatalogController(catalogService, recorder)
	patientController := patientControllers.NewPatientController(registrationService, vitalsService, recorder)
	vitalsController := patientControllers.NewVitalsController(vitalsService, recorder)
	consultationController := consultationControllers.NewConsultationController(
		consultationService, labOrderService, prescriptionService, recorder)
	labOrderController := consultationControllers.NewLabOrderController(labOrderService, recorder)
	prescriptionController := consultationControllers.NewPrescriptionController(prescriptionService, recorder)
	resultController := labControllers.NewResultController(resultService, recorder)
	worksheetController := labControllers.NewWorksheetController(worksheetService, recorder)
	pharmacyController := pharmacyControllers.NewPharmacyController(dispensingService, recorder)

	e.POST("/api/auth/login", authController.Login)

	api := e.Group("/api", middlewares.JWTMiddleware())

	api.GET("/auth/profile", authController.Profile)
	api.GET("/dashboard", dashboardController.Stats)

	admin := api.Group("", middlewares.RequireRole(accountModels.RoleAdmin))
	admin.POST("/auth/register", authController.Register)
	admin.GET("/users", userController.List)
	admin.PUT("/users/:id", userController.Update)
	admin.PUT("/users/:id/active", userController.SetActive)

	api.GET("/audit", userController.AuditTrail,
		middlewares.RequireRole(accountModels.RoleDataAnalyst))

	api.GET("/campaigns", campaignController.List)
	api.GET("/campaigns/:id", campaignController.Detail)
	api.GET("/campaigns/:id/lab-tests", catalogController.CampaignLabTests)
	api.GET("/campaigns/:id/drugs", catalogController.CampaignDrugs)
	api.GET("/lab-tests", catalogController.ListLabTests)
	api.GET("/drugs", catalogController.ListDrugs)

	manager := api.Group("", middlewares.RequireRole(accountModels.RoleCampaignManager))
	manager.POST("/campaigns", campaignController.Create)
	manager.PUT("/campaigns/:id", campaignController.Update)
	manager.PUT("/campaigns/:id/status", campaignController.SetStatus)
	manager.POST("/campaigns/:id/lab-tests", catalogController.LinkLabTest)
	manager.DELETE("/campaigns/:id/lab-tests/:testId", catalogController.UnlinkLabTest)
	manager.POST("/campaigns/:id/drugs", catalogController.LinkDrug)
	manager.DELETE("/campaigns/:id/drugs/:drugId", catalogController.UnlinkDrug)
	manager.POST("/lab-tests", catalogController.CreateLabTest)
	manager.PUT("/lab-tests/:id/active", catalogController.SetLabTestActive)
	manager.POST("/drugs", catalogController.CreateDrug)
	manager.PUT("/drugs/:id/active", catalogController.SetDrugActive)

	api.GET("/patients", patientController.List)
	api.GET("/patients/:id", patientController.Get)
	api.GET("/patients/:id/vitals", vitalsController.Get)

	registration := api.Group("", middlewares.RequireRole(accountModels.RoleRegistrationClerk))
	registration.POST("/patients", patientController.Register)

	api.PUT("/patients/:id/discharge", patientController.Discharge,
		middlewares.RequireRole(accountModels.RoleDoctor))

	vitals := api.Group("", middlewares.RequireRole(accountModels.RoleVitalsClerk))
	vitals.PUT("/patients/:id/vitals", vitalsController.Save)

	api.GET("/consultations", consultationController.List)
	api.GET("/consultations/:id", consultationController.Detail)
	api.GET("/prescriptions/:id", prescriptionController.Get)

	doctor := api.Group("", middlewares.RequireRole(accountModels.RoleDoctor))
	doctor.POST("/consultations", consultationController.Create)
	doctor.PUT("/consultations/:id", consultationController.Update)
	doctor.PUT("/consultations/:id/status", consultationController.SetStatus)
	doctor.POST("/lab-orders", labOrderController.Create)
	doctor.PUT("/lab-orders/:id/cancel", labOrderController.Cancel)
	doctor.POST("/prescriptions", prescriptionController.Create)

	api.GET("/lab-orders/:id", labOrderController.Get)
	api.GET("/lab-orders/:id/result", resultController.GetByOrder)
	api.GET("/lab-results/:id", resultController.Get)
	api.GET("/lab-orders", labOrderController.Search,
		middlewares.RequireRole(accountModels.RoleLabTechnician, accountModels.RoleDoctor))

	lab := api.Group("", middlewares.RequireRole(accountModels.RoleLabTechnician))
	lab.POST("/lab-results", resultController.Enter)
	lab.POST("/lab-results/tabular", resultController.EnterTabular)
	lab.PUT("/lab-results/:id/verify", resultController.Verify)
	lab.PUT("/lab-results/:id/notify-critical", resultController.MarkCriticalNotified)
	lab.GET("/lab-results/criticals", resultController.Criticals)
	lab.GET("/lab-results/recent", resultController.Recent)
	lab.POST("/worksheets", worksheetController.Create)
	lab.GET("/worksheets", worksheetController.List)
	lab.GET("/worksheets/:id", worksheetController.Detail)
	lab.PUT("/worksheets/:id/status", worksheetController.SetStatus)
	lab.POST("/worksheets/:id/orders", worksheetController.AttachOrder)
	lab.DELETE("/worksheets/:id/orders/:orderId", worksheetController.DetachOrder)

	pharmacy := api.Group("", middlewares.RequireRole(accountModels.RolePharmacyClerk))
	pharmacy.GET("/pharmacy/queue", pharmacyController.Queue)
	pharmacy.PUT("/pharmacy/prescriptions/:id/details", pharmacyController.CompleteDetails)
	pharmacy.PUT("/pharmacy/prescriptions/:id/dispense", pharmacyController.Dispense)
	pharmacy.PUT("/pharmacy/prescriptions/:id/cancel", pharmacyController.Cancel)
	pharmacy.GET("/pharmacy/history", pharmacyController.History)

	e.GET("/ws", ws.ServeWS(ws.HubInstance))
}
