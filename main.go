package main

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/tikohealth/campaign-backend/config"
	"github.com/tikohealth/campaign-backend/internal/routes"
	"github.com/tikohealth/campaign-backend/pkg/storage/mysql"
)

func main() {
	cfg := config.LoadConfig()

	db := mysql.Connect()
	defer db.Close()

	e := echo.New()
	routes.Init(e, db)

	log.Printf("starting campaign backend on port %s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
