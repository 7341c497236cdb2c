// @title TheraBrake Academy Quiz API
// @version 1.0
// @description Quiz authoring, timed delivery and analytics service.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"log"

	"github.com/CADMP2025/therabrakeacademy-sub000/internal/app"
	"github.com/CADMP2025/therabrakeacademy-sub000/internal/config"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/configwatcher"
	"github.com/CADMP2025/therabrakeacademy-sub000/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	go configwatcher.WatchConfig("configs/config.yaml", application.OnConfigReload)

	application.Run()
}
