package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"autoapply/config"
	"autoapply/controllers"
	"autoapply/middleware"
	"autoapply/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cfg := config.GetAppConfig()

	browser, err := services.NewBrowserService(cfg.Automation)
	if err != nil {
		log.Fatalf("Failed to start browser service: %v", err)
	}
	defer browser.Close()

	archive, err := services.NewS3Service()
	if err != nil {
		log.Printf("S3 archival disabled: %v", err)
		archive = nil
	}

	orchestrator := services.NewRunOrchestrator(cfg.Automation, browser, archive)
	applyController := controllers.NewApplyController(orchestrator)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.Use(cors.Default())
	r.Use(middleware.MaxRequestSize(32 << 20))
	r.Use(middleware.SanitizeInput())

	r.GET("/", applyController.Health)
	r.GET("/health", applyController.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiters := middleware.CreateRateLimiters()
	defer func() {
		for _, rl := range limiters {
			rl.Stop()
		}
	}()

	api := r.Group("/api")
	api.Use(middleware.ValidateJSON())
	api.Use(limiters["apply"].Limit())
	api.POST("/apply", applyController.Apply)

	log.Printf("auto-apply service listening on :%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
