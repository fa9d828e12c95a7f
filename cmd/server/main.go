package main

import (
	"log"
	"time"

	"deposit-reconciliation-engine/internal/config"
	"deposit-reconciliation-engine/internal/models"
	"deposit-reconciliation-engine/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.LoadOrEnv()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	db.AutoMigrate(
		&models.Invoice{},
		&models.BankTransaction{},
		&models.PaymentMatch{},
		&models.ReconciliationRun{},
		&models.MatchAuditLog{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Server.AllowOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, db, cfg.Matching)

	r.Run(cfg.Server.Addr)
}
