package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"deposit-reconciliation-engine/internal/config"
	handler "deposit-reconciliation-engine/internal/handlers"
	"deposit-reconciliation-engine/internal/repository"
	service "deposit-reconciliation-engine/internal/services/reconciliation"
)

func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.MatchingConfig) {
	invoiceRepo := repository.NewInvoiceRepository(db)
	transactionRepo := repository.NewBankTransactionRepository(db)
	matchRepo := repository.NewPaymentMatchRepository(db)
	runRepo := repository.NewRunRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	reconService := service.NewService(
		cfg,
		invoiceRepo,
		transactionRepo,
		matchRepo,
		runRepo,
		auditRepo,
	)

	reconHandler := handler.NewReconciliationHandler(reconService)

	api := r.Group("/api")

	// Health check
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Feed ingestion (stand-ins for the out-of-scope sync collaborators)
	api.POST("/transactions/upload", reconHandler.UploadTransactions)
	api.POST("/invoices/upload", reconHandler.UploadInvoices)

	// Reconciliation runs
	recon := api.Group("/reconciliation")
	recon.POST("/run", reconHandler.Run)
	recon.GET("/:runId", reconHandler.GetRunProgress)

	// Review queue and human actions
	matches := api.Group("/matches")
	matches.GET("", reconHandler.ListMatches)
	matches.POST("/:externalId/confirm", reconHandler.ConfirmMatch)
	matches.POST("/:externalId/reject", reconHandler.RejectMatch)
	matches.POST("/:externalId/reverse", reconHandler.ReverseMatch)
	matches.POST("/:externalId/manual", reconHandler.ManualMatch)
}
