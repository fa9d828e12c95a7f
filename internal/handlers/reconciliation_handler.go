package handler

import (
	"net/http"

	"deposit-reconciliation-engine/internal/services/normalize"
	service "deposit-reconciliation-engine/internal/services/reconciliation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReconciliationHandler struct {
	service *service.Service
}

func NewReconciliationHandler(s *service.Service) *ReconciliationHandler {
	return &ReconciliationHandler{service: s}
}

// Run kicks off a reconciliation batch over the stored transactions.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	run, err := h.service.RunReconciliation(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run})
}

func (h *ReconciliationHandler) GetRunProgress(c *gin.Context) {
	runID, err := uuid.Parse(c.Param("runId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run ID"})
		return
	}
	run, err := h.service.GetRun(runID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed_count":            run.ProcessedCount,
		"total":                      run.TotalTransactions,
		"auto_matched_count":         run.AutoMatchedCount,
		"pending_review_count":       run.PendingReviewCount,
		"manual_investigation_count": run.ManualInvestigationCount,
		"skipped_terminal_count":     run.SkippedTerminalCount,
		"failed_count":               run.FailedCount,
		"status":                     run.Status,
	})
}

// ListMatches serves the review queue.
func (h *ReconciliationHandler) ListMatches(c *gin.Context) {
	status := c.Query("status")
	cursor := c.Query("cursor")
	limit := 50

	items, nextCursor, hasMore, err := h.service.ListMatches(status, cursor, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":       items,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
	})
}

func (h *ReconciliationHandler) ConfirmMatch(c *gin.Context) {
	m, err := h.service.ConfirmMatch(c.Param("externalId"), performedBy(c))
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match confirmed", "match": m})
}

func (h *ReconciliationHandler) RejectMatch(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.BindJSON(&payload)

	m, err := h.service.RejectMatch(c.Param("externalId"), performedBy(c), payload.Reason)
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match rejected", "match": m})
}

func (h *ReconciliationHandler) ReverseMatch(c *gin.Context) {
	var payload struct {
		Reason string `json:"reason"`
	}
	_ = c.BindJSON(&payload)

	m, err := h.service.ReverseMatch(c.Param("externalId"), performedBy(c), payload.Reason)
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match reversed", "match": m})
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	var payload struct {
		InvoiceIDs []string `json:"invoice_ids"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	ids := make([]uuid.UUID, 0, len(payload.InvoiceIDs))
	for _, raw := range payload.InvoiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice ID: " + raw})
			return
		}
		ids = append(ids, id)
	}

	m, err := h.service.ManualMatch(c.Param("externalId"), ids, performedBy(c))
	if err != nil {
		respondActionError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "match set manually", "match": m})
}

// UploadTransactions accepts a JSON batch from the transaction feed.
func (h *ReconciliationHandler) UploadTransactions(c *gin.Context) {
	var payload struct {
		Transactions []normalize.RawTransaction `json:"transactions"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result := h.service.IngestTransactions(payload.Transactions)
	c.JSON(http.StatusOK, result)
}

// UploadInvoices accepts a JSON batch from the invoice feed.
func (h *ReconciliationHandler) UploadInvoices(c *gin.Context) {
	var payload struct {
		Invoices []service.InvoiceRow `json:"invoices"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	inserted := 0
	var rowErrors []string
	for _, row := range payload.Invoices {
		if _, err := h.service.CreateInvoice(row); err != nil {
			rowErrors = append(rowErrors, err.Error())
			continue
		}
		inserted++
	}
	c.JSON(http.StatusOK, gin.H{
		"invoices_added": inserted,
		"errors":         rowErrors,
	})
}

func performedBy(c *gin.Context) string {
	if user := c.GetHeader("X-User"); user != "" {
		return user
	}
	return "unknown"
}

func respondActionError(c *gin.Context, err error) {
	if err == service.ErrMatchNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
