package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"truth-market/internal/auth"
	"truth-market/internal/models"
	"truth-market/internal/services"
)

type FinalizeHandler struct {
	finalizeService *services.FinalizeService
}

func NewFinalizeHandler(finalizeService *services.FinalizeService) *FinalizeHandler {
	return &FinalizeHandler{finalizeService: finalizeService}
}

// FinalizeMarket settles a market once its validation window has closed.
// Force-settling early is reserved for admin wallets.
// POST /api/markets/:id/finalize
func (h *FinalizeHandler) FinalizeMarket(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	marketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	var req models.FinalizeMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.finalizeService.FinalizeMarket(c.Request.Context(), uint(marketID), wallet, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}

// GetFinalizationRecord returns the settlement record of a validated market
// GET /api/markets/:id/finalization
func (h *FinalizeHandler) GetFinalizationRecord(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	record, err := h.finalizeService.GetFinalizationRecord(c.Request.Context(), uint(marketID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    record,
	})
}
