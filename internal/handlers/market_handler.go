package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"truth-market/internal/auth"
	"truth-market/internal/models"
	"truth-market/internal/services"
)

type MarketHandler struct {
	marketService *services.MarketService
}

func NewMarketHandler(marketService *services.MarketService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

// GetMarkets returns markets with optional status filtering
// GET /api/markets
func (h *MarketHandler) GetMarkets(c *gin.Context) {
	status := models.MarketStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	markets, total, err := h.marketService.ListMarkets(c.Request.Context(), status, limit, offset)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"total":   total,
	})
}

// GetMarketByID returns a specific market together with its tally
// GET /api/markets/:id
func (h *MarketHandler) GetMarketByID(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	market, tally, err := h.marketService.GetMarket(c.Request.Context(), uint(marketID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"market": market,
			"tally":  tally,
		},
	})
}

// CreateMarket creates a new pending market
// POST /api/markets
func (h *MarketHandler) CreateMarket(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.CreateMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	market, err := h.marketService.CreateMarket(c.Request.Context(), wallet, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    market,
	})
}
