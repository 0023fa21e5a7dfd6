package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"truth-market/internal/auth"
	"truth-market/internal/models"
	"truth-market/internal/services"
)

type VoteHandler struct {
	voteService   *services.VoteService
	marketService *services.MarketService
}

func NewVoteHandler(voteService *services.VoteService, marketService *services.MarketService) *VoteHandler {
	return &VoteHandler{
		voteService:   voteService,
		marketService: marketService,
	}
}

// SubmitVote records the caller's vote on a market outcome
// POST /api/markets/:id/votes
func (h *VoteHandler) SubmitVote(c *gin.Context) {
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

	var req models.SubmitVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := h.voteService.SubmitVote(c.Request.Context(), wallet, uint(marketID), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    vote,
	})
}

// GetMarketVotes lists all votes cast on a market
// GET /api/markets/:id/votes
func (h *VoteHandler) GetMarketVotes(c *gin.Context) {
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	votes, err := h.marketService.GetVotes(c.Request.Context(), uint(marketID))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    votes,
		"count":   len(votes),
	})
}

// GetMyVotes lists the caller's vote history
// GET /api/votes
func (h *VoteHandler) GetMyVotes(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	votes, total, err := h.voteService.GetOracleVotes(c.Request.Context(), wallet, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    votes,
		"total":   total,
	})
}
