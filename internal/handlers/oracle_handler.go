package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"truth-market/internal/auth"
	"truth-market/internal/blockchain"
	"truth-market/internal/models"
	"truth-market/internal/services"
)

type OracleHandler struct {
	registryService *services.RegistryService
	vault           *blockchain.StakeVault
}

func NewOracleHandler(registryService *services.RegistryService, vault *blockchain.StakeVault) *OracleHandler {
	return &OracleHandler{
		registryService: registryService,
		vault:           vault,
	}
}

// Register registers the caller's wallet as an oracle
// POST /api/oracles/register
func (h *OracleHandler) Register(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.RegisterOracleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	oracle, err := h.registryService.RegisterOracle(c.Request.Context(), wallet, req.StakeAmount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data := gin.H{"oracle": oracle}

	// Hand the client the on-chain instruction matching the escrowed stake.
	if h.vault != nil {
		if ix, err := h.vault.GetLockStakeInstruction(wallet, req.StakeAmount); err == nil {
			data["lock_instruction"] = ix
		}
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    data,
	})
}

// GetMe returns the caller's oracle profile and accuracy stats
// GET /api/oracles/me
func (h *OracleHandler) GetMe(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	stats, err := h.registryService.GetOracleStats(c.Request.Context(), wallet)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "oracle not found"})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetOracle returns the stats of any oracle by wallet address
// GET /api/oracles/:address
func (h *OracleHandler) GetOracle(c *gin.Context) {
	address := c.Param("address")

	stats, err := h.registryService.GetOracleStats(c.Request.Context(), address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "oracle not found"})
			return
		}
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetOracles returns oracles ranked by reputation
// GET /api/oracles
func (h *OracleHandler) GetOracles(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	activeOnly := c.DefaultQuery("active", "true") == "true"

	oracles, total, err := h.registryService.ListOracles(c.Request.Context(), activeOnly, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    oracles,
		"total":   total,
	})
}
