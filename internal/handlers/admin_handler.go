package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"truth-market/internal/auth"
	"truth-market/internal/blockchain"
	"truth-market/internal/models"
	"truth-market/internal/services"
)

type AdminHandler struct {
	db            *gorm.DB
	adminService  *services.AdminService
	marketService *services.MarketService
	vault         *blockchain.StakeVault
}

func NewAdminHandler(db *gorm.DB, marketService *services.MarketService, vault *blockchain.StakeVault) *AdminHandler {
	return &AdminHandler{
		db:            db,
		adminService:  services.NewAdminService(db),
		marketService: marketService,
		vault:         vault,
	}
}

// AdminMiddleware checks if the authenticated wallet is an admin
func (h *AdminHandler) AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, exists := auth.GetWalletAddress(c)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		admin, err := h.adminService.GetAdminByWallet(wallet)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "not an admin"})
			c.Abort()
			return
		}

		c.Set("admin_id", admin.ID)
		c.Set("admin_role", admin.Role)
		c.Next()
	}
}

// SuperAdminMiddleware checks if the caller is a super admin
func (h *AdminHandler) SuperAdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("admin_role")
		if !exists || role != "SUPER_ADMIN" {
			c.JSON(http.StatusForbidden, gin.H{"error": "super admin access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetStats returns the live engine summary
// GET /api/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.GetEngineStats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}

// GetMarkets returns all markets for admin
// GET /api/admin/markets
func (h *AdminHandler) GetMarkets(c *gin.Context) {
	var markets []models.Market
	if err := h.db.Order("created_at DESC").Find(&markets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch markets"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    markets,
		"count":   len(markets),
	})
}

// UpdateMarketVolume overwrites the reported volume of a pending market
// PUT /api/admin/markets/:id/volume
func (h *AdminHandler) UpdateMarketVolume(c *gin.Context) {
	adminID := c.GetUint("admin_id")
	marketID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market id"})
		return
	}

	var req models.SetVolumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.marketService.SetVolume(c.Request.Context(), uint(marketID), req.Volume); err != nil {
		respondServiceError(c, err)
		return
	}

	mID := uint(marketID)
	h.adminService.LogAdminAction(adminID, "SET_MARKET_VOLUME", "MARKET", &mID, map[string]interface{}{
		"volume": req.Volume,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "market volume updated",
	})
}

// PromoteAdmin grants admin privileges to a wallet
// POST /api/admin/admins
func (h *AdminHandler) PromoteAdmin(c *gin.Context) {
	adminID := c.GetUint("admin_id")

	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
		Role          string `json:"role" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Role != "SUPER_ADMIN" && req.Role != "OPERATOR" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	admin, err := h.adminService.PromoteWallet(req.WalletAddress, req.Role, adminID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    admin,
	})
}

// GetDiagnostics runs the vault connectivity checks
// GET /api/admin/diagnostics
func (h *AdminHandler) GetDiagnostics(c *gin.Context) {
	if h.vault == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "vault not configured"})
		return
	}

	result := h.vault.RunDiagnostics(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetAdminLogs returns admin activity logs
// GET /api/admin/logs
func (h *AdminHandler) GetAdminLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	logs, err := h.adminService.GetAdminLogs(limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    logs,
		"count":   len(logs),
	})
}
