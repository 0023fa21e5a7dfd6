package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"

	"truth-market/internal/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct{}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// WalletLogin issues a JWT for a well-formed Solana wallet address. The
// token only asserts identity; everything stake-gated is authorized against
// the oracle registry downstream.
// POST /auth/wallet
func (h *AuthHandler) WalletLogin(c *gin.Context) {
	var req struct {
		WalletAddress string `json:"wallet_address" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.WalletAddress) < 32 || len(req.WalletAddress) > 44 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet address"})
		return
	}

	// Decode wallet address (Public Key) from Base58
	pubKey, err := base58.Decode(req.WalletAddress)
	if err != nil || len(pubKey) != 32 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid public key format"})
		return
	}

	token, err := auth.GenerateToken(req.WalletAddress)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":          token,
		"wallet_address": req.WalletAddress,
	})
}
