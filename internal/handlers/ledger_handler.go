package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"truth-market/internal/auth"
	"truth-market/internal/blockchain"
	"truth-market/internal/ledger"
	"truth-market/internal/models"
)

type LedgerHandler struct {
	book  *ledger.VaultLedger
	vault *blockchain.StakeVault
}

func NewLedgerHandler(book *ledger.VaultLedger, vault *blockchain.StakeVault) *LedgerHandler {
	return &LedgerHandler{
		book:  book,
		vault: vault,
	}
}

// Deposit credits the caller's book balance. When a transaction signature is
// supplied and a chain client is configured, the on-chain transfer is
// verified before the credit lands.
// POST /api/ledger/deposit
func (h *LedgerHandler) Deposit(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req models.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.TxSignature != "" && h.vault != nil {
		details, err := h.vault.VerifyDeposit(c.Request.Context(), req.TxSignature, req.Amount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if details == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "transaction not confirmed yet"})
			return
		}
	}

	entry, err := h.book.Deposit(c.Request.Context(), wallet, req.Amount, req.TxSignature)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    entry,
	})
}

// GetAccount returns the caller's book balances
// GET /api/ledger/account
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	account, err := h.book.GetAccount(c.Request.Context(), wallet)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    account,
	})
}

// GetEntries returns the caller's ledger audit trail
// GET /api/ledger/entries
func (h *LedgerHandler) GetEntries(c *gin.Context) {
	wallet, exists := auth.GetWalletAddress(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	entries, total, err := h.book.GetEntries(c.Request.Context(), wallet, limit, offset)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    entries,
		"total":   total,
	})
}
