package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"truth-market/internal/models"
)

// respondServiceError maps service sentinels to HTTP statuses. Anything
// unrecognized is logged and hidden behind a 500.
func respondServiceError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, models.ErrMarketNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrUnauthorized),
		errors.Is(err, models.ErrOracleNotEligible):
		status = http.StatusForbidden
	case errors.Is(err, models.ErrAlreadyValidated),
		errors.Is(err, models.ErrAlreadyVoted):
		status = http.StatusConflict
	case errors.Is(err, models.ErrValidationPeriodExpired),
		errors.Is(err, models.ErrInsufficientStake),
		errors.Is(err, models.ErrInvalidOutcome),
		errors.Is(err, models.ErrInsufficientFunds),
		errors.Is(err, models.ErrDisputeWindowClosed):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.Printf("[API] Internal error: %v", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
