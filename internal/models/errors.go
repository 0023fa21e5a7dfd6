package models

import "errors"

// Typed failures surfaced by the engine. Services wrap these with context via
// fmt.Errorf("%w"); handlers translate them to HTTP statuses with errors.Is.
var (
	ErrUnauthorized            = errors.New("unauthorized")
	ErrMarketNotFound          = errors.New("market not found")
	ErrAlreadyValidated        = errors.New("market already validated")
	ErrValidationPeriodExpired = errors.New("validation period expired")
	ErrInsufficientStake       = errors.New("stake below minimum")
	ErrInvalidOutcome          = errors.New("invalid outcome code")
	ErrOracleNotEligible       = errors.New("oracle not eligible")
	ErrDisputeWindowClosed     = errors.New("dispute window closed")
	ErrAlreadyVoted            = errors.New("oracle already voted on this market")
	ErrInsufficientFunds       = errors.New("insufficient funds")
)
