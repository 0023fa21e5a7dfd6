package blockchain

import (
	"context"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go"
)

// StakeVault coordinates oracle stake custody between the internal book and
// the on-chain vault program. Without a configured program and server
// wallet it degrades to logging placeholder signatures so settlement can
// run against the book alone.
type StakeVault struct {
	client  *SolanaClient
	program *VaultProgram
}

// NewStakeVault creates a new stake vault instance
func NewStakeVault(client *SolanaClient, program *VaultProgram) *StakeVault {
	return &StakeVault{
		client:  client,
		program: program,
	}
}

// GetLockStakeInstruction prepares parameters for the frontend to build the
// stake lock instruction
func (v *StakeVault) GetLockStakeInstruction(oracleAddress string, amount int64) (map[string]interface{}, error) {
	if !v.client.ValidateWalletAddress(oracleAddress) {
		return nil, fmt.Errorf("invalid oracle address")
	}

	programID := ""
	if v.program != nil {
		programID = v.program.GetProgramID().String()
	}

	return map[string]interface{}{
		"programId":   programID,
		"instruction": "lock_stake",
		"amount":      amount,
		"accounts": map[string]string{
			"oracle":   oracleAddress,
			"treasury": v.client.TreasuryWallet(),
		},
	}, nil
}

// VerifyDeposit checks a claimed deposit transaction on-chain. Returns nil
// when the transaction is not yet confirmed, and an error when the
// confirmed transfer does not match the claimed deposit.
func (v *StakeVault) VerifyDeposit(ctx context.Context, signature string, minAmount int64) (*TransactionDetails, error) {
	details, err := v.client.VerifyTransaction(ctx, signature)
	if err != nil {
		return nil, fmt.Errorf("failed to verify deposit: %w", err)
	}

	if details == nil || !details.Confirmed {
		return nil, nil
	}

	if v.client.TreasuryWallet() != "" && details.Receiver != v.client.TreasuryWallet() {
		return nil, fmt.Errorf("deposit receiver mismatch")
	}

	if minAmount > 0 && details.Amount < uint64(minAmount) {
		return nil, fmt.Errorf("on-chain transfer below claimed deposit")
	}

	return details, nil
}

// ReleaseReward pays a settlement reward out of the vault
func (v *StakeVault) ReleaseReward(ctx context.Context, marketID uint, recipient string, amount int64) (string, error) {
	if v.program != nil && v.client.serverWallet != nil {
		recipientKey, err := solana.PublicKeyFromBase58(recipient)
		if err != nil {
			return "", fmt.Errorf("invalid recipient address: %w", err)
		}
		return v.program.ReleaseReward(ctx, uint64(marketID), recipientKey, uint64(amount), v.client.serverWallet.PrivateKey)
	}

	log.Printf("[MOCK-REAL] Vault releasing %d lamports for market %d to %s", amount, marketID, recipient)
	return "vault_release_signature_placeholder", nil
}

// SlashStake confiscates slashed stake from an oracle on-chain
func (v *StakeVault) SlashStake(ctx context.Context, marketID uint, oracleAddress string, amount int64) (string, error) {
	if v.program != nil && v.client.serverWallet != nil {
		oracleKey, err := solana.PublicKeyFromBase58(oracleAddress)
		if err != nil {
			return "", fmt.Errorf("invalid oracle address: %w", err)
		}
		return v.program.SlashStake(ctx, uint64(marketID), oracleKey, uint64(amount), v.client.serverWallet.PrivateKey)
	}

	log.Printf("[MOCK-REAL] Vault slashing %d lamports from %s for market %d", amount, oracleAddress, marketID)
	return "vault_slash_signature_placeholder", nil
}

// GetVaultState reads the on-chain vault account for a market
func (v *StakeVault) GetVaultState(ctx context.Context, marketID uint) (*MarketVault, error) {
	if v.program == nil {
		return nil, fmt.Errorf("vault program not configured")
	}
	return v.program.GetMarketVault(ctx, uint64(marketID))
}
