package blockchain

import (
	"context"
	"log"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// VaultDiagnostics holds the result of an on-chain connectivity check
type VaultDiagnostics struct {
	RPCConnected    bool   `json:"rpc_connected"`
	RPCError        string `json:"rpc_error,omitempty"`
	LatestBlockhash string `json:"latest_blockhash,omitempty"`
	ServerKeySet    bool   `json:"server_key_set"`
	ServerPubkey    string `json:"server_pubkey,omitempty"`
	ProgramSet      bool   `json:"program_set"`
	ProgramID       string `json:"program_id,omitempty"`
	TestVaultPDA    string `json:"test_vault_pda,omitempty"`
	PDAError        string `json:"pda_error,omitempty"`
	TreasurySet     bool   `json:"treasury_set"`
	TreasuryWallet  string `json:"treasury_wallet,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// RunDiagnostics checks RPC connectivity, the server authority key and vault
// PDA derivation. Settlement mirrors fail silently at runtime, so this is the
// operator's way to see which half of the chain setup is broken.
func (v *StakeVault) RunDiagnostics(ctx context.Context) *VaultDiagnostics {
	result := &VaultDiagnostics{
		Timestamp: time.Now().Format(time.RFC3339),
	}

	// 1. RPC connectivity
	log.Printf("[Diagnostics] Testing RPC connectivity...")
	blockhash, err := v.client.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		result.RPCConnected = false
		result.RPCError = err.Error()
		log.Printf("[Diagnostics] ❌ RPC FAILED: %v", err)
	} else {
		result.RPCConnected = true
		result.LatestBlockhash = blockhash.Value.Blockhash.String()
		log.Printf("[Diagnostics] ✅ RPC connected, blockhash: %s", result.LatestBlockhash)
	}

	// 2. Server authority key
	if v.client.serverWallet != nil {
		result.ServerKeySet = true
		result.ServerPubkey = v.client.serverWallet.PublicKey().String()
		log.Printf("[Diagnostics] ✅ Server authority: %s", result.ServerPubkey)
	} else {
		log.Printf("[Diagnostics] ❌ Server authority key not loaded, settlement mirrors run as placeholders")
	}

	// 3. Vault program and PDA derivation
	if v.program != nil {
		result.ProgramSet = true
		result.ProgramID = v.program.GetProgramID().String()

		testPDA, _, err := v.program.GetVaultPDA(1)
		if err != nil {
			result.PDAError = err.Error()
			log.Printf("[Diagnostics] ❌ PDA derivation failed: %v", err)
		} else {
			result.TestVaultPDA = testPDA.String()
			log.Printf("[Diagnostics] ✅ Test vault PDA (market 1): %s", result.TestVaultPDA)
		}
	} else {
		log.Printf("[Diagnostics] ❌ Vault program not configured")
	}

	// 4. Treasury wallet
	result.TreasurySet = v.client.TreasuryWallet() != ""
	if result.TreasurySet {
		result.TreasuryWallet = v.client.TreasuryWallet()
	}

	return result
}
