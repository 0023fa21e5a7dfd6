package blockchain

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// VaultProgram handles interactions with the on-chain stake vault program
type VaultProgram struct {
	rpcClient *rpc.Client
	programID solana.PublicKey
}

// MarketVault represents the on-chain vault account for a market
type MarketVault struct {
	MarketID     uint64
	Authority    solana.PublicKey
	TokenMint    solana.PublicKey
	TotalStaked  uint64
	RewardPool   uint64
	TotalSlashed uint64
	Status       uint8
	Bump         uint8
}

// NewVaultProgram creates a new vault program client
func NewVaultProgram(rpcEndpoint string, programID string) (*VaultProgram, error) {
	programPubkey, err := solana.PublicKeyFromBase58(programID)
	if err != nil {
		return nil, fmt.Errorf("invalid program ID: %w", err)
	}

	return &VaultProgram{
		rpcClient: rpc.New(rpcEndpoint),
		programID: programPubkey,
	}, nil
}

// anchorDiscriminator computes the 8-byte Anchor instruction discriminator
func anchorDiscriminator(name string) []byte {
	hash := sha256.Sum256([]byte("global:" + name))
	return hash[:8]
}

// GetVaultPDA derives the PDA for a market's vault account
func (c *VaultProgram) GetVaultPDA(marketID uint64) (solana.PublicKey, uint8, error) {
	marketIDBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(marketIDBytes, marketID)

	seeds := [][]byte{
		[]byte("vault"),
		marketIDBytes,
	}

	pda, bump, err := solana.FindProgramAddress(seeds, c.programID)
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("failed to derive vault PDA: %w", err)
	}

	return pda, bump, nil
}

// GetMarketVault fetches and deserializes a market's vault account
func (c *VaultProgram) GetMarketVault(ctx context.Context, marketID uint64) (*MarketVault, error) {
	pda, _, err := c.GetVaultPDA(marketID)
	if err != nil {
		return nil, err
	}

	accountInfo, err := c.rpcClient.GetAccountInfo(ctx, pda)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch vault account: %w", err)
	}

	if accountInfo == nil || accountInfo.Value == nil {
		return nil, fmt.Errorf("vault account not found")
	}

	vault, err := deserializeMarketVault(accountInfo.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize vault: %w", err)
	}

	return vault, nil
}

// deserializeMarketVault deserializes vault account data
func deserializeMarketVault(data []byte) (*MarketVault, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("invalid vault data length")
	}

	// Skip 8-byte account discriminator
	decoder := bin.NewBinDecoder(data[8:])

	vault := &MarketVault{}
	if err := decoder.Decode(vault); err != nil {
		return nil, err
	}

	return vault, nil
}

// sendSettlementInstruction builds, signs and sends one vault instruction
func (c *VaultProgram) sendSettlementInstruction(
	ctx context.Context,
	instructionName string,
	marketID uint64,
	amount uint64,
	target solana.PublicKey,
	authority solana.PrivateKey,
) (string, error) {
	vaultPDA, _, err := c.GetVaultPDA(marketID)
	if err != nil {
		return "", err
	}

	authorityKey := authority.PublicKey()

	// Instruction data: discriminator (8 bytes) + amount (u64 little-endian)
	data := make([]byte, 16)
	copy(data[0:8], anchorDiscriminator(instructionName))
	binary.LittleEndian.PutUint64(data[8:16], amount)

	accounts := []*solana.AccountMeta{
		{PublicKey: vaultPDA, IsWritable: true, IsSigner: false},                // vault
		{PublicKey: target, IsWritable: true, IsSigner: false},                  // recipient or slashed oracle
		{PublicKey: authorityKey, IsWritable: false, IsSigner: true},            // authority
		{PublicKey: solana.SystemProgramID, IsWritable: false, IsSigner: false}, // system_program
	}

	instruction := solana.NewInstruction(
		c.programID,
		accounts,
		data,
	)

	recent, err := c.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(
		[]solana.Instruction{instruction},
		recent.Value.Blockhash,
		solana.TransactionPayer(authorityKey),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(authorityKey) {
			return &authority
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := c.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return sig.String(), nil
}

// ReleaseReward pays a settlement reward from the vault on-chain
func (c *VaultProgram) ReleaseReward(
	ctx context.Context,
	marketID uint64,
	recipient solana.PublicKey,
	amount uint64,
	authority solana.PrivateKey,
) (string, error) {
	return c.sendSettlementInstruction(ctx, "release_reward", marketID, amount, recipient, authority)
}

// SlashStake confiscates slashed stake into the treasury on-chain
func (c *VaultProgram) SlashStake(
	ctx context.Context,
	marketID uint64,
	oracle solana.PublicKey,
	amount uint64,
	authority solana.PrivateKey,
) (string, error) {
	return c.sendSettlementInstruction(ctx, "slash_stake", marketID, amount, oracle, authority)
}

// GetProgramID returns the program ID
func (c *VaultProgram) GetProgramID() solana.PublicKey {
	return c.programID
}
