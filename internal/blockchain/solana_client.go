package blockchain

import (
	"context"
	"fmt"
	"log"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
)

// SolanaClient handles Solana blockchain interactions
type SolanaClient struct {
	rpcClient      *rpc.Client
	treasuryWallet string
	tokenMint      string
	serverWallet   *solana.Wallet
}

// NewSolanaClient creates a new Solana client
func NewSolanaClient(rpcEndpoint, treasuryWallet, tokenMint, privateKey string) *SolanaClient {
	client := &SolanaClient{
		rpcClient:      rpc.New(rpcEndpoint),
		treasuryWallet: treasuryWallet,
		tokenMint:      tokenMint,
	}

	// Initialize server wallet if private key is provided
	if privateKey != "" {
		wallet, err := solana.WalletFromPrivateKeyBase58(privateKey)
		if err != nil {
			log.Printf("Warning: Failed to load server wallet: %v", err)
		} else {
			client.serverWallet = wallet
			log.Printf("Server wallet loaded: %s", wallet.PublicKey())
		}
	}

	return client
}

// TreasuryWallet returns the configured treasury wallet address
func (s *SolanaClient) TreasuryWallet() string {
	return s.treasuryWallet
}

// ValidateWalletAddress validates a Solana wallet address format
func (s *SolanaClient) ValidateWalletAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// SendTransaction sends a signed transaction to the network
func (s *SolanaClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := s.rpcClient.SendTransactionWithOpts(
		ctx,
		tx,
		rpc.TransactionOpts{
			SkipPreflight:       false,
			PreflightCommitment: rpc.CommitmentConfirmed,
		},
	)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// GetRecentBlockhash gets the latest blockhash
func (s *SolanaClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	resp, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}
	return resp.Value.Blockhash, nil
}

// GetSOLBalance gets the SOL balance for a wallet
func (s *SolanaClient) GetSOLBalance(ctx context.Context, walletAddress string) (decimal.Decimal, error) {
	pubKey, err := solana.PublicKeyFromBase58(walletAddress)
	if err != nil {
		return decimal.Zero, err
	}

	balance, err := s.rpcClient.GetBalance(ctx, pubKey, rpc.CommitmentConfirmed)
	if err != nil {
		return decimal.Zero, err
	}

	// Convert lamports to SOL
	return decimal.NewFromInt(int64(balance.Value)).Div(decimal.NewFromInt(1_000_000_000)), nil
}

// TransactionDetails holds the parsed details of a verified transaction
type TransactionDetails struct {
	Signature string
	Sender    string
	Receiver  string
	Amount    uint64 // in lamports
	Confirmed bool
}

// VerifyTransaction checks whether a transaction is confirmed on chain and
// extracts the transfer details. Returns nil when the transaction is not
// found or not yet confirmed.
func (s *SolanaClient) VerifyTransaction(ctx context.Context, txHash string) (*TransactionDetails, error) {
	sig, err := solana.SignatureFromBase58(txHash)
	if err != nil {
		return nil, err
	}

	status, err := s.rpcClient.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, err
	}

	if len(status.Value) == 0 || status.Value[0] == nil {
		return nil, nil // Not found
	}

	if status.Value[0].Err != nil {
		log.Printf("Transaction %s failed with error: %v", txHash, status.Value[0].Err)
		return nil, fmt.Errorf("transaction execution failed")
	}

	confStatus := status.Value[0].ConfirmationStatus
	if confStatus != rpc.ConfirmationStatusConfirmed && confStatus != rpc.ConfirmationStatusFinalized {
		return nil, nil // Not confirmed yet
	}

	tx, err := s.rpcClient.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction details: %w", err)
	}

	transaction, err := tx.Transaction.GetTransaction()
	if err != nil {
		log.Printf("Failed to decode transaction: %v", err)
		return &TransactionDetails{Signature: txHash, Confirmed: true}, nil
	}

	if len(transaction.Message.AccountKeys) < 2 {
		return &TransactionDetails{Signature: txHash, Confirmed: true}, nil
	}

	sender := transaction.Message.AccountKeys[0].String()
	receiver := transaction.Message.AccountKeys[1].String()

	// The receiver's balance delta is the transferred amount for simple
	// SystemProgram transfers where the receiver sits at index 1.
	var amount uint64
	if len(tx.Meta.PreBalances) > 1 && len(tx.Meta.PostBalances) > 1 {
		preBalance := tx.Meta.PreBalances[1]
		postBalance := tx.Meta.PostBalances[1]
		if postBalance > preBalance {
			amount = postBalance - preBalance
		}
	}

	return &TransactionDetails{
		Signature: txHash,
		Sender:    sender,
		Receiver:  receiver,
		Amount:    amount,
		Confirmed: true,
	}, nil
}

// GetTokenAccountBalance gets the token balance for a specific owner and mint
func (s *SolanaClient) GetTokenAccountBalance(ctx context.Context, ownerAddress string, mintAddress string) (uint64, error) {
	owner, err := solana.PublicKeyFromBase58(ownerAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid owner address: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(mintAddress)
	if err != nil {
		return 0, fmt.Errorf("invalid mint address: %w", err)
	}

	resp, err := s.rpcClient.GetTokenAccountsByOwner(
		ctx,
		owner,
		&rpc.GetTokenAccountsConfig{
			Mint: &mint,
		},
		&rpc.GetTokenAccountsOpts{
			Encoding: solana.EncodingBase64,
		},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to get token accounts: %w", err)
	}

	if len(resp.Value) == 0 {
		return 0, nil // No account means 0 balance
	}

	// Sum up balances if multiple accounts exist for the mint
	var totalBalance uint64
	for _, account := range resp.Value {
		var tokenAccount token.Account
		decoder := bin.NewBinDecoder(account.Account.Data.GetBinary())
		err := tokenAccount.UnmarshalWithDecoder(decoder)
		if err != nil {
			log.Printf("Warning: failed to decode token account data: %v", err)
			continue
		}
		totalBalance += tokenAccount.Amount
	}

	return totalBalance, nil
}

// GetTreasuryTokenBalance gets the treasury's balance for the configured mint
func (s *SolanaClient) GetTreasuryTokenBalance(ctx context.Context) (uint64, error) {
	if s.treasuryWallet == "" || s.tokenMint == "" {
		return 0, nil
	}
	return s.GetTokenAccountBalance(ctx, s.treasuryWallet, s.tokenMint)
}
