package ports

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// RPCClient is the subset of the Solana JSON-RPC API used by wallet accounts.
type RPCClient interface {
	GetLatestCheckpoint(
		ctx context.Context, commitment Commitment,
	) (*Checkpoint, error)
	GetRecentFeeSamples(ctx context.Context) ([]FeeSample, error)
	SendEncodedTransaction(
		ctx context.Context, wireBase64 string, opts SendOptions,
	) (string, error)
	// GetTransactionReceipt returns nil if the transaction is unknown.
	GetTransactionReceipt(
		ctx context.Context, hash string, commitment Commitment,
	) (*TransactionReceipt, error)
	GetBalance(
		ctx context.Context, address solana.PublicKey, commitment Commitment,
	) (uint64, error)
	// GetTokenBalance returns 0 if the owner has no token account for the mint.
	GetTokenBalance(
		ctx context.Context, owner, mint solana.PublicKey, commitment Commitment,
	) (uint64, error)
	AccountExists(
		ctx context.Context, address solana.PublicKey, commitment Commitment,
	) (bool, error)
}
