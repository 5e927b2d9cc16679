package application

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

// ReadOnlyAccount is an account without signer. It can query the network
// and quote fees but never sign or send.
type ReadOnlyAccount struct {
	chainReader
	address solana.PublicKey
}

// NewReadOnlyAccount returns a read-only account for the given address. The
// rpc client is optional, without it every network query fails with
// ErrNotConnected.
func NewReadOnlyAccount(
	address string, config ports.WalletConfig, rpc ports.RPCClient,
) (*ReadOnlyAccount, error) {
	key, err := parseAddress(address)
	if err != nil {
		return nil, err
	}
	if len(config.Commitment) > 0 {
		if err := config.Commitment.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
		}
	}
	return &ReadOnlyAccount{
		chainReader: chainReader{config, rpc},
		address:     key,
	}, nil
}

func (a *ReadOnlyAccount) Address() string {
	return a.address.String()
}

func (a *ReadOnlyAccount) Config() ports.WalletConfig {
	return a.config
}

func (a *ReadOnlyAccount) GetBalance(ctx context.Context) (uint64, error) {
	return a.getBalance(ctx, a.address)
}

func (a *ReadOnlyAccount) GetTokenBalance(
	ctx context.Context, token string,
) (uint64, error) {
	return a.getTokenBalance(ctx, a.address, token)
}

func (a *ReadOnlyAccount) GetTransactionReceipt(
	ctx context.Context, hash string,
) (*ports.TransactionReceipt, error) {
	return a.getTransactionReceipt(ctx, hash)
}

func (a *ReadOnlyAccount) QuoteSendTransaction(
	ctx context.Context, opts SendTransactionOpts,
) (uint64, error) {
	return a.quoteSendTransaction(ctx, opts, a.address)
}

func (a *ReadOnlyAccount) QuoteTransfer(
	ctx context.Context, opts TransferOpts,
) (uint64, error) {
	return a.quoteTransfer(ctx, opts, a.address)
}
