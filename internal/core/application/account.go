package application

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/solana-wallet/internal/core/application/signer"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// Account is a signing-capable wallet account. It owns its signer, while
// the rpc client is owned by the caller.
type Account struct {
	chainReader
	signer ports.Signer

	lock     sync.RWMutex
	disposed bool
}

// NewAccount returns an account for the given signer. The rpc client is
// optional, without it any operation that reaches the network fails with
// ErrNotConnected.
func NewAccount(s ports.Signer, rpc ports.RPCClient) (*Account, error) {
	if s == nil {
		return nil, ErrMissingSigner
	}
	config := s.Config()
	if len(config.Commitment) > 0 {
		if err := config.Commitment.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidConfig, err)
		}
	}
	return &Account{
		chainReader: chainReader{config, rpc},
		signer:      s,
	}, nil
}

func (a *Account) Index() int {
	return a.signer.Index()
}

func (a *Account) Path() string {
	return a.signer.Path()
}

func (a *Account) Config() ports.WalletConfig {
	return a.config
}

func (a *Account) IsDisposed() bool {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.disposed
}

func (a *Account) Address(ctx context.Context) (string, error) {
	if a.IsDisposed() {
		return "", signer.ErrDisposed
	}
	return a.signer.Address(ctx)
}

func (a *Account) Sign(ctx context.Context, message string) ([]byte, error) {
	if a.IsDisposed() {
		return nil, signer.ErrDisposed
	}
	return a.signer.Sign(ctx, message)
}

func (a *Account) Verify(
	ctx context.Context, message string, signature []byte,
) (bool, error) {
	if a.IsDisposed() {
		return false, signer.ErrDisposed
	}
	return a.signer.Verify(ctx, message, signature)
}

func (a *Account) GetBalance(ctx context.Context) (uint64, error) {
	owner, err := a.publicKey(ctx)
	if err != nil {
		return 0, err
	}
	return a.getBalance(ctx, owner)
}

func (a *Account) GetTokenBalance(ctx context.Context, token string) (uint64, error) {
	owner, err := a.publicKey(ctx)
	if err != nil {
		return 0, err
	}
	return a.getTokenBalance(ctx, owner, token)
}

func (a *Account) GetTransactionReceipt(
	ctx context.Context, hash string,
) (*ports.TransactionReceipt, error) {
	return a.getTransactionReceipt(ctx, hash)
}

func (a *Account) QuoteSendTransaction(
	ctx context.Context, opts SendTransactionOpts,
) (uint64, error) {
	payer, err := a.publicKey(ctx)
	if err != nil {
		return 0, err
	}
	return a.quoteSendTransaction(ctx, opts, payer)
}

func (a *Account) QuoteTransfer(ctx context.Context, opts TransferOpts) (uint64, error) {
	payer, err := a.publicKey(ctx)
	if err != nil {
		return 0, err
	}
	return a.quoteTransfer(ctx, opts, payer)
}

// SendTransaction signs and broadcasts the given transaction. A native
// transfer descriptor is turned into a message first. The lifetime and fee
// payer of the message are bound before signing.
func (a *Account) SendTransaction(
	ctx context.Context, opts SendTransactionOpts,
) (*TransactionResult, error) {
	if a.IsDisposed() {
		return nil, signer.ErrDisposed
	}
	if a.rpc == nil {
		return nil, ErrNotConnected
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	payer, err := a.publicKey(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := nativeTransferMessage(opts, payer)
	if err != nil {
		return nil, err
	}
	tx, fee, err := a.compile(ctx, msg, payer)
	if err != nil {
		return nil, err
	}

	hash, err := a.signAndSend(ctx, tx)
	if err != nil {
		return nil, err
	}
	return &TransactionResult{Hash: hash, Fee: fee}, nil
}

// Transfer sends a token transfer, creating the recipient's token account if
// needed. If the estimated fee meets or exceeds the configured max fee, the
// transfer is rejected before signing.
func (a *Account) Transfer(
	ctx context.Context, opts TransferOpts,
) (*TransactionResult, error) {
	if a.IsDisposed() {
		return nil, signer.ErrDisposed
	}
	if a.rpc == nil {
		return nil, ErrNotConnected
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	payer, err := a.publicKey(ctx)
	if err != nil {
		return nil, err
	}
	msg, err := a.tokenTransferMessage(ctx, opts, payer)
	if err != nil {
		return nil, err
	}
	_, fee, err := a.compile(ctx, msg, payer)
	if err != nil {
		return nil, err
	}

	if maxFee := a.config.TransferMaxFee; maxFee != nil && fee >= *maxFee {
		return nil, fmt.Errorf(
			"%w: fee %d, max fee %d", ErrFeeCeilingExceeded, fee, *maxFee,
		)
	}

	return a.SendTransaction(ctx, SendTransactionOpts{Message: msg})
}

// ToReadOnlyAccount returns a read-only view of this account. The max fee is
// not carried over.
func (a *Account) ToReadOnlyAccount(ctx context.Context) (*ReadOnlyAccount, error) {
	address, err := a.Address(ctx)
	if err != nil {
		return nil, err
	}
	return NewReadOnlyAccount(address, a.config.WithoutTransferMaxFee(), a.rpc)
}

// Dispose disposes the signer. The rpc client is left untouched.
func (a *Account) Dispose(ctx context.Context) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	if a.disposed {
		return nil
	}
	a.disposed = true
	return a.signer.Dispose(ctx)
}

func (a *Account) publicKey(ctx context.Context) (solana.PublicKey, error) {
	address, err := a.Address(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	return solana.PublicKeyFromBase58(address)
}

func (a *Account) signAndSend(
	ctx context.Context, tx *solana.Transaction,
) (string, error) {
	unsignedTx, err := wallet.EncodeTransaction(tx)
	if err != nil {
		return "", err
	}
	signedTx, err := a.signer.SignTransaction(ctx, unsignedTx)
	if err != nil {
		return "", err
	}

	hash, err := a.rpc.SendEncodedTransaction(
		ctx, base64.StdEncoding.EncodeToString(signedTx), ports.SendOptions{
			Encoding:            "base64",
			PreflightCommitment: a.commitment(),
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"account": a.Path(),
		"hash":    hash,
	}).Debug("application: transaction broadcasted")
	return hash, nil
}
