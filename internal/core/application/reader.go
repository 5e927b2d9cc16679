package application

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// chainReader implements the operations shared by signing and read-only
// accounts. None of them require a signer.
type chainReader struct {
	config ports.WalletConfig
	rpc    ports.RPCClient
}

func (r chainReader) commitment() ports.Commitment {
	return r.config.GetCommitment()
}

func (r chainReader) getBalance(
	ctx context.Context, owner solana.PublicKey,
) (uint64, error) {
	if r.rpc == nil {
		return 0, ErrNotConnected
	}
	return r.rpc.GetBalance(ctx, owner, r.commitment())
}

func (r chainReader) getTokenBalance(
	ctx context.Context, owner solana.PublicKey, token string,
) (uint64, error) {
	if r.rpc == nil {
		return 0, ErrNotConnected
	}
	mint, err := parseAddress(token)
	if err != nil {
		return 0, err
	}
	return r.rpc.GetTokenBalance(ctx, owner, mint, r.commitment())
}

func (r chainReader) getTransactionReceipt(
	ctx context.Context, hash string,
) (*ports.TransactionReceipt, error) {
	if r.rpc == nil {
		return nil, ErrNotConnected
	}
	return r.rpc.GetTransactionReceipt(ctx, hash, r.commitment())
}

// nativeTransferMessage returns a copy of the message to send, so that the
// caller's one is never modified while binding lifetime and fee payer.
func nativeTransferMessage(
	opts SendTransactionOpts, payer solana.PublicKey,
) (*wallet.Message, error) {
	if opts.Message != nil {
		msg := *opts.Message
		return &msg, nil
	}

	recipient, _ := parseAddress(opts.Recipient)
	return wallet.BuildNativeTransfer(wallet.NativeTransferOpts{
		From:   payer,
		To:     recipient,
		Amount: opts.Amount,
	})
}

func (r chainReader) tokenTransferMessage(
	ctx context.Context, opts TransferOpts, payer solana.PublicKey,
) (*wallet.Message, error) {
	mint, _ := parseAddress(opts.Token)
	recipient, _ := parseAddress(opts.Recipient)

	recipientTokenAccount, err := wallet.AssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, err
	}
	exists, err := r.rpc.AccountExists(ctx, recipientTokenAccount, r.commitment())
	if err != nil {
		return nil, err
	}

	return wallet.BuildTokenTransfer(wallet.TokenTransferOpts{
		Mint:                   mint,
		From:                   payer,
		To:                     recipient,
		Amount:                 opts.Amount,
		CreateRecipientAccount: !exists,
	})
}

// compile binds lifetime and fee payer to the message, fetching the latest
// blockhash only if the message has no lifetime yet, and returns the
// compiled transaction along with its estimated fee.
func (r chainReader) compile(
	ctx context.Context, msg *wallet.Message, payer solana.PublicKey,
) (*solana.Transaction, uint64, error) {
	var latest wallet.Lifetime
	if msg.Lifetime == nil {
		checkpoint, err := r.rpc.GetLatestCheckpoint(ctx, r.commitment())
		if err != nil {
			return nil, 0, err
		}
		latest = wallet.Lifetime{
			Blockhash:            checkpoint.Blockhash,
			LastValidBlockHeight: checkpoint.LastValidBlockHeight,
		}
	}
	if err := wallet.BindLifetimeAndPayer(msg, latest, payer); err != nil {
		return nil, 0, err
	}

	tx, err := msg.Compile()
	if err != nil {
		return nil, 0, err
	}
	fee, err := wallet.EstimateFee(tx)
	if err != nil {
		return nil, 0, err
	}
	return tx, fee, nil
}

func (r chainReader) quoteSendTransaction(
	ctx context.Context, opts SendTransactionOpts, payer solana.PublicKey,
) (uint64, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	if r.rpc == nil {
		return 0, ErrNotConnected
	}
	msg, err := nativeTransferMessage(opts, payer)
	if err != nil {
		return 0, err
	}
	_, fee, err := r.compile(ctx, msg, payer)
	return fee, err
}

func (r chainReader) quoteTransfer(
	ctx context.Context, opts TransferOpts, payer solana.PublicKey,
) (uint64, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	if r.rpc == nil {
		return 0, ErrNotConnected
	}
	msg, err := r.tokenTransferMessage(ctx, opts, payer)
	if err != nil {
		return 0, err
	}
	_, fee, err := r.compile(ctx, msg, payer)
	return fee, err
}
