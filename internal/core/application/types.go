package application

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// SendTransactionOpts describes the transaction to send. It is either a
// native transfer of Amount lamports to Recipient or a structured Message.
type SendTransactionOpts struct {
	Recipient string
	Amount    decimal.Decimal
	Message   *wallet.Message
}

func (o SendTransactionOpts) validate() error {
	hasTransfer := len(o.Recipient) > 0
	if o.Message == nil && !hasTransfer {
		return ErrMissingTransaction
	}
	if o.Message != nil && (hasTransfer || !o.Amount.IsZero()) {
		return ErrAmbiguousTransaction
	}
	if hasTransfer {
		if _, err := parseAddress(o.Recipient); err != nil {
			return err
		}
	}
	return nil
}

// TransferOpts describes a transfer of Amount base units of the token with
// mint Token to the owner Recipient.
type TransferOpts struct {
	Token     string
	Recipient string
	Amount    decimal.Decimal
}

func (o TransferOpts) validate() error {
	if len(o.Token) <= 0 {
		return ErrMissingToken
	}
	if len(o.Recipient) <= 0 {
		return ErrMissingRecipient
	}
	if _, err := parseAddress(o.Token); err != nil {
		return err
	}
	if _, err := parseAddress(o.Recipient); err != nil {
		return err
	}
	return nil
}

type TransactionResult struct {
	Hash string
	// Fee is the estimated fee in lamports.
	Fee uint64
}

// FeeRates are the fees in lamports of a single-signature transaction with
// the default compute unit limit, at the normal and fast priority.
type FeeRates struct {
	Normal uint64
	Fast   uint64
}

func parseAddress(address string) (solana.PublicKey, error) {
	key, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w %s: %s", ErrInvalidAddress, address, err)
	}
	return key, nil
}
