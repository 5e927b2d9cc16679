package ports

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Commitment is the confirmation level used for RPC queries.
type Commitment string

const (
	CommitmentProcessed Commitment = "processed"
	CommitmentConfirmed Commitment = "confirmed"
	CommitmentFinalized Commitment = "finalized"
)

func (c Commitment) Validate() error {
	switch c {
	case CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized:
		return nil
	default:
		return fmt.Errorf(
			"unknown commitment %q, must be one of %s|%s|%s",
			string(c), CommitmentProcessed, CommitmentConfirmed, CommitmentFinalized,
		)
	}
}

// WalletConfig holds the options shared by signers and accounts.
type WalletConfig struct {
	// RPCURL is the endpoint used for queries and broadcast.
	RPCURL string
	// Commitment is the confirmation level of queries. Defaults to
	// "confirmed" if empty.
	Commitment Commitment
	// TransferMaxFee, if set, is the fee in lamports that token transfers
	// must stay below.
	TransferMaxFee *uint64
}

func (c WalletConfig) GetCommitment() Commitment {
	if c.Commitment == "" {
		return CommitmentConfirmed
	}
	return c.Commitment
}

// WithoutTransferMaxFee returns a copy of the config with no fee ceiling.
func (c WalletConfig) WithoutTransferMaxFee() WalletConfig {
	c.TransferMaxFee = nil
	return c
}

// Checkpoint is a recent ledger blockhash with the last block height at
// which transactions referencing it are accepted.
type Checkpoint struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// FeeSample is a recently observed prioritization fee, in micro-lamports per
// compute unit.
type FeeSample struct {
	Slot        uint64
	PriorityFee uint64
}

type SendOptions struct {
	Encoding            string
	SkipPreflight       bool
	PreflightCommitment Commitment
}

type TransactionReceipt struct {
	Hash      string
	Slot      uint64
	BlockTime int64
	Fee       uint64
	Err       string
}

func (r TransactionReceipt) IsSuccessful() bool {
	return r.Err == ""
}
