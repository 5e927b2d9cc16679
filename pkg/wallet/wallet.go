// Package wallet implements the key management and transaction assembly
// primitives of a Solana HD wallet: SLIP-10 ed25519 derivation over BIP-44
// paths, bip39 mnemonics, system and SPL token transfers, lifetime and fee
// payer binding and fee estimation.
package wallet

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDerivationPath ...
	ErrInvalidDerivationPath = errors.New("invalid derivation path")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = fmt.Errorf(
		"%w: path must not be empty", ErrInvalidDerivationPath,
	)
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = fmt.Errorf(
		"%w: path must not start or end with a '/' and "+
			"can optionally start with 'm/' for absolute paths",
		ErrInvalidDerivationPath,
	)
	// ErrUnhardenedDerivationPath ...
	ErrUnhardenedDerivationPath = fmt.Errorf(
		"%w: all path segments must be hardened (suffix \"'\")",
		ErrInvalidDerivationPath,
	)
	// ErrMissingAccountSegment ...
	ErrMissingAccountSegment = fmt.Errorf(
		"%w: path must be in the form \"m/purpose'/coin'/account'/...\"",
		ErrInvalidDerivationPath,
	)

	// ErrInvalidSeed ...
	ErrInvalidSeed = errors.New("invalid seed")
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = fmt.Errorf("%w: mnemonic checksum mismatch", ErrInvalidSeed)
	// ErrInvalidSeedLength ...
	ErrInvalidSeedLength = fmt.Errorf(
		"%w: seed length must be in the range [16, 64] bytes", ErrInvalidSeed,
	)
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)

	// ErrNullKeyPair ...
	ErrNullKeyPair = errors.New("key pair is null or has been erased")

	// ErrInvalidAmount ...
	ErrInvalidAmount = errors.New(
		"amount must be a non-negative integer not greater than 2^64-1",
	)
	// ErrEmptyInstructions ...
	ErrEmptyInstructions = errors.New("message must contain at least one instruction")
	// ErrMissingLifetime ...
	ErrMissingLifetime = errors.New("message has no lifetime constraint")
	// ErrMissingFeePayer ...
	ErrMissingFeePayer = errors.New("message has no fee payer")
	// ErrFeePayerMismatch ...
	ErrFeePayerMismatch = errors.New("message fee payer does not match signer address")
	// ErrNullTransaction ...
	ErrNullTransaction = errors.New("transaction must not be null")
	// ErrNotRequiredSigner ...
	ErrNotRequiredSigner = errors.New("key is not a required signer of the transaction")
	// ErrInvalidSignatureLength ...
	ErrInvalidSignatureLength = errors.New("signature must be 64 bytes long")
	// ErrInvalidOffchainMessage ...
	ErrInvalidOffchainMessage = errors.New("invalid off-chain message")
)
