package wallet

import (
	"fmt"
	"math"
	"math/big"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/shopspring/decimal"
)

var maxAmount = decimal.NewFromBigInt(new(big.Int).SetUint64(math.MaxUint64), 0)

// Lifetime binds a transaction to a recent blockhash. The transaction is
// rejected by the network once the block height exceeds LastValidBlockHeight.
type Lifetime struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// Message is a transaction message not yet compiled to the wire format. The
// fee payer and lifetime are optional until the message is compiled.
type Message struct {
	Instructions []solana.Instruction
	FeePayer     *solana.PublicKey
	Lifetime     *Lifetime
}

// NativeTransferOpts is the struct given to BuildNativeTransfer method
type NativeTransferOpts struct {
	From   solana.PublicKey
	To     solana.PublicKey
	Amount decimal.Decimal
}

func (o NativeTransferOpts) validate() error {
	_, err := parseAmount(o.Amount)
	return err
}

// BuildNativeTransfer returns a single-instruction message moving the given
// amount of lamports. Zero-value transfers are valid.
func BuildNativeTransfer(opts NativeTransferOpts) (*Message, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	lamports, _ := parseAmount(opts.Amount)

	ix := system.NewTransferInstruction(lamports, opts.From, opts.To).Build()

	return &Message{
		Instructions: []solana.Instruction{ix},
	}, nil
}

// TokenTransferOpts is the struct given to BuildTokenTransfer method
type TokenTransferOpts struct {
	Mint   solana.PublicKey
	From   solana.PublicKey
	To     solana.PublicKey
	Amount decimal.Decimal
	// CreateRecipientAccount must be set when the recipient's associated
	// token account does not exist yet.
	CreateRecipientAccount bool
}

func (o TokenTransferOpts) validate() error {
	_, err := parseAmount(o.Amount)
	return err
}

// BuildTokenTransfer returns a message moving the given amount of base units
// of the SPL token between the associated token accounts of sender and
// recipient. When requested, the recipient's account creation is prepended,
// paid by the sender.
// Token-2022 mints and transfers requiring a memo are not supported.
func BuildTokenTransfer(opts TokenTransferOpts) (*Message, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	amount, _ := parseAmount(opts.Amount)

	source, err := AssociatedTokenAddress(opts.From, opts.Mint)
	if err != nil {
		return nil, err
	}
	destination, err := AssociatedTokenAddress(opts.To, opts.Mint)
	if err != nil {
		return nil, err
	}

	instructions := make([]solana.Instruction, 0, 2)
	if opts.CreateRecipientAccount {
		instructions = append(
			instructions,
			associatedtokenaccount.NewCreateInstruction(
				opts.From, opts.To, opts.Mint,
			).Build(),
		)
	}
	instructions = append(
		instructions,
		token.NewTransferInstruction(
			amount, source, destination, opts.From, []solana.PublicKey{},
		).Build(),
	)

	return &Message{Instructions: instructions}, nil
}

// AssociatedTokenAddress returns the deterministic token account of the
// given owner for the given mint.
func AssociatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf(
			"failed to derive token account of %s for mint %s: %w", owner, mint, err,
		)
	}
	return addr, nil
}

// BindLifetimeAndPayer completes the message with the given lifetime, unless
// one is already declared, and with the given fee payer. A message that
// already declares a different fee payer is rejected.
func BindLifetimeAndPayer(
	msg *Message, latest Lifetime, payer solana.PublicKey,
) error {
	if msg == nil {
		return ErrEmptyInstructions
	}
	if msg.FeePayer != nil && !msg.FeePayer.Equals(payer) {
		return fmt.Errorf(
			"%w: got %s, expected %s", ErrFeePayerMismatch, msg.FeePayer, payer,
		)
	}

	if msg.Lifetime == nil {
		lifetime := latest
		msg.Lifetime = &lifetime
	}
	if msg.FeePayer == nil {
		feePayer := payer
		msg.FeePayer = &feePayer
	}
	return nil
}

// Compile returns the unsigned transaction for the message, with a zeroed
// signature slot for every required signer.
func (m *Message) Compile() (*solana.Transaction, error) {
	if m == nil || len(m.Instructions) <= 0 {
		return nil, ErrEmptyInstructions
	}
	if m.Lifetime == nil {
		return nil, ErrMissingLifetime
	}
	if m.FeePayer == nil {
		return nil, ErrMissingFeePayer
	}

	tx, err := solana.NewTransaction(
		m.Instructions, m.Lifetime.Blockhash, solana.TransactionPayer(*m.FeePayer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile message: %w", err)
	}
	tx.Signatures = make(
		[]solana.Signature, tx.Message.Header.NumRequiredSignatures,
	)
	return tx, nil
}

// DecodeTransaction parses a wire-format transaction.
func DecodeTransaction(raw []byte) (*solana.Transaction, error) {
	if len(raw) <= 0 {
		return nil, ErrNullTransaction
	}
	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	return tx, nil
}

// EncodeTransaction serializes the transaction to the wire format.
func EncodeTransaction(tx *solana.Transaction) ([]byte, error) {
	if tx == nil {
		return nil, ErrNullTransaction
	}
	return tx.MarshalBinary()
}

// FeePayer returns the fee payer of a compiled transaction, that is the
// first account of its message.
func FeePayer(tx *solana.Transaction) (solana.PublicKey, error) {
	if tx == nil {
		return solana.PublicKey{}, ErrNullTransaction
	}
	if len(tx.Message.AccountKeys) <= 0 {
		return solana.PublicKey{}, ErrMissingFeePayer
	}
	return tx.Message.AccountKeys[0], nil
}

// AttachSignature places the signature in the slot of the given signer.
// Missing slots are filled with zeroed signatures.
func AttachSignature(
	tx *solana.Transaction, signer solana.PublicKey, signature []byte,
) error {
	if tx == nil {
		return ErrNullTransaction
	}
	if len(signature) != len(solana.Signature{}) {
		return ErrInvalidSignatureLength
	}

	numSigners := int(tx.Message.Header.NumRequiredSignatures)
	index := -1
	for i := 0; i < numSigners && i < len(tx.Message.AccountKeys); i++ {
		if tx.Message.AccountKeys[i].Equals(signer) {
			index = i
			break
		}
	}
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrNotRequiredSigner, signer)
	}

	for len(tx.Signatures) < numSigners {
		tx.Signatures = append(tx.Signatures, solana.Signature{})
	}
	copy(tx.Signatures[index][:], signature)
	return nil
}

func parseAmount(amount decimal.Decimal) (uint64, error) {
	if amount.IsNegative() ||
		!amount.Equal(amount.Truncate(0)) ||
		amount.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: got %s", ErrInvalidAmount, amount)
	}
	return amount.BigInt().Uint64(), nil
}
