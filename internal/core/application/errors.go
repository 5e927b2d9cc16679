package application

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig ...
	ErrInvalidConfig = errors.New("invalid account configuration")
	// ErrMissingSigner ...
	ErrMissingSigner = fmt.Errorf("%w: missing signer", ErrInvalidConfig)
	// ErrInvalidAddress ...
	ErrInvalidAddress = fmt.Errorf("%w: invalid address", ErrInvalidConfig)
	// ErrNotConnected is returned when an operation needs to reach the
	// network but the account has no rpc client.
	ErrNotConnected = errors.New("account is not connected to any rpc endpoint")
	// ErrFeeCeilingExceeded ...
	ErrFeeCeilingExceeded = errors.New("transaction fee meets or exceeds the configured max fee")
	// ErrMissingTransaction ...
	ErrMissingTransaction = errors.New(
		"one of message or recipient and amount must be defined",
	)
	// ErrAmbiguousTransaction ...
	ErrAmbiguousTransaction = errors.New(
		"message and recipient and amount are mutually exclusive",
	)
	// ErrMissingRecipient ...
	ErrMissingRecipient = errors.New("missing recipient")
	// ErrMissingToken ...
	ErrMissingToken = errors.New("missing token mint")
)
