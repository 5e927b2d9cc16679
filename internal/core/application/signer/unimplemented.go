package signer

import (
	"context"

	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

// UnimplementedSigner can be embedded by partial signer implementations so
// that any missing method fails loudly with ErrNotImplemented.
type UnimplementedSigner struct{}

func (UnimplementedSigner) IsActive() bool {
	return false
}

func (UnimplementedSigner) Index() int {
	return -1
}

func (UnimplementedSigner) Path() string {
	return ""
}

func (UnimplementedSigner) Config() ports.WalletConfig {
	return ports.WalletConfig{}
}

func (UnimplementedSigner) Address(context.Context) (string, error) {
	return "", ErrNotImplemented
}

func (UnimplementedSigner) Derive(string, *ports.WalletConfig) (ports.Signer, error) {
	return nil, ErrNotImplemented
}

func (UnimplementedSigner) Sign(context.Context, string) ([]byte, error) {
	return nil, ErrNotImplemented
}

func (UnimplementedSigner) Verify(context.Context, string, []byte) (bool, error) {
	return false, ErrNotImplemented
}

func (UnimplementedSigner) SignTransaction(context.Context, []byte) ([]byte, error) {
	return nil, ErrNotImplemented
}

func (UnimplementedSigner) Dispose(context.Context) error {
	return ErrNotImplemented
}
