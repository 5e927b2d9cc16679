package ports

import "context"

// Signer is the capability shared by every signer backend. Wallet accounts
// only depend on this contract.
type Signer interface {
	// IsActive returns whether key material or device session is ready.
	IsActive() bool
	// Index returns the BIP-44 account index of the signer's path, or -1 for
	// a root signer.
	Index() int
	Path() string
	Config() WalletConfig
	Address(ctx context.Context) (string, error)
	Derive(relativePath string, cfg *WalletConfig) (Signer, error)
	Sign(ctx context.Context, message string) ([]byte, error)
	Verify(ctx context.Context, message string, signature []byte) (bool, error)
	SignTransaction(ctx context.Context, unsignedTx []byte) ([]byte, error)
	Dispose(ctx context.Context) error
}
