package application_test

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

// **** RPC client ****

type mockRPCClient struct {
	mock.Mock
}

func (m *mockRPCClient) GetLatestCheckpoint(
	ctx context.Context, commitment ports.Commitment,
) (*ports.Checkpoint, error) {
	args := m.Called(commitment)

	var res *ports.Checkpoint
	if a := args.Get(0); a != nil {
		res = a.(*ports.Checkpoint)
	}
	return res, args.Error(1)
}

func (m *mockRPCClient) GetRecentFeeSamples(
	ctx context.Context,
) ([]ports.FeeSample, error) {
	args := m.Called()

	var res []ports.FeeSample
	if a := args.Get(0); a != nil {
		res = a.([]ports.FeeSample)
	}
	return res, args.Error(1)
}

func (m *mockRPCClient) SendEncodedTransaction(
	ctx context.Context, wireBase64 string, opts ports.SendOptions,
) (string, error) {
	args := m.Called(wireBase64, opts)
	return args.String(0), args.Error(1)
}

func (m *mockRPCClient) GetTransactionReceipt(
	ctx context.Context, hash string, commitment ports.Commitment,
) (*ports.TransactionReceipt, error) {
	args := m.Called(hash, commitment)

	var res *ports.TransactionReceipt
	if a := args.Get(0); a != nil {
		res = a.(*ports.TransactionReceipt)
	}
	return res, args.Error(1)
}

func (m *mockRPCClient) GetBalance(
	ctx context.Context, address solana.PublicKey, commitment ports.Commitment,
) (uint64, error) {
	args := m.Called(address, commitment)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockRPCClient) GetTokenBalance(
	ctx context.Context, owner, mint solana.PublicKey, commitment ports.Commitment,
) (uint64, error) {
	args := m.Called(owner, mint, commitment)

	var res uint64
	if a := args.Get(0); a != nil {
		res = a.(uint64)
	}
	return res, args.Error(1)
}

func (m *mockRPCClient) AccountExists(
	ctx context.Context, address solana.PublicKey, commitment ports.Commitment,
) (bool, error) {
	args := m.Called(address, commitment)
	return args.Bool(0), args.Error(1)
}

// **** Signer ****

type mockSigner struct {
	mock.Mock
}

func (m *mockSigner) IsActive() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *mockSigner) Index() int {
	args := m.Called()
	return args.Int(0)
}

func (m *mockSigner) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *mockSigner) Config() ports.WalletConfig {
	args := m.Called()
	return args.Get(0).(ports.WalletConfig)
}

func (m *mockSigner) Address(ctx context.Context) (string, error) {
	args := m.Called()
	return args.String(0), args.Error(1)
}

func (m *mockSigner) Derive(
	relativePath string, cfg *ports.WalletConfig,
) (ports.Signer, error) {
	args := m.Called(relativePath, cfg)

	var res ports.Signer
	if a := args.Get(0); a != nil {
		res = a.(ports.Signer)
	}
	return res, args.Error(1)
}

func (m *mockSigner) Sign(ctx context.Context, message string) ([]byte, error) {
	args := m.Called(message)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSigner) Verify(
	ctx context.Context, message string, signature []byte,
) (bool, error) {
	args := m.Called(message, signature)
	return args.Bool(0), args.Error(1)
}

func (m *mockSigner) SignTransaction(
	ctx context.Context, unsignedTx []byte,
) ([]byte, error) {
	args := m.Called(unsignedTx)

	var res []byte
	if a := args.Get(0); a != nil {
		res = a.([]byte)
	}
	return res, args.Error(1)
}

func (m *mockSigner) Dispose(ctx context.Context) error {
	args := m.Called()
	return args.Error(0)
}
