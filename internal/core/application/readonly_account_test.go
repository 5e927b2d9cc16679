package application_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/solana-wallet/internal/core/application"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

func TestNewReadOnlyAccount(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		account, err := application.NewReadOnlyAccount(
			testRecipient.String(), testConfig, nil,
		)
		require.NoError(t, err)
		require.NotNil(t, account)
		require.Equal(t, testRecipient.String(), account.Address())
		require.Equal(t, testConfig, account.Config())
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name        string
			address     string
			config      ports.WalletConfig
			expectedErr error
		}{
			{
				name:        "invalid address",
				address:     "0x1234",
				config:      testConfig,
				expectedErr: application.ErrInvalidAddress,
			},
			{
				name:        "invalid commitment",
				address:     testRecipient.String(),
				config:      ports.WalletConfig{Commitment: "recent"},
				expectedErr: application.ErrInvalidConfig,
			},
		}

		for _, tt := range tests {
			tt := tt
			t.Run(tt.name, func(t *testing.T) {
				account, err := application.NewReadOnlyAccount(tt.address, tt.config, nil)
				require.ErrorIs(t, err, tt.expectedErr)
				require.Nil(t, account)
			})
		}
	})
}

func TestReadOnlyAccount(t *testing.T) {
	rpc := &mockRPCClient{}
	rpc.On("GetBalance", testRecipient, ports.CommitmentConfirmed).
		Return(uint64(2000000), nil)
	rpc.On("GetTokenBalance", testRecipient, testMint, ports.CommitmentConfirmed).
		Return(uint64(0), nil)
	rpc.On("GetLatestCheckpoint", ports.CommitmentConfirmed).
		Return(testCheckpoint, nil)
	rpc.On("AccountExists", mock.Anything, ports.CommitmentConfirmed).
		Return(true, nil)

	// An empty commitment defaults to confirmed.
	account, err := application.NewReadOnlyAccount(
		testRecipient.String(), ports.WalletConfig{}, rpc,
	)
	require.NoError(t, err)

	balance, err := account.GetBalance(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(2000000), balance)

	balance, err = account.GetTokenBalance(ctx, testMint.String())
	require.NoError(t, err)
	require.Zero(t, balance)

	fee, err := account.QuoteSendTransaction(ctx, application.SendTransactionOpts{
		Recipient: testMint.String(),
		Amount:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(wallet.LamportsPerSignature), fee)

	fee, err = account.QuoteTransfer(ctx, application.TransferOpts{
		Token:     testMint.String(),
		Recipient: testMint.String(),
		Amount:    decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	require.Equal(t, uint64(wallet.LamportsPerSignature), fee)

	rpc.AssertExpectations(t)
	rpc.AssertNotCalled(t, "SendEncodedTransaction", mock.Anything, mock.Anything)
}

func TestReadOnlyAccountNotConnected(t *testing.T) {
	account, err := application.NewReadOnlyAccount(
		testRecipient.String(), testConfig, nil,
	)
	require.NoError(t, err)

	_, err = account.GetBalance(ctx)
	require.ErrorIs(t, err, application.ErrNotConnected)

	_, err = account.GetTransactionReceipt(ctx, testTxHash)
	require.ErrorIs(t, err, application.ErrNotConnected)

	_, err = account.QuoteSendTransaction(ctx, application.SendTransactionOpts{
		Recipient: testMint.String(),
	})
	require.ErrorIs(t, err, application.ErrNotConnected)
}
