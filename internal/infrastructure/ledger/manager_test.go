package ledger

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/solana-wallet/internal/core/application/signer"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

var ctx = context.Background()

func TestStartDiscovering(t *testing.T) {
	t.Run("device found", func(t *testing.T) {
		device := &fakeDevice{emulator: newEmulator(newTestRoot(t))}

		calls := 0
		lock := &sync.Mutex{}
		manager := newTestManager(t, func() ([]Device, error) {
			lock.Lock()
			defer lock.Unlock()
			// the device is plugged after a couple of polls.
			calls++
			if calls < 3 {
				return nil, nil
			}
			return []Device{device}, nil
		})

		found, err := manager.StartDiscovering(ctx, ports.DiscoveryOptions{
			Timeout: time.Second,
		})
		require.NoError(t, err)
		require.Equal(t, device.ID(), found.ID())
		require.Equal(t, "nanoX", found.Model())
	})

	t.Run("timeout", func(t *testing.T) {
		manager := newTestManager(t, func() ([]Device, error) {
			return nil, nil
		})

		_, err := manager.StartDiscovering(ctx, ports.DiscoveryOptions{
			Timeout: 50 * time.Millisecond,
		})
		require.ErrorIs(t, err, ErrDeviceNotFound)
	})

	t.Run("enumeration error", func(t *testing.T) {
		manager := newTestManager(t, func() ([]Device, error) {
			return nil, ErrHIDNotSupported
		})

		_, err := manager.StartDiscovering(ctx, ports.DiscoveryOptions{})
		require.ErrorIs(t, err, ErrHIDNotSupported)
	})
}

func TestSession(t *testing.T) {
	root := newTestRoot(t)
	device := &fakeDevice{emulator: newEmulator(root)}
	manager := newTestManager(t, func() ([]Device, error) {
		return []Device{device}, nil
	})
	expected := testKeyPair(t, root, testPath)

	found, err := manager.StartDiscovering(ctx, ports.DiscoveryOptions{})
	require.NoError(t, err)
	sessionID, err := manager.Connect(ctx, ports.ConnectRequest{Device: found})
	require.NoError(t, err)
	require.NotEmpty(t, sessionID)

	deviceSigner, err := manager.Signer(sessionID)
	require.NoError(t, err)

	t.Run("get address", func(t *testing.T) {
		out, err := awaitOutput(deviceSigner.GetAddress(ctx, testPath))
		require.NoError(t, err)
		require.Equal(t, expected.PublicKey().Bytes(), out)
	})

	t.Run("sign message", func(t *testing.T) {
		message := []byte("Test message")

		out, err := awaitOutput(deviceSigner.SignMessage(ctx, testPath, message))
		require.NoError(t, err)

		envelope, err := base58.Decode(string(out))
		require.NoError(t, err)
		require.Equal(t, byte(1), envelope[0])

		serialized, err := wallet.SerializeOffchainMessage(message)
		require.NoError(t, err)
		require.Equal(t, serialized, envelope[65:])
		require.True(t, expected.Verify(serialized, envelope[1:65]))
	})

	t.Run("sign transaction", func(t *testing.T) {
		message := []byte("compiled transaction message")

		out, err := awaitOutput(deviceSigner.SignTransaction(ctx, testPath, message))
		require.NoError(t, err)
		require.True(t, expected.Verify(message, out))
	})

	t.Run("user rejection", func(t *testing.T) {
		device.emulator.reject = true
		defer func() { device.emulator.reject = false }()

		_, err := awaitOutput(deviceSigner.SignTransaction(ctx, testPath, []byte("tx")))
		require.ErrorIs(t, err, ErrUserRejected)
	})

	t.Run("disconnect", func(t *testing.T) {
		require.NoError(t, manager.Disconnect(ctx, sessionID))
		require.True(t, device.emulator.isClosed())

		_, err := manager.Signer(sessionID)
		require.ErrorIs(t, err, ErrSessionNotFound)
		require.ErrorIs(t, manager.Disconnect(ctx, sessionID), ErrSessionNotFound)
	})
}

func TestConnect(t *testing.T) {
	t.Run("unknown device", func(t *testing.T) {
		manager := newTestManager(t, nil)
		_, err := manager.Connect(ctx, ports.ConnectRequest{Device: otherDevice{}})
		require.ErrorIs(t, err, ErrUnknownDevice)
	})

	t.Run("open failure", func(t *testing.T) {
		manager := newTestManager(t, nil)
		device := &fakeDevice{
			emulator: newEmulator(newTestRoot(t)),
			openErr:  errors.New("permission denied"),
		}
		_, err := manager.Connect(ctx, ports.ConnectRequest{Device: device})
		require.Error(t, err)
	})

	t.Run("app not open", func(t *testing.T) {
		manager := newTestManager(t, nil)
		e := newEmulator(newTestRoot(t))
		e.status = statusClaNotSupported
		device := &fakeDevice{emulator: e}

		_, err := manager.Connect(ctx, ports.ConnectRequest{Device: device})
		require.ErrorIs(t, err, ErrAppNotOpen)
		require.True(t, e.isClosed())
	})

	t.Run("closed manager", func(t *testing.T) {
		device := &fakeDevice{emulator: newEmulator(newTestRoot(t))}
		manager := newTestManager(t, nil)

		sessionID, err := manager.Connect(ctx, ports.ConnectRequest{Device: device})
		require.NoError(t, err)

		require.NoError(t, manager.Close())
		require.True(t, device.emulator.isClosed())

		_, err = manager.Signer(sessionID)
		require.ErrorIs(t, err, ErrSessionNotFound)
		_, err = manager.Connect(ctx, ports.ConnectRequest{Device: device})
		require.ErrorIs(t, err, ErrManagerClosed)
		_, err = manager.StartDiscovering(ctx, ports.DiscoveryOptions{})
		require.ErrorIs(t, err, ErrManagerClosed)
	})
}

func TestHardwareSignerWithLedger(t *testing.T) {
	root := newTestRoot(t)
	device := &fakeDevice{emulator: newEmulator(root)}

	hwSigner, err := signer.NewHardwareSigner(signer.HardwareSignerOpts{
		Path: "0'/0",
		NewDeviceManager: func() (ports.DeviceManager, error) {
			return NewDeviceManager(DeviceManagerOpts{
				Enumerate: func() ([]Device, error) {
					return []Device{device}, nil
				},
				PollInterval: 10 * time.Millisecond,
			})
		},
		DiscoveryTimeout: time.Second,
	})
	require.NoError(t, err)

	addr, err := hwSigner.Address(ctx)
	require.NoError(t, err)
	require.Equal(t, testKeyPair(t, root, testPath).PublicKey().String(), addr)

	sig, err := hwSigner.Sign(ctx, "Test message")
	require.NoError(t, err)
	ok, err := hwSigner.Verify(ctx, "Test message", sig)
	require.NoError(t, err)
	require.True(t, ok)

	payer := solana.MustPublicKeyFromBase58(addr)
	msg, err := wallet.BuildNativeTransfer(wallet.NativeTransferOpts{
		From: payer,
		To:   solana.PublicKeyFromBytes(bytes.Repeat([]byte{0x22}, 32)),
	})
	require.NoError(t, err)
	require.NoError(t, wallet.BindLifetimeAndPayer(
		msg, wallet.Lifetime{Blockhash: solana.Hash{0x01}}, payer,
	))
	tx, err := msg.Compile()
	require.NoError(t, err)
	unsignedTx, err := wallet.EncodeTransaction(tx)
	require.NoError(t, err)

	signedTx, err := hwSigner.SignTransaction(ctx, unsignedTx)
	require.NoError(t, err)
	decoded, err := wallet.DecodeTransaction(signedTx)
	require.NoError(t, err)
	require.NoError(t, decoded.VerifySignatures())

	require.NoError(t, hwSigner.Dispose(ctx))
	require.True(t, device.emulator.isClosed())
	require.Equal(t, 1, device.opened)
}

func newTestManager(t *testing.T, enumerate func() ([]Device, error)) ports.DeviceManager {
	manager, err := NewDeviceManager(DeviceManagerOpts{
		Enumerate:    enumerate,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	return manager
}

func awaitOutput(events <-chan ports.DeviceEvent) ([]byte, error) {
	for event := range events {
		switch event.Status {
		case ports.DeviceActionCompleted:
			return event.Output, nil
		case ports.DeviceActionError:
			return nil, event.Err
		}
	}
	return nil, errors.New("event stream closed")
}

type otherDevice struct{}

func (otherDevice) ID() string    { return "other" }
func (otherDevice) Model() string { return "other" }
