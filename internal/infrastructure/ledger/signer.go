package ledger

import (
	"context"

	"github.com/mr-tron/base58"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// deviceSigner runs the actions of a ports.DeviceSigner within a session.
type deviceSigner struct {
	session *session
}

func (d *deviceSigner) GetAddress(
	ctx context.Context, path string,
) <-chan ports.DeviceEvent {
	return d.run(ctx, "", func(app solanaApp) ([]byte, error) {
		return app.getPubkey(path)
	})
}

// SignMessage outputs the signed off-chain message envelope as base58 text:
// signature count | signature | serialized message.
func (d *deviceSigner) SignMessage(
	ctx context.Context, path string, message []byte,
) <-chan ports.DeviceEvent {
	return d.run(ctx, "approve the message on device", func(app solanaApp) ([]byte, error) {
		serialized, err := wallet.SerializeOffchainMessage(message)
		if err != nil {
			return nil, err
		}
		sig, err := app.signOffchainMessage(path, serialized)
		if err != nil {
			return nil, err
		}

		envelope := make([]byte, 0, 1+len(sig)+len(serialized))
		envelope = append(envelope, 1)
		envelope = append(envelope, sig...)
		envelope = append(envelope, serialized...)
		return []byte(base58.Encode(envelope)), nil
	})
}

func (d *deviceSigner) SignTransaction(
	ctx context.Context, path string, message []byte,
) <-chan ports.DeviceEvent {
	return d.run(ctx, "approve the transaction on device", func(app solanaApp) ([]byte, error) {
		return app.signTransaction(path, message)
	})
}

func (d *deviceSigner) run(
	ctx context.Context, interaction string,
	action func(app solanaApp) ([]byte, error),
) <-chan ports.DeviceEvent {
	events := make(chan ports.DeviceEvent, 2)

	go func() {
		defer close(events)

		if err := ctx.Err(); err != nil {
			events <- ports.DeviceEvent{Status: ports.DeviceActionError, Err: err}
			return
		}
		events <- ports.DeviceEvent{
			Status:      ports.DeviceActionPending,
			Interaction: interaction,
		}

		out, err := d.session.do(action)
		if err != nil {
			events <- ports.DeviceEvent{Status: ports.DeviceActionError, Err: err}
			return
		}
		events <- ports.DeviceEvent{Status: ports.DeviceActionCompleted, Output: out}
	}()

	return events
}
