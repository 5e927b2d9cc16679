package ports

import (
	"context"
	"time"
)

type DiscoveryOptions struct {
	// Timeout bounds the discovery, zero means until the context is done.
	Timeout time.Duration
}

type SessionOptions struct {
	// RefreshInterval is the period of the session keep-alive, if any.
	RefreshInterval time.Duration
}

type ConnectRequest struct {
	Device         Device
	SessionOptions SessionOptions
}

// Device is a hardware wallet found during discovery.
type Device interface {
	ID() string
	Model() string
}

// DeviceManager discovers hardware wallets and manages sessions with them.
type DeviceManager interface {
	// StartDiscovering blocks until a device is found.
	StartDiscovering(ctx context.Context, opts DiscoveryOptions) (Device, error)
	Connect(ctx context.Context, req ConnectRequest) (string, error)
	Disconnect(ctx context.Context, sessionID string) error
	Signer(sessionID string) (DeviceSigner, error)
	Close() error
}

// DeviceSigner runs device actions within a session. Every action streams
// zero or more pending events followed by exactly one terminal event, then
// the channel is closed.
type DeviceSigner interface {
	// GetAddress outputs the raw 32-byte public key at path.
	GetAddress(ctx context.Context, path string) <-chan DeviceEvent
	// SignMessage outputs the signed off-chain message envelope, base58
	// encoded.
	SignMessage(ctx context.Context, path string, message []byte) <-chan DeviceEvent
	// SignTransaction outputs the raw 64-byte signature of the serialized
	// transaction message.
	SignTransaction(ctx context.Context, path string, message []byte) <-chan DeviceEvent
}

type DeviceActionStatus int

const (
	DeviceActionPending DeviceActionStatus = iota
	DeviceActionCompleted
	DeviceActionError
)

func (s DeviceActionStatus) IsTerminal() bool {
	return s == DeviceActionCompleted || s == DeviceActionError
}

func (s DeviceActionStatus) String() string {
	switch s {
	case DeviceActionPending:
		return "pending"
	case DeviceActionCompleted:
		return "completed"
	case DeviceActionError:
		return "error"
	default:
		return "unknown"
	}
}

type DeviceEvent struct {
	Status DeviceActionStatus
	// Interaction describes what the user is asked to do on the device while
	// the action is pending.
	Interaction string
	Output      []byte
	Err         error
}
