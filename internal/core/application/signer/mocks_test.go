package signer_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

var errUserRejected = errors.New("user rejected the request on device")

// **** Device manager ****

type mockDeviceManager struct {
	mock.Mock
}

func (m *mockDeviceManager) StartDiscovering(
	ctx context.Context, opts ports.DiscoveryOptions,
) (ports.Device, error) {
	args := m.Called(opts)

	var res ports.Device
	if a := args.Get(0); a != nil {
		res = a.(ports.Device)
	}
	return res, args.Error(1)
}

func (m *mockDeviceManager) Connect(
	ctx context.Context, req ports.ConnectRequest,
) (string, error) {
	args := m.Called(req)

	var res string
	if a := args.Get(0); a != nil {
		res = a.(string)
	}
	return res, args.Error(1)
}

func (m *mockDeviceManager) Disconnect(ctx context.Context, sessionID string) error {
	args := m.Called(sessionID)
	return args.Error(0)
}

func (m *mockDeviceManager) Signer(sessionID string) (ports.DeviceSigner, error) {
	args := m.Called(sessionID)

	var res ports.DeviceSigner
	if a := args.Get(0); a != nil {
		res = a.(ports.DeviceSigner)
	}
	return res, args.Error(1)
}

func (m *mockDeviceManager) Close() error {
	args := m.Called()
	return args.Error(0)
}

// slowDeviceManager takes delay to discover a device, unless the
// discovery context is done first.
type slowDeviceManager struct {
	*mockDeviceManager
	delay time.Duration
}

func (m *slowDeviceManager) StartDiscovering(
	ctx context.Context, opts ports.DiscoveryOptions,
) (ports.Device, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(m.delay):
		return m.mockDeviceManager.StartDiscovering(ctx, opts)
	}
}

// **** Device ****

type fakeDevice struct{}

func (fakeDevice) ID() string    { return "fake-device" }
func (fakeDevice) Model() string { return "nanoX" }

// fakeDeviceSigner signs with keys derived from a seed held in memory,
// like a real device would do, and records the max number of requests it
// has been processing at the same time.
type fakeDeviceSigner struct {
	root   *wallet.HDNode
	reject bool
	delay  time.Duration

	lock     sync.Mutex
	inflight int32
	maxSeen  int32
	paths    []string
}

func newFakeDeviceSigner(root *wallet.HDNode) *fakeDeviceSigner {
	return &fakeDeviceSigner{root: root}
}

func (d *fakeDeviceSigner) GetAddress(
	ctx context.Context, path string,
) <-chan ports.DeviceEvent {
	return d.do(path, func(kp *wallet.KeyPair) ([]byte, error) {
		pubkey := kp.PublicKey()
		return pubkey[:], nil
	})
}

func (d *fakeDeviceSigner) SignMessage(
	ctx context.Context, path string, message []byte,
) <-chan ports.DeviceEvent {
	return d.do(path, func(kp *wallet.KeyPair) ([]byte, error) {
		serialized, err := wallet.SerializeOffchainMessage(message)
		if err != nil {
			return nil, err
		}
		sig, err := kp.Sign(serialized)
		if err != nil {
			return nil, err
		}
		envelope := append([]byte{1}, sig[:]...)
		envelope = append(envelope, serialized...)
		return []byte(base58.Encode(envelope)), nil
	})
}

func (d *fakeDeviceSigner) SignTransaction(
	ctx context.Context, path string, message []byte,
) <-chan ports.DeviceEvent {
	return d.do(path, func(kp *wallet.KeyPair) ([]byte, error) {
		sig, err := kp.Sign(message)
		if err != nil {
			return nil, err
		}
		return sig[:], nil
	})
}

func (d *fakeDeviceSigner) maxConcurrentRequests() int32 {
	return atomic.LoadInt32(&d.maxSeen)
}

func (d *fakeDeviceSigner) requestedPaths() []string {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]string{}, d.paths...)
}

func (d *fakeDeviceSigner) do(
	path string, action func(kp *wallet.KeyPair) ([]byte, error),
) <-chan ports.DeviceEvent {
	d.lock.Lock()
	d.paths = append(d.paths, path)
	d.lock.Unlock()

	events := make(chan ports.DeviceEvent, 2)
	go func() {
		defer close(events)

		n := atomic.AddInt32(&d.inflight, 1)
		defer atomic.AddInt32(&d.inflight, -1)
		for {
			max := atomic.LoadInt32(&d.maxSeen)
			if n <= max || atomic.CompareAndSwapInt32(&d.maxSeen, max, n) {
				break
			}
		}

		events <- ports.DeviceEvent{
			Status:      ports.DeviceActionPending,
			Interaction: "confirm the request on device",
		}
		time.Sleep(d.delay)

		if d.reject {
			events <- ports.DeviceEvent{Status: ports.DeviceActionError, Err: errUserRejected}
			return
		}

		derivationPath, err := wallet.ParseDerivationPath(path)
		if err != nil {
			events <- ports.DeviceEvent{Status: ports.DeviceActionError, Err: err}
			return
		}
		leaf, err := d.root.Derive(derivationPath)
		if err != nil {
			events <- ports.DeviceEvent{Status: ports.DeviceActionError, Err: err}
			return
		}
		kp := leaf.KeyPair()
		leaf.Zero()
		defer kp.Zero()

		out, err := action(kp)
		if err != nil {
			events <- ports.DeviceEvent{Status: ports.DeviceActionError, Err: err}
			return
		}
		events <- ports.DeviceEvent{Status: ports.DeviceActionCompleted, Output: out}
	}()
	return events
}
