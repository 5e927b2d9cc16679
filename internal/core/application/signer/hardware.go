package signer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
	"github.com/tdex-network/solana-wallet/pkg/wallet"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

const (
	// signedMessageHeaderLen is the size of the signature count prefixing the
	// envelope returned by the device for off-chain messages.
	signedMessageHeaderLen = 1
	signatureLen           = 64
)

// ConnectionState is the state of the session between a hardware signer and
// its device.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Discovering
	Connected
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Discovering:
		return "discovering"
	case Connected:
		return "connected"
	default:
		return "unknown"
	}
}

type HardwareSignerOpts struct {
	// Path is relative to m/44'/501' and is mandatory.
	Path   string
	Config ports.WalletConfig
	// DeviceManager is shared with the caller and never closed by signers.
	DeviceManager ports.DeviceManager
	// NewDeviceManager builds a device manager owned by the signer and the
	// ones derived from it. It's used only if DeviceManager is not defined.
	NewDeviceManager func() (ports.DeviceManager, error)
	DiscoveryTimeout time.Duration
	SessionOptions   ports.SessionOptions
}

func (o HardwareSignerOpts) validate() error {
	if len(o.Path) <= 0 {
		return ErrMissingPath
	}
	if o.DeviceManager == nil && o.NewDeviceManager == nil {
		return ErrMissingDeviceManager
	}
	if _, err := resolvePath(wallet.SolanaBaseDerivationPath, o.Path); err != nil {
		return err
	}
	return nil
}

// HardwareSigner forwards signing requests to an external device. The
// session with the device is opened on the first operation that needs it.
type HardwareSigner struct {
	handle           *deviceHandle
	path             wallet.DerivationPath
	config           ports.WalletConfig
	discoveryTimeout time.Duration
	sessionOpts      ports.SessionOptions

	lock      sync.RWMutex
	state     ConnectionState
	sessionID string
	device    ports.DeviceSigner
	publicKey *solana.PublicKey
	disposed  bool
	group     singleflight.Group

	// cancelConnect aborts the in-flight connection, if any.
	cancelConnect context.CancelFunc
	// the device processes one request at a time per session.
	inflight      *semaphore.Weighted
}

func NewHardwareSigner(opts HardwareSignerOpts) (*HardwareSigner, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	manager, owned := opts.DeviceManager, false
	if manager == nil {
		var err error
		if manager, err = opts.NewDeviceManager(); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfiguration, err)
		}
		owned = true
	}
	path, _ := resolvePath(wallet.SolanaBaseDerivationPath, opts.Path)

	return newHardwareSigner(
		newDeviceHandle(manager, owned), path, opts.Config,
		opts.DiscoveryTimeout, opts.SessionOptions,
	), nil
}

func newHardwareSigner(
	handle *deviceHandle, path wallet.DerivationPath, config ports.WalletConfig,
	discoveryTimeout time.Duration, sessionOpts ports.SessionOptions,
) *HardwareSigner {
	return &HardwareSigner{
		handle:           handle,
		path:             path,
		config:           config,
		discoveryTimeout: discoveryTimeout,
		sessionOpts:      sessionOpts,
		inflight:         semaphore.NewWeighted(1),
	}
}

func (s *HardwareSigner) IsActive() bool {
	return s.State() == Connected
}

func (s *HardwareSigner) State() ConnectionState {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.state
}

func (s *HardwareSigner) Index() int {
	return accountIndex(s.path)
}

func (s *HardwareSigner) Path() string {
	return s.path.String()
}

func (s *HardwareSigner) Config() ports.WalletConfig {
	return s.config
}

func (s *HardwareSigner) Address(ctx context.Context) (string, error) {
	pubkey, err := s.getPublicKey(ctx)
	if err != nil {
		return "", err
	}
	return pubkey.String(), nil
}

// Derive returns a signer for this signer's path extended with the given
// relative one. The new signer shares the device manager and opens its own
// session.
func (s *HardwareSigner) Derive(
	relativePath string, cfg *ports.WalletConfig,
) (ports.Signer, error) {
	if s.isDisposed() {
		return nil, ErrDisposed
	}
	if len(relativePath) <= 0 {
		return nil, ErrMissingPath
	}
	path, err := resolvePath(s.path, relativePath)
	if err != nil {
		return nil, err
	}
	if err := s.handle.acquire(); err != nil {
		return nil, err
	}

	config := s.config
	if cfg != nil {
		config = *cfg
	}
	return newHardwareSigner(
		s.handle, path, config, s.discoveryTimeout, s.sessionOpts,
	), nil
}

func (s *HardwareSigner) Sign(ctx context.Context, message string) ([]byte, error) {
	device, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	out, err := s.run(ctx, "sign message", func(ctx context.Context) <-chan ports.DeviceEvent {
		return device.SignMessage(ctx, s.path.Relative(), []byte(message))
	})
	if err != nil {
		return nil, err
	}
	return signatureFromEnvelope(out)
}

func (s *HardwareSigner) Verify(
	ctx context.Context, message string, signature []byte,
) (bool, error) {
	pubkey, err := s.getPublicKey(ctx)
	if err != nil {
		return false, err
	}
	if wallet.VerifySignature(pubkey, []byte(message), signature) {
		return true, nil
	}
	// the device signs the off-chain serialization of the message.
	serialized, err := wallet.SerializeOffchainMessage([]byte(message))
	if err != nil {
		return false, nil
	}
	return wallet.VerifySignature(pubkey, serialized, signature), nil
}

// SignTransaction submits the compiled message of the given wire-format
// transaction for on-device approval and returns the transaction signed by
// the device.
func (s *HardwareSigner) SignTransaction(
	ctx context.Context, unsignedTx []byte,
) ([]byte, error) {
	pubkey, err := s.getPublicKey(ctx)
	if err != nil {
		return nil, err
	}

	tx, err := wallet.DecodeTransaction(unsignedTx)
	if err != nil {
		return nil, err
	}
	if err := checkFeePayer(tx, pubkey); err != nil {
		return nil, err
	}
	msg, err := tx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}

	device, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	sig, err := s.run(ctx, "sign transaction", func(ctx context.Context) <-chan ports.DeviceEvent {
		return device.SignTransaction(ctx, s.path.Relative(), msg)
	})
	if err != nil {
		return nil, err
	}
	if len(sig) != signatureLen {
		return nil, deviceError("sign transaction", fmt.Errorf(
			"%w: signature is %d bytes long", ErrInvalidDeviceOutput, len(sig),
		))
	}

	if err := wallet.AttachSignature(tx, pubkey, sig); err != nil {
		return nil, err
	}
	return wallet.EncodeTransaction(tx)
}

// Dispose closes the session with the device, if any, and releases the
// device manager. It is idempotent.
func (s *HardwareSigner) Dispose(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.disposed {
		return nil
	}
	s.disposed = true
	if s.cancelConnect != nil {
		s.cancelConnect()
	}

	var err error
	if s.state == Connected {
		if err = s.handle.manager.Disconnect(ctx, s.sessionID); err != nil {
			log.WithError(err).Warn("signer: failed to disconnect from device")
			err = deviceError("disconnect", err)
		}
	}
	s.state = Disconnected
	s.sessionID = ""
	s.device = nil

	if releaseErr := s.handle.release(); releaseErr != nil && err == nil {
		err = deviceError("close", releaseErr)
	}

	log.WithField("path", s.Path()).Debug("signer: hardware signer disposed")
	return err
}

func (s *HardwareSigner) isDisposed() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.disposed
}

func (s *HardwareSigner) getPublicKey(ctx context.Context) (solana.PublicKey, error) {
	s.lock.RLock()
	pubkey := s.publicKey
	s.lock.RUnlock()
	if pubkey != nil {
		if s.isDisposed() {
			return solana.PublicKey{}, ErrDisposed
		}
		return *pubkey, nil
	}

	device, err := s.connect(ctx)
	if err != nil {
		return solana.PublicKey{}, err
	}
	out, err := s.run(ctx, "get address", func(ctx context.Context) <-chan ports.DeviceEvent {
		return device.GetAddress(ctx, s.path.Relative())
	})
	if err != nil {
		return solana.PublicKey{}, err
	}
	if len(out) != solana.PublicKeyLength {
		return solana.PublicKey{}, deviceError("get address", fmt.Errorf(
			"%w: public key is %d bytes long", ErrInvalidDeviceOutput, len(out),
		))
	}

	key := solana.PublicKeyFromBytes(out)
	s.lock.Lock()
	s.publicKey = &key
	s.lock.Unlock()
	return key, nil
}

// connect opens the session with the device at most once, concurrent
// callers wait for the in-flight connection. The connection runs on a
// context detached from the callers': a caller whose context is done stops
// waiting, the others keep waiting. Only Dispose or the discovery timeout
// cancel it.
func (s *HardwareSigner) connect(ctx context.Context) (ports.DeviceSigner, error) {
	s.lock.RLock()
	device, disposed := s.device, s.disposed
	s.lock.RUnlock()

	if disposed {
		return nil, ErrDisposed
	}
	if device != nil {
		return device, nil
	}

	connectCtx := context.WithoutCancel(ctx)
	res := s.group.DoChan("connect", func() (interface{}, error) {
		s.lock.Lock()
		if s.disposed {
			s.lock.Unlock()
			return nil, ErrDisposed
		}
		if s.device != nil {
			defer s.lock.Unlock()
			return s.device, nil
		}
		sessionCtx, cancel := context.WithCancel(connectCtx)
		defer cancel()
		s.cancelConnect = cancel
		s.state = Discovering
		s.lock.Unlock()

		sessionID, device, err := s.openSession(sessionCtx)

		s.lock.Lock()
		defer s.lock.Unlock()
		s.cancelConnect = nil
		if err != nil {
			s.state = Disconnected
			return nil, err
		}
		if s.disposed {
			//nolint
			s.handle.manager.Disconnect(connectCtx, sessionID)
			s.state = Disconnected
			return nil, ErrDisposed
		}
		s.state = Connected
		s.sessionID = sessionID
		s.device = device

		log.WithFields(log.Fields{
			"path":    s.Path(),
			"session": sessionID,
		}).Debug("signer: connected to device")
		return device, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(ports.DeviceSigner), nil
	}
}

func (s *HardwareSigner) openSession(
	ctx context.Context,
) (string, ports.DeviceSigner, error) {
	manager := s.handle.manager

	found, err := manager.StartDiscovering(
		ctx, ports.DiscoveryOptions{Timeout: s.discoveryTimeout},
	)
	if err != nil {
		return "", nil, deviceError("discovery", err)
	}

	sessionID, err := manager.Connect(ctx, ports.ConnectRequest{
		Device:         found,
		SessionOptions: s.sessionOpts,
	})
	if err != nil {
		return "", nil, deviceError("connect", err)
	}

	device, err := manager.Signer(sessionID)
	if err != nil {
		//nolint
		manager.Disconnect(ctx, sessionID)
		return "", nil, deviceError("connect", err)
	}
	return sessionID, device, nil
}

// run serializes the given device action within the session and waits for
// its terminal event.
func (s *HardwareSigner) run(
	ctx context.Context, op string,
	action func(ctx context.Context) <-chan ports.DeviceEvent,
) ([]byte, error) {
	if err := s.inflight.Acquire(ctx, 1); err != nil {
		return nil, deviceError(op, err)
	}
	defer s.inflight.Release(1)

	if s.isDisposed() {
		return nil, ErrDisposed
	}

	out, err := awaitTerminal(ctx, action(ctx))
	if err != nil {
		return nil, deviceError(op, err)
	}
	return out, nil
}

func awaitTerminal(
	ctx context.Context, events <-chan ports.DeviceEvent,
) ([]byte, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case event, ok := <-events:
			if !ok {
				return nil, ErrDeviceStreamClosed
			}
			switch event.Status {
			case ports.DeviceActionCompleted:
				return event.Output, nil
			case ports.DeviceActionError:
				if event.Err == nil {
					return nil, ErrInvalidDeviceOutput
				}
				return nil, event.Err
			default:
				if len(event.Interaction) > 0 {
					log.Infof("signer: %s", event.Interaction)
				}
			}
		}
	}
}

// signatureFromEnvelope extracts the first signature from the base58
// encoded envelope returned by the device for off-chain messages:
// signature count (1 byte) | signatures (64 bytes each) | message.
func signatureFromEnvelope(envelope []byte) ([]byte, error) {
	raw, err := base58.Decode(string(envelope))
	if err != nil {
		return nil, deviceError("sign message", fmt.Errorf(
			"%w: %s", ErrInvalidDeviceOutput, err,
		))
	}
	if len(raw) < signedMessageHeaderLen+signatureLen || raw[0] < 1 {
		return nil, deviceError("sign message", fmt.Errorf(
			"%w: malformed signed message envelope", ErrInvalidDeviceOutput,
		))
	}

	sig := make([]byte, signatureLen)
	copy(sig, raw[signedMessageHeaderLen:signedMessageHeaderLen+signatureLen])
	return sig, nil
}
