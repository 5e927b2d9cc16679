package ledger

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/solana-wallet/internal/core/ports"
)

const defaultPollInterval = 500 * time.Millisecond

type DeviceManagerOpts struct {
	// Enumerate lists the available devices, defaults to EnumerateUSB.
	Enumerate    func() ([]Device, error)
	PollInterval time.Duration
}

func (o *DeviceManagerOpts) setDefaults() {
	if o.Enumerate == nil {
		o.Enumerate = EnumerateUSB
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
}

type session struct {
	id     string
	device Device
	conn   io.ReadWriteCloser
	app    solanaApp
	// the device handles one apdu exchange at a time.
	lock sync.Mutex
	quit chan struct{}
}

func (s *session) do(fn func(app solanaApp) ([]byte, error)) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fn(s.app)
}

// DeviceManager discovers Ledger devices and keeps the sessions opened with
// them.
type DeviceManager struct {
	enumerate    func() ([]Device, error)
	pollInterval time.Duration

	lock     sync.RWMutex
	sessions map[string]*session
	closed   bool
}

// NewDeviceManager returns a Ledger device manager as a ports.DeviceManager
// interface.
func NewDeviceManager(opts DeviceManagerOpts) (ports.DeviceManager, error) {
	opts.setDefaults()
	return &DeviceManager{
		enumerate:    opts.Enumerate,
		pollInterval: opts.PollInterval,
		sessions:     make(map[string]*session),
	}, nil
}

// StartDiscovering polls for devices until one is found, the timeout
// expires or the context is done.
func (m *DeviceManager) StartDiscovering(
	ctx context.Context, opts ports.DiscoveryOptions,
) (ports.Device, error) {
	if m.isClosed() {
		return nil, ErrManagerClosed
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		devices, err := m.enumerate()
		if err != nil {
			return nil, err
		}
		if len(devices) > 0 {
			log.WithFields(log.Fields{
				"id":    devices[0].ID(),
				"model": devices[0].Model(),
			}).Debug("ledger: device found")
			return devices[0], nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (m *DeviceManager) Connect(
	_ context.Context, req ports.ConnectRequest,
) (string, error) {
	device, ok := req.Device.(Device)
	if !ok {
		return "", ErrUnknownDevice
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return "", ErrManagerClosed
	}

	conn, err := device.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open device %s: %w", device.ID(), err)
	}

	s := &session{
		id:     uuid.New().String(),
		device: device,
		conn:   conn,
		app:    solanaApp{conn},
		quit:   make(chan struct{}),
	}
	if _, err := s.do(func(app solanaApp) ([]byte, error) {
		cfg, err := app.getAppConfig()
		if err != nil {
			return nil, err
		}
		log.WithField("version", cfg.Version).Debug("ledger: solana app detected")
		return nil, nil
	}); err != nil {
		//nolint
		conn.Close()
		return "", err
	}

	m.sessions[s.id] = s
	if interval := req.SessionOptions.RefreshInterval; interval > 0 {
		go m.keepAlive(s, interval)
	}

	log.WithField("session", s.id).Debug("ledger: session opened")
	return s.id, nil
}

func (m *DeviceManager) Disconnect(_ context.Context, sessionID string) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, sessionID)
	return closeSession(s)
}

func (m *DeviceManager) Signer(sessionID string) (ports.DeviceSigner, error) {
	s, err := m.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return &deviceSigner{session: s}, nil
}

// Close disconnects every open session.
func (m *DeviceManager) Close() error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true

	for id, s := range m.sessions {
		if err := closeSession(s); err != nil {
			log.WithError(err).WithField("session", id).Warn(
				"ledger: failed to close session",
			)
		}
		delete(m.sessions, id)
	}
	return nil
}

func (m *DeviceManager) getSession(sessionID string) (*session, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *DeviceManager) isClosed() bool {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return m.closed
}

// keepAlive periodically checks that the device is still reachable and the
// Solana app open.
func (m *DeviceManager) keepAlive(s *session, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			if _, err := s.do(func(app solanaApp) ([]byte, error) {
				_, err := app.getAppConfig()
				return nil, err
			}); err != nil {
				log.WithError(err).WithField("session", s.id).Warn(
					"ledger: device health check failed",
				)
			}
		}
	}
}

func closeSession(s *session) error {
	close(s.quit)

	s.lock.Lock()
	defer s.lock.Unlock()
	return s.conn.Close()
}
