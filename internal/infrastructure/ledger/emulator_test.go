package ledger

import (
	"bytes"
	"encoding/binary"
	"io"
	"sync"

	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

type apduCommand struct {
	ins byte
	p1  byte
	p2  byte
}

// emulator behaves like a Ledger device running the Solana app, with keys
// derived from an in-memory master node.
type emulator struct {
	root   *wallet.HDNode
	reject bool
	status uint16

	lock     sync.Mutex
	in       []byte
	expected int
	out      bytes.Buffer
	payload  []byte
	commands []apduCommand
	closed   bool
}

func newEmulator(root *wallet.HDNode) *emulator {
	return &emulator{root: root, expected: -1}
}

func (e *emulator) Write(packet []byte) (int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return 0, io.ErrClosedPipe
	}

	chunk := packet[headerSize:]
	if e.expected < 0 {
		e.expected = int(binary.BigEndian.Uint16(chunk))
		chunk = chunk[lengthSize:]
	}
	left := e.expected - len(e.in)
	if left > len(chunk) {
		left = len(chunk)
	}
	e.in = append(e.in, chunk[:left]...)

	if len(e.in) == e.expected {
		reply := e.handle(e.in)
		packets, _ := frame(reply)
		for _, p := range packets {
			e.out.Write(p)
		}
		e.in, e.expected = nil, -1
	}
	return len(packet), nil
}

func (e *emulator) Read(p []byte) (int, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.closed {
		return 0, io.ErrClosedPipe
	}
	return e.out.Read(p)
}

func (e *emulator) Close() error {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.closed = true
	return nil
}

func (e *emulator) isClosed() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.closed
}

func (e *emulator) sentCommands() []apduCommand {
	e.lock.Lock()
	defer e.lock.Unlock()
	return append([]apduCommand{}, e.commands...)
}

func (e *emulator) handle(apdu []byte) []byte {
	ins, p1, p2, lc := apdu[1], apdu[2], apdu[3], int(apdu[4])
	e.commands = append(e.commands, apduCommand{ins, p1, p2})

	if e.status != 0 {
		return status(nil, e.status)
	}

	if p2&p2Extend == 0 {
		e.payload = nil
	}
	e.payload = append(e.payload, apdu[5:5+lc]...)
	if p2&p2More != 0 {
		return status(nil, statusOK)
	}

	switch ins {
	case insGetAppConfig:
		return status([]byte{0, 0, 1, 4, 0}, statusOK)
	case insGetPubkey:
		kp, _, err := e.keyPair(e.payload)
		if err != nil {
			return status(nil, 0x6a80)
		}
		pubkey := kp.PublicKey()
		return status(pubkey[:], statusOK)
	case insSignMessage, insSignOffchainMsg:
		if e.reject {
			return status(nil, statusUserRejected)
		}
		if len(e.payload) < 1 || e.payload[0] != 1 {
			return status(nil, 0x6a80)
		}
		kp, n, err := e.keyPair(e.payload[1:])
		if err != nil {
			return status(nil, 0x6a80)
		}
		sig, err := kp.Sign(e.payload[1+n:])
		if err != nil {
			return status(nil, 0x6a80)
		}
		return status(sig[:], statusOK)
	default:
		return status(nil, statusInsNotSupported)
	}
}

func (e *emulator) keyPair(data []byte) (*wallet.KeyPair, int, error) {
	if len(data) < 1 || len(data) < 1+4*int(data[0]) {
		return nil, 0, io.ErrUnexpectedEOF
	}
	path := make(wallet.DerivationPath, 0, int(data[0]))
	for i := 0; i < int(data[0]); i++ {
		path = append(path, binary.BigEndian.Uint32(data[1+4*i:]))
	}
	leaf, err := e.root.Derive(path)
	if err != nil {
		return nil, 0, err
	}
	defer leaf.Zero()
	return leaf.KeyPair(), 1 + 4*len(path), nil
}

func status(data []byte, code uint16) []byte {
	return binary.BigEndian.AppendUint16(append([]byte{}, data...), code)
}

type fakeDevice struct {
	emulator *emulator
	openErr  error

	lock   sync.Mutex
	opened int
}

func (d *fakeDevice) ID() string    { return "usb-0001" }
func (d *fakeDevice) Model() string { return "nanoX" }

func (d *fakeDevice) Open() (io.ReadWriteCloser, error) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.openErr != nil {
		return nil, d.openErr
	}
	d.opened++

	d.emulator.lock.Lock()
	d.emulator.closed = false
	d.emulator.lock.Unlock()
	return d.emulator, nil
}
