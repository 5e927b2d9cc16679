package ledger

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/tdex-network/solana-wallet/pkg/wallet"
)

// Solana app APDU protocol.
const (
	claSolana = 0xe0

	insGetAppConfig     = 0x04
	insGetPubkey        = 0x05
	insSignMessage      = 0x06
	insSignOffchainMsg  = 0x07
	p1NonConfirm        = 0x00
	p1Confirm           = 0x01
	p2Extend            = 0x01
	p2More              = 0x02
	maxAPDUDataSize     = 255
	maxDerivationLength = 10

	statusOK              = 0x9000
	statusUserRejected    = 0x6985
	statusAppNotOpen      = 0x6e01
	statusClaNotSupported = 0x6e00
	statusInsNotSupported = 0x6d00
)

// AppConfig is the configuration reported by the Solana app.
type AppConfig struct {
	BlindSigningEnabled bool
	PubkeyDisplayMode   uint8
	Version             string
}

// solanaApp speaks the Solana app protocol over an open device.
type solanaApp struct {
	rw io.ReadWriter
}

func (a solanaApp) getAppConfig() (*AppConfig, error) {
	reply, err := a.send(insGetAppConfig, p1NonConfirm, nil)
	if err != nil {
		return nil, err
	}
	if len(reply) < 5 {
		return nil, fmt.Errorf("%w: app config is %d bytes long", ErrInvalidReply, len(reply))
	}
	return &AppConfig{
		BlindSigningEnabled: reply[0] != 0,
		PubkeyDisplayMode:   reply[1],
		Version:             fmt.Sprintf("%d.%d.%d", reply[2], reply[3], reply[4]),
	}, nil
}

func (a solanaApp) getPubkey(path string) ([]byte, error) {
	serializedPath, err := serializePath(path)
	if err != nil {
		return nil, err
	}
	reply, err := a.send(insGetPubkey, p1NonConfirm, serializedPath)
	if err != nil {
		return nil, err
	}
	if len(reply) != 32 {
		return nil, fmt.Errorf("%w: public key is %d bytes long", ErrInvalidReply, len(reply))
	}
	return reply, nil
}

func (a solanaApp) signTransaction(path string, message []byte) ([]byte, error) {
	return a.sign(insSignMessage, path, message)
}

func (a solanaApp) signOffchainMessage(path string, message []byte) ([]byte, error) {
	return a.sign(insSignOffchainMsg, path, message)
}

func (a solanaApp) sign(ins byte, path string, message []byte) ([]byte, error) {
	serializedPath, err := serializePath(path)
	if err != nil {
		return nil, err
	}

	// number of signers | derivation path | message
	payload := make([]byte, 0, 1+len(serializedPath)+len(message))
	payload = append(payload, 1)
	payload = append(payload, serializedPath...)
	payload = append(payload, message...)

	reply, err := a.send(ins, p1Confirm, payload)
	if err != nil {
		return nil, err
	}
	if len(reply) != 64 {
		return nil, fmt.Errorf("%w: signature is %d bytes long", ErrInvalidReply, len(reply))
	}
	return reply, nil
}

// send splits the payload in chunks of at most 255 bytes. Every chunk but
// the last is flagged with P2_MORE, every chunk but the first with
// P2_EXTEND. Only the reply to the last chunk carries data.
func (a solanaApp) send(ins, p1 byte, payload []byte) ([]byte, error) {
	chunks := splitPayload(payload)

	var reply []byte
	for i, chunk := range chunks {
		var p2 byte
		if i > 0 {
			p2 |= p2Extend
		}
		if i < len(chunks)-1 {
			p2 |= p2More
		}

		apdu := make([]byte, 0, 5+len(chunk))
		apdu = append(apdu, claSolana, ins, p1, p2, byte(len(chunk)))
		apdu = append(apdu, chunk...)

		var err error
		if reply, err = exchange(a.rw, apdu); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

func splitPayload(payload []byte) [][]byte {
	if len(payload) <= 0 {
		return [][]byte{{}}
	}
	chunks := make([][]byte, 0, len(payload)/maxAPDUDataSize+1)
	for len(payload) > 0 {
		n := maxAPDUDataSize
		if len(payload) < n {
			n = len(payload)
		}
		chunks = append(chunks, payload[:n])
		payload = payload[n:]
	}
	return chunks
}

// serializePath encodes a derivation path as expected by the app:
// number of segments (1 byte) | segments (4 bytes big endian each).
func serializePath(path string) ([]byte, error) {
	derivationPath, err := wallet.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}
	if len(derivationPath) > maxDerivationLength {
		return nil, fmt.Errorf(
			"%w: at most %d segments are supported by the device",
			wallet.ErrInvalidDerivationPath, maxDerivationLength,
		)
	}

	buf := make([]byte, 0, 1+4*len(derivationPath))
	buf = append(buf, byte(len(derivationPath)))
	for _, segment := range derivationPath {
		buf = binary.BigEndian.AppendUint32(buf, segment)
	}
	return buf, nil
}
