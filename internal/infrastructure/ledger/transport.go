package ledger

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// hid packets exchanged with the device are always 64 bytes long and
	// start with a 5 bytes header: channel (2) | tag (1) | sequence (2).
	packetSize   = 64
	headerSize   = 5
	channelID    = 0x0101
	tagAPDU      = 0x05
	lengthSize   = 2
	statusSize   = 2
	maxFrameSize = 0xffff
)

// frame splits the payload into hid packets. The first packet carries the
// total payload length right after the header.
func frame(payload []byte) ([][]byte, error) {
	if len(payload) > maxFrameSize {
		return nil, fmt.Errorf("payload too long: %d bytes", len(payload))
	}

	data := make([]byte, lengthSize, lengthSize+len(payload))
	binary.BigEndian.PutUint16(data, uint16(len(payload)))
	data = append(data, payload...)

	space := packetSize - headerSize
	packets := make([][]byte, 0, len(data)/space+1)
	for seq := 0; len(data) > 0; seq++ {
		packet := make([]byte, packetSize)
		binary.BigEndian.PutUint16(packet, channelID)
		packet[2] = tagAPDU
		binary.BigEndian.PutUint16(packet[3:], uint16(seq))

		n := copy(packet[headerSize:], data)
		data = data[n:]
		packets = append(packets, packet)
	}
	return packets, nil
}

// readFrame reads hid packets until a whole payload is received.
func readFrame(r io.Reader) ([]byte, error) {
	var (
		payload []byte
		size    int
	)
	packet := make([]byte, packetSize)
	for seq := 0; ; seq++ {
		if _, err := io.ReadFull(r, packet); err != nil {
			return nil, err
		}
		if binary.BigEndian.Uint16(packet) != channelID || packet[2] != tagAPDU {
			return nil, ErrInvalidReplyHeader
		}
		if int(binary.BigEndian.Uint16(packet[3:])) != seq {
			return nil, fmt.Errorf("%w: unexpected sequence number", ErrInvalidReplyHeader)
		}

		chunk := packet[headerSize:]
		if seq == 0 {
			size = int(binary.BigEndian.Uint16(chunk))
			payload = make([]byte, 0, size)
			chunk = chunk[lengthSize:]
		}
		left := size - len(payload)
		if left > len(chunk) {
			payload = append(payload, chunk...)
			continue
		}
		return append(payload, chunk[:left]...), nil
	}
}

// exchange sends a command APDU to the device and returns the response
// data, stripped of the status word.
func exchange(rw io.ReadWriter, apdu []byte) ([]byte, error) {
	packets, err := frame(apdu)
	if err != nil {
		return nil, err
	}
	for _, packet := range packets {
		if _, err := rw.Write(packet); err != nil {
			return nil, err
		}
	}

	reply, err := readFrame(rw)
	if err != nil {
		return nil, err
	}
	if len(reply) < statusSize {
		return nil, fmt.Errorf("%w: missing status word", ErrInvalidReply)
	}

	data, status := reply[:len(reply)-statusSize], reply[len(reply)-statusSize:]
	if code := binary.BigEndian.Uint16(status); code != statusOK {
		return nil, statusError(code)
	}
	return data, nil
}
