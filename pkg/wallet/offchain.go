package wallet

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// OffchainMessageFormat is the encoding class of an off-chain message.
type OffchainMessageFormat uint8

const (
	OffchainFormatRestrictedASCII OffchainMessageFormat = iota
	OffchainFormatLimitedUTF8
	OffchainFormatExtendedUTF8
)

const (
	// OffchainSigningDomain prefixes every off-chain message so that it can
	// never be mistaken for a transaction message.
	OffchainSigningDomain = "\xffsolana offchain"
	OffchainHeaderVersion = 0

	// MaxLimitedOffchainMessageLen is the longest message hardware wallets
	// accept for the restricted and limited formats.
	MaxLimitedOffchainMessageLen  = 1212
	MaxExtendedOffchainMessageLen = 65535
)

// OffchainMessageFormatOf returns the most restrictive format for message.
func OffchainMessageFormatOf(message []byte) (OffchainMessageFormat, error) {
	switch {
	case len(message) <= 0:
		return 0, fmt.Errorf("%w: message must not be empty", ErrInvalidOffchainMessage)
	case len(message) > MaxExtendedOffchainMessageLen:
		return 0, fmt.Errorf(
			"%w: message exceeds %d bytes",
			ErrInvalidOffchainMessage, MaxExtendedOffchainMessageLen,
		)
	case !utf8.Valid(message):
		return 0, fmt.Errorf("%w: message is not valid utf-8", ErrInvalidOffchainMessage)
	case len(message) > MaxLimitedOffchainMessageLen:
		return OffchainFormatExtendedUTF8, nil
	case isPrintableASCII(message):
		return OffchainFormatRestrictedASCII, nil
	default:
		return OffchainFormatLimitedUTF8, nil
	}
}

// SerializeOffchainMessage returns the bytes actually signed for an
// off-chain message: signing domain | version | format | length (u16 LE) |
// message.
func SerializeOffchainMessage(message []byte) ([]byte, error) {
	format, err := OffchainMessageFormatOf(message)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(OffchainSigningDomain)+4+len(message))
	buf = append(buf, OffchainSigningDomain...)
	buf = append(buf, OffchainHeaderVersion, byte(format))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(message)))
	return append(buf, message...), nil
}

func isPrintableASCII(message []byte) bool {
	for _, b := range message {
		if b < 0x20 || b > 0x7e {
			return false
		}
	}
	return true
}
