package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrHIDNotSupported ...
	ErrHIDNotSupported = errors.New("usb hid is not supported on this platform")
	// ErrDeviceNotFound ...
	ErrDeviceNotFound = errors.New("no ledger device found")
	// ErrUnknownDevice ...
	ErrUnknownDevice = errors.New("device was not discovered by this manager")
	// ErrSessionNotFound ...
	ErrSessionNotFound = errors.New("session not found")
	// ErrManagerClosed ...
	ErrManagerClosed = errors.New("device manager is closed")
	// ErrInvalidReplyHeader ...
	ErrInvalidReplyHeader = errors.New("invalid reply header from device")
	// ErrInvalidReply ...
	ErrInvalidReply = errors.New("invalid reply from device")
	// ErrUserRejected ...
	ErrUserRejected = errors.New("request rejected on device")
	// ErrAppNotOpen ...
	ErrAppNotOpen = errors.New("solana app is not open on device")
)

// StatusError is returned when the device answers with a status word other
// than success.
type StatusError struct {
	Code uint16
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device returned status 0x%04x", e.Code)
}

func statusError(code uint16) error {
	switch code {
	case statusUserRejected:
		return fmt.Errorf("%w: %w", ErrUserRejected, &StatusError{code})
	case statusAppNotOpen, statusClaNotSupported, statusInsNotSupported:
		return fmt.Errorf("%w: %w", ErrAppNotOpen, &StatusError{code})
	default:
		return &StatusError{code}
	}
}
