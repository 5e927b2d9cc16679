package signer

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration ...
	ErrConfiguration = errors.New("invalid signer configuration")
	// ErrMissingSeedSource ...
	ErrMissingSeedSource = fmt.Errorf(
		"%w: one of mnemonic, seed or root node must be defined", ErrConfiguration,
	)
	// ErrTooManySeedSources ...
	ErrTooManySeedSources = fmt.Errorf(
		"%w: mnemonic, seed and root node are mutually exclusive", ErrConfiguration,
	)
	// ErrMissingPath ...
	ErrMissingPath = fmt.Errorf("%w: missing derivation path", ErrConfiguration)
	// ErrMissingDeviceManager ...
	ErrMissingDeviceManager = fmt.Errorf(
		"%w: one of device manager or device manager factory must be defined",
		ErrConfiguration,
	)
	// ErrDisposed ...
	ErrDisposed = errors.New("signer has been disposed")
	// ErrRootSigner ...
	ErrRootSigner = errors.New(
		"root signer can only derive child signers, derive an account first",
	)
	// ErrNotImplemented ...
	ErrNotImplemented = errors.New("method not implemented")
	// ErrInvalidDeviceOutput ...
	ErrInvalidDeviceOutput = errors.New("unexpected output from device")
	// ErrDeviceStreamClosed ...
	ErrDeviceStreamClosed = errors.New("device closed the event stream before completion")
)

// DeviceInteractionError is returned for any failure occurred while talking
// to a hardware device: discovery timeout, user rejection or transport error.
type DeviceInteractionError struct {
	Op  string
	Err error
}

func (e *DeviceInteractionError) Error() string {
	return fmt.Sprintf("device %s failed: %s", e.Op, e.Err)
}

func (e *DeviceInteractionError) Unwrap() error {
	return e.Err
}

func deviceError(op string, err error) error {
	if err == nil {
		return nil
	}
	var derr *DeviceInteractionError
	if errors.As(err, &derr) {
		return err
	}
	return &DeviceInteractionError{Op: op, Err: err}
}
