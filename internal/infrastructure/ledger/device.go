package ledger

import (
	"fmt"
	"io"

	"github.com/karalabe/hid"
)

const (
	ledgerVendorID = 0x2c97
	// ledgerUsagePage identifies the generic HID interface of the device,
	// older firmwares only expose it as interface 0.
	ledgerUsagePage = 0xffa0
)

var ledgerModels = map[uint16]string{
	0x0001: "nanoS",
	0x0004: "nanoX",
	0x0005: "nanoSP",
	0x0006: "stax",
	0x0007: "flex",
}

// Device is a discovered device that can be opened for a session.
type Device interface {
	ID() string
	Model() string
	Open() (io.ReadWriteCloser, error)
}

type usbDevice struct {
	info hid.DeviceInfo
}

func (d usbDevice) ID() string {
	return d.info.Path
}

func (d usbDevice) Model() string {
	// recent firmwares encode the model in the high nibble of the product id.
	if model, ok := ledgerModels[d.info.ProductID>>12]; ok {
		return model
	}
	if model, ok := ledgerModels[d.info.ProductID]; ok {
		return model
	}
	return fmt.Sprintf("unknown(0x%04x)", d.info.ProductID)
}

func (d usbDevice) Open() (io.ReadWriteCloser, error) {
	device, err := d.info.Open()
	if err != nil {
		return nil, err
	}
	return device, nil
}

// EnumerateUSB lists the Ledger devices plugged via USB.
func EnumerateUSB() ([]Device, error) {
	if !hid.Supported() {
		return nil, ErrHIDNotSupported
	}

	infos, err := hid.Enumerate(ledgerVendorID, 0)
	if err != nil {
		return nil, err
	}

	devices := make([]Device, 0, len(infos))
	for _, info := range infos {
		if info.UsagePage != ledgerUsagePage && info.Interface != 0 {
			continue
		}
		devices = append(devices, usbDevice{info})
	}
	return devices, nil
}
