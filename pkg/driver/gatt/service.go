// Package gatt exposes PPoGATT as a BLE GATT peripheral service.
package gatt

import (
	"errors"
	"fmt"

	"github.com/robotalks/ppogatt/pkg/driver"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// UUIDs of the PPoGATT service and characteristics.
const (
	ServiceUUID  = "10000000-328e-0fbb-c642-1aa6699bdada"
	DataCharUUID = "10000001-328e-0fbb-c642-1aa6699bdada"
	MetaCharUUID = "10000002-328e-0fbb-c642-1aa6699bdada"
)

// ProtocolVersion is reported in the meta characteristic.
const ProtocolVersion = 1

// ErrUnsupported is returned where BLE peripherals aren't supported.
var ErrUnsupported = errors.New("gatt peripheral not supported on this platform")

// Meta is the value of the meta characteristic.
type Meta struct {
	Version    byte
	MaxPayload byte
	Window     byte
}

// DefaultMeta describes this implementation.
func DefaultMeta() Meta {
	return Meta{
		Version:    ProtocolVersion,
		MaxPayload: ppogatt.MaxPayload,
		Window:     ppogatt.DefaultWindow,
	}
}

// WithCapacity limits MaxPayload to what fits in one notification of
// capacity bytes, the header included.
func (m Meta) WithCapacity(capacity int) Meta {
	limit := capacity - 1
	if limit < 0 {
		limit = 0
	}
	if limit < int(m.MaxPayload) {
		m.MaxPayload = byte(limit)
	}
	return m
}

// Bytes encodes the meta value.
func (m Meta) Bytes() []byte {
	return []byte{m.Version, m.MaxPayload, m.Window}
}

// ParseMeta decodes the meta value read by a central.
func ParseMeta(b []byte) (m Meta, err error) {
	if len(b) < 3 {
		return m, fmt.Errorf("meta too short: %d bytes", len(b))
	}
	return Meta{Version: b[0], MaxPayload: b[1], Window: b[2]}, nil
}

// Notifier sends notifications to a subscribed central, implemented by
// gatt.Notifier.
type Notifier interface {
	Write(data []byte) (int, error)
	Done() bool
	Cap() int
}

// Notify sends one frame as a single notification. The stack truncates
// notifications to Cap bytes and a frame carries no length, so a frame
// that doesn't fit is dropped as lost instead.
func Notify(n Notifier, frame []byte) error {
	if capacity := n.Cap(); len(frame) > capacity {
		return fmt.Errorf("%w: %d bytes frame exceeds notification capacity %d",
			driver.ErrPacketLost, len(frame), capacity)
	}
	if _, err := n.Write(frame); err != nil {
		return fmt.Errorf("%w: notify: %v", driver.ErrPacketLost, err)
	}
	return nil
}
