// Package driver adapts packet oriented channels into PPoGATT drivers.
package driver

import "errors"

// ErrPacketLost is returned by a PacketWriter that dropped a packet it
// could not send intact. The channel stays usable.
var ErrPacketLost = errors.New("packet lost")

// PacketReader reads packets in bytes.
type PacketReader interface {
	ReadPacket() ([]byte, error)
}

// PacketWriter writes packets in bytes.
type PacketWriter interface {
	WritePacket([]byte) error
}

// PacketReadWriter reads/writes packets in bytes.
type PacketReadWriter interface {
	PacketReader
	PacketWriter
}
