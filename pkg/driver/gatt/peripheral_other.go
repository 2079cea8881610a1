//go:build !linux

package gatt

// Peripheral is only available on linux.
type Peripheral struct {
	Name         string
	Meta         Meta
	Connected    func()
	Disconnected func()
}

// Open is only supported on linux.
func Open(name string, devID int) (*Peripheral, error) {
	return nil, ErrUnsupported
}

// ReadPacket implements PacketReader.
func (p *Peripheral) ReadPacket() ([]byte, error) {
	return nil, ErrUnsupported
}

// WritePacket implements PacketWriter.
func (p *Peripheral) WritePacket([]byte) error {
	return ErrUnsupported
}

// MaxPayload returns the largest payload of one notification.
func (p *Peripheral) MaxPayload() int {
	return int(p.Meta.MaxPayload)
}

// Close implements io.Closer.
func (p *Peripheral) Close() error {
	return nil
}
