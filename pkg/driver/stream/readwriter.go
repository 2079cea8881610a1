// Package stream frames packets over byte streams.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// DefaultMaxPacketSize rejects packets that can't be a PPoGATT frame.
const DefaultMaxPacketSize = 256

// ErrPacketTooLarge is returned when a length prefix exceeds the maximum.
var ErrPacketTooLarge = errors.New("packet too large")

// ReadWriter implements PacketReadWriter.
// Each packet is prefixed by 4-byte (little-endian) indicate the length.
type ReadWriter struct {
	io.ReadWriter
	MaxPacketSize int
}

// New creates a ReadWriter with io.ReadWriter.
func New(s io.ReadWriter) *ReadWriter {
	return &ReadWriter{ReadWriter: s, MaxPacketSize: DefaultMaxPacketSize}
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	var size uint32
	if err := binary.Read(p.ReadWriter, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	// the stream is out of sync once a length is rejected.
	if p.MaxPacketSize > 0 && size > uint32(p.MaxPacketSize) {
		return nil, fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, size)
	}
	pkt := make([]byte, size)
	_, err := io.ReadFull(p.ReadWriter, pkt)
	return pkt, err
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	if p.MaxPacketSize > 0 && len(pkt) > p.MaxPacketSize {
		return fmt.Errorf("%w: %d bytes", ErrPacketTooLarge, len(pkt))
	}
	buf := make([]byte, 4, 4+len(pkt))
	binary.LittleEndian.PutUint32(buf, uint32(len(pkt)))
	_, err := p.ReadWriter.Write(append(buf, pkt...))
	return err
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	if closer, ok := p.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Dial connects to a TCP peer.
func Dial(addr string) (*ReadWriter, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// Accept listens on addr and waits for a single TCP peer.
func Accept(addr string) (*ReadWriter, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}
