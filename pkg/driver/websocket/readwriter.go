// Package websocket carries PPoGATT frames as binary websocket messages,
// e.g. from a browser using Web Bluetooth to reach the peripheral.
package websocket

import (
	"fmt"
	"net/http"

	"golang.org/x/net/websocket"

	"github.com/robotalks/ppogatt/pkg/driver/stream"
)

// ReadWriter implements PacketReadWriter, one frame per message.
type ReadWriter websocket.Conn

// New wraps websocket.Conn.
func New(conn *websocket.Conn) *ReadWriter {
	conn.PayloadType = websocket.BinaryFrame
	return (*ReadWriter)(conn)
}

// Dial connects to a websocket server.
func Dial(url string) (*ReadWriter, error) {
	conn, err := websocket.Dial(url, "", "http://localhost/")
	if err != nil {
		return nil, err
	}
	return New(conn), nil
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() (pkt []byte, err error) {
	if err = websocket.Message.Receive((*websocket.Conn)(p), &pkt); err != nil {
		return
	}
	if len(pkt) > stream.DefaultMaxPacketSize {
		err = fmt.Errorf("%w: %d bytes", stream.ErrPacketTooLarge, len(pkt))
	}
	return
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	return websocket.Message.Send((*websocket.Conn)(p), pkt)
}

// Close implements io.Closer.
func (p *ReadWriter) Close() error {
	return (*websocket.Conn)(p).Close()
}

// Handler accepts websocket connections and hands each one over to fn.
// The connection is closed when fn returns.
func Handler(fn func(*ReadWriter)) http.Handler {
	return websocket.Handler(func(conn *websocket.Conn) {
		fn(New(conn))
	})
}
