// Package loopback provides an in-memory packet channel, the PPoGATT
// link equivalent of net.Pipe, with loss injection.
package loopback

import (
	"io"
	"sync"
	"sync/atomic"
)

// DropFunc decides whether an outbound packet is lost.
type DropFunc func(pkt []byte) bool

// DropEvery loses every nth packet.
func DropEvery(n int64) DropFunc {
	var count int64
	return func([]byte) bool {
		return atomic.AddInt64(&count, 1)%n == 0
	}
}

// Endpoint is one end of a Pipe. It implements driver.PacketReadWriter.
type Endpoint struct {
	in   <-chan []byte
	out  chan<- []byte
	done *pipeDone

	lock sync.RWMutex
	drop DropFunc
}

type pipeDone struct {
	ch   chan struct{}
	once sync.Once
}

func (d *pipeDone) close() {
	d.once.Do(func() { close(d.ch) })
}

// DefaultDepth is the number of packets buffered in each direction.
const DefaultDepth = 16

// Pipe creates a connected pair of endpoints. Writes never block beyond
// depth buffered packets per direction.
func Pipe(depth int) (*Endpoint, *Endpoint) {
	if depth < 1 {
		depth = DefaultDepth
	}
	a2b, b2a := make(chan []byte, depth), make(chan []byte, depth)
	done := &pipeDone{ch: make(chan struct{})}
	return &Endpoint{in: b2a, out: a2b, done: done},
		&Endpoint{in: a2b, out: b2a, done: done}
}

// SetDrop installs a loss filter on outbound packets, nil disables it.
func (e *Endpoint) SetDrop(fn DropFunc) {
	e.lock.Lock()
	e.drop = fn
	e.lock.Unlock()
}

// ReadPacket implements PacketReader.
func (e *Endpoint) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-e.in:
		return pkt, nil
	case <-e.done.ch:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (e *Endpoint) WritePacket(pkt []byte) error {
	e.lock.RLock()
	drop := e.drop
	e.lock.RUnlock()
	if drop != nil && drop(pkt) {
		return nil
	}
	select {
	case e.out <- append([]byte(nil), pkt...):
		return nil
	case <-e.done.ch:
		return io.ErrClosedPipe
	}
}

// Close implements io.Closer. Closing either end closes the pipe.
func (e *Endpoint) Close() error {
	e.done.close()
	return nil
}
