package driver

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	fx "github.com/robotalks/ppogatt/pkg/framework"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

// Link implements ppogatt.Driver on top of a PacketReadWriter.
// It holds a single in-flight frame like a BLE notification slot:
// Transmit fails with ppogatt.ErrBusy until the writer drained it.
type Link struct {
	ReadWriter PacketReadWriter

	lock  sync.RWMutex
	rx    func([]byte)
	ready func()
	txCh  chan []byte
	lost  uint64
}

// NewLink creates a Link.
func NewLink(rw PacketReadWriter) *Link {
	return &Link{
		ReadWriter: rw,
		rx:         func([]byte) {},
		ready:      func() {},
		txCh:       make(chan []byte, 1),
	}
}

// Transmit implements ppogatt.Driver.
func (l *Link) Transmit(frame []byte) error {
	select {
	case l.txCh <- append([]byte(nil), frame...):
		return nil
	default:
		return ppogatt.ErrBusy
	}
}

// SetReceiveCallback implements ppogatt.Driver.
func (l *Link) SetReceiveCallback(fn func([]byte)) {
	l.lock.Lock()
	l.rx = fn
	l.lock.Unlock()
}

// SetTransmitReadyCallback implements ppogatt.Driver.
func (l *Link) SetTransmitReadyCallback(fn func()) {
	l.lock.Lock()
	l.ready = fn
	l.lock.Unlock()
}

// Run implements Runnable. It returns when the context is canceled or
// the underlying channel fails.
func (l *Link) Run(ctx context.Context) error {
	return fx.NewRunnerWith(ctx).Go(
		fx.NamedRun("link-reader", fx.RunFunc(l.readLoop)),
		fx.NamedRun("link-writer", fx.RunFunc(l.writeLoop)),
	).Wait()
}

// Lost returns the number of frames the ReadWriter dropped with
// ErrPacketLost.
func (l *Link) Lost() uint64 {
	return atomic.LoadUint64(&l.lost)
}

// Close implements io.Closer.
func (l *Link) Close() error {
	if closer, ok := l.ReadWriter.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (l *Link) readLoop(ctx context.Context) error {
	return fx.RunWithContextCloser(ctx, l, func() error {
		for {
			pkt, err := l.ReadWriter.ReadPacket()
			if err != nil {
				return err
			}
			l.lock.RLock()
			rx := l.rx
			l.lock.RUnlock()
			rx(pkt)
		}
	})
}

func (l *Link) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt := <-l.txCh:
			if err := l.ReadWriter.WritePacket(pkt); err != nil {
				if !errors.Is(err, ErrPacketLost) {
					glog.Warningf("link: write failed: %v", err)
					return err
				}
				atomic.AddUint64(&l.lost, 1)
				glog.V(1).Infof("link: %v", err)
			}
			l.lock.RLock()
			ready := l.ready
			l.lock.RUnlock()
			ready()
		}
	}
}
