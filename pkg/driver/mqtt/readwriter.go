package mqtt

import (
	"context"
	"io"
	"sync"
	"time"
)

// Topic suffixes of a bridged link. c2p flows from the central to the
// peripheral, p2c the other way around.
const (
	TopicC2P   = "/c2p"
	TopicP2C   = "/p2c"
	TopicStats = "/stats"
	TopicState = "/state"
)

// DefaultPublishTimeout bounds how long WritePacket waits for the broker.
const DefaultPublishTimeout = 2 * time.Second

// ReadWriter implements PacketReadWriter over a pair of topics.
// Inbound packets that can't be queued are dropped like lost radio
// frames.
type ReadWriter struct {
	Queue          *Queue
	SubTopic       string
	PubTopic       string
	PublishTimeout time.Duration

	packetCh  chan []byte
	closeCh   chan struct{}
	closeOnce sync.Once
	sub       *Subscription
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:          q,
		PublishTimeout: DefaultPublishTimeout,
		packetCh:       make(chan []byte, 16),
		closeCh:        make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForCentral sets topics for the central side of the link id.
func (p *ReadWriter) ForCentral(id string) *ReadWriter {
	return p.WithTopics(id+TopicP2C, id+TopicC2P)
}

// ForPeripheral sets topics for the peripheral side of the link id.
func (p *ReadWriter) ForPeripheral(id string) *ReadWriter {
	return p.WithTopics(id+TopicC2P, id+TopicP2C)
}

// Subscribe starts receiving packets.
func (p *ReadWriter) Subscribe() *ReadWriter {
	p.sub = p.Queue.Sub(p.SubTopic, p.handleMsg)
	return p
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.closeCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	if !token.WaitTimeout(p.PublishTimeout) {
		return context.DeadlineExceeded
	}
	return token.Error()
}

// Close implements io.Closer. It only unsubscribes, the Queue is owned
// by the caller.
func (p *ReadWriter) Close() (err error) {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		if p.sub != nil {
			err = p.sub.Close()
		}
	})
	return
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- append([]byte(nil), payload...):
	default:
	}
}
