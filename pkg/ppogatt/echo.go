package ppogatt

import (
	"context"

	"github.com/golang/glog"
)

// Echo sends every received payload back to the peer. Payloads are queued
// and submitted from Run, so the receive worker is never blocked on the
// outbound queue.
type Echo struct {
	Transport *Transport

	queue chan []byte
}

// NewEcho creates an Echo and installs it as the handler of t.
func NewEcho(t *Transport, depth int) *Echo {
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	e := &Echo{Transport: t, queue: make(chan []byte, depth)}
	t.Handler = e
	return e
}

// HandlePayload implements PayloadHandler.
func (e *Echo) HandlePayload(ctx context.Context, payload []byte) {
	select {
	case e.queue <- append([]byte(nil), payload...):
	default:
		glog.Warningf("echo: queue full, dropped %d bytes", len(payload))
	}
}

// Run implements Runnable.
func (e *Echo) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case payload := <-e.queue:
			err := e.Transport.Submit(ctx, payload)
			switch err {
			case nil, ErrSessionReset:
			case ErrNotInitialized:
				glog.V(1).Info("echo: transport closed")
			default:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				glog.Warningf("echo: %v", err)
			}
		}
	}
}
