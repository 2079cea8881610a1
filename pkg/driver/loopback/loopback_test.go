package loopback

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ppogatt/pkg/driver"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

const testTimeout = 10 * time.Second

type testEndpoint struct {
	pipe      *Endpoint
	link      *driver.Link
	transport *ppogatt.Transport
	received  chan string
}

func newTestEndpoint(pipe *Endpoint, window int) *testEndpoint {
	ep := &testEndpoint{
		pipe:     pipe,
		link:     driver.NewLink(pipe),
		received: make(chan string, 256),
	}
	ep.transport = ppogatt.NewTransport(ep.link)
	ep.transport.Window = window
	ep.transport.RetransmitTimeout = 20 * time.Millisecond
	ep.transport.ReadyTimeout = 10 * time.Millisecond
	ep.transport.ResetTimeout = 20 * time.Millisecond
	ep.transport.MaxResetAttempts = 100
	ep.transport.MaxRetransmits = 20
	ep.transport.Handler = ppogatt.HandlePayloadFunc(func(ctx context.Context, payload []byte) {
		ep.received <- string(payload)
	})
	return ep
}

func (ep *testEndpoint) start(ctx context.Context) {
	go ep.link.Run(ctx)
	ep.transport.Init()
}

func (ep *testEndpoint) send(t *testing.T, payloads ...string) {
	for _, payload := range payloads {
		ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
		err := ep.transport.Submit(ctx, []byte(payload))
		cancel()
		require.NoError(t, err)
	}
}

func (ep *testEndpoint) expect(t *testing.T, payloads ...string) {
	for i, payload := range payloads {
		select {
		case actual := <-ep.received:
			require.Equalf(t, payload, actual, "payload[%d]", i)
		case <-time.After(testTimeout):
			t.Fatalf("timeout waiting for payload[%d] %q", i, payload)
		}
	}
}

func (ep *testEndpoint) established(t *testing.T) {
	require.Eventually(t, func() bool {
		return ep.transport.State() == ppogatt.LinkEstablished
	}, testTimeout, time.Millisecond)
}

func newTestPair(t *testing.T, window int) (a, b *testEndpoint) {
	pa, pb := Pipe(0)
	a, b = newTestEndpoint(pa, window), newTestEndpoint(pb, window)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		a.transport.Close()
		b.transport.Close()
		cancel()
	})
	a.start(ctx)
	b.start(ctx)
	a.established(t)
	b.established(t)
	return
}

func payloads(prefix string, n int) []string {
	res := make([]string, n)
	for i := range res {
		res[i] = fmt.Sprintf("%s-%d", prefix, i)
	}
	return res
}

func TestPipe(t *testing.T) {
	a, b := Pipe(1)
	require.NoError(t, a.WritePacket([]byte("hi")))
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), pkt)

	a.SetDrop(func([]byte) bool { return true })
	require.NoError(t, a.WritePacket([]byte("lost")))
	a.SetDrop(nil)

	require.NoError(t, b.Close())
	_, err = a.ReadPacket()
	require.Error(t, err)
	require.Error(t, a.WritePacket([]byte("closed")))
}

func TestTransferInOrder(t *testing.T) {
	a, b := newTestPair(t, 1)
	data := payloads("a", 3*ppogatt.SeqSpace)
	go a.send(t, data...)
	b.expect(t, data...)
	require.Zero(t, b.transport.Stats().RxWithheld)
}

func TestTransferBothWays(t *testing.T) {
	a, b := newTestPair(t, 1)
	fromA, fromB := payloads("a", 50), payloads("b", 50)
	go a.send(t, fromA...)
	go b.send(t, fromB...)
	b.expect(t, fromA...)
	a.expect(t, fromB...)
}

func TestTransferWithLoss(t *testing.T) {
	for _, window := range []int{1, 4, ppogatt.MaxWindow} {
		t.Run(fmt.Sprintf("window-%d", window), func(t *testing.T) {
			a, b := newTestPair(t, window)
			a.pipe.SetDrop(DropEvery(5))
			b.pipe.SetDrop(DropEvery(7))
			data := payloads("lossy", 100)
			go a.send(t, data...)
			b.expect(t, data...)
			stats := a.transport.Stats()
			require.NotZero(t, stats.TxRetransmit)
			require.Zero(t, stats.Escalations)
		})
	}
}

func TestResetConvergence(t *testing.T) {
	a, b := newTestPair(t, 2)
	first := payloads("first", 10)
	a.send(t, first...)
	b.expect(t, first...)

	b.transport.Init()
	a.established(t)
	b.established(t)

	second := payloads("second", 40)
	go a.send(t, second...)
	b.expect(t, second...)
	go b.send(t, second...)
	a.expect(t, second...)
}

func TestEchoPeer(t *testing.T) {
	pa, pb := Pipe(0)
	a := newTestEndpoint(pa, 1)
	peer := NewEchoPeer(pb)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer a.transport.Close()
	go peer.Run(ctx)
	a.start(ctx)
	a.established(t)
	data := payloads("echo", 20)
	go a.send(t, data...)
	a.expect(t, data...)
}
