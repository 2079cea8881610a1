package env

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ppogatt/pkg/driver/stream"
	"github.com/robotalks/ppogatt/pkg/ppogatt"
)

func TestNewConfig(t *testing.T) {
	conf := NewConfig()
	require.NotEmpty(t, conf.ID)
	conf.Window = 9
	require.NotEqual(t, 9, Default().Window)
}

func TestApply(t *testing.T) {
	conf := NewConfig()
	conf.Window = 4
	conf.RetransmitTimeout = 200 * time.Millisecond
	conf.MaxResetAttempts = 2
	tr := ppogatt.NewTransport(nil)
	conf.Apply(tr)
	require.Equal(t, 4, tr.Window)
	require.Equal(t, 200*time.Millisecond, tr.RetransmitTimeout)
	require.Equal(t, 2, tr.MaxResetAttempts)
	require.Equal(t, conf.QueueDepth, tr.QueueDepth)
}

func TestNewLinkErrors(t *testing.T) {
	for _, u := range []string{
		"bogus://x",
		"://",
		"loop://?loss=1",
		"loop://?loss=x",
		"gatt://?dev=x",
	} {
		conf := NewConfig()
		conf.LinkURL = u
		_, err := conf.NewLink()
		require.Errorf(t, err, u)
	}
}

func TestLoopLink(t *testing.T) {
	conf := NewConfig()
	conf.LinkURL = "loop://?loss=6"
	conf.RetransmitTimeout = 20 * time.Millisecond
	conf.ResetTimeout = 20 * time.Millisecond
	conf.MaxResetAttempts = 100
	tr, link, err := conf.NewTransport()
	require.NoError(t, err)

	received := make(chan string, 16)
	tr.Handler = ppogatt.HandlePayloadFunc(func(ctx context.Context, payload []byte) {
		received <- string(payload)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go link.Run(ctx)
	tr.Init()
	defer tr.Close()

	for _, msg := range []string{"one", "two", "three"} {
		require.NoError(t, tr.Submit(ctx, []byte(msg)))
	}
	for _, msg := range []string{"one", "two", "three"} {
		select {
		case actual := <-received:
			require.Equal(t, msg, actual)
		case <-time.After(10 * time.Second):
			t.Fatalf("timeout waiting for %q", msg)
		}
	}
}

func TestTCPLink(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	conf := NewConfig()
	conf.LinkURL = "tcp://" + ln.Addr().String()
	link, err := conf.NewLink()
	require.NoError(t, err)
	require.Equal(t, "tcp", link.URL.Scheme)
	defer link.Driver.Close()

	peer := stream.New(<-accepted)
	defer peer.Close()
	require.NoError(t, link.Driver.Transmit([]byte{0x02}))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go link.Run(ctx)
	pkt, err := peer.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{0x02}, pkt)
}
