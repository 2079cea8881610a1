package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	server := httptest.NewServer(Handler(func(rw *ReadWriter) {
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				return
			}
			if rw.WritePacket(pkt) != nil {
				return
			}
		}
	}))
	defer server.Close()

	rw, err := Dial("ws" + strings.TrimPrefix(server.URL, "http"))
	require.NoError(t, err)
	defer rw.Close()
	for _, pkt := range [][]byte{{0x00, 'a'}, {0x09}, {0x10, 0xff, 0x00}} {
		require.NoError(t, rw.WritePacket(pkt))
		echo, err := rw.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, pkt, echo)
	}
}
