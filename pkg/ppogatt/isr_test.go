package ppogatt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBridgeDropsOnOverflow(t *testing.T) {
	var stats Stats
	b := newBridge(2, &stats)
	b.receive([]byte{0x00, 'a'})
	b.receive([]byte{0x08, 'b'})
	b.receive([]byte{0x10, 'c'})
	require.Equal(t, uint64(1), stats.RxOverflow.Load())
	require.Len(t, b.rxQ, 2)

	s := <-b.rxQ
	require.Equal(t, []byte{0x00, 'a'}, s.bytes())
	s = <-b.rxQ
	require.Equal(t, []byte{0x08, 'b'}, s.bytes())
}

func TestBridgeDropsOversize(t *testing.T) {
	var stats Stats
	b := newBridge(1, &stats)
	b.receive(make([]byte, MTU+1))
	require.Equal(t, uint64(1), stats.RxOversize.Load())
	require.Empty(t, b.rxQ)
}

func TestBridgeCopiesFrame(t *testing.T) {
	var stats Stats
	b := newBridge(1, &stats)
	frame := []byte{0x00, 'x'}
	b.receive(frame)
	frame[1] = 'y'
	s := <-b.rxQ
	require.Equal(t, []byte{0x00, 'x'}, s.bytes())
}

func TestBridgeDoorbell(t *testing.T) {
	var stats Stats
	b := newBridge(1, &stats)
	b.txReady()
	b.txReady()
	require.Len(t, b.ready, 1)
}
