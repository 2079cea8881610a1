package stream

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte{0x08, 'h', 'i'}))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, []byte{3, 0, 0, 0, 0x08, 'h', 'i', 0, 0, 0, 0}, buf.Bytes())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 'h', 'i'}, pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.Equal(t, io.EOF, err)
}

func TestReadWriterMaxPacketSize(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	err := rw.WritePacket(make([]byte, DefaultMaxPacketSize+1))
	require.True(t, errors.Is(err, ErrPacketTooLarge))
	require.Zero(t, buf.Len())

	buf.Write([]byte{0xff, 0xff, 0, 0})
	_, err = rw.ReadPacket()
	require.True(t, errors.Is(err, ErrPacketTooLarge))
}

func TestReadWriterTruncated(t *testing.T) {
	rw := New(bytes.NewBuffer([]byte{4, 0, 0, 0, 1, 2}))
	_, err := rw.ReadPacket()
	require.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReadWriterPipe(t *testing.T) {
	c1, c2 := net.Pipe()
	a, b := New(c1), New(c2)
	defer a.Close()
	defer b.Close()
	go func() {
		a.WritePacket([]byte("frame"))
	}()
	pkt, err := b.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("frame"), pkt)
}
