package ppogatt

import "fmt"

// MTU is the maximum size of a frame including the header.
const MTU = 256

// MaxPayload is the maximum payload in a single frame.
const MaxPayload = MTU - 1

// Command is the 3-bit frame command.
type Command byte

// Commands.
const (
	CmdData     Command = 0
	CmdAck      Command = 1
	CmdResetReq Command = 2
	CmdResetAck Command = 3
)

const cmdMask = 0x07

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c {
	case CmdData:
		return "DATA"
	case CmdAck:
		return "ACK"
	case CmdResetReq:
		return "RESET_REQ"
	case CmdResetAck:
		return "RESET_ACK"
	}
	return fmt.Sprintf("CMD(%d)", byte(c))
}

// IsKnown reports whether the command is one of the four defined.
func (c Command) IsKnown() bool {
	return c <= CmdResetAck
}

// Frame is a decoded PPoGATT frame. Payload aliases the decoded buffer.
type Frame struct {
	Cmd     Command
	Seq     Seq
	Payload []byte
}

// Header encodes the header byte.
func Header(cmd Command, seq Seq) byte {
	return byte(seq&seqMask)<<3 | byte(cmd)&cmdMask
}

// AppendFrame appends the encoded frame to buf.
func AppendFrame(buf []byte, cmd Command, seq Seq, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return buf, &FrameError{Err: ErrOversizeFrame, Len: len(payload) + 1}
	}
	buf = append(buf, Header(cmd, seq))
	return append(buf, payload...), nil
}

// Encode encodes a frame into a new buffer.
func Encode(cmd Command, seq Seq, payload []byte) ([]byte, error) {
	return AppendFrame(make([]byte, 0, len(payload)+1), cmd, seq, payload)
}

// Decode decodes a frame. Command and sequence are not validated.
func Decode(b []byte) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, &FrameError{Err: ErrMalformedFrame}
	}
	return Frame{
		Cmd:     Command(b[0] & cmdMask),
		Seq:     Seq(b[0] >> 3),
		Payload: b[1:],
	}, nil
}

// Bytes returns encoded bytes, panics if the payload is oversize.
func (f Frame) Bytes() []byte {
	b, err := Encode(f.Cmd, f.Seq, f.Payload)
	if err != nil {
		panic(err)
	}
	return b
}

// String implements fmt.Stringer.
func (f Frame) String() string {
	if len(f.Payload) == 0 {
		return fmt.Sprintf("%s(%d)", f.Cmd, f.Seq)
	}
	return fmt.Sprintf("%s(%d, %d bytes)", f.Cmd, f.Seq, len(f.Payload))
}
