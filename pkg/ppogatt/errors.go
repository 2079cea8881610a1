package ppogatt

import (
	"errors"
	"fmt"
)

var (
	// ErrOversizeFrame indicates the payload doesn't fit in one frame.
	ErrOversizeFrame = errors.New("oversize frame")
	// ErrMalformedFrame indicates a frame without header.
	ErrMalformedFrame = errors.New("malformed frame")
	// ErrBusy is returned by Driver.Transmit when the channel can't accept
	// a frame right now. It's transient and the frame should be retried
	// after the transmit ready callback fires.
	ErrBusy = errors.New("channel busy")
	// ErrNotInitialized indicates Init has not been called.
	ErrNotInitialized = errors.New("not initialized")
	// ErrSessionReset indicates the session was replaced while waiting.
	ErrSessionReset = errors.New("session reset")
	// ErrRetransmitLimit indicates a frame was never acknowledged.
	ErrRetransmitLimit = errors.New("retransmit limit exceeded")
	// ErrResetTimeout indicates the peer never acknowledged a reset request.
	ErrResetTimeout = errors.New("reset not acknowledged")
)

// FrameError wraps codec errors with the offending length.
type FrameError struct {
	Err error
	Len int
}

// Error implements error.
func (e *FrameError) Error() string {
	return fmt.Sprintf("%v: %d bytes", e.Err, e.Len)
}

// Unwrap returns the sentinel error.
func (e *FrameError) Unwrap() error {
	return e.Err
}
