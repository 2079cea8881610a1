package ppogatt

// LinkState is the state of the PPoGATT session.
type LinkState int32

const (
	// LinkDisconnected means no session, or the peer never answered a reset.
	LinkDisconnected LinkState = iota
	// LinkAwaitingResetAck means RESET_REQ was sent.
	LinkAwaitingResetAck
	// LinkEstablished means both sides agree on the sequence space.
	LinkEstablished
)

// String implements fmt.Stringer.
func (s LinkState) String() string {
	switch s {
	case LinkDisconnected:
		return "disconnected"
	case LinkAwaitingResetAck:
		return "awaiting-reset-ack"
	case LinkEstablished:
		return "established"
	}
	return "unknown"
}

// linkMachine drives the reset handshake. It's owned by the transmit worker.
type linkMachine struct {
	state       LinkState
	attempts    int
	maxAttempts int
}

// start begins a local reset, the caller sends the first RESET_REQ.
func (l *linkMachine) start() {
	l.state, l.attempts = LinkAwaitingResetAck, 1
}

// retry accounts for one more RESET_REQ. It fails with ErrResetTimeout
// once the ceiling is reached and the link is then disconnected.
func (l *linkMachine) retry() error {
	if l.attempts >= l.maxAttempts {
		l.state, l.attempts = LinkDisconnected, 0
		return ErrResetTimeout
	}
	l.attempts++
	return nil
}

// peerReset is a RESET_REQ from the peer, accepted in any state.
func (l *linkMachine) peerReset() {
	l.state, l.attempts = LinkEstablished, 0
}

// resetAcked completes a local reset. Unsolicited RESET_ACKs return false.
func (l *linkMachine) resetAcked() bool {
	if l.state != LinkAwaitingResetAck {
		return false
	}
	l.state, l.attempts = LinkEstablished, 0
	return true
}
