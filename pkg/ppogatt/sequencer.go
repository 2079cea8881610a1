package ppogatt

// Verdict is what the Sequencer decided about an inbound DATA frame.
type Verdict int

const (
	// VerdictDeliver means the frame is the next in sequence.
	VerdictDeliver Verdict = iota
	// VerdictDuplicate means the frame was already delivered and
	// only needs to be acknowledged again.
	VerdictDuplicate
	// VerdictWithhold means there's a gap before the frame. It is neither
	// delivered nor acknowledged, the peer will retransmit.
	VerdictWithhold
)

// String implements fmt.Stringer.
func (v Verdict) String() string {
	switch v {
	case VerdictDeliver:
		return "deliver"
	case VerdictDuplicate:
		return "duplicate"
	}
	return "withhold"
}

// AckState keeps what needs to be acknowledged. LastDelivered only moves
// when a new frame is delivered, while Pending is raised for every frame
// worth acknowledging, including retransmissions the peer sent because it
// missed our previous ACK.
type AckState struct {
	LastDelivered Seq
	Delivered     bool
	Pending       bool
}

// Sequencer enforces in-order delivery of inbound DATA frames.
// It's owned by the receive worker.
type Sequencer struct {
	cursor Seq
	ack    AckState
}

// Cursor returns the expected sequence of the next DATA frame.
func (s *Sequencer) Cursor() Seq {
	return s.cursor
}

// AckState returns the current acknowledgement state.
func (s *Sequencer) AckState() AckState {
	return s.ack
}

// Reset restarts the sequence space.
func (s *Sequencer) Reset() {
	*s = Sequencer{}
}

// Receive decides about a DATA frame with sequence seq.
func (s *Sequencer) Receive(seq Seq) Verdict {
	d := seq.Diff(s.cursor)
	switch {
	case d == 0:
		s.cursor = seq.Next()
		s.ack = AckState{LastDelivered: seq, Delivered: true, Pending: true}
		return VerdictDeliver
	case d < 0 && s.ack.Delivered:
		s.ack.Pending = true
		return VerdictDuplicate
	}
	return VerdictWithhold
}

// TakeAck returns the sequence to acknowledge and clears Pending.
func (s *Sequencer) TakeAck() (Seq, bool) {
	if !s.ack.Pending {
		return 0, false
	}
	s.ack.Pending = false
	return s.ack.LastDelivered, true
}
