package ppogatt

import "time"

// MaxWindow is the maximum number of unacknowledged DATA frames. It stays
// below half of the sequence space so cumulative ACKs are unambiguous.
const MaxWindow = SeqSpace/2 - 1

// OutstandingFrame is a transmitted DATA frame awaiting acknowledgement.
type OutstandingFrame struct {
	Seq         Seq
	SentAt      time.Time
	Deadline    time.Time
	Retransmits int

	data slot
}

// Payload returns the retained payload.
func (f *OutstandingFrame) Payload() []byte {
	return f.data.bytes()
}

// outstandingTable is a fixed ring of OutstandingFrames in sequence order.
// It's owned by the transmit worker.
type outstandingTable struct {
	frames [MaxWindow]OutstandingFrame
	head   int
	count  int
}

func (t *outstandingTable) Len() int {
	return t.count
}

func (t *outstandingTable) at(n int) *OutstandingFrame {
	return &t.frames[(t.head+n)%MaxWindow]
}

// Push records a frame. It must not be called when the table is full.
func (t *outstandingTable) Push(seq Seq, data *slot, now time.Time, timeout time.Duration) *OutstandingFrame {
	if t.count >= MaxWindow {
		panic("outstanding table overflow")
	}
	f := t.at(t.count)
	t.count++
	*f = OutstandingFrame{Seq: seq, SentAt: now, Deadline: now.Add(timeout), data: *data}
	return f
}

// Oldest returns the oldest unacknowledged frame or nil.
func (t *outstandingTable) Oldest() *OutstandingFrame {
	if t.count == 0 {
		return nil
	}
	return t.at(0)
}

// Newest returns the most recently sent frame or nil.
func (t *outstandingTable) Newest() *OutstandingFrame {
	if t.count == 0 {
		return nil
	}
	return t.at(t.count - 1)
}

// Retire removes every frame covered by a cumulative ACK for seq.
// An ACK outside the range of outstanding frames retires nothing.
func (t *outstandingTable) Retire(seq Seq) int {
	if t.count == 0 || !seq.Covers(t.Oldest().Seq) || !t.Newest().Seq.Covers(seq) {
		return 0
	}
	n := 0
	for t.count > 0 && seq.Covers(t.at(0).Seq) {
		*t.at(0) = OutstandingFrame{}
		t.head = (t.head + 1) % MaxWindow
		t.count--
		n++
	}
	return n
}

// NextDeadline returns the retransmit deadline of the oldest frame.
func (t *outstandingTable) NextDeadline() (time.Time, bool) {
	if t.count == 0 {
		return time.Time{}, false
	}
	return t.at(0).Deadline, true
}

// Clear drops every frame.
func (t *outstandingTable) Clear() {
	*t = outstandingTable{}
}
