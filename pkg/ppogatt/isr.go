package ppogatt

// slot is one fixed MTU-sized queue entry.
type slot struct {
	n   int
	buf [MTU]byte
}

func (s *slot) set(b []byte) bool {
	if len(b) > MTU {
		return false
	}
	s.n = copy(s.buf[:], b)
	return true
}

func (s *slot) bytes() []byte {
	return s.buf[:s.n]
}

// bridge hands frames over from the driver callback context to the
// workers. Nothing here blocks or logs: a full receive queue drops the
// frame, exactly as if the radio had lost it, and the peer retransmits.
type bridge struct {
	rxQ   chan slot
	ready chan struct{}
	stats *Stats
}

func newBridge(depth int, stats *Stats) *bridge {
	return &bridge{
		rxQ:   make(chan slot, depth),
		ready: make(chan struct{}, 1),
		stats: stats,
	}
}

// receive is the driver receive callback.
func (b *bridge) receive(frame []byte) {
	var s slot
	if !s.set(frame) {
		b.stats.RxOversize.Inc()
		return
	}
	select {
	case b.rxQ <- s:
	default:
		b.stats.RxOverflow.Inc()
	}
}

// txReady is the driver transmit ready callback, the doorbell.
func (b *bridge) txReady() {
	select {
	case b.ready <- struct{}{}:
	default:
	}
}
