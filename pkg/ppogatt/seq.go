package ppogatt

// Seq is the 5-bit frame sequence number.
type Seq byte

// SeqSpace is the number of distinct sequence numbers.
const SeqSpace = 32

const seqMask = SeqSpace - 1

// Next calculates the next sequence number.
func (s Seq) Next() Seq {
	return (s + 1) & seqMask
}

// IsValid checks if it's a valid sequence number.
func (s Seq) IsValid() bool {
	return s < SeqSpace
}

// Diff returns s - o in the 5-bit space, in range [-16, 15].
func (s Seq) Diff(o Seq) int {
	d := int((s - o) & seqMask)
	if d >= SeqSpace/2 {
		d -= SeqSpace
	}
	return d
}

// Covers reports whether a cumulative acknowledgement for s also
// acknowledges o, i.e. o is not newer than s.
func (s Seq) Covers(o Seq) bool {
	return s.Diff(o) >= 0
}
