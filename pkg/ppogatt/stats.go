package ppogatt

import (
	"sync/atomic"

	"github.com/fxamacker/cbor/v2"
)

// Counter is a monotonic counter safe for concurrent use.
type Counter struct {
	v uint64
}

// Inc increments the counter.
func (c *Counter) Inc() {
	atomic.AddUint64(&c.v, 1)
}

// Load reads the counter.
func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.v)
}

// Stats are the transport counters. They survive session resets.
type Stats struct {
	TxData        Counter
	TxRetransmit  Counter
	TxAck         Counter
	TxResetReq    Counter
	TxResetAck    Counter
	TxBusy        Counter
	TxErrors      Counter
	ReadyTimeouts Counter

	RxFrames    Counter
	RxDelivered Counter
	RxDuplicate Counter
	RxWithheld  Counter
	RxAck       Counter
	RxMalformed Counter
	RxUnknown   Counter
	RxOverflow  Counter
	RxOversize  Counter

	Sessions    Counter
	Resets      Counter
	Escalations Counter
	Failures    Counter
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	State   LinkState `cbor:"0,keyasint" json:"state"`
	Session uint64    `cbor:"1,keyasint" json:"session"`

	TxData        uint64 `cbor:"2,keyasint" json:"tx_data"`
	TxRetransmit  uint64 `cbor:"3,keyasint" json:"tx_retransmit"`
	TxAck         uint64 `cbor:"4,keyasint" json:"tx_ack"`
	TxResetReq    uint64 `cbor:"5,keyasint" json:"tx_reset_req"`
	TxResetAck    uint64 `cbor:"6,keyasint" json:"tx_reset_ack"`
	TxBusy        uint64 `cbor:"7,keyasint" json:"tx_busy"`
	TxErrors      uint64 `cbor:"8,keyasint" json:"tx_errors"`
	ReadyTimeouts uint64 `cbor:"9,keyasint" json:"ready_timeouts"`

	RxFrames    uint64 `cbor:"10,keyasint" json:"rx_frames"`
	RxDelivered uint64 `cbor:"11,keyasint" json:"rx_delivered"`
	RxDuplicate uint64 `cbor:"12,keyasint" json:"rx_duplicate"`
	RxWithheld  uint64 `cbor:"13,keyasint" json:"rx_withheld"`
	RxAck       uint64 `cbor:"14,keyasint" json:"rx_ack"`
	RxMalformed uint64 `cbor:"15,keyasint" json:"rx_malformed"`
	RxUnknown   uint64 `cbor:"16,keyasint" json:"rx_unknown"`
	RxOverflow  uint64 `cbor:"17,keyasint" json:"rx_overflow"`
	RxOversize  uint64 `cbor:"18,keyasint" json:"rx_oversize"`

	Resets      uint64 `cbor:"19,keyasint" json:"resets"`
	Escalations uint64 `cbor:"20,keyasint" json:"escalations"`
	Failures    uint64 `cbor:"21,keyasint" json:"failures"`
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Session:       s.Sessions.Load(),
		TxData:        s.TxData.Load(),
		TxRetransmit:  s.TxRetransmit.Load(),
		TxAck:         s.TxAck.Load(),
		TxResetReq:    s.TxResetReq.Load(),
		TxResetAck:    s.TxResetAck.Load(),
		TxBusy:        s.TxBusy.Load(),
		TxErrors:      s.TxErrors.Load(),
		ReadyTimeouts: s.ReadyTimeouts.Load(),
		RxFrames:      s.RxFrames.Load(),
		RxDelivered:   s.RxDelivered.Load(),
		RxDuplicate:   s.RxDuplicate.Load(),
		RxWithheld:    s.RxWithheld.Load(),
		RxAck:         s.RxAck.Load(),
		RxMalformed:   s.RxMalformed.Load(),
		RxUnknown:     s.RxUnknown.Load(),
		RxOverflow:    s.RxOverflow.Load(),
		RxOversize:    s.RxOversize.Load(),
		Resets:        s.Resets.Load(),
		Escalations:   s.Escalations.Load(),
		Failures:      s.Failures.Load(),
	}
}

// EncodeStats encodes a snapshot as a CBOR map with integer keys.
func EncodeStats(s StatsSnapshot) ([]byte, error) {
	return cbor.Marshal(&s)
}

// DecodeStats decodes a snapshot encoded by EncodeStats.
func DecodeStats(data []byte) (s StatsSnapshot, err error) {
	err = cbor.Unmarshal(data, &s)
	return
}
