package ppogatt

import (
	"context"

	"github.com/golang/glog"
)

// receiver is the receive worker. It owns the Sequencer.
type receiver struct {
	sess *session
	seq  Sequencer
}

// Run implements Runnable.
func (r *receiver) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-r.sess.bridge.rxQ:
			if err := r.handleFrame(ctx, s.bytes()); err != nil {
				return err
			}
		}
	}
}

func (r *receiver) handleFrame(ctx context.Context, b []byte) error {
	stats := &r.sess.t.stats
	f, err := Decode(b)
	if err != nil {
		stats.RxMalformed.Inc()
		glog.Warningf("ppogatt: dropped frame: %v", err)
		return nil
	}
	stats.RxFrames.Inc()
	glog.V(2).Infof("ppogatt: RX %s", f)

	switch f.Cmd {
	case CmdData:
		verdict := r.seq.Receive(f.Seq)
		switch verdict {
		case VerdictDeliver:
			stats.RxDelivered.Inc()
			if h := r.sess.t.Handler; h != nil {
				h.HandlePayload(ctx, f.Payload)
			}
		case VerdictDuplicate:
			stats.RxDuplicate.Inc()
		case VerdictWithhold:
			stats.RxWithheld.Inc()
			glog.V(2).Infof("ppogatt: withheld DATA(%d), expecting %d", f.Seq, r.seq.Cursor())
		}
		if seq, ok := r.seq.TakeAck(); ok {
			kind := ctlAck
			if verdict == VerdictDuplicate {
				kind = ctlReAck
			}
			return r.sess.post(ctx, control{kind: kind, seq: seq})
		}
	case CmdAck:
		stats.RxAck.Inc()
		return r.sess.post(ctx, control{kind: ctlRetire, seq: f.Seq})
	case CmdResetReq:
		r.seq.Reset()
		return r.sess.post(ctx, control{kind: ctlPeerReset})
	case CmdResetAck:
		return r.sess.post(ctx, control{kind: ctlResetAck})
	default:
		stats.RxUnknown.Inc()
		glog.V(1).Infof("ppogatt: dropped frame with unknown command %s", f.Cmd)
	}
	return nil
}
