package ppogatt

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"
)

var errEscalated = errors.New("session escalated")

// transmitter is the transmit worker. It owns the outstanding table, the
// retransmit timer, the local sequence counter and the link state machine.
type transmitter struct {
	sess  *session
	opts  *sessionOptions
	stats *Stats

	link    linkMachine
	table   outstandingTable
	nextSeq Seq

	// ackNeeded counts frames delivered in this session, ackSent the ones
	// acknowledged so far. Every delivered frame gets its own ACK.
	ackNeeded int
	ackSent   int
	reAck     bool
	reAckSeq  Seq

	timer  *clock.Timer
	timerC <-chan time.Time
	buf    [MTU]byte
}

func newTransmitter(s *session) *transmitter {
	return &transmitter{
		sess:  s,
		opts:  &s.opts,
		stats: &s.t.stats,
		link:  linkMachine{maxAttempts: s.opts.maxResetAttempts},
	}
}

// Run implements Runnable.
func (x *transmitter) Run(ctx context.Context) error {
	defer x.stopTimer()
	err := x.startReset(ctx)
	for err == nil {
		if err = x.drainControl(ctx); err != nil {
			break
		}
		if x.ackSent != x.ackNeeded || x.reAck {
			err = x.sendAck(ctx)
			continue
		}
		var outQ <-chan slot
		if x.link.state == LinkEstablished && x.table.Len() < x.opts.window {
			outQ = x.sess.outQ
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-x.sess.ctrlCh:
			err = x.handleControl(ctx, c)
		case s := <-outQ:
			err = x.sendData(ctx, &s)
		case <-x.timerC:
			x.timerC = nil
			err = x.onTimer(ctx)
		}
	}
	if err == errEscalated {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// drainControl applies queued control messages before anything is sent,
// so a pending ACK always goes out ahead of the next DATA frame.
func (x *transmitter) drainControl(ctx context.Context) error {
	for {
		select {
		case c := <-x.sess.ctrlCh:
			if err := x.handleControl(ctx, c); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (x *transmitter) handleControl(ctx context.Context, c control) error {
	switch c.kind {
	case ctlAck:
		x.ackNeeded++
	case ctlReAck:
		x.reAck, x.reAckSeq = true, c.seq
	case ctlRetire:
		if x.link.state != LinkEstablished {
			return nil
		}
		if n := x.table.Retire(c.seq); n == 0 {
			glog.V(2).Infof("ppogatt: ignored ACK(%d)", c.seq)
			return nil
		}
		// the new oldest frame may have expired while waiting behind
		// the retired ones.
		return x.retransmitOldest(ctx)
	case ctlPeerReset:
		x.clear()
		x.link.peerReset()
		x.stats.Resets.Inc()
		x.sess.t.setState(ctx, LinkEstablished)
		if err := x.transmit(ctx, CmdResetAck, 0, nil); err != nil {
			return err
		}
		x.stats.TxResetAck.Inc()
	case ctlResetAck:
		if !x.link.resetAcked() {
			glog.V(2).Info("ppogatt: ignored unsolicited RESET_ACK")
			return nil
		}
		x.stopTimer()
		x.stats.Resets.Inc()
		x.sess.t.setState(ctx, LinkEstablished)
	}
	return nil
}

// startReset begins the reset handshake of a new session.
func (x *transmitter) startReset(ctx context.Context) error {
	x.clear()
	x.link.start()
	x.sess.t.setState(ctx, LinkAwaitingResetAck)
	return x.sendResetReq(ctx)
}

func (x *transmitter) sendResetReq(ctx context.Context) error {
	x.armTimer(x.opts.resetTimeout)
	if err := x.transmit(ctx, CmdResetReq, 0, nil); err != nil {
		return err
	}
	x.stats.TxResetReq.Inc()
	return nil
}

func (x *transmitter) sendAck(ctx context.Context) error {
	seq := x.reAckSeq
	if x.ackSent != x.ackNeeded {
		seq = Seq(x.ackSent & seqMask)
		x.ackSent++
	}
	// a pending ACK for a newer frame covers the re-ACK.
	x.reAck = false
	if err := x.transmit(ctx, CmdAck, seq, nil); err != nil {
		return err
	}
	x.stats.TxAck.Inc()
	return nil
}

func (x *transmitter) sendData(ctx context.Context, s *slot) error {
	seq := x.nextSeq
	x.nextSeq = seq.Next()
	f := x.table.Push(seq, s, x.opts.clock.Now(), x.opts.retransmitTimeout)
	if x.table.Len() == 1 {
		x.armRetransmit()
	}
	if err := x.transmit(ctx, CmdData, seq, f.Payload()); err != nil {
		return err
	}
	x.stats.TxData.Inc()
	return nil
}

func (x *transmitter) onTimer(ctx context.Context) error {
	switch x.link.state {
	case LinkAwaitingResetAck:
		if err := x.link.retry(); err != nil {
			glog.Errorf("ppogatt: peer did not acknowledge reset after %d attempts", x.opts.maxResetAttempts)
			x.sess.t.setState(ctx, LinkDisconnected)
			x.sess.t.reportFailure(ctx, err)
			return nil
		}
		glog.V(1).Info("ppogatt: resending RESET_REQ")
		return x.sendResetReq(ctx)
	case LinkEstablished:
		return x.retransmitOldest(ctx)
	}
	return nil
}

// retransmitOldest resends the oldest outstanding frame if its deadline
// passed. Frames behind it are discarded by the peer until the gap is
// filled, so they only time out once they become the oldest.
func (x *transmitter) retransmitOldest(ctx context.Context) error {
	now := x.opts.clock.Now()
	f := x.table.Oldest()
	if f == nil || f.Deadline.After(now) {
		x.armRetransmit()
		return nil
	}
	if f.Retransmits >= x.opts.maxRetransmits {
		return x.escalate(ctx, f)
	}
	f.Retransmits++
	f.Deadline = now.Add(x.opts.retransmitTimeout)
	x.armRetransmit()
	glog.V(1).Infof("ppogatt: retransmitting DATA(%d), attempt %d", f.Seq, f.Retransmits)
	if err := x.transmit(ctx, CmdData, f.Seq, f.Payload()); err != nil {
		return err
	}
	x.stats.TxRetransmit.Inc()
	return nil
}

// escalate hands a frame the peer never acknowledged over to the link
// state machine: the session is re-initialized, starting a new handshake.
func (x *transmitter) escalate(ctx context.Context, f *OutstandingFrame) error {
	glog.Warningf("ppogatt: DATA(%d) not acknowledged after %d retransmits, resetting session", f.Seq, f.Retransmits)
	x.stopTimer()
	x.stats.Escalations.Inc()
	x.sess.t.reportFailure(ctx, ErrRetransmitLimit)
	go x.sess.t.reinit(x.sess)
	return errEscalated
}

// transmit hands one frame to the driver, waiting for the ready doorbell
// while the channel is busy. A lost doorbell is only a driver anomaly,
// transmission keeps being retried.
func (x *transmitter) transmit(ctx context.Context, cmd Command, seq Seq, payload []byte) error {
	frame, err := AppendFrame(x.buf[:0], cmd, seq, payload)
	if err != nil {
		return err
	}
	if glog.V(2) {
		glog.Infof("ppogatt: TX %s", Frame{Cmd: cmd, Seq: seq, Payload: payload})
	}
	for {
		err = x.sess.t.Driver.Transmit(frame)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrBusy) {
			// handled as a lost frame, the retransmit timer recovers it.
			x.stats.TxErrors.Inc()
			glog.Warningf("ppogatt: transmit %s(%d): %v", cmd, seq, err)
			return nil
		}
		x.stats.TxBusy.Inc()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-x.sess.bridge.ready:
		case <-x.opts.clock.After(x.opts.readyTimeout):
			x.stats.ReadyTimeouts.Inc()
			glog.Warning("ppogatt: driver did not signal transmit ready")
		}
	}
}

// clear drops all sequence state of this direction.
func (x *transmitter) clear() {
	x.stopTimer()
	x.table.Clear()
	x.nextSeq = 0
	x.ackNeeded, x.ackSent = 0, 0
	x.reAck = false
}

// armRetransmit arms the timer for the deadline of the oldest frame.
func (x *transmitter) armRetransmit() {
	deadline, ok := x.table.NextDeadline()
	if !ok {
		x.stopTimer()
		return
	}
	d := deadline.Sub(x.opts.clock.Now())
	if d < 0 {
		d = 0
	}
	x.armTimer(d)
}

func (x *transmitter) armTimer(d time.Duration) {
	x.stopTimer()
	x.timer = x.opts.clock.Timer(d)
	x.timerC = x.timer.C
}

func (x *transmitter) stopTimer() {
	if x.timer != nil {
		x.timer.Stop()
		x.timer, x.timerC = nil, nil
	}
}
