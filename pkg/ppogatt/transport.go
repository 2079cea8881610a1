package ppogatt

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	fx "github.com/robotalks/ppogatt/pkg/framework"
)

// Driver is the BLE peripheral driver below PPoGATT.
type Driver interface {
	// Transmit makes one fire-and-forget attempt to send a frame. It must
	// not block and must copy the frame before returning. ErrBusy means
	// the channel can't take the frame now, the ready callback fires once
	// it can.
	Transmit(frame []byte) error
	// SetReceiveCallback installs the callback invoked for every inbound
	// frame. The callback never blocks.
	SetReceiveCallback(func(frame []byte))
	// SetTransmitReadyCallback installs the callback invoked when a busy
	// channel becomes sendable again. The callback never blocks.
	SetTransmitReadyCallback(func())
}

// PayloadHandler is called once per in-order payload. Calls are never
// concurrent. The payload is only valid during the call, and ctx is
// canceled when the session is reset.
type PayloadHandler interface {
	HandlePayload(ctx context.Context, payload []byte)
}

// HandlePayloadFunc is func type of PayloadHandler.
type HandlePayloadFunc func(context.Context, []byte)

// HandlePayload implements PayloadHandler.
func (f HandlePayloadFunc) HandlePayload(ctx context.Context, payload []byte) {
	f(ctx, payload)
}

// StateNotifier is called when the link state changed.
type StateNotifier interface {
	StateChanged(context.Context, LinkState)
}

// StateChangedFunc is func type of StateNotifier.
type StateChangedFunc func(context.Context, LinkState)

// StateChanged implements StateNotifier.
func (f StateChangedFunc) StateChanged(ctx context.Context, state LinkState) {
	f(ctx, state)
}

// FailureHandler is called on connection level failures: ErrRetransmitLimit
// before the session is re-initialized, ErrResetTimeout when the link gives up.
type FailureHandler interface {
	LinkFailed(context.Context, error)
}

// LinkFailedFunc is func type of FailureHandler.
type LinkFailedFunc func(context.Context, error)

// LinkFailed implements FailureHandler.
func (f LinkFailedFunc) LinkFailed(ctx context.Context, err error) {
	f(ctx, err)
}

// Defaults.
const (
	DefaultWindow            = 1
	DefaultQueueDepth        = 4
	DefaultRetransmitTimeout = time.Second
	DefaultMaxRetransmits    = 6
	DefaultReadyTimeout      = 250 * time.Millisecond
	DefaultResetTimeout      = time.Second
	DefaultMaxResetAttempts  = 5
)

// Transport is a PPoGATT endpoint over a Driver.
// Fields must be set before the first Init.
type Transport struct {
	Driver   Driver
	Handler  PayloadHandler
	Notifier StateNotifier
	Failures FailureHandler

	Window            int
	QueueDepth        int
	RetransmitTimeout time.Duration
	MaxRetransmits    int
	ReadyTimeout      time.Duration
	ResetTimeout      time.Duration
	MaxResetAttempts  int
	Clock             clock.Clock

	stats Stats
	state int32

	initLock sync.Mutex
	lock     sync.Mutex
	sess     *session
}

// NewTransport creates a Transport with default settings.
func NewTransport(d Driver) *Transport {
	return &Transport{
		Driver:            d,
		Window:            DefaultWindow,
		QueueDepth:        DefaultQueueDepth,
		RetransmitTimeout: DefaultRetransmitTimeout,
		MaxRetransmits:    DefaultMaxRetransmits,
		ReadyTimeout:      DefaultReadyTimeout,
		ResetTimeout:      DefaultResetTimeout,
		MaxResetAttempts:  DefaultMaxResetAttempts,
		Clock:             clock.New(),
	}
}

// Init (re)establishes the session. Any existing session is torn down
// first: workers are stopped, queued and outstanding frames and timers are
// dropped. Then a new session starts with a reset handshake. It's called at
// startup and every time the underlying connection resets, and must not be
// called from the PayloadHandler.
func (t *Transport) Init() {
	t.initLock.Lock()
	defer t.initLock.Unlock()
	t.restart()
}

// Close stops the session.
func (t *Transport) Close() error {
	t.initLock.Lock()
	defer t.initLock.Unlock()
	t.lock.Lock()
	old := t.sess
	t.sess = nil
	t.lock.Unlock()
	if old == nil {
		return nil
	}
	t.Driver.SetReceiveCallback(func([]byte) {})
	t.Driver.SetTransmitReadyCallback(func() {})
	old.stop()
	t.setState(context.Background(), LinkDisconnected)
	return nil
}

// Submit queues a payload for sending. It blocks while the outbound queue
// is full.
func (t *Transport) Submit(ctx context.Context, payload []byte) error {
	var s slot
	if len(payload) > MaxPayload {
		return &FrameError{Err: ErrOversizeFrame, Len: len(payload) + 1}
	}
	s.set(payload)
	t.lock.Lock()
	sess := t.sess
	t.lock.Unlock()
	if sess == nil {
		return ErrNotInitialized
	}
	select {
	case sess.outQ <- s:
		return nil
	case <-sess.ctx.Done():
		return ErrSessionReset
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State gets the link state.
func (t *Transport) State() LinkState {
	return LinkState(atomic.LoadInt32(&t.state))
}

// Stats returns a snapshot of the counters.
func (t *Transport) Stats() StatsSnapshot {
	s := t.stats.Snapshot()
	s.State = t.State()
	return s
}

func (t *Transport) restart() {
	sess := newSession(t)
	t.Driver.SetReceiveCallback(sess.bridge.receive)
	t.Driver.SetTransmitReadyCallback(sess.bridge.txReady)
	t.lock.Lock()
	old := t.sess
	t.sess = sess
	t.lock.Unlock()
	if old != nil {
		old.stop()
	}
	t.stats.Sessions.Inc()
	glog.V(1).Infof("ppogatt: session %d started", t.stats.Sessions.Load())
	sess.start()
}

// reinit restarts the session if sess is still the current one.
func (t *Transport) reinit(sess *session) {
	t.initLock.Lock()
	defer t.initLock.Unlock()
	t.lock.Lock()
	current := t.sess == sess
	t.lock.Unlock()
	if current {
		t.restart()
	}
}

func (t *Transport) setState(ctx context.Context, state LinkState) {
	if LinkState(atomic.SwapInt32(&t.state, int32(state))) == state {
		return
	}
	glog.Infof("ppogatt: link %s", state)
	if n := t.Notifier; n != nil {
		n.StateChanged(ctx, state)
	}
}

func (t *Transport) reportFailure(ctx context.Context, err error) {
	t.stats.Failures.Inc()
	if h := t.Failures; h != nil {
		h.LinkFailed(ctx, err)
	}
}

// session is the owned context of one PPoGATT session. It's never reused:
// Init builds a new one and discards the old one wholesale.
type session struct {
	t      *Transport
	ctx    context.Context
	runner *fx.Runner
	bridge *bridge
	outQ   chan slot
	ctrlCh chan control
	opts   sessionOptions
}

type sessionOptions struct {
	window            int
	retransmitTimeout time.Duration
	maxRetransmits    int
	readyTimeout      time.Duration
	resetTimeout      time.Duration
	maxResetAttempts  int
	clock             clock.Clock
}

func newSession(t *Transport) *session {
	opts := sessionOptions{
		window:            t.Window,
		retransmitTimeout: t.RetransmitTimeout,
		maxRetransmits:    t.MaxRetransmits,
		readyTimeout:      t.ReadyTimeout,
		resetTimeout:      t.ResetTimeout,
		maxResetAttempts:  t.MaxResetAttempts,
		clock:             t.Clock,
	}
	if opts.window < 1 {
		opts.window = DefaultWindow
	} else if opts.window > MaxWindow {
		opts.window = MaxWindow
	}
	if opts.retransmitTimeout <= 0 {
		opts.retransmitTimeout = DefaultRetransmitTimeout
	}
	if opts.readyTimeout <= 0 {
		opts.readyTimeout = DefaultReadyTimeout
	}
	if opts.resetTimeout <= 0 {
		opts.resetTimeout = DefaultResetTimeout
	}
	if opts.maxResetAttempts < 1 {
		opts.maxResetAttempts = 1
	}
	if opts.clock == nil {
		opts.clock = clock.New()
	}
	depth := t.QueueDepth
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	s := &session{
		t:      t,
		runner: fx.NewRunner(),
		bridge: newBridge(depth, &t.stats),
		outQ:   make(chan slot, depth),
		ctrlCh: make(chan control, depth*2),
		opts:   opts,
	}
	s.ctx = s.runner.Context
	return s
}

func (s *session) start() {
	s.runner.Go(
		fx.NamedRun("ppogatt-rx", &receiver{sess: s}),
		fx.NamedRun("ppogatt-tx", newTransmitter(s)),
	)
}

func (s *session) stop() {
	s.runner.Stop()
	if err := s.runner.Wait(); err != nil {
		glog.Warningf("ppogatt: session stopped: %v", err)
	}
}

// post sends a control message from the receive worker to the transmit worker.
func (s *session) post(ctx context.Context, c control) error {
	select {
	case s.ctrlCh <- c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type controlKind int

const (
	ctlAck       controlKind = iota // frame seq delivered, ACK it
	ctlReAck                        // duplicate received, ACK seq again
	ctlRetire                       // peer acknowledged up to seq
	ctlPeerReset                    // peer sent RESET_REQ
	ctlResetAck                     // peer sent RESET_ACK
)

type control struct {
	kind controlKind
	seq  Seq
}
