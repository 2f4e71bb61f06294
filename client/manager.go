package client

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/metrics"
	"github.com/undeconstructed/ladders/transport"
)

// DefaultReconnectDelay is how long the manager waits after losing the
// channel before trying again.
const DefaultReconnectDelay = 3 * time.Second

const writeTimeout = 10 * time.Second

type Status int32

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transition is one change of Status. Err is set when the change was caused by
// a failure. Retry is set when a Connecting was started by the timer rather
// than by Connect.
type Transition struct {
	From  Status
	To    Status
	Err   error
	Retry bool
}

type ManagerConfig struct {
	Endpoint       string
	ReconnectDelay time.Duration
	Dialer         transport.Dialer
	// Greeting is sent first on every new connection, if set.
	Greeting *comms.Envelope

	// These are all called on the manager's goroutine, one at a time.
	OnEnvelope   func(comms.Envelope)
	OnBadMessage func(error)
	OnStatus     func(Transition)
	OnSendFailed func(comms.Envelope, error)

	// Log defaults to the global logger.
	Log *zerolog.Logger
}

// Manager owns the one transport connection. All of its state lives on the
// goroutine in Run; the exported methods only post messages to it and never
// block for long.
type Manager struct {
	cfg    ManagerConfig
	log    zerolog.Logger
	coreCh chan interface{}
	done   chan struct{}
	status int32

	// only touched by Run
	ctx        context.Context
	state      Status
	gen        int
	attemptCtx context.Context
	cancel     context.CancelFunc
	conn       transport.Conn
	retry      *time.Timer
	retrySeq   int
	closed     bool
}

type connectReq struct{}
type closeReq struct{}
type sendReq struct{ env comms.Envelope }

type doReq struct {
	fn   func()
	done chan struct{}
}

type dialResult struct {
	gen  int
	conn transport.Conn
	err  error
}

type inbound struct {
	gen int
	env comms.Envelope
}

type badInbound struct {
	gen int
	err error
}

type connLost struct {
	gen int
	err error
}

type retryFire struct{ seq int }

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Dialer == nil {
		cfg.Dialer = transport.Default
	}
	l := log.Logger
	if cfg.Log != nil {
		l = *cfg.Log
	}
	return &Manager{
		cfg:    cfg,
		log:    l.With().Str("endpoint", cfg.Endpoint).Logger(),
		coreCh: make(chan interface{}, 100),
		done:   make(chan struct{}),
	}
}

// Status is a snapshot; it may be stale by the time it is looked at.
func (m *Manager) Status() Status {
	return Status(atomic.LoadInt32(&m.status))
}

// Connect starts connecting, unless already connecting or connected.
func (m *Manager) Connect() { m.post(connectReq{}) }

// Close drops the connection and any pending reconnect. Nothing reconnects
// until the next Connect.
func (m *Manager) Close() { m.post(closeReq{}) }

// Send queues an envelope for the remote. If there is no connection when it is
// processed, or Run has already returned, OnSendFailed gets
// game.ErrNotConnected.
func (m *Manager) Send(env comms.Envelope) {
	if !m.post(sendReq{env}) {
		// Run is gone, so this is the only caller of the callbacks now
		m.failSend(env, game.ErrNotConnected, "not_connected")
	}
}

// Do runs fn on the manager's goroutine, between two inbound envelopes, and
// waits for it to finish. It returns false without running fn if Run has
// returned. It must not be called from one of the callbacks.
func (m *Manager) Do(fn func()) bool {
	done := make(chan struct{})
	if !m.post(doReq{fn: fn, done: done}) {
		return false
	}
	select {
	case <-done:
		return true
	case <-m.done:
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
}

func (m *Manager) post(msg interface{}) bool {
	select {
	case <-m.done:
		return false
	default:
	}
	select {
	case m.coreCh <- msg:
		return true
	case <-m.done:
		return false
	}
}

// Run is the manager's main loop. It returns when ctx is done, leaving the
// connection closed.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	m.ctx = ctx

	for {
		select {
		case <-ctx.Done():
			m.closed = true
			m.stopRetry()
			m.drop()
			m.setState(Disconnected, nil, false)
			return nil
		case msg := <-m.coreCh:
			m.process(msg)
		}
	}
}

func (m *Manager) process(msg interface{}) {
	switch msg := msg.(type) {
	case connectReq:
		if m.state != Disconnected {
			m.log.Debug().Str("state", m.state.String()).Msg("connect ignored")
			return
		}
		m.closed = false
		m.stopRetry()
		m.dial(false)

	case closeReq:
		m.closed = true
		m.stopRetry()
		if m.state != Disconnected {
			m.drop()
			m.setState(Disconnected, nil, false)
		}

	case sendReq:
		m.send(msg.env)

	case doReq:
		msg.fn()
		close(msg.done)

	case dialResult:
		if msg.gen != m.gen || m.state != Connecting {
			if msg.conn != nil {
				go msg.conn.Close()
			}
			return
		}
		if msg.err != nil {
			m.drop()
			m.setState(Disconnected, &TransportError{Op: "dial", Err: msg.err}, false)
			m.scheduleRetry()
			return
		}
		m.conn = msg.conn
		m.setState(Connected, nil, false)
		go m.readLoop(m.attemptCtx, msg.gen, msg.conn)
		if m.cfg.Greeting != nil {
			m.send(*m.cfg.Greeting)
		}

	case inbound:
		if msg.gen != m.gen || m.state != Connected {
			return
		}
		if m.cfg.OnEnvelope != nil {
			m.cfg.OnEnvelope(msg.env)
		}

	case badInbound:
		if msg.gen != m.gen {
			return
		}
		m.log.Warn().Err(msg.err).Msg("unreadable message")
		metrics.RecordReceived("", metrics.Rejected, false)
		if m.cfg.OnBadMessage != nil {
			m.cfg.OnBadMessage(msg.err)
		}

	case connLost:
		if msg.gen != m.gen || m.state != Connected {
			return
		}
		m.drop()
		m.setState(Disconnected, &TransportError{Op: "read", Err: msg.err}, false)
		m.scheduleRetry()

	case retryFire:
		if msg.seq != m.retrySeq || m.retry == nil {
			return
		}
		m.retry = nil
		if m.closed || m.state != Disconnected {
			return
		}
		m.dial(true)
	}
}

func (m *Manager) dial(retry bool) {
	m.gen++
	ctx, cancel := context.WithCancel(m.ctx)
	m.attemptCtx = ctx
	m.cancel = cancel
	m.setState(Connecting, nil, retry)

	gen := m.gen
	go func() {
		conn, err := m.cfg.Dialer.Dial(ctx, m.cfg.Endpoint)
		if !m.post(dialResult{gen: gen, conn: conn, err: err}) && conn != nil {
			conn.Close()
		}
	}()
}

func (m *Manager) readLoop(ctx context.Context, gen int, conn transport.Conn) {
	for {
		env, err := conn.Receive(ctx)
		var bad *comms.BadMessageError
		if errors.As(err, &bad) {
			m.post(badInbound{gen: gen, err: err})
			continue
		}
		if err != nil {
			m.post(connLost{gen: gen, err: err})
			return
		}
		if !m.post(inbound{gen: gen, env: env}) {
			return
		}
	}
}

func (m *Manager) send(env comms.Envelope) {
	if m.state != Connected {
		m.failSend(env, game.ErrNotConnected, "not_connected")
		return
	}

	ctx, cancel := context.WithTimeout(m.attemptCtx, writeTimeout)
	err := m.conn.Send(ctx, env)
	cancel()
	if err != nil {
		terr := &TransportError{Op: "send", Err: err}
		m.failSend(env, terr, "transport")
		m.drop()
		m.setState(Disconnected, terr, false)
		m.scheduleRetry()
		return
	}
	metrics.RecordSent(env.Event)
	m.log.Debug().Str("event", env.Event).Msg("sent")
}

func (m *Manager) failSend(env comms.Envelope, err error, reason string) {
	m.log.Warn().Err(err).Str("event", env.Event).Msg("send failed")
	metrics.RecordSendFailure(env.Event, reason)
	if m.cfg.OnSendFailed != nil {
		m.cfg.OnSendFailed(env, err)
	}
}

// drop forgets the current attempt. Anything still in flight for it is
// ignored when it arrives. The close handshake runs off the core goroutine,
// since a stalled peer can hold it up for seconds.
func (m *Manager) drop() {
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	if m.conn != nil {
		go m.conn.Close()
		m.conn = nil
	}
}

func (m *Manager) scheduleRetry() {
	if m.closed {
		return
	}
	m.stopRetry()
	m.retrySeq++
	seq := m.retrySeq
	m.retry = time.AfterFunc(m.cfg.ReconnectDelay, func() {
		m.post(retryFire{seq: seq})
	})
	m.log.Info().Dur("delay", m.cfg.ReconnectDelay).Msg("reconnect scheduled")
}

func (m *Manager) stopRetry() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
}

func (m *Manager) setState(s Status, err error, retry bool) {
	if s == m.state {
		return
	}
	tr := Transition{From: m.state, To: s, Err: err, Retry: retry}
	m.state = s
	atomic.StoreInt32(&m.status, int32(s))

	ev := m.log.Info()
	if err != nil {
		ev = m.log.Warn().Err(err)
	}
	ev.Str("from", tr.From.String()).Str("to", s.String()).Msg("connection state")
	metrics.RecordTransition(s.String(), s == Connected)

	if m.cfg.OnStatus != nil {
		m.cfg.OnStatus(tr)
	}
}
