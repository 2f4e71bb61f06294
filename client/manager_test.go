package client

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/transport"
)

type watcher struct {
	trs    chan Transition
	envs   chan comms.Envelope
	failed chan error
}

func newWatcher() *watcher {
	return &watcher{
		trs:    make(chan Transition, 100),
		envs:   make(chan comms.Envelope, 100),
		failed: make(chan error, 100),
	}
}

func (w *watcher) config(endpoint string, dialer transport.Dialer) ManagerConfig {
	nop := zerolog.Nop()
	return ManagerConfig{
		Endpoint:       endpoint,
		ReconnectDelay: 20 * time.Millisecond,
		Dialer:         dialer,
		OnEnvelope:     func(env comms.Envelope) { offer(w.envs, env) },
		OnStatus:       func(tr Transition) { offer(w.trs, tr) },
		OnSendFailed:   func(_ comms.Envelope, err error) { offer(w.failed, err) },
		Log:            &nop,
	}
}

// offer never blocks the manager, even if a test stops listening.
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// next reads the next transition and checks it is a legal one.
func (w *watcher) next(t *testing.T, want Status) Transition {
	t.Helper()
	select {
	case tr := <-w.trs:
		if tr.To != want {
			t.Fatalf("expected %s, got %s -> %s", want, tr.From, tr.To)
		}
		if tr.From == tr.To {
			t.Fatalf("non-transition %s", tr.To)
		}
		if tr.To == Connecting && tr.From != Disconnected {
			t.Fatalf("connecting from %s", tr.From)
		}
		return tr
	case <-time.After(waitFor):
		t.Fatalf("no transition to %s", want)
		return Transition{}
	}
}

func run(t *testing.T, m *Manager) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestManager_connectAndReconnect(t *testing.T) {
	r := newRemote(t)
	w := newWatcher()
	cfg := w.config(r.endpoint(), nil)
	greeting := comms.GetStateCommand()
	cfg.Greeting = &greeting
	m := NewManager(cfg)
	run(t, m)

	m.Connect()
	m.Connect()
	w.next(t, Connecting)
	w.next(t, Connected)
	if m.Status() != Connected {
		t.Errorf("status %s", m.Status())
	}

	conn := r.accept(t)
	r.expect(t, comms.CmdGetState)

	push(t, conn, raw(comms.EvPeripheralConnected, `{}`))
	select {
	case env := <-w.envs:
		if env.Event != comms.EvPeripheralConnected {
			t.Errorf("got %s", env.Event)
		}
	case <-time.After(waitFor):
		t.Fatalf("nothing received")
	}

	// the server goes away; the manager comes back on its own
	conn.Close()
	tr := w.next(t, Disconnected)
	var terr *TransportError
	if !errors.As(tr.Err, &terr) {
		t.Errorf("expected transport error, got %v", tr.Err)
	}
	if tr = w.next(t, Connecting); !tr.Retry {
		t.Errorf("reconnect not marked as retry")
	}
	w.next(t, Connected)
	r.accept(t)
	r.expect(t, comms.CmdGetState)
}

func TestManager_sendWhileDisconnected(t *testing.T) {
	w := newWatcher()
	m := NewManager(w.config("ws://127.0.0.1:1", nil))
	run(t, m)

	env, _ := comms.DiceRolledCommand(1, 3)
	m.Send(env)

	select {
	case err := <-w.failed:
		if !errors.Is(err, game.ErrNotConnected) {
			t.Errorf("expected not connected, got %v", err)
		}
	case <-time.After(waitFor):
		t.Fatalf("no send failure")
	}
	if len(w.trs) != 0 {
		t.Errorf("send changed status")
	}
}

func TestManager_closeCancelsReconnect(t *testing.T) {
	var attempts int32
	refuse := transport.DialFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
		atomic.AddInt32(&attempts, 1)
		return nil, errors.New("connection refused")
	})
	w := newWatcher()
	m := NewManager(w.config("ws://nowhere", refuse))
	run(t, m)

	m.Connect()
	w.next(t, Connecting)
	tr := w.next(t, Disconnected)
	var terr *TransportError
	if !errors.As(tr.Err, &terr) || terr.Op != "dial" {
		t.Errorf("expected dial error, got %v", tr.Err)
	}

	m.Close()
	// anything queued behind Close runs after it
	m.Send(comms.GetStateCommand())
	<-w.failed
	for len(w.trs) > 0 {
		<-w.trs
	}

	time.Sleep(150 * time.Millisecond)
	select {
	case tr := <-w.trs:
		t.Fatalf("transition after close: %s -> %s", tr.From, tr.To)
	default:
	}
	if m.Status() != Disconnected {
		t.Errorf("status %s", m.Status())
	}

	// only an explicit connect starts again
	before := atomic.LoadInt32(&attempts)
	m.Connect()
	w.next(t, Connecting)
	eventually(t, "another dial", func() bool { return atomic.LoadInt32(&attempts) > before })
}

func TestManager_staleAttemptIgnored(t *testing.T) {
	hang := transport.DialFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	w := newWatcher()
	m := NewManager(w.config("ws://nowhere", hang))
	run(t, m)

	m.Connect()
	w.next(t, Connecting)
	m.Close()
	tr := w.next(t, Disconnected)
	if tr.Err != nil {
		t.Errorf("close reported error %v", tr.Err)
	}
	m.Connect()
	w.next(t, Connecting)

	// the first attempt's failure arrives late and must not end the second
	time.Sleep(100 * time.Millisecond)
	if m.Status() != Connecting {
		t.Errorf("status %s", m.Status())
	}
	if len(w.trs) != 0 {
		t.Errorf("unexpected transition")
	}
}

func TestManager_sendAfterRun(t *testing.T) {
	w := newWatcher()
	m := NewManager(w.config("ws://127.0.0.1:1", nil))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	<-done

	m.Send(comms.GetStateCommand())
	select {
	case err := <-w.failed:
		if !errors.Is(err, game.ErrNotConnected) {
			t.Errorf("expected not connected, got %v", err)
		}
	default:
		t.Errorf("send after run was dropped silently")
	}

	ran := false
	if m.Do(func() { ran = true }) || ran {
		t.Errorf("do ran after run returned")
	}
}

func TestManager_do(t *testing.T) {
	w := newWatcher()
	m := NewManager(w.config("ws://127.0.0.1:1", nil))
	run(t, m)

	n := 0
	for i := 0; i < 3; i++ {
		if !m.Do(func() { n++ }) {
			t.Fatalf("do refused")
		}
	}
	if n != 3 {
		t.Errorf("ran %d times", n)
	}
}

// stallConn never finishes closing until released.
type stallConn struct {
	release chan struct{}
}

func (s *stallConn) Send(ctx context.Context, env comms.Envelope) error { return nil }

func (s *stallConn) Receive(ctx context.Context) (comms.Envelope, error) {
	<-ctx.Done()
	return comms.Envelope{}, ctx.Err()
}

func (s *stallConn) Close() error {
	<-s.release
	return nil
}

func TestManager_slowCloseDoesNotStall(t *testing.T) {
	sc := &stallConn{release: make(chan struct{})}
	t.Cleanup(func() { close(sc.release) })
	dialer := transport.DialFunc(func(ctx context.Context, endpoint string) (transport.Conn, error) {
		return sc, nil
	})
	w := newWatcher()
	m := NewManager(w.config("ws://stalled", dialer))
	run(t, m)

	m.Connect()
	w.next(t, Connecting)
	w.next(t, Connected)

	m.Close()
	w.next(t, Disconnected)

	// the old connection is still closing; the manager carries on regardless
	m.Connect()
	w.next(t, Connecting)
	w.next(t, Connected)
}
