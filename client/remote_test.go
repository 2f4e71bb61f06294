package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/transport"
)

const waitFor = 5 * time.Second

// remote plays the game server: it accepts websocket connections and records
// what it is sent.
type remote struct {
	srv   *httptest.Server
	conns chan transport.Conn
	got   chan comms.Envelope
}

func newRemote(t *testing.T) *remote {
	r := &remote{
		conns: make(chan transport.Conn, 10),
		got:   make(chan comms.Envelope, 100),
	}
	r.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		c, err := websocket.Accept(w, req, nil)
		if err != nil {
			return
		}
		conn := transport.NewWS(c)
		r.conns <- conn
		for {
			env, err := conn.Receive(context.Background())
			if err != nil {
				conn.Close()
				return
			}
			r.got <- env
		}
	}))
	t.Cleanup(r.srv.Close)
	return r
}

func (r *remote) endpoint() string {
	return "ws" + strings.TrimPrefix(r.srv.URL, "http")
}

func (r *remote) accept(t *testing.T) transport.Conn {
	t.Helper()
	select {
	case c := <-r.conns:
		return c
	case <-time.After(waitFor):
		t.Fatalf("no connection")
		return nil
	}
}

// expect reads what the remote was sent until it sees event.
func (r *remote) expect(t *testing.T, event string) comms.Envelope {
	t.Helper()
	timeout := time.After(waitFor)
	for {
		select {
		case env := <-r.got:
			if env.Event == event {
				return env
			}
		case <-timeout:
			t.Fatalf("remote never got %s", event)
			return comms.Envelope{}
		}
	}
}

func push(t *testing.T, conn transport.Conn, env comms.Envelope) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	if err := conn.Send(ctx, env); err != nil {
		t.Fatalf("push %s: %v", env.Event, err)
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
