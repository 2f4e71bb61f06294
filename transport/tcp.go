package transport

import (
	"context"
	"net"
	"time"

	"github.com/undeconstructed/ladders/comms"
)

const dialTimeout = 10 * time.Second

type tcpConn struct {
	conn net.Conn
	up   *comms.Encoder
	down *comms.Decoder
}

func dialTCP(ctx context.Context, addr string) (Conn, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewTCP(conn), nil
}

// NewTCP wraps an open stream.
func NewTCP(conn net.Conn) Conn {
	return &tcpConn{
		conn: conn,
		up:   comms.NewEncoder(conn),
		down: comms.NewDecoder(conn),
	}
}

func (t *tcpConn) Send(ctx context.Context, env comms.Envelope) error {
	deadline := time.Time{}
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return t.up.Send(env)
}

// Receive blocks until a line arrives or the conn is closed; ctx is not
// watched.
func (t *tcpConn) Receive(ctx context.Context) (comms.Envelope, error) {
	return t.down.Decode()
}

func (t *tcpConn) Close() error {
	return t.conn.Close()
}
