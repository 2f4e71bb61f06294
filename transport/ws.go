package transport

import (
	"context"
	"fmt"

	"github.com/undeconstructed/ladders/comms"
	"nhooyr.io/websocket"
)

const readLimit = 1 << 20

type wsConn struct {
	c *websocket.Conn
}

func dialWS(ctx context.Context, endpoint string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.SetReadLimit(readLimit)
	return &wsConn{c: c}, nil
}

// NewWS wraps an already open websocket, e.g. one from websocket.Accept.
func NewWS(c *websocket.Conn) Conn {
	c.SetReadLimit(readLimit)
	return &wsConn{c: c}
}

func (w *wsConn) Send(ctx context.Context, env comms.Envelope) error {
	msg, err := comms.Marshal(env)
	if err != nil {
		return err
	}
	return w.c.Write(ctx, websocket.MessageText, msg)
}

func (w *wsConn) Receive(ctx context.Context) (comms.Envelope, error) {
	typ, data, err := w.c.Read(ctx)
	if err != nil {
		return comms.Envelope{}, err
	}
	if typ != websocket.MessageText {
		// text type means fully encapsulated in JSON
		return comms.Envelope{}, &comms.BadMessageError{Err: fmt.Errorf("server sent a %v", typ)}
	}
	return comms.Unmarshal(data)
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "")
}
