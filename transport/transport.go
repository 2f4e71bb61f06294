// Package transport opens the one channel a client has to the game server.
//
// Endpoints are URLs. ws:// and wss:// speak websocket text frames, each one
// an envelope. tcp:// speaks envelopes as JSON lines.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/undeconstructed/ladders/comms"
)

var ErrUnsupportedScheme = errors.New("transport: unsupported endpoint scheme")

// Conn is one open channel. Send is only called from one goroutine at a time,
// and so is Receive, but the two may run together. Close unblocks Receive.
type Conn interface {
	Send(ctx context.Context, env comms.Envelope) error
	// Receive returns a *comms.BadMessageError for a frame that could not be
	// read as an envelope; the Conn is still good after that. Any other error
	// means the Conn is finished.
	Receive(ctx context.Context) (comms.Envelope, error)
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Conn, error)
}

// DialFunc lets a plain func be a Dialer.
type DialFunc func(ctx context.Context, endpoint string) (Conn, error)

func (f DialFunc) Dial(ctx context.Context, endpoint string) (Conn, error) {
	return f(ctx, endpoint)
}

// Default picks the transport from the endpoint scheme.
var Default Dialer = DialFunc(Dial)

func Dial(ctx context.Context, endpoint string) (Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("transport: bad endpoint %q: %w", endpoint, err)
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
		return dialWS(ctx, endpoint)
	case "tcp":
		return dialTCP(ctx, u.Host)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
