package gateway

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"

	"github.com/undeconstructed/ladders/client"
	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/transport"
)

// events on the /ws feed
const (
	EvState    = "state"
	EvLogEntry = "log_entry"
	EvLinks    = "links"
)

// serveWS feeds a viewer the state, the links and every new log entry, as
// envelopes. Anything the viewer sends is ignored.
func (g *Gateway) serveWS(c *gin.Context) {
	log := g.log.With().Str("viewer", c.Request.RemoteAddr).Logger()

	// with no OriginPatterns, only pages served from this host get in
	socket, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		log.Info().Err(err).Msg("websocket accept error")
		return
	}
	conn := transport.NewWS(socket)
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	downCh := make(chan comms.Envelope, 100)
	offer := func(event string, data interface{}) {
		env, err := comms.Encode(event, data)
		if err != nil {
			log.Error().Err(err).Str("event", event).Msg("encode error")
			return
		}
		select {
		case downCh <- env:
		default:
			log.Warn().Str("event", event).Msg("viewer too slow, dropping")
		}
	}

	defer g.s.Store().Subscribe(func(s game.GameState) { offer(EvState, s) })()
	defer g.s.Events().Subscribe(func(e eventlog.Entry) { offer(EvLogEntry, e) })()
	defer g.s.Links().Subscribe(func(st client.ConnectionStatus) { offer(EvLinks, st) })()

	offer(EvState, g.s.State())
	offer(EvLinks, g.s.Links().Get())

	go func() {
		// only to notice the viewer going away
		defer cancel()
		for {
			_, err := conn.Receive(ctx)
			var bad *comms.BadMessageError
			if errors.As(err, &bad) {
				continue
			}
			if err != nil {
				return
			}
		}
	}()

	log.Info().Msg("viewer connected")
	for {
		select {
		case env := <-downCh:
			if err := conn.Send(ctx, env); err != nil {
				log.Info().Err(err).Msg("send error")
				return
			}
		case <-ctx.Done():
			log.Info().Msg("viewer gone")
			return
		}
	}
}
