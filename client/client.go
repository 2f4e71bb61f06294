// Package client is one game session: the connection to the server, the
// game state it keeps in sync, the event log, and the commands a player can
// send.
package client

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/undeconstructed/ladders/board"
	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/transport"
)

type Config struct {
	Endpoint       string
	ReconnectDelay time.Duration
	BoardSize      int
	// Shortcuts is the snakes and ladders table; nil means the default board.
	Shortcuts map[int]int
	Dialer    transport.Dialer
	Log       *zerolog.Logger
}

// Client is everything a presentation layer needs. Build it with New, start it
// with Run, and stop it by cancelling the context given to Run.
type Client struct {
	endpoint string
	log      zerolog.Logger
	topology *board.Topology
	store    *game.Store
	events   *eventlog.Log
	links    *Links
	disp     *Dispatcher
	conn     *Manager
}

// New builds a session. A bad board is the only error.
func New(cfg Config) (*Client, error) {
	l := log.Logger
	if cfg.Log != nil {
		l = *cfg.Log
	}

	size := cfg.BoardSize
	if size == 0 {
		size = game.DefaultBoardSize
	}
	shortcuts := cfg.Shortcuts
	if shortcuts == nil {
		shortcuts = board.DefaultShortcuts()
	}
	topo, err := board.New(size, shortcuts)
	if err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: cfg.Endpoint,
		log:      l.With().Str("component", "client").Logger(),
		topology: topo,
		store:    game.NewStore(),
		events:   eventlog.New(l.With().Str("component", "eventlog").Logger()),
		links:    NewLinks(),
	}
	c.disp = NewDispatcher(c.store, c.events, c.links, l.With().Str("component", "dispatch").Logger())

	greeting := comms.GetStateCommand()
	ml := l.With().Str("component", "conn").Logger()
	c.conn = NewManager(ManagerConfig{
		Endpoint:       cfg.Endpoint,
		ReconnectDelay: cfg.ReconnectDelay,
		Dialer:         cfg.Dialer,
		Greeting:       &greeting,
		OnEnvelope:     c.disp.Dispatch,
		OnBadMessage:   c.onBadMessage,
		OnStatus:       c.onStatus,
		OnSendFailed:   c.onSendFailed,
		Log:            &ml,
	})

	return c, nil
}

// Run drives the connection until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	return c.conn.Run(ctx)
}

func (c *Client) Connect() { c.conn.Connect() }

func (c *Client) Close() { c.conn.Close() }

func (c *Client) Status() Status { return c.conn.Status() }

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Board() *board.Topology { return c.topology }

func (c *Client) Store() *game.Store { return c.store }

func (c *Client) Events() *eventlog.Log { return c.events }

func (c *Client) Links() *Links { return c.links }

func (c *Client) State() game.GameState { return c.store.Get() }

// StartGame asks the server for a new game with these players, on this
// client's board.
func (c *Client) StartGame(players []comms.NewPlayer) error {
	env, err := comms.StartGameCommand(players, c.topology.Size())
	if err != nil {
		return err
	}
	c.conn.Send(env)
	return nil
}

// RollDice reports a roll for whoever's turn it is.
func (c *Client) RollDice(value int) error {
	if value < 1 || value > 6 {
		return game.ErrBadRequest
	}
	env, err := comms.DiceRolledCommand(c.store.Get().CurrentPlayer, value)
	if err != nil {
		return err
	}
	c.conn.Send(env)
	return nil
}

// EndTurn ends the turn of whoever's turn it is.
func (c *Client) EndTurn() error {
	env, err := comms.EndTurnCommand(c.store.Get().CurrentPlayer)
	if err != nil {
		return err
	}
	c.conn.Send(env)
	return nil
}

// RequestState asks the server for a full game_state.
func (c *Client) RequestState() {
	c.conn.Send(comms.GetStateCommand())
}

// Reset forgets the local game. The server is not told. It runs in turn with
// inbound envelopes, so a half-applied envelope never sees the reset state.
func (c *Client) Reset() {
	if !c.conn.Do(c.reset) {
		c.reset()
	}
}

func (c *Client) reset() {
	c.store.Reset()
	c.events.Reset()
	c.events.Infof("Game reset")
}

func (c *Client) onStatus(tr Transition) {
	c.links.SetTransport(tr.To == Connected)

	switch tr.To {
	case Connecting:
		if tr.Retry {
			c.events.Infof("Retrying connection...")
		} else {
			c.events.Infof("Connecting to %s...", c.endpoint)
		}
	case Connected:
		c.events.Successf("Connected to server")
	case Disconnected:
		switch {
		case tr.Err == nil:
			c.events.Infof("Connection closed")
		case tr.From == Connecting:
			c.events.Errorf("Could not connect to server: %v", errors.Unwrap(tr.Err))
		default:
			c.events.Warnf("Disconnected from server")
		}
	}
}

func (c *Client) onSendFailed(env comms.Envelope, err error) {
	if errors.Is(err, game.ErrNotConnected) {
		c.events.Errorf("Cannot send %s: not connected", env.Event)
		return
	}
	c.events.Errorf("Failed to send %s: %v", env.Event, err)
}

func (c *Client) onBadMessage(err error) {
	c.events.Errorf("Unreadable message from server: %v", err)
}
