package client

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/undeconstructed/ladders/comms"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
	"github.com/undeconstructed/ladders/metrics"
)

// HandlerFunc applies one inbound envelope. Returning an error means nothing
// was changed.
type HandlerFunc func(comms.Envelope) error

// Dispatcher routes inbound envelopes by event tag to the state, the event log
// and the link flags.
type Dispatcher struct {
	store    *game.Store
	events   *eventlog.Log
	links    *Links
	log      zerolog.Logger
	handlers map[string]HandlerFunc
}

func NewDispatcher(store *game.Store, events *eventlog.Log, links *Links, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		store:  store,
		events: events,
		links:  links,
		log:    log,
	}
	d.handlers = map[string]HandlerFunc{
		comms.EvGameState:              d.onGameState,
		comms.EvGameStarted:            d.onGameStarted,
		comms.EvPlayerMoved:            d.onPlayerMoved,
		comms.EvTurnChanged:            d.onTurnChanged,
		comms.EvPlayerWon:              d.onPlayerWon,
		comms.EvPeripheralConnected:    d.onPeripheralConnected,
		comms.EvPeripheralDisconnected: d.onPeripheralDisconnected,
		comms.EvESP32Connected:         d.onPeripheralConnected,
		comms.EvESP32Disconnected:      d.onPeripheralDisconnected,
	}
	return d
}

// Handle adds or replaces the handler for a tag.
func (d *Dispatcher) Handle(event string, h HandlerFunc) {
	d.handlers[event] = h
}

// Dispatch applies one envelope. Nothing escapes from here: a bad envelope
// becomes one error entry in the event log and the state is left alone.
func (d *Dispatcher) Dispatch(env comms.Envelope) {
	h, ok := d.handlers[env.Event]
	if !ok {
		d.log.Debug().Str("event", env.Event).Msg("ignoring unknown event")
		metrics.RecordReceived(env.Event, metrics.Ignored, false)
		return
	}

	if err := h(env); err != nil {
		perr := &ProtocolError{Event: env.Event, Err: err}
		d.events.Errorf("%v", perr)
		metrics.RecordReceived(env.Event, metrics.Rejected, true)
		return
	}
	metrics.RecordReceived(env.Event, metrics.Applied, true)
}

func (d *Dispatcher) onGameState(env comms.Envelope) error {
	s, err := comms.DecodeState(env)
	if err != nil {
		return err
	}
	d.store.Set(s)
	d.events.Infof("Game state updated")
	return nil
}

func (d *Dispatcher) onGameStarted(env comms.Envelope) error {
	s, err := comms.DecodeState(env)
	if err != nil {
		return err
	}
	d.store.Set(s)
	d.events.Successf("Game started with %d players, let the fun begin", len(s.Players))
	return nil
}

// known checks that id is a player of the game as it stands.
func known(s game.GameState, id game.PlayerID) error {
	if _, ok := s.Players[id]; !ok {
		return fmt.Errorf("%w: %d", game.ErrUnknownPlayer, id)
	}
	return nil
}

func (d *Dispatcher) onPlayerMoved(env comms.Envelope) error {
	var m comms.PlayerMoved
	if err := comms.Decode(env, &m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	prev := d.store.Get()
	id := *m.PlayerID
	if err := known(prev, id); err != nil {
		return err
	}
	if pos := *m.NewPosition; pos < 0 || pos > prev.BoardSize {
		return fmt.Errorf("%w: new_position %d outside 0..%d", game.ErrBadRequest, pos, prev.BoardSize)
	}
	if m.DiceValue != nil && (*m.DiceValue < 0 || *m.DiceValue > 6) {
		return fmt.Errorf("%w: dice_value %d", game.ErrBadRequest, *m.DiceValue)
	}

	patch := game.StatePatch{
		Players: map[game.PlayerID]game.PlayerPatch{
			id: {Position: m.NewPosition, Moves: m.TotalMoves},
		},
		DiceValue: m.DiceValue,
	}
	d.store.Merge(patch)

	name := m.PlayerName
	if name == "" {
		name = prev.NameOf(id)
	}
	from, to := m.OldPosition, *m.NewPosition

	switch m.EventType {
	case comms.MoveSnake:
		d.events.Warnf("%s went down a snake! %d → %d", name, from, to)
	case comms.MoveLadder:
		d.events.Successf("%s climbed a ladder! %d → %d", name, from, to)
	case comms.MoveBounceBack:
		d.events.Infof("%s bounced back off the end! %d → %d", name, from, to)
	default:
		if m.DiceValue != nil {
			d.events.Infof("%s moved %d → %d (rolled %d)", name, from, to, *m.DiceValue)
		} else {
			d.events.Infof("%s moved %d → %d", name, from, to)
		}
	}
	return nil
}

func (d *Dispatcher) onTurnChanged(env comms.Envelope) error {
	var m comms.TurnChanged
	if err := comms.Decode(env, &m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	prev := d.store.Get()
	id := *m.CurrentPlayer
	if err := known(prev, id); err != nil {
		return err
	}

	d.store.Merge(game.StatePatch{
		CurrentPlayer: m.CurrentPlayer,
		TurnNumber:    m.TurnNumber,
		DiceValue:     game.IntP(0),
	})
	// named after whoever held the turn before this message
	d.events.Infof("Turn of %s", prev.NameOf(prev.CurrentPlayer))
	return nil
}

func (d *Dispatcher) onPlayerWon(env comms.Envelope) error {
	var m comms.PlayerWon
	if err := comms.Decode(env, &m); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	prev := d.store.Get()
	id := *m.PlayerID
	if err := known(prev, id); err != nil {
		return err
	}

	name := m.PlayerName
	if name == "" {
		name = prev.NameOf(id)
	}

	if prev.Winner != nil {
		if *prev.Winner != id {
			d.events.Warnf("Ignoring win for %s: %v (%s)", name, game.ErrAlreadyWon, prev.NameOf(*prev.Winner))
		}
		return nil
	}

	d.store.Merge(game.StatePatch{Winner: m.PlayerID})

	moves := prev.Players[id].Moves
	if m.TotalMoves != nil {
		moves = *m.TotalMoves
	}
	d.events.Successf("%s has won the game in %d moves!", name, moves)
	return nil
}

func (d *Dispatcher) onPeripheralConnected(env comms.Envelope) error {
	d.links.SetPeripheral(true)
	d.events.Successf("Dice board connected")
	return nil
}

func (d *Dispatcher) onPeripheralDisconnected(env comms.Envelope) error {
	d.links.SetPeripheral(false)
	d.events.Warnf("Dice board disconnected")
	return nil
}
