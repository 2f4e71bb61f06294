package comms

import (
	"encoding/json"
	"fmt"

	"github.com/undeconstructed/ladders/game"
)

// inbound event tags
const (
	EvGameState              = "game_state"
	EvGameStarted            = "game_started"
	EvPlayerMoved            = "player_moved"
	EvTurnChanged            = "turn_changed"
	EvPlayerWon              = "player_won"
	EvPeripheralConnected    = "peripheral_connected"
	EvPeripheralDisconnected = "peripheral_disconnected"

	// names used by older servers for the dice board
	EvESP32Connected    = "esp32_connected"
	EvESP32Disconnected = "esp32_disconnected"
)

// MoveKind says why a piece ended up where it did.
type MoveKind string

const (
	MoveNormal     MoveKind = "normal"
	MoveSnake      MoveKind = "snake"
	MoveLadder     MoveKind = "ladder"
	MoveBounceBack MoveKind = "bounce_back"
)

func missing(field string) error {
	return fmt.Errorf("%w: %s", game.ErrMissingField, field)
}

// DecodeState reads the data of game_state and game_started. players and
// board_size must be present.
func DecodeState(e Envelope) (game.GameState, error) {
	var keys map[string]json.RawMessage
	if err := Decode(e, &keys); err != nil {
		return game.GameState{}, err
	}
	for _, k := range []string{"players", "board_size"} {
		if v, ok := keys[k]; !ok || string(v) == "null" {
			return game.GameState{}, missing(k)
		}
	}

	var s game.GameState
	if err := Decode(e, &s); err != nil {
		return game.GameState{}, err
	}
	if s.Players == nil {
		s.Players = map[game.PlayerID]game.Player{}
	}
	// the key is the truth
	for id, p := range s.Players {
		p.ID = id
		s.Players[id] = p
	}
	return s, nil
}

type PlayerMoved struct {
	PlayerID    *game.PlayerID `json:"player_id"`
	PlayerName  string         `json:"player_name"`
	OldPosition int            `json:"old_position"`
	NewPosition *int           `json:"new_position"`
	DiceValue   *int           `json:"dice_value"`
	EventType   MoveKind       `json:"event_type"`
	TotalMoves  *int           `json:"total_moves"`
}

func (m PlayerMoved) Validate() error {
	if m.PlayerID == nil {
		return missing("player_id")
	}
	if m.NewPosition == nil {
		return missing("new_position")
	}
	return nil
}

type TurnChanged struct {
	CurrentPlayer *game.PlayerID `json:"current_player"`
	TurnNumber    *int           `json:"turn_number"`
}

func (m TurnChanged) Validate() error {
	if m.CurrentPlayer == nil {
		return missing("current_player")
	}
	if m.TurnNumber == nil {
		return missing("turn_number")
	}
	return nil
}

type PlayerWon struct {
	PlayerID   *game.PlayerID `json:"player_id"`
	PlayerName string         `json:"player_name"`
	TotalMoves *int           `json:"total_moves"`
}

func (m PlayerWon) Validate() error {
	if m.PlayerID == nil {
		return missing("player_id")
	}
	return nil
}
