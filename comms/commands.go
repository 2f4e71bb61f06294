package comms

import "github.com/undeconstructed/ladders/game"

// outbound event tags
const (
	CmdGetState   = "get_state"
	CmdStartGame  = "start_game"
	CmdDiceRolled = "dice_rolled"
	CmdEndTurn    = "end_turn"
)

// NewPlayer is one entry of a start_game command.
type NewPlayer struct {
	ID    game.PlayerID `json:"id"`
	Name  string        `json:"name"`
	Color string        `json:"color"`
}

type StartGame struct {
	Players   []NewPlayer `json:"players"`
	BoardSize int         `json:"board_size"`
}

type DiceRolled struct {
	PlayerID game.PlayerID `json:"player_id"`
	Value    int           `json:"value"`
}

type EndTurn struct {
	PlayerID game.PlayerID `json:"player_id"`
}

// GetStateCommand asks the remote for a full game_state.
func GetStateCommand() Envelope {
	return Envelope{Event: CmdGetState, Data: []byte("{}")}
}

// StartGameCommand asks the remote to start over with these players. The list
// is sent as given.
func StartGameCommand(players []NewPlayer, boardSize int) (Envelope, error) {
	if players == nil {
		players = []NewPlayer{}
	}
	return Encode(CmdStartGame, StartGame{Players: players, BoardSize: boardSize})
}

func DiceRolledCommand(player game.PlayerID, value int) (Envelope, error) {
	return Encode(CmdDiceRolled, DiceRolled{PlayerID: player, Value: value})
}

func EndTurnCommand(player game.PlayerID) (Envelope, error) {
	return Encode(CmdEndTurn, EndTurn{PlayerID: player})
}
