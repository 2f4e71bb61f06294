package game

type GameError struct {
	Code string
	Msg  string
}

func (e *GameError) ErrorCode() string { return e.Code }
func (e *GameError) Error() string     { return e.Msg }

var (
	// ErrNotConnected means a command was issued with no live connection
	ErrNotConnected = &GameError{"NOTCONNECTED", "send failed: not connected"}
	// ErrUnknownPlayer is for messages about players that are not in the game
	ErrUnknownPlayer = &GameError{"UNKNOWNPLAYER", "unknown player"}
	// ErrMissingField means an envelope lacked something its event requires
	ErrMissingField = &GameError{"MISSINGFIELD", "missing required field"}
	// ErrAlreadyWon is for attempts to change a decided winner
	ErrAlreadyWon = &GameError{"ALREADYWON", "game already has a winner"}
	// ErrBadRequest is for bad requests
	ErrBadRequest = &GameError{"BADREQUEST", "bad request"}
)

// ReError matches error codes to error objects
func ReError(code, msg string) error {
	switch code {
	case "":
		return nil
	case "NOTCONNECTED":
		return ErrNotConnected
	case "UNKNOWNPLAYER":
		return ErrUnknownPlayer
	case "MISSINGFIELD":
		return ErrMissingField
	case "ALREADYWON":
		return ErrAlreadyWon
	case "BADREQUEST":
		return ErrBadRequest
	default:
		return &GameError{code, msg}
	}
}
