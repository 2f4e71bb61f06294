package game

import (
	"fmt"
	"sort"
)

// DefaultBoardSize is the board used until the remote says otherwise.
const DefaultBoardSize = 100

// PlayerID identifies a player for the whole of a game.
type PlayerID int

func (id PlayerID) String() string {
	return fmt.Sprintf("%d", int(id))
}

// Player is one piece on the board.
type Player struct {
	ID       PlayerID `json:"id"`
	Name     string   `json:"name"`
	Color    string   `json:"color"`
	Position int      `json:"position"`
	Moves    int      `json:"moves"`
}

// DisplayName is the name, or a stand-in when the remote never sent one.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return "player " + p.ID.String()
}

// GameState is the local copy of everything the remote reports.
type GameState struct {
	Players       map[PlayerID]Player `json:"players"`
	CurrentPlayer PlayerID            `json:"current_player"`
	DiceValue     int                 `json:"dice_value"`
	TurnNumber    int                 `json:"turn_number"`
	GameStarted   bool                `json:"game_started"`
	Winner        *PlayerID           `json:"winner"`
	BoardSize     int                 `json:"board_size"`
}

// EmptyState is the state before anything has been heard from the remote.
func EmptyState() GameState {
	return GameState{
		Players:       map[PlayerID]Player{},
		CurrentPlayer: 1,
		BoardSize:     DefaultBoardSize,
	}
}

// Copy returns a deep copy, sharing nothing with s.
func (s GameState) Copy() GameState {
	out := s
	out.Players = make(map[PlayerID]Player, len(s.Players))
	for id, p := range s.Players {
		out.Players[id] = p
	}
	if s.Winner != nil {
		w := *s.Winner
		out.Winner = &w
	}
	return out
}

// PlayerIDs lists the players in id order.
func (s GameState) PlayerIDs() []PlayerID {
	ids := make([]PlayerID, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NameOf finds a display name for id, falling back to "player N".
func (s GameState) NameOf(id PlayerID) string {
	if p, ok := s.Players[id]; ok {
		return p.DisplayName()
	}
	return "player " + id.String()
}

// HasWinner is true once the game has been won.
func (s GameState) HasWinner() bool {
	return s.Winner != nil
}

// PlayerPatch names the fields of one player to change. Nil means untouched.
type PlayerPatch struct {
	Name     *string
	Color    *string
	Position *int
	Moves    *int
}

// StatePatch is a partial update for Store.Merge. Nil fields, and players not
// named in Players, are left exactly as they are.
type StatePatch struct {
	Players       map[PlayerID]PlayerPatch
	CurrentPlayer *PlayerID
	DiceValue     *int
	TurnNumber    *int
	GameStarted   *bool
	Winner        *PlayerID
	BoardSize     *int
}

// IntP and friends make building patches less noisy.
func IntP(v int) *int { return &v }

func StringP(v string) *string { return &v }

func BoolP(v bool) *bool { return &v }

func PlayerP(v PlayerID) *PlayerID { return &v }

// apply merges p into s in place. The winner, once set, is never replaced.
func (p StatePatch) apply(s *GameState) {
	for id, pp := range p.Players {
		pl, ok := s.Players[id]
		if !ok {
			pl = Player{ID: id}
		}
		if pp.Name != nil {
			pl.Name = *pp.Name
		}
		if pp.Color != nil {
			pl.Color = *pp.Color
		}
		if pp.Position != nil {
			pl.Position = *pp.Position
		}
		if pp.Moves != nil {
			pl.Moves = *pp.Moves
		}
		s.Players[id] = pl
	}
	if p.CurrentPlayer != nil {
		s.CurrentPlayer = *p.CurrentPlayer
	}
	if p.DiceValue != nil {
		s.DiceValue = *p.DiceValue
	}
	if p.TurnNumber != nil {
		s.TurnNumber = *p.TurnNumber
	}
	if p.GameStarted != nil {
		s.GameStarted = *p.GameStarted
	}
	if p.Winner != nil && s.Winner == nil {
		w := *p.Winner
		s.Winner = &w
	}
	if p.BoardSize != nil {
		s.BoardSize = *p.BoardSize
	}
}
