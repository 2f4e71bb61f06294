package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/undeconstructed/ladders/board"
	"github.com/undeconstructed/ladders/client"
	"github.com/undeconstructed/ladders/eventlog"
	"github.com/undeconstructed/ladders/game"
)

const (
	RED     = "[31m"
	GREEN   = "[32m"
	YELLOW  = "[33m"
	BLUE    = "[34m"
	MAGENTA = "[35m"
	CYAN    = "[36m"
	WHITE   = "[37m"
	RESET   = "[0m"
)

// palette is handed out to players started without a colour.
var palette = []string{"red", "blue", "green", "yellow", "purple", "cyan"}

func col(s string) string {
	switch strings.ToLower(s) {
	case "red":
		return RED
	case "green":
		return GREEN
	case "yellow":
		return YELLOW
	case "blue":
		return BLUE
	case "purple":
		return MAGENTA
	case "cyan":
		return CYAN
	case "white":
		return WHITE
	default:
		return RESET
	}
}

func paint(colour, s string) string {
	return "\033" + col(colour) + s + "\033" + RESET
}

func typeCol(t eventlog.Type) string {
	switch t {
	case eventlog.Success:
		return "green"
	case eventlog.Warning:
		return "yellow"
	case eventlog.Error:
		return "red"
	default:
		return ""
	}
}

func printEntry(w io.Writer, e eventlog.Entry) {
	fmt.Fprintf(w, "> %s %s\n", e.Timestamp.Format("15:04:05"), paint(typeCol(e.Type), e.Message))
}

// printLog prints oldest first, the way a terminal reads.
func printLog(w io.Writer, es []eventlog.Entry) {
	for i := len(es) - 1; i >= 0; i-- {
		printEntry(w, es[i])
	}
}

func printState(w io.Writer, s game.GameState) {
	started := "not started"
	if s.GameStarted {
		started = "started"
	}
	fmt.Fprintf(w, "Game:    %s, board %d\n", started, s.BoardSize)
	fmt.Fprintf(w, "Turn:    %d\n", s.TurnNumber)
	if len(s.Players) > 0 {
		fmt.Fprintf(w, "Playing: %s\n", s.NameOf(s.CurrentPlayer))
	}
	fmt.Fprintf(w, "Dice:    %d\n", s.DiceValue)
	if s.Winner != nil {
		fmt.Fprintf(w, "Winner:  %s\n", s.NameOf(*s.Winner))
	}
}

func printPlayers(w io.Writer, s game.GameState) {
	if len(s.Players) == 0 {
		fmt.Fprintf(w, "no players\n")
		return
	}
	for _, id := range s.PlayerIDs() {
		p := s.Players[id]
		mark := " "
		if id == s.CurrentPlayer {
			mark = "*"
		}
		fmt.Fprintf(w, "%s %d %s  square %d, %d moves\n", mark, id, paint(p.Color, p.DisplayName()), p.Position, p.Moves)
	}
}

func printStatus(w io.Writer, endpoint string, st client.Status, links client.ConnectionStatus) {
	onOff := func(b bool) string {
		if b {
			return paint("green", "up")
		}
		return paint("red", "down")
	}
	fmt.Fprintf(w, "Server:    %s (%s)\n", endpoint, st)
	fmt.Fprintf(w, "Transport: %s\n", onOff(links.Transport))
	fmt.Fprintf(w, "Dice board: %s\n", onOff(links.Peripheral))
}

func initial(p game.Player) string {
	name := p.DisplayName()
	return strings.ToUpper(name[:1])
}

// printBoard draws the grid top row first. Each cell shows its number, ^ for
// a ladder foot or v for a snake head, and the initials of up to two players.
func printBoard(w io.Writer, b *board.Topology, s game.GameState) {
	for _, row := range b.Rows() {
		var sb strings.Builder
		for _, cell := range row {
			mark := " "
			switch b.Classify(cell).Direction {
			case board.Ascend:
				mark = "^"
			case board.Descend:
				mark = "v"
			}
			fmt.Fprintf(&sb, "%4d%s", cell, mark)

			shown := 0
			for _, p := range board.OccupantsOf(s.Players, cell) {
				if shown == 2 {
					break
				}
				sb.WriteString(paint(p.Color, initial(p)))
				shown++
			}
			sb.WriteString(strings.Repeat(" ", 2-shown))
		}
		fmt.Fprintln(w, sb.String())
	}

	var waiting []string
	for _, p := range board.OccupantsOf(s.Players, 0) {
		waiting = append(waiting, paint(p.Color, p.DisplayName()))
	}
	if len(waiting) > 0 {
		fmt.Fprintf(w, "not yet on the board: %s\n", strings.Join(waiting, ", "))
	}
	fmt.Fprintf(w, "^ ladder  v snake\n")
}
