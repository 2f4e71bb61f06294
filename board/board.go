// Package board is the geometry of a snakes and ladders board: how cells are
// numbered on the grid, and which cells send a piece somewhere else.
package board

import (
	"fmt"
	"math"
	"sort"

	"github.com/undeconstructed/ladders/game"
)

// ConfigurationError means the board could never be built as described.
type ConfigurationError struct {
	Size   int
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("board of size %d: %s", e.Size, e.Reason)
}

// Direction of a shortcut.
type Direction int

const (
	Normal Direction = iota
	Ascend
	Descend
)

func (d Direction) String() string {
	switch d {
	case Ascend:
		return "ascend"
	case Descend:
		return "descend"
	default:
		return "normal"
	}
}

// Shortcut is what happens to a piece that lands on a cell.
type Shortcut struct {
	Direction Direction
	Target    int
}

// Coord is a place on the grid. Row 0 is the top row as displayed.
type Coord struct {
	Row int
	Col int
}

// Topology is immutable once built.
type Topology struct {
	size      int
	side      int
	rows      [][]int
	coords    map[int]Coord
	shortcuts map[int]int
}

// DefaultShortcuts is the table of the standard 100 cell board. Keys are
// source cells, values where the piece ends up.
func DefaultShortcuts() map[int]int {
	return map[int]int{
		// snakes
		16: 6, 47: 26, 49: 11, 56: 53, 62: 19,
		64: 60, 87: 24, 93: 73, 95: 75, 98: 78,
		// ladders
		1: 38, 4: 14, 9: 31, 21: 42, 28: 84,
		36: 44, 51: 67, 71: 91, 80: 100,
	}
}

// New lays out a board of size cells. size must be a perfect square, and the
// shortcut table must stay on the board and never chain.
func New(size int, shortcuts map[int]int) (*Topology, error) {
	side, ok := squareSide(size)
	if !ok {
		return nil, &ConfigurationError{size, "size is not a positive perfect square"}
	}

	table := map[int]int{}
	for from, to := range shortcuts {
		if from < 1 || from > size || to < 1 || to > size {
			return nil, &ConfigurationError{size, fmt.Sprintf("shortcut %d->%d leaves the board", from, to)}
		}
		if from == to {
			return nil, &ConfigurationError{size, fmt.Sprintf("shortcut %d->%d goes nowhere", from, to)}
		}
		table[from] = to
	}
	for from, to := range table {
		if _, chained := table[to]; chained {
			return nil, &ConfigurationError{size, fmt.Sprintf("shortcut %d->%d lands on another shortcut", from, to)}
		}
	}

	t := &Topology{
		size:      size,
		side:      side,
		coords:    make(map[int]Coord, size),
		shortcuts: table,
	}
	t.layout()
	return t, nil
}

func squareSide(size int) (int, bool) {
	if size <= 0 {
		return 0, false
	}
	side := int(math.Sqrt(float64(size)))
	// float rounding either way
	for side*side > size {
		side--
	}
	for (side+1)*(side+1) <= size {
		side++
	}
	return side, side*side == size
}

// layout numbers the grid as a serpentine: the bottom row runs left to right
// from 1, and each row up turns back the other way.
func (t *Topology) layout() {
	n := t.side
	t.rows = make([][]int, n)
	for r := 0; r < n; r++ {
		level := n - 1 - r // 0 is the bottom row
		row := make([]int, n)
		for c := 0; c < n; c++ {
			var cell int
			if level%2 == 0 {
				cell = level*n + c + 1
			} else {
				cell = level*n + (n - c)
			}
			row[c] = cell
			t.coords[cell] = Coord{r, c}
		}
		t.rows[r] = row
	}
}

// Size is the number of cells.
func (t *Topology) Size() int { return t.size }

// Side is the number of rows, and of cells in each row.
func (t *Topology) Side() int { return t.side }

// Rows returns the grid in display order, top row first.
func (t *Topology) Rows() [][]int {
	out := make([][]int, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]int(nil), r...)
	}
	return out
}

// Locate finds where a cell is drawn.
func (t *Topology) Locate(cell int) (Coord, bool) {
	c, ok := t.coords[cell]
	return c, ok
}

// Classify says what landing on cell does.
func (t *Topology) Classify(cell int) Shortcut {
	to, ok := t.shortcuts[cell]
	switch {
	case !ok:
		return Shortcut{Direction: Normal}
	case to < cell:
		return Shortcut{Direction: Descend, Target: to}
	default:
		return Shortcut{Direction: Ascend, Target: to}
	}
}

// Shortcuts returns a copy of the table.
func (t *Topology) Shortcuts() map[int]int {
	out := make(map[int]int, len(t.shortcuts))
	for k, v := range t.shortcuts {
		out[k] = v
	}
	return out
}

// OccupantsOf lists, in id order, the players standing on cell.
func OccupantsOf(players map[game.PlayerID]game.Player, cell int) []game.Player {
	var out []game.Player
	for _, p := range players {
		if p.Position == cell {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
